package quality

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/pagemend/pagemend/internal/factcheck"
	"github.com/pagemend/pagemend/internal/quota"
	"github.com/pagemend/pagemend/internal/staleness"
	"github.com/pagemend/pagemend/internal/store"
)

type stubBase struct {
	result BaseResult
	err    error
}

func (s stubBase) Evaluate(context.Context, string, string) (BaseResult, error) {
	return s.result, s.err
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newAggregator(t *testing.T, base BaseScorer) *Aggregator {
	t.Helper()
	tracker := quota.New(store.NewFileStore(t.TempDir()), 100, 5, discard())
	// nil searcher: every claim validates neutrally, claimless content scores 100
	engine := factcheck.New(nil, tracker, nil, 0, discard())
	st := staleness.NewAt(func() time.Time { return time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC) })
	return New(base, engine, st, discard())
}

func TestEvaluate_WeightedCombination(t *testing.T) {
	a := newAggregator(t, stubBase{result: BaseResult{Score: 90}})

	// Claimless prose: fact score 100. Fresh stable content keeps staleness low.
	lastUpdated := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	ev := a.Evaluate(context.Background(), "The fundamentals of tidy prose, revised for 2026.", "writing", &lastUpdated, "https://example.com/prose")

	if ev.BaseScore != 90 || ev.FactScore != 100 {
		t.Fatalf("unexpected component scores: %+v", ev)
	}
	want := int(0.5*90 + 0.3*100 + 0.2*float64(100-ev.StalenessScore) + 0.5) // rounded
	if ev.FinalScore != want {
		t.Errorf("final score %d, want %d (staleness %d)", ev.FinalScore, want, ev.StalenessScore)
	}
}

func TestEvaluate_RenormalizedWithoutTimestamp(t *testing.T) {
	a := newAggregator(t, stubBase{result: BaseResult{Score: 80}})

	ev := a.Evaluate(context.Background(), "Nothing quantitative here.", "topic", nil, "https://example.com/x")

	// 80*0.625 + 100*0.375 = 87.5 -> 88
	if ev.FinalScore != 88 {
		t.Errorf("renormalized final score %d, want 88", ev.FinalScore)
	}
	if ev.StalenessScore != 0 || ev.Staleness != nil {
		t.Errorf("no staleness assessment expected without a timestamp: %+v", ev)
	}
}

func TestEvaluate_PublishGate(t *testing.T) {
	a := newAggregator(t, stubBase{result: BaseResult{Score: 100}})
	ev := a.Evaluate(context.Background(), "Clean claimless copy.", "copy", nil, "u")
	if !ev.CanPublish {
		t.Errorf("expected publishable at score %d with no blockers", ev.FinalScore)
	}

	weak := newAggregator(t, stubBase{result: BaseResult{Score: 40}})
	ev = weak.Evaluate(context.Background(), "Clean claimless copy.", "copy", nil, "u")
	if ev.CanPublish {
		t.Errorf("score %d below 85 must not publish", ev.FinalScore)
	}
}

func TestEvaluate_BlockersAlwaysBlock(t *testing.T) {
	a := newAggregator(t, stubBase{result: BaseResult{Score: 100, Blockers: []string{"missing meta description"}}})

	ev := a.Evaluate(context.Background(), "Perfect but blocked.", "x", nil, "u")
	if ev.CanPublish {
		t.Error("a blocker must prevent publication regardless of score")
	}
	if len(ev.Blockers) != 1 {
		t.Errorf("expected one blocker, got %v", ev.Blockers)
	}
}

func TestEvaluate_BaseScorerFailure(t *testing.T) {
	a := newAggregator(t, stubBase{err: fmt.Errorf("metrics backend down")})

	ev := a.Evaluate(context.Background(), "Some content.", "x", nil, "u")
	if ev.CanPublish {
		t.Error("a failed base check blocks publication")
	}
	if len(ev.Blockers) == 0 {
		t.Error("expected a blocker describing the failure")
	}
}

func TestEvaluate_WarningsDoNotBlock(t *testing.T) {
	a := newAggregator(t, stubBase{result: BaseResult{Score: 100, Warnings: []string{"thin content"}}})

	ev := a.Evaluate(context.Background(), "Short but fine.", "x", nil, "u")
	if len(ev.Warnings) == 0 {
		t.Error("warnings must surface in the evaluation")
	}
	if !ev.CanPublish {
		t.Errorf("warnings alone must not block publication (score %d)", ev.FinalScore)
	}
}
