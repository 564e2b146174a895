package quota

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/pagemend/pagemend/internal/store"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type failingStore struct{}

func (failingStore) Get(string) ([]byte, bool, error) { return nil, false, fmt.Errorf("disk gone") }
func (failingStore) Set(string, []byte) error         { return fmt.Errorf("disk gone") }
func (failingStore) Delete(string) error              { return fmt.Errorf("disk gone") }

func newTracker(t *testing.T, limit, buffer int) *Tracker {
	t.Helper()
	return New(store.NewFileStore(t.TempDir()), limit, buffer, discard())
}

func TestTracker_ConsumeAndCheck(t *testing.T) {
	tr := newTracker(t, 10, 2)

	allowed, remaining := tr.CheckBudget()
	if !allowed || remaining != 10 {
		t.Fatalf("fresh budget: allowed=%v remaining=%d", allowed, remaining)
	}

	st := tr.Consume(3)
	if st.Used != 3 || st.Remaining != 7 {
		t.Errorf("after consume(3): %+v", st)
	}

	// Drain until remaining hits the buffer boundary
	tr.Consume(5) // used 8, remaining 2 == buffer -> still allowed
	allowed, remaining = tr.CheckBudget()
	if !allowed || remaining != 2 {
		t.Errorf("at buffer: allowed=%v remaining=%d", allowed, remaining)
	}

	tr.Consume(1) // remaining 1 < buffer -> not allowed
	allowed, remaining = tr.CheckBudget()
	if allowed {
		t.Errorf("below buffer: allowed=%v remaining=%d", allowed, remaining)
	}
}

func TestTracker_NeverExceedsLimit(t *testing.T) {
	tr := newTracker(t, 5, 0)
	st := tr.Consume(50)
	if st.Used != 5 || st.Remaining != 0 {
		t.Errorf("counter must clamp at limit: %+v", st)
	}
	if allowed, _ := tr.CheckBudget(); allowed {
		t.Error("exhausted budget must not be allowed")
	}
}

func TestTracker_DateRolloverResets(t *testing.T) {
	tr := newTracker(t, 10, 2)

	day := time.Date(2026, 8, 29, 23, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return day }

	tr.Consume(10)
	if allowed, _ := tr.CheckBudget(); allowed {
		t.Fatal("day N budget should be exhausted")
	}

	// First access on day N+1 sees a full budget again
	tr.now = func() time.Time { return day.Add(2 * time.Hour) }
	allowed, remaining := tr.CheckBudget()
	if !allowed || remaining != 10 {
		t.Errorf("day N+1: allowed=%v remaining=%d", allowed, remaining)
	}
	if st := tr.State(); st.Used != 0 {
		t.Errorf("used count must reset on rollover, got %d", st.Used)
	}
}

func TestTracker_FailsOpenOnStoreErrors(t *testing.T) {
	tr := New(failingStore{}, 10, 2, discard())

	allowed, remaining := tr.CheckBudget()
	if !allowed || remaining != 10 {
		t.Errorf("store errors must fail open: allowed=%v remaining=%d", allowed, remaining)
	}

	// Consume still returns a coherent state even when the write fails
	st := tr.Consume(1)
	if st.Used != 1 {
		t.Errorf("unexpected state on failing store: %+v", st)
	}
}
