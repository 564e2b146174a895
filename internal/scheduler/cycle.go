package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pagemend/pagemend/internal/cms"
	"github.com/pagemend/pagemend/internal/llm"
	"github.com/pagemend/pagemend/internal/model"
	"github.com/pagemend/pagemend/internal/quality"
	"github.com/pagemend/pagemend/internal/queue"
	"github.com/pagemend/pagemend/internal/store"
	"github.com/pagemend/pagemend/internal/urlutil"
	"github.com/pagemend/pagemend/internal/worker"
)

// runCycle executes one full scheduling pass. The returned count is the
// number of targets processed; zero means the loop should take the long
// idle sleep.
func (s *Scheduler) runCycle(ctx context.Context) (processed int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()

	s.maybeDiscover(ctx)

	if allowed, remaining := s.deps.Quota.CheckBudget(); !allowed {
		s.log.Warn("verification quota exhausted, sleeping until rollover",
			slog.Int("remaining", remaining))
		return 0, nil
	}

	items := s.prioritizedTargets(ctx)
	q := queue.New()
	q.EnqueueMany(items)
	s.log.Info("cycle start", slog.Int("candidates", q.Size()))

	for {
		if s.stopping(ctx) {
			return processed, nil
		}

		batch := dequeueBatch(q, s.cfg.Concurrency)
		if len(batch) == 0 {
			break
		}

		tasks := make([]worker.Task, len(batch))
		for i, item := range batch {
			tasks[i] = &targetTask{s: s, item: item}
		}
		for _, res := range s.pool.Run(ctx, tasks) {
			tr, ok := res.(*targetResult)
			if !ok || tr == nil {
				continue // cancelled before the task ran
			}
			s.record(tr.outcome)
			processed++
			s.log.Info("target processed",
				slog.String("url", tr.outcome.URL),
				slog.Bool("success", tr.outcome.Success),
				slog.Int("score_before", tr.outcome.ScoreBefore),
				slog.Int("score_after", tr.outcome.ScoreAfter),
				slog.Duration("took", tr.outcome.Duration))
		}

		if q.Size() > 0 {
			s.pause(ctx, s.cfg.TargetDelay)
		}
	}

	s.saveTargets()
	s.log.Info("cycle complete", slog.Int("processed", processed))
	return processed, nil
}

func dequeueBatch(q *queue.Queue, n int) []queue.Item {
	var batch []queue.Item
	for len(batch) < n {
		item, ok := q.Dequeue()
		if !ok {
			break
		}
		batch = append(batch, item)
	}
	return batch
}

// maybeDiscover refreshes the candidate set from the sitemap source at the
// configured interval. New URLs enter the monitored set at the medium tier
// until first scored.
func (s *Scheduler) maybeDiscover(ctx context.Context) {
	if s.deps.Discoverer == nil {
		return
	}

	s.mu.Lock()
	due := s.lastDiscovery.IsZero() || s.now().Sub(s.lastDiscovery) >= s.cfg.DiscoveryInterval
	s.mu.Unlock()
	if !due {
		return
	}

	urls, err := s.deps.Discoverer.Discover(ctx, s.site)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDiscovery = s.now()
	if err != nil {
		s.log.Warn("discovery failed", slog.Any("err", err))
		return
	}

	added := 0
	for _, u := range urls {
		if _, ok := s.targets[u]; ok {
			continue
		}
		s.targets[u] = &model.Target{URL: u, Status: model.StatusMedium}
		added++
	}
	s.log.Info("discovery complete", slog.Int("found", len(urls)), slog.Int("new", added))
}

// prioritizedTargets merges pinned and discovered targets, applies the
// cooldown and unchanged-content filters, and returns the queue items for
// this cycle. Pinned targets come first in operator order.
func (s *Scheduler) prioritizedTargets(ctx context.Context) []queue.Item {
	now := s.now()
	pinned := s.pinnedList()

	s.mu.Lock()
	pinnedSet := make(map[string]bool, len(pinned))
	for _, u := range pinned {
		pinnedSet[u] = true
		if _, ok := s.targets[u]; !ok {
			s.targets[u] = &model.Target{URL: u, Status: model.StatusMedium}
		}
	}
	candidates := make([]model.Target, 0, len(s.targets))
	for _, t := range s.targets {
		t.Pinned = pinnedSet[t.URL]
		candidates = append(candidates, *t)
	}
	s.mu.Unlock()

	byURL := make(map[string]model.Target, len(candidates))
	for _, t := range candidates {
		byURL[t.URL] = t
	}

	var items []queue.Item

	// Pinned first, preserving the operator's order.
	for _, u := range pinned {
		t, ok := byURL[u]
		if !ok || !s.eligible(ctx, t, now) {
			continue
		}
		items = append(items, queue.Item{URL: t.URL, Title: t.Title, Status: t.Status, Pinned: true})
	}

	rest := candidates[:0]
	for _, t := range candidates {
		if !t.Pinned {
			rest = append(rest, t)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].URL < rest[j].URL })
	for _, t := range rest {
		if !s.eligible(ctx, t, now) {
			continue
		}
		items = append(items, queue.Item{URL: t.URL, Title: t.Title, Status: t.Status})
	}
	return items
}

// eligible applies the per-target filters: cooldown window (short for
// pinned, long for discovered), then for non-pinned targets an
// unchanged-content probe. A page whose live Last-Modified predates its
// last-processed marker has nothing new to refresh, so it is skipped even
// past cooldown to avoid redundant API spend. Pinned targets are exempt
// from the unchanged skip: they carry explicit operator intent.
func (s *Scheduler) eligible(ctx context.Context, t model.Target, now time.Time) bool {
	cooldown := s.cfg.DiscoveredCooldown
	if t.Pinned {
		cooldown = s.cfg.PinnedCooldown
	}

	last := s.lastProcessed(t.URL)
	if last.IsZero() {
		return true
	}
	if now.Sub(last) < cooldown {
		return false
	}
	if t.Pinned || s.deps.Fetcher == nil {
		return true
	}

	lm, err := s.deps.Fetcher.Probe(ctx, t.URL)
	if err != nil || lm.IsZero() {
		return true // cannot tell, assume changed
	}
	return lm.After(last)
}

func (s *Scheduler) lastProcessed(url string) time.Time {
	var ts time.Time
	if _, err := store.GetJSON(s.deps.Store, store.KeyLastProcessedPrefix+url, &ts); err != nil {
		s.log.Warn("last-processed marker unreadable", slog.String("url", url), slog.Any("err", err))
		return time.Time{}
	}
	return ts
}

func (s *Scheduler) markProcessed(url string) {
	if err := store.SetJSON(s.deps.Store, store.KeyLastProcessedPrefix+url, s.now()); err != nil {
		s.log.Warn("persist last-processed marker failed", slog.String("url", url), slog.Any("err", err))
	}
}

type targetTask struct {
	s    *Scheduler
	item queue.Item
}

type targetResult struct {
	outcome model.Outcome
}

func (r *targetResult) Err() error {
	if r.outcome.Success {
		return nil
	}
	return fmt.Errorf("target %s failed: %v", r.outcome.URL, r.outcome.Errors)
}

func (t *targetTask) Execute(ctx context.Context) worker.Result {
	return &targetResult{outcome: t.s.processTarget(ctx, t.item)}
}

// processTarget runs one target through the full pipeline: fetch, score,
// rewrite if below threshold, gate the rewrite, publish.
func (s *Scheduler) processTarget(ctx context.Context, item queue.Item) model.Outcome {
	started := s.now()
	out := model.Outcome{ID: uuid.NewString(), URL: item.URL}

	finish := func(success bool) model.Outcome {
		out.Success = success
		out.Duration = s.now().Sub(started)
		out.FinishedAt = s.now()
		if success {
			s.markProcessed(item.URL)
		}
		return out
	}
	fail := func(err error) model.Outcome {
		out.Errors = append(out.Errors, err.Error())
		return finish(false)
	}

	if err := s.wait(ctx, "fetch"); err != nil {
		return fail(err)
	}
	res, err := s.deps.Fetcher.Fetch(ctx, item.URL)
	if err != nil {
		return fail(fmt.Errorf("fetch: %w", err))
	}

	topic := item.Title
	if topic == "" {
		topic = item.URL
	}
	var lastUpdated *time.Time
	if !res.LastModified.IsZero() {
		lm := res.LastModified
		lastUpdated = &lm
	}

	eval := s.deps.Evaluator.Evaluate(ctx, res.Content, topic, lastUpdated, item.URL)
	out.ScoreBefore = eval.FinalScore
	out.ScoreAfter = eval.FinalScore
	s.updateTarget(item.URL, eval, res.LastModified)

	if eval.FinalScore >= s.cfg.RewriteThreshold && len(eval.Blockers) == 0 {
		out.Changes = append(out.Changes, "no refresh needed")
		return finish(true)
	}

	notes := make([]string, 0, len(eval.Blockers)+len(eval.Warnings))
	notes = append(notes, eval.Blockers...)
	notes = append(notes, eval.Warnings...)

	rewrite, err := s.deps.Generator.Rewrite(ctx, llm.RewriteRequest{
		URL:     item.URL,
		Title:   item.Title,
		Content: res.Content,
		Notes:   notes,
	})
	if err != nil {
		return fail(fmt.Errorf("rewrite: %w", err))
	}
	out.Changes = append(out.Changes, fmt.Sprintf("rewrite proposed by %s (%d tokens)",
		s.deps.Generator.Name(), rewrite.TokensUsed))

	// Gate the rewrite exactly like original content: a refresh that cannot
	// clear the publish floor stays unpublished and the target is retried
	// on a later cycle.
	freshAt := s.now()
	after := s.deps.Evaluator.Evaluate(ctx, rewrite.Content, topic, &freshAt, item.URL)
	out.ScoreAfter = after.FinalScore
	if !after.CanPublish {
		out.Errors = append(out.Errors, "rewrite failed quality gate")
		out.Errors = append(out.Errors, after.Blockers...)
		return finish(false)
	}

	if s.deps.Publisher == nil {
		out.Changes = append(out.Changes, "no cms configured, rewrite not published")
		s.updateTarget(item.URL, after, freshAt)
		return finish(true)
	}

	if err := s.wait(ctx, "cms"); err != nil {
		return fail(err)
	}
	slug := urlutil.Slug(item.URL)
	id, err := s.deps.Publisher.FindBySlug(ctx, slug)
	if err != nil {
		return fail(fmt.Errorf("cms lookup: %w", err))
	}
	if id == 0 {
		out.Changes = append(out.Changes, "no existing post for slug "+slug+", creating")
	}
	if err := s.deps.Publisher.Publish(ctx, rewrite.Content, cms.Metadata{Slug: slug, Title: item.Title}); err != nil {
		return fail(fmt.Errorf("publish: %w", err))
	}
	out.Changes = append(out.Changes, "published refresh for "+slug)

	s.updateTarget(item.URL, after, freshAt)
	return finish(true)
}

func (s *Scheduler) wait(ctx context.Context, dependency string) error {
	if s.deps.Limiter == nil {
		return nil
	}
	return s.deps.Limiter.Wait(ctx, dependency)
}

// updateTarget folds an evaluation back into the monitored set.
func (s *Scheduler) updateTarget(url string, eval quality.Evaluation, contentUpdated time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.targets[url]
	if !ok {
		t = &model.Target{URL: url}
		s.targets[url] = t
	}
	t.LastChecked = s.now()
	if !contentUpdated.IsZero() {
		t.LastContentUpdate = contentUpdated
	}
	t.QualityScore = eval.FinalScore
	t.FactCheckScore = eval.FactScore
	if eval.Staleness != nil {
		t.StalenessScore = eval.StalenessScore
		t.Status = eval.Staleness.Tier.Status()
	} else if eval.FinalScore >= s.cfg.RewriteThreshold {
		t.Status = model.StatusHealthy
	}
}
