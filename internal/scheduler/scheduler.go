// Package scheduler runs the autonomous maintenance loop: discover targets,
// rank them by decay tier, refresh the worst ones through the AI generator,
// and publish the results back to the CMS. The loop owns all mutable state;
// collaborators are injected and reached only through interfaces.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pagemend/pagemend/internal/cms"
	"github.com/pagemend/pagemend/internal/fetch"
	"github.com/pagemend/pagemend/internal/llm"
	"github.com/pagemend/pagemend/internal/model"
	"github.com/pagemend/pagemend/internal/quality"
	"github.com/pagemend/pagemend/internal/quota"
	"github.com/pagemend/pagemend/internal/store"
	"github.com/pagemend/pagemend/internal/urlutil"
	"github.com/pagemend/pagemend/internal/worker"
)

// State is the scheduler lifecycle phase
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateSleeping State = "sleeping"
)

var (
	// ErrAlreadyRunning is returned by Run when the loop is active.
	ErrAlreadyRunning = errors.New("scheduler already running")

	// ErrGeneratorRequired is returned by Run when no content generator is
	// configured. The loop refuses to start rather than spin uselessly.
	ErrGeneratorRequired = errors.New("no content generator configured")
)

// ContentFetcher retrieves a page and its modification time.
type ContentFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
	Probe(ctx context.Context, rawURL string) (time.Time, error)
}

// Generator proposes refreshed content for a stale page.
type Generator interface {
	Name() string
	IsAvailable(ctx context.Context) bool
	Rewrite(ctx context.Context, req llm.RewriteRequest) (*llm.RewriteResponse, error)
}

// Publisher writes refreshed content back to the CMS.
type Publisher interface {
	FindBySlug(ctx context.Context, slug string) (int, error)
	Publish(ctx context.Context, content string, meta cms.Metadata) error
}

// Discoverer yields the candidate URL set for the site.
type Discoverer interface {
	Discover(ctx context.Context, rootURL string) ([]string, error)
}

// Evaluator scores content quality.
type Evaluator interface {
	Evaluate(ctx context.Context, content, topic string, lastUpdated *time.Time, url string) quality.Evaluation
}

// Deps are the scheduler's injected collaborators. Generator, Quota and
// Store are required; Publisher, Discoverer and Limiter may be nil.
type Deps struct {
	Fetcher    ContentFetcher
	Generator  Generator
	Publisher  Publisher
	Discoverer Discoverer
	Evaluator  Evaluator
	Quota      *quota.Tracker
	Store      store.Store
	Limiter    *worker.Limiter
	Log        *slog.Logger
}

// Scheduler is the maintenance run loop.
type Scheduler struct {
	site string
	cfg  model.SchedulerConfig
	deps Deps
	pool *worker.Pool
	log  *slog.Logger

	mu            sync.Mutex
	state         State
	stopCh        chan struct{}
	targets       map[string]*model.Target
	history       []model.Outcome
	lastDiscovery time.Time

	now func() time.Time
}

// New creates a scheduler over the given configuration and collaborators.
func New(cfg *model.Config, deps Deps) *Scheduler {
	sc := cfg.Scheduler
	if sc.Concurrency <= 0 {
		sc.Concurrency = 3
	}
	if sc.PinnedCooldown <= 0 {
		sc.PinnedCooldown = time.Hour
	}
	if sc.DiscoveredCooldown <= 0 {
		sc.DiscoveredCooldown = 24 * time.Hour
	}
	if sc.IdleSleep <= 0 {
		sc.IdleSleep = 5 * time.Minute
	}
	if sc.ErrorBackoff <= 0 {
		sc.ErrorBackoff = 10 * time.Second
	}
	if sc.DiscoveryInterval <= 0 {
		sc.DiscoveryInterval = 6 * time.Hour
	}
	if sc.HistorySize <= 0 {
		sc.HistorySize = 100
	}
	if sc.RewriteThreshold <= 0 {
		sc.RewriteThreshold = 85
	}

	return &Scheduler{
		site:    cfg.Site.RootURL,
		cfg:     sc,
		deps:    deps,
		pool:    worker.NewPool(sc.Concurrency),
		log:     deps.Log.With(slog.String("component", "scheduler")),
		state:   StateStopped,
		targets: make(map[string]*model.Target),
		now:     time.Now,
	}
}

// Run executes the maintenance loop until Stop is called or the context is
// cancelled. The scheduler is restartable: after Run returns it may be
// started again.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateStopped {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.state = StateStarting
	s.stopCh = make(chan struct{})
	s.mu.Unlock()
	defer s.setState(StateStopped)

	if s.deps.Generator == nil {
		s.log.Error("refusing to start: no content generator configured")
		return ErrGeneratorRequired
	}
	if !s.deps.Generator.IsAvailable(ctx) {
		s.log.Error("refusing to start: generator unreachable",
			slog.String("generator", s.deps.Generator.Name()))
		return fmt.Errorf("content generator %q is not reachable", s.deps.Generator.Name())
	}

	s.loadTargets()
	s.log.Info("scheduler started",
		slog.String("site", s.site),
		slog.Int("concurrency", s.cfg.Concurrency),
		slog.String("generator", s.deps.Generator.Name()))

	for {
		if s.stopping(ctx) {
			s.log.Info("scheduler stopped")
			return nil
		}

		s.setState(StateRunning)
		processed, err := s.runCycle(ctx)
		switch {
		case err != nil:
			// A single bad cycle must never kill the loop.
			s.log.Error("cycle failed", slog.Any("err", err))
			s.pause(ctx, s.cfg.ErrorBackoff)
		case processed == 0:
			s.setState(StateSleeping)
			s.pause(ctx, s.cfg.IdleSleep)
		default:
			s.setState(StateSleeping)
			s.pause(ctx, s.cfg.TargetDelay)
		}
	}
}

// Stop signals the loop to exit. Work in flight for the current target is
// allowed to finish; the flag is checked at the top of each cycle and
// before each dequeue.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh == nil {
		return
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}

// State returns the current lifecycle phase.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns recent outcomes, newest last.
func (s *Scheduler) History() []model.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Outcome, len(s.history))
	copy(out, s.history)
	return out
}

// Targets returns a snapshot of the monitored target set.
func (s *Scheduler) Targets() []model.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Target, 0, len(s.targets))
	for _, t := range s.targets {
		out = append(out, *t)
	}
	return out
}

// SetPinned replaces the operator's pinned-target list. Order is
// significant: pinned targets are processed in the given order ahead of all
// discovered ones.
func (s *Scheduler) SetPinned(rawURLs []string) error {
	seen := make(map[string]bool)
	normalized := make([]string, 0, len(rawURLs))
	for _, raw := range rawURLs {
		u, err := urlutil.Normalize(raw)
		if err != nil {
			return fmt.Errorf("pin %s: %w", raw, err)
		}
		if !seen[u] {
			seen[u] = true
			normalized = append(normalized, u)
		}
	}

	if err := store.SetJSON(s.deps.Store, store.KeyPinned, normalized); err != nil {
		return fmt.Errorf("persist pinned list: %w", err)
	}
	s.log.Info("pinned list updated", slog.Int("count", len(normalized)))
	return nil
}

func (s *Scheduler) pinnedList() []string {
	var pinned []string
	if _, err := store.GetJSON(s.deps.Store, store.KeyPinned, &pinned); err != nil {
		s.log.Warn("pinned list unreadable", slog.Any("err", err))
		return nil
	}
	return pinned
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Scheduler) stopping(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	s.mu.Lock()
	ch := s.stopCh
	s.mu.Unlock()
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// pause sleeps for d, returning early on stop or context cancellation.
func (s *Scheduler) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	ch := s.stopCh
	s.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-ch:
	case <-timer.C:
	}
}

// record appends an outcome to the bounded history ring.
func (s *Scheduler) record(out model.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, out)
	if len(s.history) > s.cfg.HistorySize {
		s.history = s.history[len(s.history)-s.cfg.HistorySize:]
	}
}

func (s *Scheduler) loadTargets() {
	var saved []model.Target
	if _, err := store.GetJSON(s.deps.Store, store.KeyTargets, &saved); err != nil {
		// Malformed persisted state is logged and skipped, never fatal.
		s.log.Warn("target set unreadable, starting fresh", slog.Any("err", err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range saved {
		t := saved[i]
		s.targets[t.URL] = &t
	}
}

func (s *Scheduler) saveTargets() {
	s.mu.Lock()
	snapshot := make([]model.Target, 0, len(s.targets))
	for _, t := range s.targets {
		snapshot = append(snapshot, *t)
	}
	s.mu.Unlock()

	if err := store.SetJSON(s.deps.Store, store.KeyTargets, snapshot); err != nil {
		s.log.Warn("persist target set failed", slog.Any("err", err))
	}
}
