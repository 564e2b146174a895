// Package quota tracks the daily call budget for the rate-limited search
// dependency. Every call site must check CheckBudget before issuing an
// external verification request; nothing gates the network at a lower level.
package quota

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pagemend/pagemend/internal/model"
	"github.com/pagemend/pagemend/internal/store"
)

// Tracker persists a per-day counter keyed quota:{date}. The counter resets
// implicitly on date rollover because each day reads its own key.
type Tracker struct {
	store  store.Store
	limit  int
	buffer int
	log    *slog.Logger

	mu  sync.Mutex
	now func() time.Time
}

// New creates a quota tracker. The safety buffer keeps a few calls in
// reserve: verification requests are issued in retryable sequences, and
// hitting the hard limit mid-sequence wastes a call and risks provider-side
// lockout.
func New(st store.Store, limit, buffer int, log *slog.Logger) *Tracker {
	if limit <= 0 {
		limit = 100
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Tracker{
		store:  st,
		limit:  limit,
		buffer: buffer,
		log:    log,
		now:    time.Now,
	}
}

// CheckBudget reports whether another verification call may be issued and
// how many calls remain today. Allowed turns false once remaining falls
// below the safety buffer, not at zero.
func (t *Tracker) CheckBudget() (bool, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	used := t.load(t.today())
	remaining := t.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining >= t.buffer && remaining > 0, remaining
}

// Consume records cost calls against today's budget and returns the
// resulting state. Callers are expected to have checked CheckBudget first;
// the counter never exceeds the configured limit.
func (t *Tracker) Consume(cost int) model.QuotaState {
	if cost <= 0 {
		cost = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	date := t.today()
	used := t.load(date) + cost
	if used > t.limit {
		used = t.limit
	}

	st := model.QuotaState{Date: date, Used: used, Remaining: t.limit - used}
	if err := store.SetJSON(t.store, store.KeyQuotaPrefix+date, st); err != nil {
		// Fail open: a flaky persistence layer must not halt optimization.
		t.log.Warn("quota write failed", slog.String("date", date), slog.Any("err", err))
	}
	return st
}

// State returns today's quota state without consuming anything.
func (t *Tracker) State() model.QuotaState {
	t.mu.Lock()
	defer t.mu.Unlock()

	date := t.today()
	used := t.load(date)
	return model.QuotaState{Date: date, Used: used, Remaining: t.limit - used}
}

// load reads today's used count. Read failures fail open (count 0, warning)
// rather than silently halting all verification work.
func (t *Tracker) load(date string) int {
	var st model.QuotaState
	ok, err := store.GetJSON(t.store, store.KeyQuotaPrefix+date, &st)
	if err != nil {
		t.log.Warn("quota read failed, assuming fresh budget",
			slog.String("date", date), slog.Any("err", err))
		return 0
	}
	if !ok || st.Date != date {
		return 0
	}
	if st.Used < 0 {
		return 0
	}
	return st.Used
}

func (t *Tracker) today() string {
	return t.now().Format("2006-01-02")
}

// String renders the current state for log lines.
func (t *Tracker) String() string {
	st := t.State()
	return fmt.Sprintf("quota %d/%d used on %s", st.Used, st.Used+st.Remaining, st.Date)
}
