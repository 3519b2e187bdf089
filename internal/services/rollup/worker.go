package rollup

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/DateBox/internal/broker/messages"
	"github.com/BearBump/DateBox/internal/models"
)

type Repository interface {
	InsertCalculation(ctx context.Context, c *models.Calculation) (uint64, error)
	AggregateUsage(ctx context.Context, day time.Time) error
}

// Worker persists calculation events from the broker and periodically
// recomputes the per-day usage rollups. Each cycle re-aggregates the last
// lookbackDays days, so a missed cycle heals itself on the next one.
type Worker struct {
	repo Repository

	interval     time.Duration
	lookbackDays int
	concurrency  int

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalConsumed       atomic.Int64
	totalAggregated     atomic.Int64
	totalErrors         atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(repo Repository) *Worker {
	return &Worker{
		repo:              repo,
		interval:          60 * time.Second,
		lookbackDays:      7,
		concurrency:       3,
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (w *Worker) WithSettings(interval time.Duration, lookbackDays, concurrency int) *Worker {
	if interval > 0 {
		w.interval = interval
	}
	if lookbackDays > 0 {
		w.lookbackDays = lookbackDays
	}
	if concurrency > 0 {
		w.concurrency = concurrency
	}
	return w
}

// Trigger forces an immediate aggregation cycle (best-effort, non-blocking).
func (w *Worker) Trigger() {
	w.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt       time.Time  `json:"startedAt"`
	LastCycleAt     *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt   *time.Time `json:"lastTriggerAt,omitempty"`
	TotalConsumed   int64      `json:"totalConsumed"`
	TotalAggregated int64      `json:"totalAggregated"`
	TotalErrors     int64      `json:"totalErrors"`
	LastError       string     `json:"lastError,omitempty"`
}

func (w *Worker) Stats() Stats {
	st := Stats{
		StartedAt:       time.Unix(0, w.startedAtUnixNano).UTC(),
		TotalConsumed:   w.totalConsumed.Load(),
		TotalAggregated: w.totalAggregated.Load(),
		TotalErrors:     w.totalErrors.Load(),
	}
	if n := w.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := w.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	w.lastErrorMu.Lock()
	st.LastError = w.lastError
	w.lastErrorMu.Unlock()
	return st
}

// HandleEvent is the broker consumer callback: it decodes one
// CalculationPerformed message and appends the history row. Malformed
// messages are logged and skipped (committed), иначе одно битое сообщение
// навсегда заклинит партицию. Ошибки хранилища возвращаются наверх: такое
// сообщение не коммитится и будет перечитано.
func (w *Worker) HandleEvent(ctx context.Context, _ []byte, value []byte) error {
	var msg messages.CalculationPerformed
	if err := json.Unmarshal(value, &msg); err != nil {
		w.totalErrors.Add(1)
		slog.Error("skip malformed calculation event", "error", err.Error())
		return nil
	}
	if msg.PickupDate.IsZero() {
		w.totalErrors.Add(1)
		slog.Error("skip calculation event without pickup_date")
		return nil
	}
	if msg.CalculatedAt.IsZero() {
		msg.CalculatedAt = time.Now().UTC()
	}

	_, err := w.repo.InsertCalculation(ctx, &models.Calculation{
		UserID:         msg.UserID,
		Weight:         msg.Weight,
		Distance:       msg.Distance,
		PackDate:       msg.PackDate,
		PickupDate:     msg.PickupDate,
		TransitDays:    msg.TransitDays,
		SeasonStatus:   msg.SeasonStatus,
		RDD:            msg.RDD,
		EarliestPickup: msg.EarliestPickup,
		LatestPickup:   msg.LatestPickup,
		CreatedAt:      msg.CalculatedAt,
	})
	if err != nil {
		return err
	}
	w.totalConsumed.Add(1)
	return nil
}

func (w *Worker) Run(ctx context.Context) error {
	t := time.NewTicker(w.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			w.runOnce(ctx)
		case <-w.triggerCh:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	now := time.Now().UTC()
	w.lastCycleUnixNano.Store(now.UnixNano())

	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup
	for i := 0; i < w.lookbackDays; i++ {
		day := now.AddDate(0, 0, -i)
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			if err := w.repo.AggregateUsage(ctx, day); err != nil {
				w.totalErrors.Add(1)
				w.lastErrorMu.Lock()
				w.lastError = err.Error()
				w.lastErrorMu.Unlock()
				slog.Error("aggregate usage", "day", day.Format("2006-01-02"), "error", err.Error())
				return
			}
			w.totalAggregated.Add(1)
		}()
	}
	wg.Wait()
}
