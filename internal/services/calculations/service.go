package calculations

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/BearBump/DateBox/internal/broker/messages"
	"github.com/BearBump/DateBox/internal/cache"
	"github.com/BearBump/DateBox/internal/models"
	"github.com/BearBump/DateBox/internal/services/delivery"
	"github.com/pkg/errors"
)

const snapshotKey = "ruleset:current"

// publishAttempts bounds the fire-and-forget event publish. Kafka может быть
// не готова сразу после старта docker compose.
const publishAttempts = 3

type Repository interface {
	LoadRuleSet(ctx context.Context) (*models.RuleSet, error)
	ReplaceTransitRules(ctx context.Context, rules []models.TransitRule) error
	UpsertHolidays(ctx context.Context, holidays []models.Holiday) error
	SetPeakSeason(ctx context.Context, w models.PeakSeasonWindow) error
	ListCalculations(ctx context.Context, userID string, limit, offset int) ([]*models.Calculation, error)
	ListUsageRollups(ctx context.Context, limit int) ([]*models.UsageRollup, error)
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// ErrRateLimited сигналит хендлеру ответить 429, а не 500.
var ErrRateLimited = errors.New("rate limit exceeded")

type Service struct {
	repo     Repository
	cache    cache.BytesCache
	producer Producer
	rl       RateLimiter

	topic       string
	snapshotTTL time.Duration
	rlPerMinute int64
}

func New(repo Repository, c cache.BytesCache, producer Producer, topic string, snapshotTTL time.Duration) *Service {
	return &Service{
		repo:        repo,
		cache:       c,
		producer:    producer,
		topic:       topic,
		snapshotTTL: snapshotTTL,
	}
}

// WithRateLimiter enables per-user throttling of Calculate.
func (s *Service) WithRateLimiter(rl RateLimiter, perMinute int64) *Service {
	s.rl = rl
	s.rlPerMinute = perMinute
	return s
}

// Snapshot returns the current rules snapshot, cache-aside: Redis first,
// Postgres on miss, best-effort re-populate. Кэш не обязан быть всегда.
func (s *Service) Snapshot(ctx context.Context) (*models.RuleSet, error) {
	if s.cache != nil && s.snapshotTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, snapshotKey); err == nil && ok {
			var rs models.RuleSet
			if json.Unmarshal(b, &rs) == nil {
				return &rs, nil
			}
		}
	}

	rs, err := s.repo.LoadRuleSet(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.snapshotTTL > 0 {
		b, _ := json.Marshal(rs)
		_ = s.cache.Set(ctx, snapshotKey, b, s.snapshotTTL)
	}
	return rs, nil
}

// Calculate validates the input, runs the pure calculator against the
// current snapshot and publishes a CalculationPerformed event. The publish
// is fire-and-forget: its failure is logged, never returned, so calculation
// latency is not tied to the broker.
func (s *Service) Calculate(ctx context.Context, in models.CalculationInput) (models.CalculationResult, error) {
	if in.Weight <= 0 {
		return models.CalculationResult{}, errors.New("weight must be positive")
	}
	if in.Distance <= 0 {
		return models.CalculationResult{}, errors.New("distance must be positive")
	}
	if in.PickupDate.IsZero() {
		return models.CalculationResult{}, errors.New("pickupDate is required")
	}
	// Пикап не может быть раньше упаковки: при нарушении просто подтягиваем.
	if !in.PackDate.IsZero() && in.PickupDate.Before(in.PackDate) {
		in.PickupDate = in.PackDate
	}

	if s.rl != nil && s.rlPerMinute > 0 && in.UserID != "" {
		allowed, n, err := s.rl.Allow(ctx, userMinuteKey(in.UserID), s.rlPerMinute, 70*time.Second)
		if err == nil && !allowed {
			slog.Warn("calculation rate limit exceeded", "user_id", in.UserID, "count", n)
			return models.CalculationResult{}, ErrRateLimited
		}
	}

	rs, err := s.Snapshot(ctx)
	if err != nil {
		return models.CalculationResult{}, err
	}

	res := delivery.Calculate(in, rs)
	if res.Err == "" {
		s.publishPerformed(ctx, in, res)
	}
	return res, nil
}

func (s *Service) publishPerformed(ctx context.Context, in models.CalculationInput, res models.CalculationResult) {
	if s.producer == nil || s.topic == "" {
		return
	}

	msg := messages.CalculationPerformed{
		UserID:         in.UserID,
		Weight:         in.Weight,
		Distance:       in.Distance,
		PickupDate:     in.PickupDate,
		TransitDays:    res.TransitDays,
		SeasonStatus:   res.SeasonStatus,
		RDD:            res.RDD,
		EarliestPickup: res.Spread.Earliest,
		LatestPickup:   res.Spread.Latest,
		CalculatedAt:   time.Now().UTC(),
	}
	if !in.PackDate.IsZero() {
		pd := in.PackDate
		msg.PackDate = &pd
	}

	b, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal calculation event", "error", err.Error())
		return
	}

	var pubErr error
	for i := 0; i < publishAttempts; i++ {
		if pubErr = s.producer.Publish(ctx, s.topic, []byte(in.UserID), b); pubErr == nil {
			return
		}
		time.Sleep(time.Duration(150*(i+1)) * time.Millisecond)
	}
	slog.Error("publish calculation event", "error", pubErr.Error())
}

// ReplaceTransitRules swaps the rule table and invalidates the snapshot.
func (s *Service) ReplaceTransitRules(ctx context.Context, rules []models.TransitRule) error {
	for _, r := range rules {
		if r.TransitDays < 0 {
			return errors.New("transitDays must be >= 0")
		}
		if r.MaxDistance > 0 && r.MaxDistance <= r.MinDistance {
			return errors.New("maxDistance must exceed minDistance")
		}
	}
	if err := s.repo.ReplaceTransitRules(ctx, rules); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx)
	return nil
}

func (s *Service) UpsertHolidays(ctx context.Context, holidays []models.Holiday) error {
	for _, h := range holidays {
		if h.Day.IsZero() {
			return errors.New("holiday day is required")
		}
		if h.Name == "" {
			return errors.New("holiday name is required")
		}
	}
	if err := s.repo.UpsertHolidays(ctx, holidays); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx)
	return nil
}

func (s *Service) SetPeakSeason(ctx context.Context, w models.PeakSeasonWindow) error {
	if w.StartMonth < time.January || w.StartMonth > time.December ||
		w.EndMonth < time.January || w.EndMonth > time.December {
		return errors.New("peak season months must be 1..12")
	}
	if w.StartDay < 1 || w.StartDay > 31 || w.EndDay < 1 || w.EndDay > 31 {
		return errors.New("peak season days must be 1..31")
	}
	if err := s.repo.SetPeakSeason(ctx, w); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx)
	return nil
}

func (s *Service) ListCalculations(ctx context.Context, userID string, limit, offset int) ([]*models.Calculation, error) {
	return s.repo.ListCalculations(ctx, userID, limit, offset)
}

func (s *Service) ListUsageRollups(ctx context.Context, limit int) ([]*models.UsageRollup, error) {
	return s.repo.ListUsageRollups(ctx, limit)
}

func (s *Service) invalidateSnapshot(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, snapshotKey)
}

func userMinuteKey(userID string) string {
	return "rl:user:" + userID + ":" + time.Now().UTC().Format("200601021504")
}
