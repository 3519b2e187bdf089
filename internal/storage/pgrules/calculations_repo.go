package pgrules

import (
	"context"
	"time"

	"github.com/BearBump/DateBox/internal/models"
	"github.com/pkg/errors"
)

// InsertCalculation appends one history row. CreatedAt of zero means "now".
func (s *Storage) InsertCalculation(ctx context.Context, c *models.Calculation) (uint64, error) {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id uint64
	err := s.db.QueryRow(ctx, `
INSERT INTO calculations (
  user_id, weight, distance, pack_date, pickup_date,
  transit_days, season_status, rdd, earliest_pickup, latest_pickup, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING id
`, c.UserID, c.Weight, c.Distance, c.PackDate, c.PickupDate,
		c.TransitDays, c.SeasonStatus, c.RDD, c.EarliestPickup, c.LatestPickup, createdAt).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert calculation")
	}
	return id, nil
}

func (s *Storage) ListCalculations(ctx context.Context, userID string, limit, offset int) ([]*models.Calculation, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT
  id, user_id, weight, distance, pack_date, pickup_date,
  transit_days, season_status, rdd, earliest_pickup, latest_pickup, created_at
FROM calculations
WHERE ($1 = '' OR user_id = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, userID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select calculations")
	}
	defer rows.Close()

	var out []*models.Calculation
	for rows.Next() {
		var c models.Calculation
		var packDate *time.Time
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Weight, &c.Distance, &packDate, &c.PickupDate,
			&c.TransitDays, &c.SeasonStatus, &c.RDD, &c.EarliestPickup, &c.LatestPickup, &c.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan calculation")
		}
		c.PackDate = packDate
		out = append(out, &c)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// AggregateUsage recomputes the rollup row for one calendar day straight
// from the calculations table, so re-running it is always safe.
func (s *Storage) AggregateUsage(ctx context.Context, day time.Time) error {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	_, err := s.db.Exec(ctx, `
INSERT INTO usage_rollups (day, calc_count, peak_count, distinct_users, updated_at)
SELECT
  $1::date,
  COUNT(*),
  COUNT(*) FILTER (WHERE season_status = $4),
  COUNT(DISTINCT user_id) FILTER (WHERE user_id <> ''),
  now()
FROM calculations
WHERE created_at >= $2 AND created_at < $3
ON CONFLICT (day) DO UPDATE SET
  calc_count = EXCLUDED.calc_count,
  peak_count = EXCLUDED.peak_count,
  distinct_users = EXCLUDED.distinct_users,
  updated_at = EXCLUDED.updated_at
`, dayStart, dayStart, dayEnd, models.SeasonStatusPeak)
	return errors.Wrap(err, "aggregate usage")
}

func (s *Storage) ListUsageRollups(ctx context.Context, limit int) ([]*models.UsageRollup, error) {
	if limit <= 0 || limit > 365 {
		limit = 30
	}

	rows, err := s.db.Query(ctx, `
SELECT day, calc_count, peak_count, distinct_users, updated_at
FROM usage_rollups
ORDER BY day DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select usage rollups")
	}
	defer rows.Close()

	var out []*models.UsageRollup
	for rows.Next() {
		var r models.UsageRollup
		if err := rows.Scan(&r.Day, &r.CalcCount, &r.PeakCount, &r.DistinctUsers, &r.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan usage rollup")
		}
		out = append(out, &r)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
