package pgrules

import (
	"context"
	"time"

	"github.com/BearBump/DateBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// LoadRuleSet reads the whole reference snapshot in one shot. The caller
// treats the result as immutable; the peak window falls back to the default
// when no row has been stored.
func (s *Storage) LoadRuleSet(ctx context.Context) (*models.RuleSet, error) {
	rs := &models.RuleSet{
		PeakSeason: models.DefaultPeakSeason(),
		LoadedAt:   time.Now().UTC(),
	}

	rows, err := s.db.Query(ctx, `
SELECT id, min_distance, max_distance, min_weight, max_weight, transit_days
FROM transit_rules
ORDER BY min_distance ASC, min_weight ASC
`)
	if err != nil {
		return nil, errors.Wrap(err, "select transit rules")
	}
	defer rows.Close()

	for rows.Next() {
		var r models.TransitRule
		if err := rows.Scan(&r.ID, &r.MinDistance, &r.MaxDistance, &r.MinWeight, &r.MaxWeight, &r.TransitDays); err != nil {
			return nil, errors.Wrap(err, "scan transit rule")
		}
		rs.Rules = append(rs.Rules, r)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}

	hrows, err := s.db.Query(ctx, `SELECT day, name FROM holidays ORDER BY day ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "select holidays")
	}
	defer hrows.Close()

	for hrows.Next() {
		var h models.Holiday
		if err := hrows.Scan(&h.Day, &h.Name); err != nil {
			return nil, errors.Wrap(err, "scan holiday")
		}
		h.Day = h.Day.UTC()
		rs.Holidays = append(rs.Holidays, h)
	}
	if hrows.Err() != nil {
		return nil, errors.Wrap(hrows.Err(), "rows")
	}

	var startMonth, startDay, endMonth, endDay int
	err = s.db.QueryRow(ctx, `SELECT start_month, start_day, end_month, end_day FROM peak_season WHERE id = 1`).
		Scan(&startMonth, &startDay, &endMonth, &endDay)
	if err == nil {
		rs.PeakSeason = models.PeakSeasonWindow{
			StartMonth: time.Month(startMonth),
			StartDay:   startDay,
			EndMonth:   time.Month(endMonth),
			EndDay:     endDay,
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrap(err, "select peak season")
	}

	return rs, nil
}

// ReplaceTransitRules swaps the whole rule table atomically.
func (s *Storage) ReplaceTransitRules(ctx context.Context, rules []models.TransitRule) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM transit_rules`); err != nil {
		return errors.Wrap(err, "delete transit rules")
	}
	for _, r := range rules {
		_, err := tx.Exec(ctx, `
INSERT INTO transit_rules (min_distance, max_distance, min_weight, max_weight, transit_days)
VALUES ($1,$2,$3,$4,$5)
`, r.MinDistance, r.MaxDistance, r.MinWeight, r.MaxWeight, r.TransitDays)
		if err != nil {
			return errors.Wrap(err, "insert transit rule")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

func (s *Storage) UpsertHolidays(ctx context.Context, holidays []models.Holiday) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, h := range holidays {
		_, err := tx.Exec(ctx, `
INSERT INTO holidays (day, name)
VALUES ($1,$2)
ON CONFLICT (day) DO UPDATE SET name = EXCLUDED.name
`, h.Day, h.Name)
		if err != nil {
			return errors.Wrap(err, "upsert holiday")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

func (s *Storage) SetPeakSeason(ctx context.Context, w models.PeakSeasonWindow) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO peak_season (id, start_month, start_day, end_month, end_day)
VALUES (1,$1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET
  start_month = EXCLUDED.start_month,
  start_day = EXCLUDED.start_day,
  end_month = EXCLUDED.end_month,
  end_day = EXCLUDED.end_day
`, int(w.StartMonth), w.StartDay, int(w.EndMonth), w.EndDay)
	return errors.Wrap(err, "set peak season")
}
