package pgrules

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS transit_rules (
  id BIGSERIAL PRIMARY KEY,
  min_distance DOUBLE PRECISION NOT NULL,
  max_distance DOUBLE PRECISION NOT NULL DEFAULT 0,
  min_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
  max_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
  transit_days INT NOT NULL CHECK (transit_days >= 0)
)`,
		`CREATE INDEX IF NOT EXISTS idx_transit_rules_min_distance ON transit_rules(min_distance)`,
		`
CREATE TABLE IF NOT EXISTS holidays (
  id BIGSERIAL PRIMARY KEY,
  day DATE NOT NULL UNIQUE,
  name TEXT NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS peak_season (
  id INT PRIMARY KEY CHECK (id = 1),
  start_month INT NOT NULL,
  start_day INT NOT NULL,
  end_month INT NOT NULL,
  end_day INT NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS copy_templates (
  id BIGSERIAL PRIMARY KEY,
  user_id TEXT NOT NULL,
  format_key TEXT NOT NULL,
  template TEXT NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  UNIQUE (user_id, format_key)
)`,
		`
CREATE TABLE IF NOT EXISTS calculations (
  id BIGSERIAL PRIMARY KEY,
  user_id TEXT NOT NULL DEFAULT '',
  weight DOUBLE PRECISION NOT NULL,
  distance DOUBLE PRECISION NOT NULL,
  pack_date DATE NULL,
  pickup_date DATE NOT NULL,
  transit_days INT NOT NULL,
  season_status TEXT NOT NULL,
  rdd DATE NOT NULL,
  earliest_pickup DATE NOT NULL,
  latest_pickup DATE NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_calculations_created_at ON calculations(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_calculations_user_id ON calculations(user_id)`,
		`
CREATE TABLE IF NOT EXISTS usage_rollups (
  id BIGSERIAL PRIMARY KEY,
  day DATE NOT NULL UNIQUE,
  calc_count BIGINT NOT NULL DEFAULT 0,
  peak_count BIGINT NOT NULL DEFAULT 0,
  distinct_users BIGINT NOT NULL DEFAULT 0,
  updated_at TIMESTAMPTZ NOT NULL
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
