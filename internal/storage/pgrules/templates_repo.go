package pgrules

import (
	"context"
	"time"

	"github.com/BearBump/DateBox/internal/models"
	"github.com/pkg/errors"
)

// SaveTemplate stores a user's custom template for one copy format.
// Last writer wins; there is no conflict history.
func (s *Storage) SaveTemplate(ctx context.Context, userID, formatKey, template string) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO copy_templates (user_id, format_key, template, updated_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id, format_key) DO UPDATE SET
  template = EXCLUDED.template,
  updated_at = EXCLUDED.updated_at
`, userID, formatKey, template, time.Now().UTC())
	return errors.Wrap(err, "save template")
}

func (s *Storage) GetTemplates(ctx context.Context, userID string) ([]*models.CopyTemplate, error) {
	rows, err := s.db.Query(ctx, `
SELECT user_id, format_key, template, updated_at
FROM copy_templates
WHERE user_id = $1
ORDER BY format_key ASC
`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "select templates")
	}
	defer rows.Close()

	var out []*models.CopyTemplate
	for rows.Next() {
		var t models.CopyTemplate
		if err := rows.Scan(&t.UserID, &t.FormatKey, &t.Template, &t.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan template")
		}
		out = append(out, &t)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) DeleteTemplate(ctx context.Context, userID, formatKey string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM copy_templates WHERE user_id = $1 AND format_key = $2`, userID, formatKey)
	return errors.Wrap(err, "delete template")
}
