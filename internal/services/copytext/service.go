package copytext

import (
	"context"
	"log/slog"

	"github.com/BearBump/DateBox/internal/integrations/profiles"
	"github.com/BearBump/DateBox/internal/models"
	"github.com/pkg/errors"
)

type Repository interface {
	SaveTemplate(ctx context.Context, userID, formatKey, template string) error
	GetTemplates(ctx context.Context, userID string) ([]*models.CopyTemplate, error)
	DeleteTemplate(ctx context.Context, userID, formatKey string) error
}

type Service struct {
	repo     Repository
	profiles profiles.Client
}

func New(repo Repository, p profiles.Client) *Service {
	return &Service{repo: repo, profiles: p}
}

// ResolveTemplates returns the effective template per format for a user.
// Resolution order is a plain last-writer-wins merge: system defaults, then
// the user's stored templates, then server-side profile overrides on top.
func (s *Service) ResolveTemplates(ctx context.Context, userID string) (map[string]string, error) {
	out := make(map[string]string, len(defaultTemplates))
	for k, v := range defaultTemplates {
		out[k] = v
	}

	if userID == "" {
		return out, nil
	}

	stored, err := s.repo.GetTemplates(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, t := range stored {
		out[t.FormatKey] = t.Template
	}

	if s.profiles != nil {
		ovs, err := s.profiles.GetTemplateOverrides(ctx, userID)
		if err != nil {
			// Профиль-сервис недоступен — работаем с локальными шаблонами.
			slog.Warn("fetch template overrides", "user_id", userID, "error", err.Error())
		}
		for _, o := range ovs {
			out[o.FormatKey] = o.Template
		}
	}

	return out, nil
}

// ResolveTemplate returns the effective template for one format key.
func (s *Service) ResolveTemplate(ctx context.Context, userID, formatKey string) (string, error) {
	if !models.IsCopyFormat(formatKey) {
		return "", errors.Errorf("unknown copy format %q", formatKey)
	}
	all, err := s.ResolveTemplates(ctx, userID)
	if err != nil {
		return "", err
	}
	return all[formatKey], nil
}

// RenderFormat resolves the template for the format and substitutes values.
func (s *Service) RenderFormat(ctx context.Context, userID, formatKey string, v Values) (string, error) {
	tpl, err := s.ResolveTemplate(ctx, userID, formatKey)
	if err != nil {
		return "", err
	}
	return Render(tpl, v), nil
}

func (s *Service) SaveTemplate(ctx context.Context, userID, formatKey, template string) error {
	if userID == "" {
		return errors.New("userId is required")
	}
	if !models.IsCopyFormat(formatKey) {
		return errors.Errorf("unknown copy format %q", formatKey)
	}
	if template == "" {
		return errors.New("template is required")
	}
	return s.repo.SaveTemplate(ctx, userID, formatKey, template)
}

func (s *Service) DeleteTemplate(ctx context.Context, userID, formatKey string) error {
	if userID == "" {
		return errors.New("userId is required")
	}
	if !models.IsCopyFormat(formatKey) {
		return errors.Errorf("unknown copy format %q", formatKey)
	}
	return s.repo.DeleteTemplate(ctx, userID, formatKey)
}
