package copytext

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/DateBox/internal/integrations/profiles"
	profilesfake "github.com/BearBump/DateBox/internal/integrations/profiles/fake"
	"github.com/BearBump/DateBox/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	saved   map[string]string
	stored  []*models.CopyTemplate
	deleted []string
}

func (f *fakeRepo) SaveTemplate(ctx context.Context, userID, formatKey, template string) error {
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[userID+"|"+formatKey] = template
	return nil
}

func (f *fakeRepo) GetTemplates(ctx context.Context, userID string) ([]*models.CopyTemplate, error) {
	return f.stored, nil
}

func (f *fakeRepo) DeleteTemplate(ctx context.Context, userID, formatKey string) error {
	f.deleted = append(f.deleted, userID+"|"+formatKey)
	return nil
}

func TestService_ResolveTemplates_MergeOrder(t *testing.T) {
	repo := &fakeRepo{
		stored: []*models.CopyTemplate{
			{UserID: "u1", FormatKey: models.CopyFormatSimple, Template: "stored simple"},
			{UserID: "u1", FormatKey: models.CopyFormatReport, Template: "stored report"},
		},
	}
	pf := profilesfake.New()
	pf.SetOverrides("u1", []profiles.Override{
		{FormatKey: models.CopyFormatSimple, Template: "override simple"},
	})

	s := New(repo, pf)
	out, err := s.ResolveTemplates(context.Background(), "u1")
	require.NoError(t, err)

	// Оверрайд с сервера бьёт локальный шаблон, локальный бьёт дефолт.
	require.Equal(t, "override simple", out[models.CopyFormatSimple])
	require.Equal(t, "stored report", out[models.CopyFormatReport])

	def, _ := DefaultTemplate(models.CopyFormatRDDOnly)
	require.Equal(t, def, out[models.CopyFormatRDDOnly])
}

func TestService_ResolveTemplates_AnonymousGetsDefaults(t *testing.T) {
	s := New(&fakeRepo{}, profilesfake.New())
	out, err := s.ResolveTemplates(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, out, len(models.CopyFormats()))
}

func TestService_RenderFormat(t *testing.T) {
	repo := &fakeRepo{
		stored: []*models.CopyTemplate{
			{UserID: "u1", FormatKey: models.CopyFormatRDDOnly, Template: "Deadline: {{rdd_date}}"},
		},
	}
	s := New(repo, profilesfake.New())

	out, err := s.RenderFormat(context.Background(), "u1", models.CopyFormatRDDOnly, Values{
		RDD: time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, "Deadline: Mon, Jan 12, 2026", out)

	_, err = s.RenderFormat(context.Background(), "u1", "bogus", Values{})
	require.Error(t, err)
}

func TestService_SaveTemplate_Validate(t *testing.T) {
	s := New(&fakeRepo{}, nil)

	require.Error(t, s.SaveTemplate(context.Background(), "", models.CopyFormatSimple, "x"))
	require.Error(t, s.SaveTemplate(context.Background(), "u1", "bogus", "x"))
	require.Error(t, s.SaveTemplate(context.Background(), "u1", models.CopyFormatSimple, ""))
	require.NoError(t, s.SaveTemplate(context.Background(), "u1", models.CopyFormatSimple, "RDD {{rdd_date}}"))
}
