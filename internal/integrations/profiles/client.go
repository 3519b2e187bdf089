package profiles

import "context"

// Override is one server-side template override keyed by copy format.
type Override struct {
	FormatKey string
	Template  string
}

// Client reads per-user template overrides from the profile service.
// Overrides take precedence over locally stored templates and defaults.
type Client interface {
	GetTemplateOverrides(ctx context.Context, userID string) ([]Override, error)
}
