package copytext

import "github.com/BearBump/DateBox/internal/models"

// System default templates, one per copy format. Per-user overrides shadow
// these key by key (last writer wins, no conflict tracking).
var defaultTemplates = map[string]string{
	models.CopyFormatSimple:      "Pack {{pack_date}}, load {{load_date}}, RDD {{rdd_date}}",
	models.CopyFormatReport:      "Pack date: {{pack_date}}\nLoad date: {{load_date}}\nRequired delivery date: {{rdd_date}}",
	models.CopyFormatReportPhone: "Pack date: {{pack_date}}\nLoad date: {{load_date}}\nRequired delivery date: {{rdd_date}}\nQuestions? Call the origin office to confirm your dates.",
	models.CopyFormatSpread:      "Load between {{earliest_load_date}} and {{latest_load_date}}. Required delivery date: {{rdd_date}}",
	models.CopyFormatSpreadPhone: "Load between {{earliest_load_date}} and {{latest_load_date}}. Required delivery date: {{rdd_date}}\nQuestions? Call the origin office to confirm your dates.",
	models.CopyFormatRDDOnly:     "{{rdd_date}}",
}

// DefaultTemplate returns the system template for a known format key.
func DefaultTemplate(formatKey string) (string, bool) {
	t, ok := defaultTemplates[formatKey]
	return t, ok
}
