package models

import "time"

// Copy-format keys. Finite fixed set; each key owns one template string.
const (
	CopyFormatSimple      = "simple"
	CopyFormatReport      = "report"
	CopyFormatReportPhone = "report_phone"
	CopyFormatSpread      = "spread"
	CopyFormatSpreadPhone = "spread_phone"
	CopyFormatRDDOnly     = "rdd_only"
)

// CopyFormats lists every known format key in display order.
func CopyFormats() []string {
	return []string{
		CopyFormatSimple,
		CopyFormatReport,
		CopyFormatReportPhone,
		CopyFormatSpread,
		CopyFormatSpreadPhone,
		CopyFormatRDDOnly,
	}
}

// IsCopyFormat reports whether key names a known copy format.
func IsCopyFormat(key string) bool {
	for _, k := range CopyFormats() {
		if k == key {
			return true
		}
	}
	return false
}

// CopyTemplate is a per-user template override for one copy format.
type CopyTemplate struct {
	UserID    string    `json:"userId"`
	FormatKey string    `json:"formatKey"`
	Template  string    `json:"template"`
	UpdatedAt time.Time `json:"updatedAt"`
}
