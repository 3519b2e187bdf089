package copytext

import (
	"regexp"
	"time"

	"github.com/BearBump/DateBox/internal/models"
)

// Placeholder vocabulary. Anything else inside {{...}} passes through
// verbatim so a typo in a user template never breaks rendering.
const (
	PlaceholderPackDate     = "pack_date"
	PlaceholderLoadDate     = "load_date"
	PlaceholderRDDDate      = "rdd_date"
	PlaceholderEarliestLoad = "earliest_load_date"
	PlaceholderLatestLoad   = "latest_load_date"
)

var placeholderRe = regexp.MustCompile(`\{\{([a-z_]+)\}\}`)

// Values carries the dates substituted into a template. A zero date renders
// as the empty string.
type Values struct {
	PackDate     time.Time
	LoadDate     time.Time
	RDD          time.Time
	EarliestLoad time.Time
	LatestLoad   time.Time
}

func (v Values) lookup(name string) (time.Time, bool) {
	switch name {
	case PlaceholderPackDate:
		return v.PackDate, true
	case PlaceholderLoadDate:
		return v.LoadDate, true
	case PlaceholderRDDDate:
		return v.RDD, true
	case PlaceholderEarliestLoad:
		return v.EarliestLoad, true
	case PlaceholderLatestLoad:
		return v.LatestLoad, true
	}
	return time.Time{}, false
}

// Render substitutes every known {{placeholder}} in tpl with the display
// form of the matching date. Pure, no side effects; the caller owns writing
// the result to the clipboard or anywhere else.
func Render(tpl string, v Values) string {
	return placeholderRe.ReplaceAllStringFunc(tpl, func(tok string) string {
		name := placeholderRe.FindStringSubmatch(tok)[1]
		d, ok := v.lookup(name)
		if !ok {
			return tok
		}
		if d.IsZero() {
			return ""
		}
		return d.Format(models.RDDDisplayLayout)
	})
}
