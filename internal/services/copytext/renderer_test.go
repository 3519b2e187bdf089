package copytext

import (
	"strings"
	"testing"
	"time"

	"github.com/BearBump/DateBox/internal/models"
	"github.com/stretchr/testify/require"
)

func testValues() Values {
	return Values{
		PackDate:     time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC),
		LoadDate:     time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
		RDD:          time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC),
		EarliestLoad: time.Date(2026, time.January, 3, 0, 0, 0, 0, time.UTC),
		LatestLoad:   time.Date(2026, time.January, 7, 0, 0, 0, 0, time.UTC),
	}
}

func TestRender_AllPlaceholdersInOrder(t *testing.T) {
	tpl := "{{pack_date}}|{{load_date}}|{{rdd_date}}|{{earliest_load_date}}|{{latest_load_date}}"
	out := Render(tpl, testValues())

	require.Equal(t,
		"Fri, Jan 2, 2026|Mon, Jan 5, 2026|Mon, Jan 12, 2026|Sat, Jan 3, 2026|Wed, Jan 7, 2026",
		out)
	require.NotContains(t, out, "{{")
}

func TestRender_UnknownTokenPassthrough(t *testing.T) {
	out := Render("Ship on {{load_date}} via {{unknown_token}}", testValues())
	require.Contains(t, out, "Mon, Jan 5, 2026")
	require.Contains(t, out, "{{unknown_token}}")
}

func TestRender_ZeroDateRendersEmpty(t *testing.T) {
	v := testValues()
	v.PackDate = time.Time{}
	out := Render("Pack:{{pack_date}};Load:{{load_date}}", v)
	require.Equal(t, "Pack:;Load:Mon, Jan 5, 2026", out)
}

func TestRender_NoPlaceholders(t *testing.T) {
	require.Equal(t, "plain text", Render("plain text", testValues()))
}

func TestRender_RepeatedPlaceholder(t *testing.T) {
	out := Render("{{rdd_date}} and again {{rdd_date}}", testValues())
	require.Equal(t, 2, strings.Count(out, "Mon, Jan 12, 2026"))
}

func TestDefaultTemplates_CoverEveryFormat(t *testing.T) {
	for _, k := range models.CopyFormats() {
		tpl, ok := DefaultTemplate(k)
		require.True(t, ok, k)
		require.NotEmpty(t, tpl, k)
	}
	_, ok := DefaultTemplate("nope")
	require.False(t, ok)
}
