package delivery

import (
	"fmt"
	"time"

	"github.com/BearBump/DateBox/internal/models"
)

// spreadSearchLimit bounds the pickup-spread walk in either direction so the
// function stays total even against degenerate rule sets.
const spreadSearchLimit = 30

// Calculate resolves transit days for the input, classifies the season,
// advances the pickup date to the required delivery date and derives the
// pickup spread. It is pure: no side effects, identical inputs against the
// same snapshot always produce identical results. Failures are reported via
// the result's Err field, never panics.
func Calculate(in models.CalculationInput, rs *models.RuleSet) models.CalculationResult {
	c := NewCalendar(rs.Holidays)

	rule, ok := resolveRule(rs.Rules, in.Weight, in.Distance)
	if !ok {
		return models.CalculationResult{
			Err: fmt.Sprintf("no transit rule matches %.0f lbs at %.0f miles", in.Weight, in.Distance),
		}
	}

	pickup := midnight(in.PickupDate)

	season := models.SeasonStatusOffPeak
	if rs.PeakSeason.Contains(pickup) {
		season = models.SeasonStatusPeak
	}

	rdd := advanceBusinessDays(pickup, rule.TransitDays, c)

	return models.CalculationResult{
		TransitDays:  rule.TransitDays,
		SeasonStatus: season,
		RDD:          rdd,
		RDDDisplay:   rdd.Format(models.RDDDisplayLayout),
		Spread:       pickupSpread(pickup, rdd, rule.TransitDays, rs.PeakSeason, c),
	}
}

// resolveRule returns the first rule whose bands contain the input.
// Rules are kept ordered by distance band, so first match wins.
func resolveRule(rules []models.TransitRule, weight, distance float64) (models.TransitRule, bool) {
	for _, r := range rules {
		if r.Matches(weight, distance) {
			return r, true
		}
	}
	return models.TransitRule{}, false
}

// advanceBusinessDays walks forward from 'from' one calendar day at a time.
// Only days that are both a weekday and not a holiday decrement the
// remaining budget; skipped days never count. A naive AddDate(0, 0, n) is
// wrong whenever a weekend or holiday falls inside the window.
func advanceBusinessDays(from time.Time, days int, c *Calendar) time.Time {
	d := from
	remaining := days
	for remaining > 0 {
		d = d.AddDate(0, 0, 1)
		if c.IsBusinessDay(d) {
			remaining--
		}
	}
	return d
}

// pickupSpread inverts the mapping: holding the RDD fixed, it finds the
// earliest and latest pickup dates in the same transit-day and season regime
// that still produce it. The boundary dates themselves are valid pickups.
func pickupSpread(pickup, rdd time.Time, transitDays int, w models.PeakSeasonWindow, c *Calendar) models.PickupSpread {
	samePeak := w.Contains(pickup)

	yields := func(candidate time.Time) bool {
		if w.Contains(candidate) != samePeak {
			return false
		}
		return advanceBusinessDays(candidate, transitDays, c).Equal(rdd)
	}

	earliest := pickup
	for i := 0; i < spreadSearchLimit; i++ {
		prev := earliest.AddDate(0, 0, -1)
		if !yields(prev) {
			break
		}
		earliest = prev
	}

	latest := pickup
	for i := 0; i < spreadSearchLimit; i++ {
		next := latest.AddDate(0, 0, 1)
		if !yields(next) {
			break
		}
		latest = next
	}

	return models.PickupSpread{Earliest: earliest, Latest: latest}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
