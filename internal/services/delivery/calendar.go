package delivery

import (
	"time"

	"github.com/BearBump/DateBox/internal/models"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

type dateKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dateKey {
	y, m, d := t.Date()
	return dateKey{year: y, month: m, day: d}
}

// Calendar answers which calendar days count toward the transit-day budget.
// Explicit holidays come from the rules snapshot; when the snapshot carries
// none, observed US federal holidays are used as a fallback.
type Calendar struct {
	holidays map[dateKey]string
	federal  *cal.BusinessCalendar
}

func NewCalendar(holidays []models.Holiday) *Calendar {
	c := &Calendar{holidays: make(map[dateKey]string, len(holidays))}
	for _, h := range holidays {
		c.holidays[keyOf(h.Day)] = h.Name
	}
	if len(c.holidays) == 0 {
		bc := cal.NewBusinessCalendar()
		bc.AddHoliday(
			us.NewYear,
			us.MlkDay,
			us.MemorialDay,
			us.Juneteenth,
			us.IndependenceDay,
			us.LaborDay,
			us.ThanksgivingDay,
			us.ChristmasDay,
		)
		c.federal = bc
	}
	return c
}

func (c *Calendar) IsHoliday(t time.Time) bool {
	if _, ok := c.holidays[keyOf(t)]; ok {
		return true
	}
	if c.federal != nil {
		_, observed, _ := c.federal.IsHoliday(t)
		return observed
	}
	return false
}

// IsBusinessDay reports whether t is a weekday and not a holiday.
func (c *Calendar) IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !c.IsHoliday(t)
}
