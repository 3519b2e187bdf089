package models

import "time"

// Статусы сезона для расчёта (фиксированный набор).
const (
	SeasonStatusPeak    = "Peak Season"
	SeasonStatusOffPeak = "Off-Peak"
)

// RDDDisplayLayout is the human-readable layout used everywhere a computed
// date is shown to the user or substituted into copy text.
const RDDDisplayLayout = "Mon, Jan 2, 2006"

// TransitRule maps a distance band (and optionally a weight band) to a
// transit-day count. MaxDistance/MaxWeight of 0 mean "no upper bound".
type TransitRule struct {
	ID          uint64  `json:"id"`
	MinDistance float64 `json:"minDistance"`
	MaxDistance float64 `json:"maxDistance"`
	MinWeight   float64 `json:"minWeight"`
	MaxWeight   float64 `json:"maxWeight"`
	TransitDays int     `json:"transitDays"`
}

// Matches reports whether the rule's bands contain the given distance and
// weight. The lower bound is inclusive, the upper bound exclusive.
func (r TransitRule) Matches(weight, distance float64) bool {
	if distance < r.MinDistance {
		return false
	}
	if r.MaxDistance > 0 && distance >= r.MaxDistance {
		return false
	}
	if weight < r.MinWeight {
		return false
	}
	if r.MaxWeight > 0 && weight >= r.MaxWeight {
		return false
	}
	return true
}

// Holiday is a single excluded calendar day. Day carries no time component.
type Holiday struct {
	Day  time.Time `json:"day"`
	Name string    `json:"name"`
}

// PeakSeasonWindow is an annual month/day range, inclusive of both boundary
// dates and year-agnostic.
type PeakSeasonWindow struct {
	StartMonth time.Month `json:"startMonth"`
	StartDay   int        `json:"startDay"`
	EndMonth   time.Month `json:"endMonth"`
	EndDay     int        `json:"endDay"`
}

// DefaultPeakSeason is the window used when storage has no override.
func DefaultPeakSeason() PeakSeasonWindow {
	return PeakSeasonWindow{StartMonth: time.May, StartDay: 15, EndMonth: time.September, EndDay: 30}
}

// Contains checks the month/day of t against the window, ignoring the year.
// Windows that wrap the year boundary (e.g. Nov 1 – Feb 15) are supported.
func (w PeakSeasonWindow) Contains(t time.Time) bool {
	md := int(t.Month())*100 + t.Day()
	start := int(w.StartMonth)*100 + w.StartDay
	end := int(w.EndMonth)*100 + w.EndDay
	if start <= end {
		return md >= start && md <= end
	}
	return md >= start || md <= end
}

// RuleSet is the immutable reference snapshot the calculator runs against.
// It is loaded once from storage, cached as JSON, and never mutated.
type RuleSet struct {
	Rules      []TransitRule    `json:"rules"`
	Holidays   []Holiday        `json:"holidays"`
	PeakSeason PeakSeasonWindow `json:"peakSeason"`
	LoadedAt   time.Time        `json:"loadedAt"`
}

// CalculationInput is the user-supplied part of a calculation. PackDate may
// be zero when the shipment has no separate pack date.
type CalculationInput struct {
	UserID     string    `json:"userId,omitempty"`
	Weight     float64   `json:"weight"`
	Distance   float64   `json:"distance"`
	PackDate   time.Time `json:"packDate,omitempty"`
	PickupDate time.Time `json:"pickupDate"`
}

// PickupSpread is the range of pickup dates that all yield the same RDD.
type PickupSpread struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// CalculationResult is produced fresh on every calculate call and never
// mutated afterwards. Err is the only failure channel: when it is set the
// date fields are zero.
type CalculationResult struct {
	TransitDays  int          `json:"transitDays"`
	SeasonStatus string       `json:"seasonStatus"`
	RDD          time.Time    `json:"requiredDeliveryDate"`
	RDDDisplay   string       `json:"requiredDeliveryDateDisplay"`
	Spread       PickupSpread `json:"pickupSpread"`
	Err          string       `json:"error,omitempty"`
}

// Calculation is a persisted history row: the input alongside the result.
type Calculation struct {
	ID             uint64     `json:"id"`
	UserID         string     `json:"userId"`
	Weight         float64    `json:"weight"`
	Distance       float64    `json:"distance"`
	PackDate       *time.Time `json:"packDate,omitempty"`
	PickupDate     time.Time  `json:"pickupDate"`
	TransitDays    int        `json:"transitDays"`
	SeasonStatus   string     `json:"seasonStatus"`
	RDD            time.Time  `json:"requiredDeliveryDate"`
	EarliestPickup time.Time  `json:"earliestPickup"`
	LatestPickup   time.Time  `json:"latestPickup"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// UsageRollup is a per-day aggregate over the calculations table.
type UsageRollup struct {
	Day           time.Time `json:"day"`
	CalcCount     int64     `json:"calcCount"`
	PeakCount     int64     `json:"peakCount"`
	DistinctUsers int64     `json:"distinctUsers"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
