package messages

import "time"

// CalculationPerformed is published by date-api after every successful
// calculation and consumed by date-worker, which persists the history row.
// The write path is fully decoupled from the calculation itself.
type CalculationPerformed struct {
	UserID     string     `json:"user_id,omitempty"`
	Weight     float64    `json:"weight"`
	Distance   float64    `json:"distance"`
	PackDate   *time.Time `json:"pack_date,omitempty"`
	PickupDate time.Time  `json:"pickup_date"`

	TransitDays    int       `json:"transit_days"`
	SeasonStatus   string    `json:"season_status"`
	RDD            time.Time `json:"rdd"`
	EarliestPickup time.Time `json:"earliest_pickup"`
	LatestPickup   time.Time `json:"latest_pickup"`

	CalculatedAt time.Time `json:"calculated_at"`
}
