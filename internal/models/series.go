package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawRow is a single uncleaned record from a tabular data source. Amount arrives
// as a string because upstream sources (spreadsheet exports, loosely typed SQL
// columns) do not guarantee a numeric value.
type RawRow struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

// DailyObservation is one cleaned data point: exactly one observation per date
// within a series. Auxiliary holds named numeric covariates (e.g. event flags)
// aligned to the same date.
type DailyObservation struct {
	Date      time.Time          `json:"date"`
	Value     decimal.Decimal    `json:"value"`
	Auxiliary map[string]float64 `json:"auxiliary,omitempty"`
}

// DailySeries is a gap-aware, chronologically sorted daily series. Missing days
// are absent, not zero.
type DailySeries struct {
	Observations []DailyObservation `json:"observations"`
}

// Len returns the number of observations.
func (s *DailySeries) Len() int {
	return len(s.Observations)
}

// Values returns the observation values as float64 in series order.
func (s *DailySeries) Values() []float64 {
	values := make([]float64, len(s.Observations))
	for i, obs := range s.Observations {
		values[i] = obs.Value.InexactFloat64()
	}
	return values
}

// Dates returns the observation dates in series order.
func (s *DailySeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Observations))
	for i, obs := range s.Observations {
		dates[i] = obs.Date
	}
	return dates
}

// RejectedRow records a source row excluded during loading, with the reason.
type RejectedRow struct {
	Row    RawRow `json:"row"`
	Reason string `json:"reason"`
}

// LoadReport makes data-quality loss visible: every row that failed to parse is
// counted, and a bounded sample is retained for inspection.
type LoadReport struct {
	ValidRows    int           `json:"valid_rows"`
	RejectedRows int           `json:"rejected_rows"`
	Sample       []RejectedRow `json:"sample,omitempty"`
}

// BaselinePoint pairs a date with its centered rolling mean.
type BaselinePoint struct {
	Date        time.Time `json:"date"`
	RollingMean float64   `json:"rolling_mean"`
}

// BaselineSeries is a derived view over a DailySeries: one entry per input date,
// never mutated in place.
type BaselineSeries struct {
	Window int             `json:"window"`
	Points []BaselinePoint `json:"points"`
}

// EventFlag marks whether a date exceeded its scaled baseline.
type EventFlag struct {
	Date    time.Time `json:"date"`
	IsEvent bool      `json:"is_event"`
}

// AnnotatedObservation is an observation joined with its baseline and event flag,
// the shape consumed by the presentation layer.
type AnnotatedObservation struct {
	Date        time.Time       `json:"date"`
	Value       decimal.Decimal `json:"value"`
	RollingMean float64         `json:"rolling_mean"`
	IsEvent     bool            `json:"is_event"`
}

// WeekdayEventStats aggregates event flags into the canonical weekday buckets.
// Counts sum to the total number of flagged days; intensity is the mean of
// value/baseline among flagged days for that weekday, zero when none exist.
type WeekdayEventStats struct {
	Counts    [7]int     `json:"counts"`
	Intensity [7]float64 `json:"intensity"`
}
