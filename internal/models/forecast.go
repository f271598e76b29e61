package models

import "time"

// ForecastPoint is one date in a forecast, covering either the historical fit
// range or the extrapolated horizon. Component values decompose the point
// estimate additively.
type ForecastPoint struct {
	Date             time.Time          `json:"date"`
	PointEstimate    float64            `json:"point_estimate"`
	LowerBound       float64            `json:"lower_bound"`
	UpperBound       float64            `json:"upper_bound"`
	Trend            float64            `json:"trend"`
	Seasonal         map[string]float64 `json:"seasonal_components"`
	HolidayComponent float64            `json:"holiday_component"`
	HolidayName      string             `json:"holiday_name,omitempty"`
	Historical       bool               `json:"historical"`
}

// ForecastResult is the terminal output of one fit/predict invocation. Each
// refit produces a wholly new result; nothing is updated incrementally.
// MissingRegressors names historical regressors whose future values were not
// supplied and therefore contribute nothing beyond the fit range.
type ForecastResult struct {
	Points            []ForecastPoint `json:"points"`
	HorizonDays       int             `json:"horizon_days"`
	Sigma             float64         `json:"sigma"`
	MissingRegressors []string        `json:"missing_regressors,omitempty"`
	FromCache         bool            `json:"from_cache"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// FutureOnly returns only the extrapolated points.
func (r *ForecastResult) FutureOnly() []ForecastPoint {
	future := make([]ForecastPoint, 0, r.HorizonDays)
	for _, p := range r.Points {
		if !p.Historical {
			future = append(future, p)
		}
	}
	return future
}
