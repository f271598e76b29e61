package services

import (
	"fmt"

	"github.com/bomkr/revenue-analytics/internal/models"
)

// Comparator selects how a day's value is judged against its reference. The
// source dashboards disagreed on the exact operator, so it is configuration,
// not a fixed law.
type Comparator string

const (
	// CompareBaseline flags value > centered rolling mean * threshold.
	CompareBaseline Comparator = "baseline"
	// ComparePrevDay flags value > previous day's value * threshold.
	ComparePrevDay Comparator = "prev_day"
	// CompareEither flags when either the previous day or the trailing
	// baseline is exceeded by the threshold factor.
	CompareEither Comparator = "either"
)

// ParseComparator maps a request parameter to a Comparator, defaulting to the
// baseline comparison.
func ParseComparator(s string) (Comparator, error) {
	switch Comparator(s) {
	case CompareBaseline, ComparePrevDay, CompareEither:
		return Comparator(s), nil
	case "":
		return CompareBaseline, nil
	default:
		return "", fmt.Errorf("unknown comparator %q", s)
	}
}

// ValidateThreshold enforces the allowed threshold domain [1.0, 5.0].
func ValidateThreshold(threshold float64) error {
	if threshold < 1.0 || threshold > 5.0 {
		return fmt.Errorf("%w: got %v", models.ErrInvalidThreshold, threshold)
	}
	return nil
}

// DetectEvents flags days whose value exceeds the comparator's reference
// scaled by threshold. A zero or undefined reference never produces an event.
// Pure function: identical inputs always yield identical output.
func DetectEvents(series *models.DailySeries, baseline *models.BaselineSeries, threshold float64, comparator Comparator) ([]models.EventFlag, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	values := series.Values()
	flags := make([]models.EventFlag, series.Len())

	for i, obs := range series.Observations {
		flags[i] = models.EventFlag{
			Date:    obs.Date,
			IsEvent: exceeds(values, baseline, i, threshold, comparator),
		}
	}
	return flags, nil
}

func exceeds(values []float64, baseline *models.BaselineSeries, i int, threshold float64, comparator Comparator) bool {
	switch comparator {
	case ComparePrevDay:
		return exceedsPrevDay(values, i, threshold)
	case CompareEither:
		return exceedsPrevDay(values, i, threshold) || exceedsBaseline(values, baseline, i, threshold)
	default:
		return exceedsBaseline(values, baseline, i, threshold)
	}
}

func exceedsBaseline(values []float64, baseline *models.BaselineSeries, i int, threshold float64) bool {
	if baseline == nil || i >= len(baseline.Points) {
		return false
	}
	mean := baseline.Points[i].RollingMean
	if mean <= 0 {
		return false
	}
	return values[i] > mean*threshold
}

func exceedsPrevDay(values []float64, i int, threshold float64) bool {
	if i == 0 {
		return false
	}
	prev := values[i-1]
	if prev <= 0 {
		return false
	}
	return values[i] > prev*threshold
}

// AnnotateSeries joins observations with their baseline and event flags into
// the rows the presentation layer renders.
func AnnotateSeries(series *models.DailySeries, baseline *models.BaselineSeries, flags []models.EventFlag) []models.AnnotatedObservation {
	annotated := make([]models.AnnotatedObservation, series.Len())
	for i, obs := range series.Observations {
		annotated[i] = models.AnnotatedObservation{
			Date:        obs.Date,
			Value:       obs.Value,
			RollingMean: baseline.Points[i].RollingMean,
			IsEvent:     flags[i].IsEvent,
		}
	}
	return annotated
}

// WeekdayEventStats buckets flagged days by weekday (Sunday=0) and computes
// the mean intensity value/baseline among flagged days per weekday. Weekdays
// with no flagged days report zero intensity, not NaN.
func WeekdayEventStats(series *models.DailySeries, baseline *models.BaselineSeries, flags []models.EventFlag) models.WeekdayEventStats {
	var stats models.WeekdayEventStats
	var sums [7]float64

	values := series.Values()
	for i, flag := range flags {
		if !flag.IsEvent {
			continue
		}
		wd := int(flag.Date.Weekday())
		stats.Counts[wd]++

		mean := baseline.Points[i].RollingMean
		if mean > 0 {
			sums[wd] += values[i] / mean
		}
	}

	for wd := 0; wd < 7; wd++ {
		if stats.Counts[wd] > 0 {
			stats.Intensity[wd] = sums[wd] / float64(stats.Counts[wd])
		}
	}
	return stats
}
