package services

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"github.com/bomkr/revenue-analytics/internal/models"
)

// DefaultBaselineWindow is the rolling window width used when a request does
// not override it.
const DefaultBaselineWindow = 7

// ComputeBaseline derives a centered rolling mean over the series: for index i
// the mean covers [i - window/2, i + window/2] clipped to series bounds, so
// partial windows at the edges use all available points (minimum 1). Pure and
// deterministic; the result is a fresh derived view, one point per input date.
func ComputeBaseline(series *models.DailySeries, window int) *models.BaselineSeries {
	if window < 1 {
		window = DefaultBaselineWindow
	}
	half := window / 2

	n := series.Len()
	values := series.Values()
	points := make([]models.BaselinePoint, n)

	for i := 0; i < n; i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > n-1 {
			hi = n - 1
		}

		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		points[i] = models.BaselinePoint{
			Date:        series.Observations[i].Date,
			RollingMean: sum / float64(hi-lo+1),
		}
	}

	return &models.BaselineSeries{Window: window, Points: points}
}

// ComputeTrailingBaseline derives a trailing simple moving average, the
// comparator variant used when the reporting window should only look backwards.
// The first window-1 positions carry the partial mean of what has been seen so
// far, mirroring the edge behavior of the centered baseline.
func ComputeTrailingBaseline(series *models.DailySeries, window int) *models.BaselineSeries {
	if window < 1 {
		window = DefaultBaselineWindow
	}

	n := series.Len()
	values := series.Values()
	points := make([]models.BaselinePoint, n)

	// cinar emits one value per full window, leaving the warm-up prefix to us.
	sma := trend.NewSmaWithPeriod[float64](window)
	full := helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))

	sum := 0.0
	for i := 0; i < n; i++ {
		if i < window-1 {
			sum += values[i]
			points[i] = models.BaselinePoint{
				Date:        series.Observations[i].Date,
				RollingMean: sum / float64(i+1),
			}
			continue
		}
		points[i] = models.BaselinePoint{
			Date:        series.Observations[i].Date,
			RollingMean: full[i-(window-1)],
		}
	}

	return &models.BaselineSeries{Window: window, Points: points}
}
