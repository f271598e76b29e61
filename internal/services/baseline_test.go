package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomkr/revenue-analytics/internal/models"
)

func makeSeries(start time.Time, values ...float64) *models.DailySeries {
	series := &models.DailySeries{}
	for i, v := range values {
		series.Observations = append(series.Observations, models.DailyObservation{
			Date:  start.AddDate(0, 0, i),
			Value: decimal.NewFromFloat(v),
		})
	}
	return series
}

var seriesStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestComputeBaseline_CenteredWindow(t *testing.T) {
	series := makeSeries(seriesStart, 10, 20, 30, 40, 50)
	baseline := ComputeBaseline(series, 3)

	require.Len(t, baseline.Points, series.Len())
	assert.Equal(t, 3, baseline.Window)

	// interior point: mean of [i-1, i+1]
	assert.InDelta(t, 20.0, baseline.Points[1].RollingMean, 1e-9)
	assert.InDelta(t, 30.0, baseline.Points[2].RollingMean, 1e-9)

	// edges clip to available points
	assert.InDelta(t, 15.0, baseline.Points[0].RollingMean, 1e-9) // mean(10,20)
	assert.InDelta(t, 45.0, baseline.Points[4].RollingMean, 1e-9) // mean(40,50)
}

func TestComputeBaseline_WindowWiderThanSeries(t *testing.T) {
	series := makeSeries(seriesStart, 10, 20)
	baseline := ComputeBaseline(series, 30)

	require.Len(t, baseline.Points, 2)
	for _, p := range baseline.Points {
		assert.InDelta(t, 15.0, p.RollingMean, 1e-9)
	}
}

func TestComputeBaseline_BoundedByMinMax(t *testing.T) {
	series := makeSeries(seriesStart, 5, 80, 12, 44, 3, 61, 29, 17)
	baseline := ComputeBaseline(series, 5)

	for _, p := range baseline.Points {
		assert.GreaterOrEqual(t, p.RollingMean, 3.0)
		assert.LessOrEqual(t, p.RollingMean, 80.0)
	}
}

func TestComputeBaseline_InvalidWindowFallsBack(t *testing.T) {
	series := makeSeries(seriesStart, 1, 2, 3)
	baseline := ComputeBaseline(series, 0)
	assert.Equal(t, DefaultBaselineWindow, baseline.Window)
}

func TestComputeBaseline_DatesAlign(t *testing.T) {
	series := makeSeries(seriesStart, 1, 2, 3, 4)
	baseline := ComputeBaseline(series, 3)

	for i, p := range baseline.Points {
		assert.True(t, p.Date.Equal(series.Observations[i].Date))
	}
}

func TestComputeTrailingBaseline(t *testing.T) {
	series := makeSeries(seriesStart, 10, 20, 30, 40, 50)
	baseline := ComputeTrailingBaseline(series, 3)

	require.Len(t, baseline.Points, 5)

	// warm-up prefix carries partial means
	assert.InDelta(t, 10.0, baseline.Points[0].RollingMean, 1e-9)
	assert.InDelta(t, 15.0, baseline.Points[1].RollingMean, 1e-9)

	// full windows look strictly backwards
	assert.InDelta(t, 20.0, baseline.Points[2].RollingMean, 1e-9) // mean(10,20,30)
	assert.InDelta(t, 30.0, baseline.Points[3].RollingMean, 1e-9)
	assert.InDelta(t, 40.0, baseline.Points[4].RollingMean, 1e-9)
}
