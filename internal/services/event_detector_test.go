package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomkr/revenue-analytics/internal/models"
)

func TestDetectEvents_BaselineComparator(t *testing.T) {
	// With window 3 the centered means are 100, 200, 250; only the spike day
	// exceeds 1.5x its baseline.
	series := makeSeries(seriesStart, 100, 100, 400)
	baseline := ComputeBaseline(series, 3)

	flags, err := DetectEvents(series, baseline, 1.5, CompareBaseline)
	require.NoError(t, err)
	require.Len(t, flags, 3)

	assert.False(t, flags[0].IsEvent)
	assert.False(t, flags[1].IsEvent)
	assert.True(t, flags[2].IsEvent)
}

func TestDetectEvents_PrevDayComparator(t *testing.T) {
	series := makeSeries(seriesStart, 100, 200, 250, 600)
	baseline := ComputeBaseline(series, 3)

	flags, err := DetectEvents(series, baseline, 1.5, ComparePrevDay)
	require.NoError(t, err)

	assert.False(t, flags[0].IsEvent) // no previous day
	assert.True(t, flags[1].IsEvent)  // 200 > 100*1.5
	assert.False(t, flags[2].IsEvent) // 250 < 200*1.5
	assert.True(t, flags[3].IsEvent)  // 600 > 250*1.5
}

func TestDetectEvents_EitherComparator(t *testing.T) {
	series := makeSeries(seriesStart, 100, 100, 100, 100, 100, 400)
	baseline := ComputeTrailingBaseline(series, 3)

	flags, err := DetectEvents(series, baseline, 1.5, CompareEither)
	require.NoError(t, err)
	assert.True(t, flags[5].IsEvent)
	for i := 0; i < 5; i++ {
		assert.False(t, flags[i].IsEvent)
	}
}

func TestDetectEvents_ZeroBaselineNeverFlags(t *testing.T) {
	series := makeSeries(seriesStart, 0, 0, 100)
	baseline := ComputeBaseline(series, 3)

	// baseline at index 0 is mean(0,0)=0; index 1 is mean(0,0,100)>0
	flags, err := DetectEvents(series, baseline, 1.5, CompareBaseline)
	require.NoError(t, err)
	assert.False(t, flags[0].IsEvent)

	flags, err = DetectEvents(series, baseline, 1.5, ComparePrevDay)
	require.NoError(t, err)
	assert.False(t, flags[2].IsEvent) // previous day is zero
}

func TestDetectEvents_ThresholdDomain(t *testing.T) {
	series := makeSeries(seriesStart, 1, 2, 3)
	baseline := ComputeBaseline(series, 3)

	for _, threshold := range []float64{0.5, 0.99, 5.01, -1, 0} {
		_, err := DetectEvents(series, baseline, threshold, CompareBaseline)
		assert.ErrorIs(t, err, models.ErrInvalidThreshold, "threshold %v", threshold)
	}

	for _, threshold := range []float64{1.0, 1.5, 5.0} {
		_, err := DetectEvents(series, baseline, threshold, CompareBaseline)
		assert.NoError(t, err, "threshold %v", threshold)
	}
}

func TestDetectEvents_Deterministic(t *testing.T) {
	series := makeSeries(seriesStart, 10, 50, 20, 90, 30, 70, 15)
	baseline := ComputeBaseline(series, 3)

	first, err := DetectEvents(series, baseline, 1.5, CompareBaseline)
	require.NoError(t, err)
	second, err := DetectEvents(series, baseline, 1.5, CompareBaseline)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParseComparator(t *testing.T) {
	tests := []struct {
		input   string
		want    Comparator
		wantErr bool
	}{
		{"baseline", CompareBaseline, false},
		{"prev_day", ComparePrevDay, false},
		{"either", CompareEither, false},
		{"", CompareBaseline, false},
		{"bogus", "", true},
	}

	for _, tt := range tests {
		got, err := ParseComparator(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestAnnotateSeries(t *testing.T) {
	series := makeSeries(seriesStart, 100, 100, 400)
	baseline := ComputeBaseline(series, 3)
	flags, err := DetectEvents(series, baseline, 1.5, CompareBaseline)
	require.NoError(t, err)

	annotated := AnnotateSeries(series, baseline, flags)
	require.Len(t, annotated, 3)
	assert.Equal(t, "400", annotated[2].Value.String())
	assert.True(t, annotated[2].IsEvent)
	assert.InDelta(t, 250.0, annotated[2].RollingMean, 1e-9)
}

func TestWeekdayEventStats(t *testing.T) {
	// 2024-01-01 is a Monday; 14 days covers each weekday exactly twice.
	values := make([]float64, 14)
	for i := range values {
		values[i] = 100
	}
	values[5] = 500  // Saturday 2024-01-06
	values[12] = 500 // Saturday 2024-01-13

	series := makeSeries(seriesStart, values...)
	baseline := ComputeBaseline(series, 7)
	flags, err := DetectEvents(series, baseline, 1.5, CompareBaseline)
	require.NoError(t, err)

	stats := WeekdayEventStats(series, baseline, flags)

	totalFlags := 0
	for _, f := range flags {
		if f.IsEvent {
			totalFlags++
		}
	}
	totalCounts := 0
	for wd := 0; wd < 7; wd++ {
		totalCounts += stats.Counts[wd]
	}
	assert.Equal(t, totalFlags, totalCounts)

	saturday := int(time.Saturday)
	assert.Equal(t, 2, stats.Counts[saturday])
	assert.Greater(t, stats.Intensity[saturday], 1.5)

	// weekdays with no events report zero intensity, not NaN
	assert.Zero(t, stats.Counts[int(time.Monday)])
	assert.Zero(t, stats.Intensity[int(time.Monday)])
}
