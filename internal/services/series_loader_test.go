package services

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomkr/revenue-analytics/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestLoadSeries_CleanRows(t *testing.T) {
	loader := NewSeriesLoader(testLogger())

	series, report, err := loader.LoadSeries([]models.RawRow{
		{Date: "2024-01-02", Amount: "200"},
		{Date: "2024-01-01", Amount: "100"},
		{Date: "2024-01-03", Amount: "300.50"},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, report.ValidRows)
	assert.Equal(t, 0, report.RejectedRows)
	require.Equal(t, 3, series.Len())

	// sorted chronologically
	assert.Equal(t, "2024-01-01", series.Observations[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-01-03", series.Observations[2].Date.Format("2006-01-02"))
	assert.Equal(t, "100", series.Observations[0].Value.String())
	assert.Equal(t, "300.5", series.Observations[2].Value.String())
}

func TestLoadSeries_DateLayouts(t *testing.T) {
	loader := NewSeriesLoader(testLogger())

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"iso", "2024-03-05", "2024-03-05"},
		{"slash", "2024/03/05", "2024-03-05"},
		{"datetime", "2024-03-05 14:22:01", "2024-03-05"},
		{"rfc3339", "2024-03-05T14:22:01Z", "2024-03-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, _, err := loader.LoadSeries([]models.RawRow{{Date: tt.raw, Amount: "1"}})
			require.NoError(t, err)
			require.Equal(t, 1, series.Len())
			got := series.Observations[0].Date
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
			// normalized to midnight UTC
			assert.Equal(t, time.UTC, got.Location())
			assert.Equal(t, 0, got.Hour())
		})
	}
}

func TestLoadSeries_RejectsBadDates(t *testing.T) {
	loader := NewSeriesLoader(testLogger())

	series, report, err := loader.LoadSeries([]models.RawRow{
		{Date: "2024-01-01", Amount: "100"},
		{Date: "not-a-date", Amount: "50"},
		{Date: "", Amount: "25"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.ValidRows)
	assert.Equal(t, 2, report.RejectedRows)
	require.Len(t, report.Sample, 2)
	assert.Equal(t, "unparseable date", report.Sample[0].Reason)
	assert.Equal(t, 1, series.Len())
}

func TestLoadSeries_RejectedSampleIsBounded(t *testing.T) {
	loader := NewSeriesLoader(testLogger())

	rows := []models.RawRow{{Date: "2024-01-01", Amount: "1"}}
	for i := 0; i < 10; i++ {
		rows = append(rows, models.RawRow{Date: "garbage", Amount: "1"})
	}

	_, report, err := loader.LoadSeries(rows)
	require.NoError(t, err)
	assert.Equal(t, 10, report.RejectedRows)
	assert.Len(t, report.Sample, rejectedSampleSize)
}

func TestLoadSeries_BadAmountCoercesToZero(t *testing.T) {
	loader := NewSeriesLoader(testLogger())

	series, report, err := loader.LoadSeries([]models.RawRow{
		{Date: "2024-01-01", Amount: "abc"},
		{Date: "2024-01-02", Amount: ""},
		{Date: "2024-01-03", Amount: "1,234.50"},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, report.ValidRows)
	assert.True(t, series.Observations[0].Value.IsZero())
	assert.True(t, series.Observations[1].Value.IsZero())
	assert.Equal(t, "1234.5", series.Observations[2].Value.String())
}

func TestLoadSeries_DuplicateDatesAggregate(t *testing.T) {
	loader := NewSeriesLoader(testLogger())

	series, _, err := loader.LoadSeries([]models.RawRow{
		{Date: "2024-01-01", Amount: "100"},
		{Date: "2024-01-01", Amount: "250"},
		{Date: "2024-01-01 09:30:00", Amount: "50"},
	})

	require.NoError(t, err)
	require.Equal(t, 1, series.Len())
	assert.Equal(t, "400", series.Observations[0].Value.String())
}

func TestLoadSeries_EmptyAfterCleaning(t *testing.T) {
	loader := NewSeriesLoader(testLogger())

	tests := []struct {
		name string
		rows []models.RawRow
	}{
		{"no rows", nil},
		{"all rejected", []models.RawRow{{Date: "bad", Amount: "1"}, {Date: "worse", Amount: "2"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, report, err := loader.LoadSeries(tt.rows)
			assert.ErrorIs(t, err, models.ErrEmptySeries)
			assert.Nil(t, series)
			assert.NotNil(t, report)
		})
	}
}
