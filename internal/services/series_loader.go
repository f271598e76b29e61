package services

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/bomkr/revenue-analytics/internal/models"
)

// rejectedSampleSize bounds how many failed rows are retained for inspection.
const rejectedSampleSize = 5

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// SeriesLoader normalizes raw transaction rows into clean daily series.
type SeriesLoader struct {
	logger *logrus.Logger
}

func NewSeriesLoader(logger *logrus.Logger) *SeriesLoader {
	return &SeriesLoader{logger: logger}
}

// LoadSeries cleans raw rows into a gap-aware, chronologically sorted daily
// series. Rows whose date fails to parse are excluded and reported in the
// LoadReport, never silently dropped. Non-numeric or missing amounts coerce to
// zero. Duplicate dates are aggregated by summation. Returns ErrEmptySeries
// when no valid rows remain.
func (l *SeriesLoader) LoadSeries(rows []models.RawRow) (*models.DailySeries, *models.LoadReport, error) {
	report := &models.LoadReport{}
	totals := make(map[time.Time]decimal.Decimal)

	for _, row := range rows {
		date, ok := parseDate(row.Date)
		if !ok {
			report.RejectedRows++
			if len(report.Sample) < rejectedSampleSize {
				report.Sample = append(report.Sample, models.RejectedRow{
					Row:    row,
					Reason: "unparseable date",
				})
			}
			continue
		}

		amount := parseAmount(row.Amount)
		totals[date] = totals[date].Add(amount)
		report.ValidRows++
	}

	if len(totals) == 0 {
		l.logger.WithFields(logrus.Fields{
			"rows":     len(rows),
			"rejected": report.RejectedRows,
		}).Warn("No valid rows after cleaning")
		return nil, report, models.ErrEmptySeries
	}

	series := &models.DailySeries{
		Observations: make([]models.DailyObservation, 0, len(totals)),
	}
	for date, total := range totals {
		series.Observations = append(series.Observations, models.DailyObservation{
			Date:  date,
			Value: total,
		})
	}
	sort.Slice(series.Observations, func(i, j int) bool {
		return series.Observations[i].Date.Before(series.Observations[j].Date)
	})

	if report.RejectedRows > 0 {
		l.logger.WithFields(logrus.Fields{
			"valid":    report.ValidRows,
			"rejected": report.RejectedRows,
		}).Info("Loaded series with rejected rows")
	}

	return series, report, nil
}

// parseDate tries the known layouts and truncates to midnight UTC so that one
// calendar day maps to exactly one key.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return amount
}
