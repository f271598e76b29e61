package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/bomkr/revenue-analytics/internal/config"
	"github.com/bomkr/revenue-analytics/internal/models"
)

// PgxQuerier is the subset of the pgx pool the service needs; satisfied by
// *pgxpool.Pool and by pgxmock in tests.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AnalyticsService orchestrates the analytics pipeline: it reads raw rows from
// the transaction store, cleans them, derives baselines and event flags, and
// drives the forecaster with optional holiday and event-regressor inputs.
// All per-request state is local; nothing is shared across concurrent calls.
type AnalyticsService struct {
	db     PgxQuerier
	cache  *ForecastCache
	cfg    *config.Config
	logger *logrus.Logger
	loader *SeriesLoader
}

func NewAnalyticsService(db PgxQuerier, cache *ForecastCache, cfg *config.Config, logger *logrus.Logger) *AnalyticsService {
	return &AnalyticsService{
		db:     db,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
		loader: NewSeriesLoader(logger),
	}
}

// SeriesParams selects and configures a daily-series request. Zero values fall
// back to the configured defaults: explicit parameters, never ambient state.
type SeriesParams struct {
	From       time.Time
	To         time.Time
	Window     int
	Threshold  float64
	Comparator Comparator
}

func (s *AnalyticsService) seriesDefaults(p SeriesParams) SeriesParams {
	if p.Window <= 0 {
		p.Window = s.cfg.Analytics.BaselineWindow
	}
	if p.Threshold == 0 {
		p.Threshold = s.cfg.Analytics.EventThreshold
	}
	if p.Comparator == "" {
		p.Comparator = Comparator(s.cfg.Analytics.Comparator)
	}
	return p
}

// DailySeriesView is the EventFlag-annotated payment series plus the weekday
// aggregates derived from it.
type DailySeriesView struct {
	Series       []models.AnnotatedObservation `json:"series"`
	WeekdayStats models.WeekdayEventStats      `json:"weekday_stats"`
	LoadReport   *models.LoadReport            `json:"load_report"`
	EventCount   int                           `json:"event_count"`
}

// GetDailySeries loads the payment series for the range and annotates it with
// baseline and event flags.
func (s *AnalyticsService) GetDailySeries(ctx context.Context, params SeriesParams) (*DailySeriesView, error) {
	params = s.seriesDefaults(params)
	if err := ValidateThreshold(params.Threshold); err != nil {
		return nil, err
	}

	series, report, err := s.loadPaymentSeries(ctx, params.From, params.To)
	if err != nil {
		return nil, err
	}

	baseline := ComputeBaseline(series, params.Window)
	if params.Comparator == CompareEither {
		baseline = ComputeTrailingBaseline(series, params.Window)
	}

	flags, err := DetectEvents(series, baseline, params.Threshold, params.Comparator)
	if err != nil {
		return nil, err
	}

	view := &DailySeriesView{
		Series:       AnnotateSeries(series, baseline, flags),
		WeekdayStats: WeekdayEventStats(series, baseline, flags),
		LoadReport:   report,
	}
	for _, flag := range flags {
		if flag.IsEvent {
			view.EventCount++
		}
	}
	return view, nil
}

// ForecastParams configures one forecast request.
type ForecastParams struct {
	SeriesParams
	HorizonDays    int
	HolidayCountry string
	WithEvents     bool // supply detected event flags as a regressor
}

// GetForecast fits (or recalls from cache) the holiday-aware additive model
// over the payment series and projects it forward. Holiday lookup failure for
// an unknown region is surfaced; any other degradation (no holidays supplied,
// missing future regressors) is logged and the forecast proceeds.
func (s *AnalyticsService) GetForecast(ctx context.Context, params ForecastParams) (*models.ForecastResult, error) {
	params.SeriesParams = s.seriesDefaults(params.SeriesParams)
	if params.HorizonDays <= 0 {
		params.HorizonDays = s.cfg.Forecast.HorizonDays
	}
	if params.HolidayCountry == "" {
		params.HolidayCountry = s.cfg.Forecast.HolidayCountry
	}

	series, _, err := s.loadPaymentSeries(ctx, params.From, params.To)
	if err != nil {
		return nil, err
	}

	holidays, err := s.holidaysForSeries(series, params.HolidayCountry, params.HorizonDays)
	if err != nil {
		return nil, err
	}

	var regressors []Regressor
	if params.WithEvents {
		reg, regErr := s.eventRegressor(series, params)
		if regErr != nil {
			return nil, regErr
		}
		regressors = append(regressors, reg)
	}

	opts := DefaultForecastOptions()
	regressorNames := make([]string, 0, len(regressors))
	for _, r := range regressors {
		regressorNames = append(regressorNames, r.Name)
	}

	var key string
	if s.cache != nil {
		key = s.cache.Key(series, holidays, regressorNames, opts, params.HorizonDays)
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	fitCtx, cancel := context.WithTimeout(ctx, s.cfg.Forecast.FitTimeoutDuration())
	defer cancel()

	forecaster := NewForecaster(opts, s.logger)
	if err := forecaster.Fit(fitCtx, series, holidays, regressors); err != nil {
		return nil, fmt.Errorf("forecast fit failed: %w", err)
	}
	result, err := forecaster.Predict(params.HorizonDays)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, result)
	}
	return result, nil
}

// holidaysForSeries resolves the holiday set covering the series years plus
// the horizon. An empty country or "none" disables holidays; an unsupported
// code is a caller error rather than a silent downgrade, so a typo does not
// quietly drop the holiday terms.
func (s *AnalyticsService) holidaysForSeries(series *models.DailySeries, country string, horizonDays int) ([]models.Holiday, error) {
	if country == "" || country == "none" {
		return nil, nil
	}

	firstYear := series.Observations[0].Date.Year()
	lastYear := series.Observations[series.Len()-1].Date.AddDate(0, 0, horizonDays).Year()
	var years []int
	for y := firstYear; y <= lastYear; y++ {
		years = append(years, y)
	}

	holidays, err := HolidaysFor(country, years)
	if err != nil {
		if errors.Is(err, models.ErrUnsupportedRegion) {
			return nil, err
		}
		s.logger.WithError(err).Warn("Holiday lookup failed; forecasting without holidays")
		return nil, nil
	}
	return holidays, nil
}

// eventRegressor reruns event detection on the series and exposes the flags
// as a 0/1 covariate. No future values are supplied, so the forecaster will
// report the regressor as missing over the horizon.
func (s *AnalyticsService) eventRegressor(series *models.DailySeries, params ForecastParams) (Regressor, error) {
	baseline := ComputeBaseline(series, params.Window)
	flags, err := DetectEvents(series, baseline, params.Threshold, params.Comparator)
	if err != nil {
		return Regressor{}, err
	}

	values := make(map[time.Time]float64, len(flags))
	for _, flag := range flags {
		if flag.IsEvent {
			values[flag.Date] = 1
		}
	}
	return Regressor{Name: "event_day", Values: values}, nil
}

// GetRanking builds the top-K coin ranking over the window. Launch dates are
// resolved against the full dataset, so the query is not range-bounded.
func (s *AnalyticsService) GetRanking(ctx context.Context, from, to time.Time, topN int) (*models.RankingView, error) {
	if topN <= 0 {
		topN = s.cfg.Analytics.TopN
	}

	rows, err := s.fetchCoinRows(ctx)
	if err != nil {
		return nil, err
	}
	view := BuildRankingView(rows, from, to, topN)
	return &view, nil
}

// GetCycle builds the payment cycle view between two sequence numbers.
func (s *AnalyticsService) GetCycle(ctx context.Context, firstSeq, targetSeq int, from, to time.Time) (*models.CycleView, error) {
	if firstSeq < 1 || targetSeq <= firstSeq {
		return nil, fmt.Errorf("invalid sequence pair: first=%d target=%d", firstSeq, targetSeq)
	}

	rows, err := s.fetchCycleRows(ctx, firstSeq, targetSeq, from, to)
	if err != nil {
		return nil, err
	}
	view := BuildCycleView(rows, firstSeq, targetSeq)
	return &view, nil
}

// GetSummary builds the home dashboard metrics over the full dataset.
func (s *AnalyticsService) GetSummary(ctx context.Context) (*models.HomeSummary, error) {
	payments, _, err := s.loadPaymentSeries(ctx, time.Time{}, time.Time{})
	if err != nil && !errors.Is(err, models.ErrEmptySeries) {
		return nil, err
	}

	coinRows, err := s.fetchCoinRows(ctx)
	if err != nil {
		return nil, err
	}
	coins := coinSeries(coinRows)

	summary := BuildHomeSummary(payments, coins, s.cfg.Analytics.RecentTrendDays, time.Now().UTC())
	return &summary, nil
}

// loadPaymentSeries reads the payment table and runs it through the loader.
// Dates and amounts are read as text: the legacy schema does not guarantee
// well-formed values, and the loader's rejected-row reporting is the contract
// for surfacing that.
func (s *AnalyticsService) loadPaymentSeries(ctx context.Context, from, to time.Time) (*models.DailySeries, *models.LoadReport, error) {
	query := `SELECT date::text, COALESCE(amount::text, '') FROM payment_log`
	var args []any
	if !from.IsZero() && !to.IsZero() {
		query += ` WHERE date >= $1 AND date <= $2`
		args = append(args, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	query += ` ORDER BY date`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query payment rows: %w", err)
	}
	defer rows.Close()

	var raw []models.RawRow
	for rows.Next() {
		var r models.RawRow
		if err := rows.Scan(&r.Date, &r.Amount); err != nil {
			return nil, nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating payment rows: %w", err)
	}

	return s.loader.LoadSeries(raw)
}

func (s *AnalyticsService) fetchCoinRows(ctx context.Context) ([]models.CoinUsageRow, error) {
	query := `
		SELECT date, title,
		       (g_coin - g_coin_cncl) + (b_coin - b_coin_cncl) AS total_coins
		FROM purchase_log
		ORDER BY date`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query coin rows: %w", err)
	}
	defer rows.Close()

	var usage []models.CoinUsageRow
	for rows.Next() {
		var row models.CoinUsageRow
		if err := rows.Scan(&row.Date, &row.Title, &row.Coins); err != nil {
			return nil, fmt.Errorf("failed to scan coin row: %w", err)
		}
		usage = append(usage, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coin rows: %w", err)
	}
	return usage, nil
}

func (s *AnalyticsService) fetchCycleRows(ctx context.Context, firstSeq, targetSeq int, from, to time.Time) ([]models.PaymentCycleRow, error) {
	query := `
		SELECT user_id, payment_seq, date, amount, platform
		FROM payment_log
		WHERE payment_seq IN ($1, $2) AND date >= $3 AND date <= $4
		ORDER BY user_id, payment_seq`

	rows, err := s.db.Query(ctx, query, firstSeq, targetSeq,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle rows: %w", err)
	}
	defer rows.Close()

	var cycle []models.PaymentCycleRow
	for rows.Next() {
		var row models.PaymentCycleRow
		if err := rows.Scan(&row.UserID, &row.PaymentSeq, &row.Date, &row.Amount, &row.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan cycle row: %w", err)
		}
		cycle = append(cycle, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cycle rows: %w", err)
	}
	return cycle, nil
}

// coinSeries aggregates coin usage rows into a daily series.
func coinSeries(rows []models.CoinUsageRow) *models.DailySeries {
	totals := make(map[time.Time]decimal.Decimal)
	for _, row := range rows {
		d := time.Date(row.Date.Year(), row.Date.Month(), row.Date.Day(), 0, 0, 0, 0, time.UTC)
		totals[d] = totals[d].Add(row.Coins)
	}

	series := &models.DailySeries{}
	for d, total := range totals {
		series.Observations = append(series.Observations, models.DailyObservation{Date: d, Value: total})
	}
	sort.Slice(series.Observations, func(i, j int) bool {
		return series.Observations[i].Date.Before(series.Observations[j].Date)
	})
	return series
}
