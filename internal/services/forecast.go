package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bomkr/revenue-analytics/internal/models"
)

// ForecastOptions configures the additive decomposition model. Defaults follow
// the usual Prophet-style settings; fitting is closed-form and fully
// deterministic, so identical inputs always reproduce the same decomposition.
type ForecastOptions struct {
	ChangepointRange float64 // proportion of history eligible for changepoints
	NumChangepoints  int
	ChangepointScale float64 // damping applied to slope adjustments
	WeeklyOrder      int     // Fourier order for the weekly period
	YearlyOrder      int     // Fourier order for the yearly period
	IntervalZ        float64 // z-score for the uncertainty band (1.28 ~ 80%)
}

func DefaultForecastOptions() ForecastOptions {
	return ForecastOptions{
		ChangepointRange: 0.8,
		NumChangepoints:  25,
		ChangepointScale: 0.05,
		WeeklyOrder:      3,
		YearlyOrder:      10,
		IntervalZ:        1.28,
	}
}

// Regressor supplies an auxiliary covariate by date. Historical dates feed the
// fit; future dates feed the horizon. A regressor with no future values
// contributes nothing beyond the fit range, and Predict reports it in
// MissingRegressors so the degradation is explicit.
type Regressor struct {
	Name   string
	Values map[time.Time]float64
}

// Forecaster fits y(t) = trend + weekly + yearly + holidays + regressors + noise
// to a daily series and projects it forward. One Forecaster per fit; it is not
// shared across concurrent callers.
type Forecaster struct {
	opts   ForecastOptions
	logger *logrus.Logger

	fitted bool

	dates  []time.Time
	values []float64

	// normalization
	tMin, tScale float64
	yMin, yScale float64

	// piecewise-linear trend
	k, m         float64
	changepoints []float64
	deltas       []float64

	// seasonality (model space)
	weeklyCoeffs []float64
	yearlyCoeffs []float64

	// holidays (model space offsets)
	holidays       []models.Holiday
	holidayOffsets map[string]float64
	defaultOffset  float64

	// regressors (model space coefficients)
	regressors []Regressor
	regCoeffs  map[string]float64

	sigma float64 // residual stddev in original units
}

func NewForecaster(opts ForecastOptions, logger *logrus.Logger) *Forecaster {
	return &Forecaster{opts: opts, logger: logger}
}

// Fit estimates the decomposition from the historical series. At least two
// distinct dates are required; a constant series is not an error and fits a
// flat trend with zero seasonal and holiday amplitude. The context bounds the
// changepoint search.
func (f *Forecaster) Fit(ctx context.Context, series *models.DailySeries, holidays []models.Holiday, regressors []Regressor) error {
	n := series.Len()
	if n < 2 {
		return fmt.Errorf("%w: need at least 2 distinct dates, got %d", models.ErrInsufficientData, n)
	}

	f.dates = series.Dates()
	f.values = series.Values()
	f.holidays = holidays
	f.regressors = regressors

	// Normalize time to [0,1] and values to [0,1].
	f.tMin = float64(f.dates[0].Unix())
	f.tScale = float64(f.dates[n-1].Unix()) - f.tMin
	if f.tScale == 0 {
		return fmt.Errorf("%w: all observations share one date", models.ErrInsufficientData)
	}

	f.yMin, f.yScale = minMaxRange(f.values)

	t := make([]float64, n)
	y := make([]float64, n)
	for i := range f.values {
		t[i] = (float64(f.dates[i].Unix()) - f.tMin) / f.tScale
		y[i] = (f.values[i] - f.yMin) / f.yScale
	}

	f.fitTrend(ctx, t, y)

	residual := make([]float64, n)
	for i := range t {
		residual[i] = y[i] - f.trendAt(t[i])
	}

	// Seasonality is learned from the detrended residuals. Periods shorter
	// than the data span only amplify noise, so each block gates on span.
	spanDays := f.tScale / 86400
	if spanDays >= 14 {
		f.weeklyCoeffs = fitFourier(f.dates, residual, 7.0, f.opts.WeeklyOrder)
		subtractFourier(f.dates, residual, f.weeklyCoeffs, 7.0)
	}
	if spanDays >= 365 {
		f.yearlyCoeffs = fitFourier(f.dates, residual, 365.25, f.opts.YearlyOrder)
		subtractFourier(f.dates, residual, f.yearlyCoeffs, 365.25)
	}

	f.fitHolidays(residual)
	for i, d := range f.dates {
		offset, _ := f.holidayAt(d)
		residual[i] -= offset
	}

	f.fitRegressors(residual)
	for i, d := range f.dates {
		residual[i] -= f.regressorAt(d)
	}

	f.sigma = stddev(residual) * f.yScale
	f.fitted = true
	return ctx.Err()
}

// Predict projects the fitted model over the historical range plus horizonDays
// future days. Each call builds a wholly new ForecastResult.
func (f *Forecaster) Predict(horizonDays int) (*models.ForecastResult, error) {
	if !f.fitted {
		return nil, models.ErrModelNotFitted
	}
	if horizonDays < 0 {
		horizonDays = 0
	}

	lastDate := f.dates[len(f.dates)-1]
	result := &models.ForecastResult{
		HorizonDays: horizonDays,
		Sigma:       f.sigma,
		GeneratedAt: time.Now().UTC(),
	}

	for _, d := range f.dates {
		result.Points = append(result.Points, f.pointAt(d, 0, true))
	}
	for h := 1; h <= horizonDays; h++ {
		result.Points = append(result.Points, f.pointAt(lastDate.AddDate(0, 0, h), h, false))
	}

	result.MissingRegressors = f.missingRegressors(lastDate, horizonDays)
	for _, name := range result.MissingRegressors {
		f.logger.WithField("regressor", name).
			Warn("No future values supplied for regressor; its effect is disabled over the horizon")
	}

	return result, nil
}

func (f *Forecaster) pointAt(d time.Time, futureStep int, historical bool) models.ForecastPoint {
	tNorm := (float64(d.Unix()) - f.tMin) / f.tScale

	trend := f.trendAt(tNorm)*f.yScale + f.yMin
	weekly := evalFourier(f.weeklyCoeffs, d, 7.0) * f.yScale
	yearly := evalFourier(f.yearlyCoeffs, d, 365.25) * f.yScale
	holidayNorm, holidayName := f.holidayAt(d)
	holiday := holidayNorm * f.yScale
	regressor := f.regressorAt(d) * f.yScale

	estimate := trend + weekly + yearly + holiday + regressor

	// Uncertainty widens with the horizon; historical points carry the plain
	// residual band.
	band := f.opts.IntervalZ * f.sigma
	if futureStep > 0 {
		band *= math.Sqrt(float64(futureStep))
	}

	seasonal := map[string]float64{"weekly": weekly, "yearly": yearly}

	return models.ForecastPoint{
		Date:             d,
		PointEstimate:    estimate,
		LowerBound:       estimate - band,
		UpperBound:       estimate + band,
		Trend:            trend,
		Seasonal:         seasonal,
		HolidayComponent: holiday,
		HolidayName:      holidayName,
		Historical:       historical,
	}
}

// fitTrend estimates the base slope by ordinary least squares and then places
// changepoints at the largest shifts in residual level, extending the last
// segment's slope beyond the historical range.
func (f *Forecaster) fitTrend(ctx context.Context, t, y []float64) {
	n := len(t)

	sumT, sumY, sumTY, sumT2 := 0.0, 0.0, 0.0, 0.0
	for i := range t {
		sumT += t[i]
		sumY += y[i]
		sumTY += t[i] * y[i]
		sumT2 += t[i] * t[i]
	}

	nf := float64(n)
	denom := nf*sumT2 - sumT*sumT
	if denom == 0 {
		f.k = 0
		f.m = sumY / nf
	} else {
		f.k = (nf*sumTY - sumT*sumY) / denom
		f.m = (sumY - f.k*sumT) / nf
	}

	if f.opts.NumChangepoints <= 0 || n <= f.opts.NumChangepoints {
		return
	}

	idx := f.detectChangepoints(ctx, t, y)
	f.changepoints = make([]float64, 0, len(idx))
	f.deltas = make([]float64, 0, len(idx))
	for _, i := range idx {
		if i <= 0 || i >= n-1 {
			continue
		}
		localSlope := (y[i+1] - y[i-1]) / (t[i+1] - t[i-1])
		f.changepoints = append(f.changepoints, t[i])
		f.deltas = append(f.deltas, (localSlope-f.k)*f.opts.ChangepointScale)
	}
}

func (f *Forecaster) detectChangepoints(ctx context.Context, t, y []float64) []int {
	n := len(t)
	rangeEnd := int(float64(n) * f.opts.ChangepointRange)
	if rangeEnd < 2 {
		return nil
	}

	residuals := make([]float64, n)
	for i := range t {
		residuals[i] = y[i] - (f.k*t[i] + f.m)
	}

	type candidate struct {
		idx   int
		score float64
	}
	window := n / 20
	if window < 3 {
		window = 3
	}

	var candidates []candidate
	for i := window; i < rangeEnd-window; i++ {
		if ctx.Err() != nil {
			return nil
		}
		before, after := 0.0, 0.0
		for j := i - window; j < i; j++ {
			before += residuals[j]
		}
		for j := i; j < i+window; j++ {
			after += residuals[j]
		}
		score := math.Abs(after-before) / float64(window)
		candidates = append(candidates, candidate{idx: i, score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].idx < candidates[j].idx
	})

	count := f.opts.NumChangepoints
	if count > len(candidates) {
		count = len(candidates)
	}
	picked := make([]int, count)
	for i := 0; i < count; i++ {
		picked[i] = candidates[i].idx
	}
	sort.Ints(picked)
	return picked
}

func (f *Forecaster) trendAt(t float64) float64 {
	trend := f.k*t + f.m
	for i, cp := range f.changepoints {
		if t > cp {
			trend += f.deltas[i] * (t - cp)
		}
	}
	return trend
}

// fitHolidays learns one offset per holiday name: the mean residual over the
// dates each holiday's window covers. Holidays never observed in history fall
// back to the global mean offset, which stays near zero on typical data.
func (f *Forecaster) fitHolidays(residual []float64) {
	f.holidayOffsets = make(map[string]float64)
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for i, d := range f.dates {
		for _, h := range f.holidays {
			if h.Covers(d) {
				sums[h.Name] += residual[i]
				counts[h.Name]++
			}
		}
	}

	total := 0.0
	for name, sum := range sums {
		offset := sum / float64(counts[name])
		f.holidayOffsets[name] = offset
		total += offset
	}
	if len(f.holidayOffsets) > 0 {
		f.defaultOffset = total / float64(len(f.holidayOffsets))
	}
}

// holidayAt returns the summed offset of all holidays covering the date and
// the name of the first one.
func (f *Forecaster) holidayAt(d time.Time) (float64, string) {
	offset := 0.0
	name := ""
	for _, h := range f.holidays {
		if !h.Covers(d) {
			continue
		}
		if learned, ok := f.holidayOffsets[h.Name]; ok {
			offset += learned
		} else {
			offset += f.defaultOffset
		}
		if name == "" {
			name = h.Name
		}
	}
	return offset, name
}

// fitRegressors estimates one linear coefficient per regressor against the
// remaining residual.
func (f *Forecaster) fitRegressors(residual []float64) {
	f.regCoeffs = make(map[string]float64)
	for _, reg := range f.regressors {
		sumXR, sumXX := 0.0, 0.0
		for i, d := range f.dates {
			x := reg.Values[d]
			sumXR += x * residual[i]
			sumXX += x * x
		}
		if sumXX > 0 {
			f.regCoeffs[reg.Name] = sumXR / sumXX
		}
	}
}

// regressorAt sums coefficient * value over all regressors. Dates with no
// supplied value default to zero, disabling the term; Predict surfaces missing
// future coverage in MissingRegressors.
func (f *Forecaster) regressorAt(d time.Time) float64 {
	total := 0.0
	for _, reg := range f.regressors {
		if v, ok := reg.Values[d]; ok {
			total += f.regCoeffs[reg.Name] * v
		}
	}
	return total
}

func (f *Forecaster) missingRegressors(lastDate time.Time, horizonDays int) []string {
	var missing []string
	for _, reg := range f.regressors {
		found := false
		for h := 1; h <= horizonDays; h++ {
			if _, ok := reg.Values[lastDate.AddDate(0, 0, h)]; ok {
				found = true
				break
			}
		}
		if !found && horizonDays > 0 {
			missing = append(missing, reg.Name)
		}
	}
	return missing
}

// fitFourier estimates Fourier coefficients for one period by per-term least
// squares on the residual series.
func fitFourier(dates []time.Time, residual []float64, periodDays float64, order int) []float64 {
	if order <= 0 {
		return nil
	}
	coeffs := make([]float64, 2*order)
	periodSec := periodDays * 24 * 3600

	for k := 1; k <= order; k++ {
		sinSum, cosSum := 0.0, 0.0
		sinSq, cosSq := 0.0, 0.0
		for i, d := range dates {
			phase := 2 * math.Pi * float64(k) * float64(d.Unix()) / periodSec
			s, c := math.Sin(phase), math.Cos(phase)
			sinSum += residual[i] * s
			cosSum += residual[i] * c
			sinSq += s * s
			cosSq += c * c
		}
		if sinSq > 0 {
			coeffs[2*(k-1)] = sinSum / sinSq
		}
		if cosSq > 0 {
			coeffs[2*(k-1)+1] = cosSum / cosSq
		}
	}
	return coeffs
}

func subtractFourier(dates []time.Time, residual []float64, coeffs []float64, periodDays float64) {
	for i, d := range dates {
		residual[i] -= evalFourier(coeffs, d, periodDays)
	}
}

func evalFourier(coeffs []float64, d time.Time, periodDays float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}
	periodSec := periodDays * 24 * 3600
	total := 0.0
	for k := 1; k <= len(coeffs)/2; k++ {
		phase := 2 * math.Pi * float64(k) * float64(d.Unix()) / periodSec
		total += coeffs[2*(k-1)]*math.Sin(phase) + coeffs[2*(k-1)+1]*math.Cos(phase)
	}
	return total
}

func minMaxRange(values []float64) (min, scale float64) {
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	scale = max - min
	if scale == 0 {
		scale = 1
	}
	return min, scale
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(len(values)))
}
