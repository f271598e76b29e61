package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bomkr/revenue-analytics/internal/models"
)

// DefaultTopN is the ranking view page size before any "show more" requests.
const DefaultTopN = 10

var headerPrinter = message.NewPrinter(language.Korean)

// BuildRankingView groups coin usage by title over [from, to], sums coins,
// sorts descending with a deterministic name tiebreak, and takes the top N.
// Launch dates come from the entire dataset, not the filtered window, so a
// title is "new" exactly when its first-ever observation falls inside the
// window. The caller owns the pagination cursor: pass a larger topN on each
// "show more" request.
func BuildRankingView(rows []models.CoinUsageRow, from, to time.Time, topN int) models.RankingView {
	if topN <= 0 {
		topN = DefaultTopN
	}

	launch := make(map[string]time.Time)
	for _, row := range rows {
		if first, ok := launch[row.Title]; !ok || row.Date.Before(first) {
			launch[row.Title] = row.Date
		}
	}

	totals := make(map[string]decimal.Decimal)
	grand := decimal.Zero
	for _, row := range rows {
		if row.Date.Before(from) || row.Date.After(to) {
			continue
		}
		totals[row.Title] = totals[row.Title].Add(row.Coins)
		grand = grand.Add(row.Coins)
	}

	titles := make([]string, 0, len(totals))
	for title := range totals {
		titles = append(titles, title)
	}
	sort.Slice(titles, func(i, j int) bool {
		cmp := totals[titles[i]].Cmp(totals[titles[j]])
		if cmp != 0 {
			return cmp > 0
		}
		return titles[i] < titles[j]
	})

	view := models.RankingView{
		TopN:       topN,
		GrandTotal: grand,
		TopTotal:   decimal.Zero,
		HasMore:    len(titles) > topN,
	}

	limit := topN
	if limit > len(titles) {
		limit = len(titles)
	}
	for i := 0; i < limit; i++ {
		title := titles[i]
		launchDate := launch[title]
		view.Entries = append(view.Entries, models.RankingEntry{
			Rank:       i + 1,
			Title:      title,
			Total:      totals[title],
			LaunchDate: launchDate,
			IsNew:      !launchDate.Before(from) && !launchDate.After(to),
		})
		view.TopTotal = view.TopTotal.Add(totals[title])
	}

	if grand.IsPositive() {
		ratio, _ := view.TopTotal.Div(grand).Float64()
		view.Ratio = ratio
	}
	view.Header = headerPrinter.Sprintf("Top %d: %d / %d (%.1f%%)",
		limit, view.TopTotal.IntPart(), grand.IntPart(), view.Ratio*100)

	return view
}

// BuildCycleView inner-joins each user's firstSeq-th and targetSeq-th payments
// within the rows and summarizes the day-gap and amount distributions plus the
// platform breakdown of the target payment. Users missing either sequence are
// excluded silently: not having progressed that far is a business state, not
// an error.
func BuildCycleView(rows []models.PaymentCycleRow, firstSeq, targetSeq int) models.CycleView {
	view := models.CycleView{
		FirstSeq:    firstSeq,
		TargetSeq:   targetSeq,
		Platforms:   make(map[string]int),
		PlatformPct: make(map[string]float64),
	}
	if firstSeq >= targetSeq {
		return view
	}

	type pair struct {
		first  *models.PaymentCycleRow
		target *models.PaymentCycleRow
	}
	users := make(map[string]*pair)
	for i := range rows {
		row := &rows[i]
		p, ok := users[row.UserID]
		if !ok {
			p = &pair{}
			users[row.UserID] = p
		}
		switch row.PaymentSeq {
		case firstSeq:
			p.first = row
		case targetSeq:
			p.target = row
		}
	}

	var gaps, amounts []float64
	for _, p := range users {
		if p.first == nil || p.target == nil {
			continue
		}
		view.MatchedUsers++
		gaps = append(gaps, p.target.Date.Sub(p.first.Date).Hours()/24)
		amounts = append(amounts, p.target.Amount.InexactFloat64())
		view.Platforms[p.target.Platform]++
	}

	view.DayGap = summarize(gaps)
	view.Amount = summarize(amounts)
	for platform, count := range view.Platforms {
		view.PlatformPct[platform] = float64(count) / float64(view.MatchedUsers)
	}
	return view
}

// BuildHomeSummary computes the dashboard headline metrics plus the recent
// trend slices for both series.
func BuildHomeSummary(payments, coins *models.DailySeries, recentDays int, now time.Time) models.HomeSummary {
	summary := models.HomeSummary{
		TotalPayment: decimal.Zero,
		TotalCoins:   decimal.Zero,
		DailyAverage: decimal.Zero,
	}

	if payments != nil {
		for _, obs := range payments.Observations {
			summary.TotalPayment = summary.TotalPayment.Add(obs.Value)
		}
		summary.DaysCount = payments.Len()
		if summary.DaysCount > 0 {
			summary.DailyAverage = summary.TotalPayment.
				Div(decimal.NewFromInt(int64(summary.DaysCount))).Round(2)
		}
		summary.RecentPayment = recentSlice(payments, recentDays, now)
	}

	if coins != nil {
		for _, obs := range coins.Observations {
			summary.TotalCoins = summary.TotalCoins.Add(obs.Value)
		}
		summary.RecentCoins = recentSlice(coins, recentDays, now)
	}

	return summary
}

func recentSlice(series *models.DailySeries, days int, now time.Time) []models.DailyObservation {
	cutoff := now.AddDate(0, 0, -days)
	var recent []models.DailyObservation
	for _, obs := range series.Observations {
		if !obs.Date.Before(cutoff) {
			recent = append(recent, obs)
		}
	}
	return recent
}

func summarize(values []float64) models.DistributionStats {
	if len(values) == 0 {
		return models.DistributionStats{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	return models.DistributionStats{
		Mean:   sum / float64(len(sorted)),
		Median: median,
		Mode:   mode(sorted),
	}
}

// mode returns the most frequent value; ties resolve to the smallest value
// because the input is sorted.
func mode(sorted []float64) float64 {
	best := sorted[0]
	bestCount := 0
	current := sorted[0]
	count := 0
	for _, v := range sorted {
		if v == current {
			count++
		} else {
			current = v
			count = 1
		}
		if count > bestCount {
			bestCount = count
			best = current
		}
	}
	return best
}
