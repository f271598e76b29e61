package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomkr/revenue-analytics/internal/models"
)

func coinRow(date string, title string, coins int64) models.CoinUsageRow {
	d, _ := time.Parse("2006-01-02", date)
	return models.CoinUsageRow{Date: d, Title: title, Coins: decimal.NewFromInt(coins)}
}

func cycleRow(user string, seq int, date string, amount int64, platform string) models.PaymentCycleRow {
	d, _ := time.Parse("2006-01-02", date)
	return models.PaymentCycleRow{
		UserID: user, PaymentSeq: seq, Date: d,
		Amount: decimal.NewFromInt(amount), Platform: platform,
	}
}

func window(from, to string) (time.Time, time.Time) {
	f, _ := time.Parse("2006-01-02", from)
	t, _ := time.Parse("2006-01-02", to)
	return f, t
}

func TestBuildRankingView_TopKOrdering(t *testing.T) {
	rows := []models.CoinUsageRow{
		coinRow("2024-02-01", "Tower of Dawn", 500),
		coinRow("2024-02-02", "Tower of Dawn", 300),
		coinRow("2024-02-01", "Moonlit Garden", 600),
		coinRow("2024-02-03", "Silver Blade", 200),
		coinRow("2024-02-04", "Autumn Letters", 100),
	}
	from, to := window("2024-02-01", "2024-02-29")

	view := BuildRankingView(rows, from, to, 2)

	require.Len(t, view.Entries, 2)
	assert.Equal(t, "Tower of Dawn", view.Entries[0].Title)
	assert.Equal(t, "800", view.Entries[0].Total.String())
	assert.Equal(t, 1, view.Entries[0].Rank)
	assert.Equal(t, "Moonlit Garden", view.Entries[1].Title)
	assert.True(t, view.HasMore)

	// top total never exceeds the grand total
	assert.True(t, view.TopTotal.LessThanOrEqual(view.GrandTotal))
	assert.Equal(t, "1700", view.GrandTotal.String())
	assert.InDelta(t, 1400.0/1700.0, view.Ratio, 1e-9)
	assert.NotEmpty(t, view.Header)
}

func TestBuildRankingView_TieBreaksByName(t *testing.T) {
	rows := []models.CoinUsageRow{
		coinRow("2024-02-01", "Beta", 100),
		coinRow("2024-02-01", "Alpha", 100),
		coinRow("2024-02-01", "Gamma", 100),
	}
	from, to := window("2024-02-01", "2024-02-29")

	view := BuildRankingView(rows, from, to, 3)

	require.Len(t, view.Entries, 3)
	assert.Equal(t, "Alpha", view.Entries[0].Title)
	assert.Equal(t, "Beta", view.Entries[1].Title)
	assert.Equal(t, "Gamma", view.Entries[2].Title)
	assert.False(t, view.HasMore)
}

func TestBuildRankingView_LaunchDateFromFullDataset(t *testing.T) {
	rows := []models.CoinUsageRow{
		// launched before the window
		coinRow("2023-11-15", "Old Favorite", 50),
		coinRow("2024-02-05", "Old Favorite", 400),
		// first-ever observation inside the window
		coinRow("2024-02-10", "Fresh Debut", 300),
	}
	from, to := window("2024-02-01", "2024-02-29")

	view := BuildRankingView(rows, from, to, 10)
	require.Len(t, view.Entries, 2)

	byTitle := map[string]models.RankingEntry{}
	for _, e := range view.Entries {
		byTitle[e.Title] = e
	}

	old := byTitle["Old Favorite"]
	assert.False(t, old.IsNew)
	assert.Equal(t, "2023-11-15", old.LaunchDate.Format("2006-01-02"))
	// only the in-window amount counts toward the ranking
	assert.Equal(t, "400", old.Total.String())

	fresh := byTitle["Fresh Debut"]
	assert.True(t, fresh.IsNew)
}

func TestBuildRankingView_EmptyWindow(t *testing.T) {
	rows := []models.CoinUsageRow{coinRow("2024-01-15", "Any", 100)}
	from, to := window("2024-03-01", "2024-03-31")

	view := BuildRankingView(rows, from, to, 10)
	assert.Empty(t, view.Entries)
	assert.True(t, view.GrandTotal.IsZero())
	assert.Zero(t, view.Ratio)
	assert.False(t, view.HasMore)
}

func TestBuildCycleView_InnerJoin(t *testing.T) {
	rows := []models.PaymentCycleRow{
		cycleRow("u1", 1, "2024-01-01", 1000, "android"),
		cycleRow("u1", 2, "2024-01-11", 2000, "android"),
		cycleRow("u2", 1, "2024-01-05", 1000, "ios"),
		cycleRow("u2", 2, "2024-01-25", 3000, "ios"),
		// u3 never reached the second payment: excluded
		cycleRow("u3", 1, "2024-01-07", 1000, "web"),
	}

	view := BuildCycleView(rows, 1, 2)

	assert.Equal(t, 2, view.MatchedUsers)
	assert.InDelta(t, 15.0, view.DayGap.Mean, 1e-9) // (10+20)/2
	assert.InDelta(t, 2500.0, view.Amount.Mean, 1e-9)
	assert.Equal(t, 1, view.Platforms["android"])
	assert.Equal(t, 1, view.Platforms["ios"])
	assert.NotContains(t, view.Platforms, "web")
	assert.InDelta(t, 0.5, view.PlatformPct["android"], 1e-9)
}

func TestBuildCycleView_NoMatches(t *testing.T) {
	rows := []models.PaymentCycleRow{
		cycleRow("u1", 1, "2024-01-01", 1000, "android"),
	}

	view := BuildCycleView(rows, 1, 5)
	assert.Zero(t, view.MatchedUsers)
	assert.Zero(t, view.DayGap.Mean)
	assert.Empty(t, view.Platforms)
}

func TestBuildCycleView_DegenerateSequencePair(t *testing.T) {
	rows := []models.PaymentCycleRow{
		cycleRow("u1", 1, "2024-01-01", 1000, "android"),
		cycleRow("u1", 2, "2024-01-05", 1000, "android"),
	}

	view := BuildCycleView(rows, 2, 2)
	assert.Zero(t, view.MatchedUsers)
}

func TestSummarize(t *testing.T) {
	stats := summarize([]float64{10, 20, 20, 30, 100})

	assert.InDelta(t, 36.0, stats.Mean, 1e-9)
	assert.InDelta(t, 20.0, stats.Median, 1e-9)
	assert.InDelta(t, 20.0, stats.Mode, 1e-9)

	empty := summarize(nil)
	assert.Zero(t, empty.Mean)
	assert.Zero(t, empty.Median)
	assert.Zero(t, empty.Mode)
}

func TestSummarize_ModeTieTakesSmallest(t *testing.T) {
	stats := summarize([]float64{5, 5, 9, 9, 2})
	assert.InDelta(t, 5.0, stats.Mode, 1e-9)
}

func TestBuildHomeSummary(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	payments := makeSeries(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		100, 200, 300, 400)
	coins := makeSeries(time.Date(2024, time.February, 25, 0, 0, 0, 0, time.UTC),
		10, 20, 30)

	summary := BuildHomeSummary(payments, coins, 30, now)

	assert.Equal(t, "1000", summary.TotalPayment.String())
	assert.Equal(t, 4, summary.DaysCount)
	assert.Equal(t, "250", summary.DailyAverage.String())
	assert.Equal(t, "60", summary.TotalCoins.String())

	// January payments fall outside the 30-day recent slice
	assert.Empty(t, summary.RecentPayment)
	assert.Len(t, summary.RecentCoins, 3)
}

func TestBuildHomeSummary_NilSeries(t *testing.T) {
	summary := BuildHomeSummary(nil, nil, 30, time.Now())
	assert.True(t, summary.TotalPayment.IsZero())
	assert.True(t, summary.TotalCoins.IsZero())
	assert.Zero(t, summary.DaysCount)
}
