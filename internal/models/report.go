package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CoinUsageRow is one coin-consumption record: a title consumed a number of
// coins on a date.
type CoinUsageRow struct {
	Date  time.Time       `json:"date"`
	Title string          `json:"title"`
	Coins decimal.Decimal `json:"coins"`
}

// RankingEntry is one row of the top-K ranking view. LaunchDate is the title's
// first-ever observed date across the entire dataset, and IsNew flags titles
// whose launch date falls inside the reporting window.
type RankingEntry struct {
	Rank       int             `json:"rank"`
	Title      string          `json:"title"`
	Total      decimal.Decimal `json:"total"`
	LaunchDate time.Time       `json:"launch_date"`
	IsNew      bool            `json:"is_new"`
}

// RankingView is the period-bounded top-K grouping over coin usage.
type RankingView struct {
	Entries    []RankingEntry  `json:"entries"`
	TopN       int             `json:"top_n"`
	TopTotal   decimal.Decimal `json:"top_total"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	Ratio      float64         `json:"ratio"`
	Header     string          `json:"header"`
	HasMore    bool            `json:"has_more"`
}

// PaymentCycleRow is one payment record for cycle analysis.
type PaymentCycleRow struct {
	UserID     string          `json:"user_id"`
	PaymentSeq int             `json:"payment_seq"`
	Date       time.Time       `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	Platform   string          `json:"platform"`
}

// DistributionStats summarizes a numeric distribution.
type DistributionStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Mode   float64 `json:"mode"`
}

// CycleView joins each user's k-th and m-th payment. Users missing either
// payment are excluded: not yet progressing that far is a legitimate state,
// not an error.
type CycleView struct {
	FirstSeq     int                `json:"first_seq"`
	TargetSeq    int                `json:"target_seq"`
	MatchedUsers int                `json:"matched_users"`
	DayGap       DistributionStats  `json:"day_gap"`
	Amount       DistributionStats  `json:"amount"`
	Platforms    map[string]int     `json:"platforms"`
	PlatformPct  map[string]float64 `json:"platform_pct"`
}

// HomeSummary holds the top-level dashboard metrics.
type HomeSummary struct {
	TotalPayment  decimal.Decimal    `json:"total_payment"`
	DaysCount     int                `json:"days_count"`
	DailyAverage  decimal.Decimal    `json:"daily_average"`
	TotalCoins    decimal.Decimal    `json:"total_coins"`
	RecentPayment []DailyObservation `json:"recent_payment"`
	RecentCoins   []DailyObservation `json:"recent_coins"`
}
