package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserStats struct {
	Total       int64 `json:"total"`
	NewToday    int64 `json:"new_today"`
	ActiveToday int64 `json:"active_today"`
	ActiveWeek  int64 `json:"active_week"`
}

type BetStats struct {
	Total    int64   `json:"total"`
	Wagered  float64 `json:"wagered"`
	Won      float64 `json:"won"`
	GGR      float64 `json:"ggr"`
	TodayGGR float64 `json:"today_ggr"`
}

type MoneyStats struct {
	Total int64           `json:"total"`
	USD   decimal.Decimal `json:"usd"`
}

type DailyRevenue struct {
	Day string  `json:"day"`
	GGR float64 `json:"ggr"`
}

type DailyCount struct {
	Day string `json:"day"`
	Cnt int64  `json:"cnt"`
}

// Stats is the platform summary behind the dashboard.
type Stats struct {
	Users              UserStats       `json:"users"`
	Bets               BetStats        `json:"bets"`
	Deposits           MoneyStats      `json:"deposits"`
	Withdrawals        MoneyStats      `json:"withdrawals"`
	NetRevenue         decimal.Decimal `json:"net_revenue"`
	Referrals          int64           `json:"referrals"`
	RevenueDaily       []DailyRevenue  `json:"revenue_daily"`
	RegistrationsDaily []DailyCount    `json:"registrations_daily"`
	TopWinners         []Player        `json:"top_winners"`
	TopDepositors      []Player        `json:"top_depositors"`
}

type LiveFeed struct {
	ActiveNow      int64     `json:"active_now"`
	RecentBets     []Bet     `json:"recent_bets"`
	RecentDeposits []Payment `json:"recent_deposits"`
}

type GameAggregate struct {
	Game          string  `json:"game"`
	TotalBets     int64   `json:"total_bets"`
	UniquePlayers int64   `json:"unique_players"`
	Wagered       float64 `json:"wagered"`
	Won           float64 `json:"won"`
	GGR           float64 `json:"ggr"`
	AvgBet        float64 `json:"avg_bet"`
	BiggestWin    float64 `json:"biggest_win"`
}

type FinancialTotals struct {
	Deposits    decimal.Decimal `json:"deposits"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
	Net         decimal.Decimal `json:"net"`
}

type DailyDeposit struct {
	Day string          `json:"day"`
	USD decimal.Decimal `json:"usd"`
}

type DailyGGR struct {
	Day     string  `json:"day"`
	Wagered float64 `json:"wagered"`
	GGR     float64 `json:"ggr"`
}

type MethodTotal struct {
	Method string          `json:"method"`
	USD    decimal.Decimal `json:"usd"`
}

type Financial struct {
	Totals        FinancialTotals `json:"totals"`
	DepositsDaily []DailyDeposit  `json:"deposits_daily"`
	GGRDaily      []DailyGGR      `json:"ggr_daily"`
	ByMethod      []MethodTotal   `json:"by_method"`
}

type Cohort struct {
	Cohort     string          `json:"cohort"`
	Size       int64           `json:"size"`
	Depositors int64           `json:"depositors"`
	Retained7d int64           `json:"retained_7d"`
	AvgDeposit decimal.Decimal `json:"avg_deposit"`
	AvgWagered float64         `json:"avg_wagered"`
	TotalLTV   decimal.Decimal `json:"total_ltv"`
}

// Retention7d is the share of the cohort still active after a week.
func (c Cohort) Retention7d() float64 {
	if c.Size <= 0 {
		return 0
	}
	return float64(c.Retained7d) / float64(c.Size)
}

type Referrer struct {
	UserID            int64           `json:"user_id"`
	Username          string          `json:"username,omitempty"`
	FirstName         string          `json:"first_name,omitempty"`
	ReferralsCount    int64           `json:"referrals_count"`
	TotalDepositedUSD decimal.Decimal `json:"total_deposited_usd"`
}

type Affiliates struct {
	TotalReferrers int64      `json:"total_referrers"`
	TotalReferrals int64      `json:"total_referrals"`
	TopReferrers   []Referrer `json:"top_referrers"`
}

// AuditEntry records one console mutation.
type AuditEntry struct {
	ID        string    `json:"id"`
	AdminID   int64     `json:"admin_id"`
	AdminName string    `json:"admin_name"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
