package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Player is the platform's view of a player account. The console never
// owns this record; it is fetched per view and discarded.
type Player struct {
	UserID            int64           `json:"user_id"`
	Username          string          `json:"username,omitempty"`
	FirstName         string          `json:"first_name,omitempty"`
	Coins             float64         `json:"coins"`
	BalanceUSDTCents  int64           `json:"balance_usdt_cents"`
	FreeSpins         int64           `json:"free_spins"`
	TotalWagered      float64         `json:"total_wagered"`
	TotalWon          float64         `json:"total_won"`
	TotalDepositedUSD decimal.Decimal `json:"total_deposited_usd"`
	TotalWithdrawnUSD decimal.Decimal `json:"total_withdrawn_usd"`
	TotalSpins        int64           `json:"total_spins"`
	CreatedAt         *time.Time      `json:"created_at,omitempty"`
	LastLogin         *time.Time      `json:"last_login,omitempty"`
	IsBlocked         bool            `json:"is_blocked"`
	AdminNote         string          `json:"admin_note,omitempty"`
	IsPremium         bool            `json:"is_premium"`
}

// DisplayName falls back from username to first name.
func (p Player) DisplayName() string {
	if p.Username != "" {
		return p.Username
	}
	if p.FirstName != "" {
		return p.FirstName
	}
	return "?"
}

// WinRate is total_won / total_wagered, or 0 when nothing was wagered.
func (p Player) WinRate() float64 {
	if p.TotalWagered <= 0 {
		return 0
	}
	return p.TotalWon / p.TotalWagered
}

// GGR is what the house kept from this player.
func (p Player) GGR() float64 {
	return p.TotalWagered - p.TotalWon
}

// PlayerUpdate is the editable subset of a player record.
type PlayerUpdate struct {
	Coins            float64 `json:"coins"`
	BalanceUSDTCents int64   `json:"balance_usdt_cents"`
	FreeSpins        int64   `json:"free_spins"`
	IsBlocked        bool    `json:"is_blocked"`
}

type VipLevel struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

type GameStat struct {
	Game   string  `json:"game"`
	Cnt    int64   `json:"cnt"`
	Profit float64 `json:"profit"`
}

type DepositSummary struct {
	Count int64           `json:"count"`
	USD   decimal.Decimal `json:"usd"`
}

type PlayerDetail struct {
	User           Player          `json:"user"`
	Vip            *VipLevel       `json:"vip,omitempty"`
	GameStats      []GameStat      `json:"game_stats"`
	DepositSummary *DepositSummary `json:"deposit_summary,omitempty"`
}

type Bet struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Username  string     `json:"username,omitempty"`
	FirstName string     `json:"first_name,omitempty"`
	Game      string     `json:"game"`
	BetType   string     `json:"bet_type,omitempty"`
	BetAmount float64    `json:"bet_amount"`
	WinAmount float64    `json:"win_amount"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type Payment struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Username  string          `json:"username,omitempty"`
	FirstName string          `json:"first_name,omitempty"`
	Kind      string          `json:"kind,omitempty"` // deposit or withdrawal
	Method    string          `json:"method"`
	AmountUSD decimal.Decimal `json:"amount_usd"`
	Status    string          `json:"status,omitempty"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
}
