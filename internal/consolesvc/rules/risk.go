package rules

import (
	"sort"

	"github.com/avvvet/console-services/internal/consolesvc/models"
)

type Flag string

const (
	FlagNoDepositHighWager Flag = "no_deposit_high_wager"
	FlagExtremeWinRate     Flag = "extreme_win_rate"
)

type Severity string

const (
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{SeverityHigh: 1, SeverityCritical: 2}

type RiskRule struct {
	Flag        Flag     `json:"flag"`
	Rule        string   `json:"rule"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

type RiskRules struct {
	NoDepositWager float64 // wagered above this with no deposit is flagged
	WinRateWager   float64 // minimum wagered before the win rate counts
	WinRate        float64
	HighLossRatio  float64 // compliance: share of wagered lost
}

func DefaultRiskRules() RiskRules {
	return RiskRules{
		NoDepositWager: 1000,
		WinRateWager:   500,
		WinRate:        0.90,
		HighLossRatio:  0.6,
	}
}

// Rules describes the active rules in evaluation order.
func (r RiskRules) Rules() []RiskRule {
	return []RiskRule{
		{
			Flag:        FlagNoDepositHighWager,
			Rule:        "High wagered, zero deposits",
			Description: "Players who wagered more than the threshold but never deposited real money",
			Severity:    SeverityHigh,
		},
		{
			Flag:        FlagExtremeWinRate,
			Rule:        "Extreme win rate",
			Description: "Players with an extreme win rate over a minimum wagered amount",
			Severity:    SeverityCritical,
		},
	}
}

type FlaggedPlayer struct {
	Player   models.Player `json:"player"`
	Flags    []Flag        `json:"flags"`
	WinRate  float64       `json:"win_rate"`
	Severity Severity      `json:"severity"` // highest severity among Flags
}

// Flags returns every rule p triggers, in rule order.
func (r RiskRules) Flags(p models.Player) []Flag {
	var flags []Flag
	if p.TotalWagered > r.NoDepositWager && p.TotalDepositedUSD.IsZero() {
		flags = append(flags, FlagNoDepositHighWager)
	}
	if p.TotalWagered > r.WinRateWager && p.WinRate() > r.WinRate {
		flags = append(flags, FlagExtremeWinRate)
	}
	return flags
}

// Evaluate returns the players that trigger at least one rule, keeping the
// input order.
func (r RiskRules) Evaluate(players []models.Player) []FlaggedPlayer {
	var out []FlaggedPlayer
	for _, p := range players {
		flags := r.Flags(p)
		if len(flags) == 0 {
			continue
		}
		out = append(out, FlaggedPlayer{
			Player:   p,
			Flags:    flags,
			WinRate:  p.WinRate(),
			Severity: maxSeverity(flags),
		})
	}
	return out
}

// HighLoss reports players who lost more than HighLossRatio of what they wagered.
func (r RiskRules) HighLoss(players []models.Player) []models.Player {
	var out []models.Player
	for _, p := range players {
		if p.TotalWagered > 0 && p.GGR()/p.TotalWagered > r.HighLossRatio {
			out = append(out, p)
		}
	}
	return out
}

func FlagSeverity(f Flag) Severity {
	if f == FlagExtremeWinRate {
		return SeverityCritical
	}
	return SeverityHigh
}

func maxSeverity(flags []Flag) Severity {
	var best Severity
	for _, f := range flags {
		if s := FlagSeverity(f); severityRank[s] > severityRank[best] {
			best = s
		}
	}
	return best
}

// SortBySeverity orders critical players first. Ties keep their order.
func SortBySeverity(flagged []FlaggedPlayer) {
	sort.SliceStable(flagged, func(i, j int) bool {
		return severityRank[flagged[i].Severity] > severityRank[flagged[j].Severity]
	})
}
