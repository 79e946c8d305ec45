package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/session"
	"github.com/shopspring/decimal"
)

const (
	LiveFeedLimit    = 50
	DefaultFinancial = 30
	topListSize      = 5
)

type DashboardView struct {
	Stats         models.Stats    `json:"stats"`
	HoldRate      decimal.Decimal `json:"hold_rate"` // percent of wagered kept
	TopWinners    []models.Player `json:"top_winners"`
	TopDepositors []models.Player `json:"top_depositors"`
	FetchedAt     time.Time       `json:"fetched_at"`
	Error         *SectionError   `json:"error,omitempty"`
}

type LiveView struct {
	Feed      models.LiveFeed `json:"feed"`
	FetchedAt time.Time       `json:"fetched_at"`
	Error     *SectionError   `json:"error,omitempty"`
}

type GamesView struct {
	Games        []models.GameAggregate `json:"games"`
	TotalWagered float64                `json:"total_wagered"`
	TotalGGR     float64                `json:"total_ggr"`
	TotalPlayers int64                  `json:"total_players"`
	Error        *SectionError          `json:"error,omitempty"`
}

type FinancialView struct {
	Days      int              `json:"days"`
	Financial models.Financial `json:"financial"`
	Error     *SectionError    `json:"error,omitempty"`
}

type CohortsView struct {
	Cohorts      []models.Cohort `json:"cohorts"`
	AvgRetention decimal.Decimal `json:"avg_retention"` // percent
	Error        *SectionError   `json:"error,omitempty"`
}

type AffiliatesView struct {
	Affiliates models.Affiliates `json:"affiliates"`
	Error      *SectionError     `json:"error,omitempty"`
}

type TypeCount struct {
	BonusType models.BonusType `json:"bonus_type"`
	Count     int64            `json:"count"`
}

type BonusAnalyticsView struct {
	Stats  models.BonusStats `json:"stats"`
	ByType []TypeCount       `json:"by_type"`
	Error  *SectionError     `json:"error,omitempty"`
}

type ReportService struct {
	connect Connector
	now     func() time.Time
}

func NewReportService(connect Connector) *ReportService {
	return &ReportService{connect: connect, now: time.Now}
}

// HoldRate is GGR as a percentage of wagered, rounded to two places.
func HoldRate(ggr, wagered float64) decimal.Decimal {
	if wagered <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(ggr).Div(decimal.NewFromFloat(wagered)).Mul(decimal.NewFromInt(100)).Round(2)
}

func top(players []models.Player, n int) []models.Player {
	if len(players) > n {
		return players[:n]
	}
	return players
}

func (s *ReportService) Dashboard(ctx context.Context, sess *session.Session) (DashboardView, error) {
	if _, err := authorize(sess, rules.SectionDashboard); err != nil {
		return DashboardView{}, err
	}

	view := DashboardView{FetchedAt: s.now()}
	stats, err := s.connect(sess).Stats(ctx)
	if view.Error, err = sectionFailure("dashboard", err); err != nil {
		return DashboardView{}, err
	}
	if view.Error != nil {
		return view, nil
	}

	view.Stats = stats
	view.HoldRate = HoldRate(stats.Bets.GGR, stats.Bets.Wagered)
	view.TopWinners = top(stats.TopWinners, topListSize)
	view.TopDepositors = top(stats.TopDepositors, topListSize)
	return view, nil
}

func (s *ReportService) Live(ctx context.Context, sess *session.Session) (LiveView, error) {
	if _, err := authorize(sess, rules.SectionLiveMonitor); err != nil {
		return LiveView{}, err
	}

	view := LiveView{FetchedAt: s.now()}
	feed, err := s.connect(sess).Live(ctx, LiveFeedLimit)
	if view.Error, err = sectionFailure("live_monitor", err); err != nil {
		return LiveView{}, err
	}
	if view.Error == nil {
		view.Feed = feed
	}
	return view, nil
}

func (s *ReportService) Games(ctx context.Context, sess *session.Session) (GamesView, error) {
	if _, err := authorize(sess, rules.SectionGames); err != nil {
		return GamesView{}, err
	}

	var view GamesView
	games, err := s.connect(sess).Games(ctx)
	if view.Error, err = sectionFailure("games", err); err != nil {
		return GamesView{}, err
	}

	sort.SliceStable(games, func(i, j int) bool { return games[i].GGR > games[j].GGR })
	view.Games = games
	for _, g := range games {
		view.TotalWagered += g.Wagered
		view.TotalGGR += g.GGR
		view.TotalPlayers += g.UniquePlayers
	}
	return view, nil
}

func (s *ReportService) Financial(ctx context.Context, sess *session.Session, days int) (FinancialView, error) {
	if _, err := authorize(sess, rules.SectionFinancial); err != nil {
		return FinancialView{}, err
	}
	if days == 0 {
		days = DefaultFinancial
	}
	if days < 1 || days > 365 {
		return FinancialView{}, fmt.Errorf("%w: days must be between 1 and 365", rules.ErrValidation)
	}

	view := FinancialView{Days: days}
	fin, err := s.connect(sess).Financial(ctx, days)
	if view.Error, err = sectionFailure("financial", err); err != nil {
		return FinancialView{}, err
	}
	if view.Error == nil {
		view.Financial = fin
	}
	return view, nil
}

func (s *ReportService) Cohorts(ctx context.Context, sess *session.Session) (CohortsView, error) {
	if _, err := authorize(sess, rules.SectionCohorts); err != nil {
		return CohortsView{}, err
	}

	var view CohortsView
	cohorts, err := s.connect(sess).Cohorts(ctx)
	if view.Error, err = sectionFailure("cohorts", err); err != nil {
		return CohortsView{}, err
	}

	view.Cohorts = cohorts
	view.AvgRetention = decimal.Zero
	if len(cohorts) > 0 {
		sum := decimal.Zero
		for _, c := range cohorts {
			sum = sum.Add(decimal.NewFromFloat(c.Retention7d()))
		}
		view.AvgRetention = sum.Div(decimal.NewFromInt(int64(len(cohorts)))).Mul(decimal.NewFromInt(100)).Round(1)
	}
	return view, nil
}

func (s *ReportService) Affiliates(ctx context.Context, sess *session.Session) (AffiliatesView, error) {
	if _, err := authorize(sess, rules.SectionAffiliates); err != nil {
		return AffiliatesView{}, err
	}

	var view AffiliatesView
	aff, err := s.connect(sess).Affiliates(ctx)
	if view.Error, err = sectionFailure("affiliates", err); err != nil {
		return AffiliatesView{}, err
	}
	if view.Error == nil {
		view.Affiliates = aff
	}
	return view, nil
}

func (s *ReportService) BonusAnalytics(ctx context.Context, sess *session.Session) (BonusAnalyticsView, error) {
	if _, err := authorize(sess, rules.SectionBonusAnalytics); err != nil {
		return BonusAnalyticsView{}, err
	}

	var view BonusAnalyticsView
	stats, err := s.connect(sess).BonusStats(ctx)
	if view.Error, err = sectionFailure("bonus_analytics", err); err != nil {
		return BonusAnalyticsView{}, err
	}
	if view.Error != nil {
		return view, nil
	}

	view.Stats = stats
	counts := make(map[models.BonusType]int64)
	var order []models.BonusType
	for _, b := range stats.ByType {
		if _, seen := counts[b.BonusType]; !seen {
			order = append(order, b.BonusType)
		}
		counts[b.BonusType] += b.Cnt
	}
	for _, bt := range order {
		view.ByType = append(view.ByType, TypeCount{BonusType: bt, Count: counts[bt]})
	}
	return view, nil
}
