package service

import (
	"context"

	"github.com/avvvet/console-services/internal/consolesvc/api"
	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/session"
	"github.com/avvvet/console-services/internal/consolesvc/store"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	riskScanLimit      = 100
	churnListLimit     = 20
	heavyWagerersLimit = 15
	flagHistoryLimit   = 50
)

// FlagHistory is the riskwatch record of past findings.
type FlagHistory interface {
	Recent(ctx context.Context, limit int) ([]store.FlagRecord, error)
}

type RiskView struct {
	Rules        []rules.RiskRule      `json:"rules"`
	Flagged      []rules.FlaggedPlayer `json:"flagged"`
	PlayersError *SectionError         `json:"players_error,omitempty"`
	TotalBets    int64                 `json:"total_bets"`
	GGR          float64               `json:"ggr"`
	HoldRate     decimal.Decimal       `json:"hold_rate"`
	StatsError   *SectionError         `json:"stats_error,omitempty"`
	History      []store.FlagRecord    `json:"history,omitempty"`
}

type ComplianceView struct {
	ChurnRisk     []models.Player `json:"churn_risk"`
	ChurnError    *SectionError   `json:"churn_error,omitempty"`
	HeavyWagerers []models.Player `json:"heavy_wagerers"`
	HighLoss      []models.Player `json:"high_loss"`
	HeavyError    *SectionError   `json:"heavy_error,omitempty"`
}

type RiskService struct {
	connect Connector
	risk    rules.RiskRules
	history FlagHistory
}

func NewRiskService(connect Connector, risk rules.RiskRules, history FlagHistory) *RiskService {
	return &RiskService{connect: connect, risk: risk, history: history}
}

// Scan fetches the top wagerers and evaluates the risk rules over them.
func Scan(ctx context.Context, p Platform, risk rules.RiskRules) ([]rules.FlaggedPlayer, error) {
	page, err := p.Players(ctx, api.PlayerQuery{Limit: riskScanLimit, Sort: "total_wagered"})
	if err != nil {
		return nil, err
	}
	flagged := risk.Evaluate(page.Users)
	rules.SortBySeverity(flagged)
	return flagged, nil
}

func (s *RiskService) Risk(ctx context.Context, sess *session.Session) (RiskView, error) {
	if _, err := authorize(sess, rules.SectionRiskFraud); err != nil {
		return RiskView{}, err
	}

	p := s.connect(sess)
	view := RiskView{Rules: s.risk.Rules(), Flagged: []rules.FlaggedPlayer{}, HoldRate: decimal.Zero}
	var g errgroup.Group

	g.Go(func() error {
		flagged, err := Scan(ctx, p, s.risk)
		if view.PlayersError, err = sectionFailure("risk_players", err); err != nil {
			return err
		}
		if flagged != nil {
			view.Flagged = flagged
		}
		return nil
	})
	g.Go(func() error {
		stats, err := p.Stats(ctx)
		if view.StatsError, err = sectionFailure("risk_stats", err); err != nil {
			return err
		}
		view.TotalBets = stats.Bets.Total
		view.GGR = stats.Bets.GGR
		if stats.Bets.Total > 0 {
			view.HoldRate = HoldRate(stats.Bets.GGR, stats.Bets.Wagered)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return RiskView{}, err
	}

	if s.history != nil {
		hist, err := s.history.Recent(ctx, flagHistoryLimit)
		if err != nil {
			log.Errorf("Error loading risk flag history: %s", err)
		}
		view.History = hist
	}
	return view, nil
}

// Compliance loads churn-risk players and heavy wagerers in parallel.
func (s *RiskService) Compliance(ctx context.Context, sess *session.Session) (ComplianceView, error) {
	if _, err := authorize(sess, rules.SectionCompliance); err != nil {
		return ComplianceView{}, err
	}

	p := s.connect(sess)
	view := ComplianceView{ChurnRisk: []models.Player{}, HeavyWagerers: []models.Player{}, HighLoss: []models.Player{}}
	var g errgroup.Group

	g.Go(func() error {
		page, err := p.Players(ctx, api.PlayerQuery{Segment: string(rules.SegmentChurnRisk), Limit: churnListLimit, Sort: "total_wagered"})
		if view.ChurnError, err = sectionFailure("compliance_churn", err); err != nil {
			return err
		}
		if page.Users != nil {
			view.ChurnRisk = page.Users
		}
		return nil
	})
	g.Go(func() error {
		page, err := p.Players(ctx, api.PlayerQuery{Limit: heavyWagerersLimit, Sort: "total_wagered"})
		if view.HeavyError, err = sectionFailure("compliance_heavy", err); err != nil {
			return err
		}
		if page.Users != nil {
			view.HeavyWagerers = page.Users
			if hl := s.risk.HighLoss(page.Users); hl != nil {
				view.HighLoss = hl
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return ComplianceView{}, err
	}
	return view, nil
}
