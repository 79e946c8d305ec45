package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/avvvet/console-services/internal/consolesvc/api"
	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/session"
	"golang.org/x/sync/errgroup"
)

const (
	PlayersPageSize = 25
	DetailListLimit = 100
)

var playerSorts = map[string]bool{
	"created_at":          true,
	"last_login":          true,
	"total_wagered":       true,
	"total_deposited_usd": true,
	"total_spins":         true,
}

type PlayersQuery struct {
	Segment string
	Search  string
	Sort    string
	Page    int
}

type PlayerRow struct {
	models.Player
	Segments []rules.Segment `json:"segments"`
	WinRate  float64         `json:"win_rate"`
}

type PlayersView struct {
	Players      []PlayerRow   `json:"players"`
	Total        int64         `json:"total"`
	Page         int           `json:"page"`
	TotalPages   int64         `json:"total_pages"`
	Segment      rules.Segment `json:"segment"`
	SegmentLabel string        `json:"segment_label"`
	Sort         string        `json:"sort"`
	Error        *SectionError `json:"error,omitempty"`
}

type PlayerDetailView struct {
	Detail        *models.PlayerDetail `json:"detail"`
	DetailError   *SectionError        `json:"detail_error,omitempty"`
	Bets          []models.Bet         `json:"bets"`
	BetsError     *SectionError        `json:"bets_error,omitempty"`
	Payments      []models.Payment     `json:"payments"`
	PaymentsError *SectionError        `json:"payments_error,omitempty"`
}

// PlayerEdit is the detail form: balances, block state and the note are
// saved together.
type PlayerEdit struct {
	models.PlayerUpdate
	AdminNote string `json:"admin_note"`
}

type PlayerService struct {
	connect  Connector
	segments rules.SegmentRules
	guard    *SubmitGuard
	audit    *Auditor
}

func NewPlayerService(connect Connector, segments rules.SegmentRules, guard *SubmitGuard, audit *Auditor) *PlayerService {
	return &PlayerService{connect: connect, segments: segments, guard: guard, audit: audit}
}

func (s *PlayerService) List(ctx context.Context, sess *session.Session, q PlayersQuery) (PlayersView, error) {
	if _, err := authorize(sess, rules.SectionPlayers); err != nil {
		return PlayersView{}, err
	}

	seg, err := rules.ParseSegment(q.Segment)
	if err != nil {
		return PlayersView{}, err
	}
	if q.Sort == "" {
		q.Sort = "created_at"
	}
	if !playerSorts[q.Sort] {
		return PlayersView{}, fmt.Errorf("%w: unknown sort %q", rules.ErrValidation, q.Sort)
	}
	if q.Page < 1 {
		q.Page = 1
	}

	view := PlayersView{
		Page:         q.Page,
		Segment:      seg,
		SegmentLabel: seg.Label(),
		Sort:         q.Sort,
		Players:      []PlayerRow{},
	}

	query := api.PlayerQuery{
		Limit:  PlayersPageSize,
		Offset: (q.Page - 1) * PlayersPageSize,
		Sort:   q.Sort,
		Search: strings.TrimSpace(q.Search),
	}
	if seg != rules.SegmentAll {
		query.Segment = string(seg)
	}

	page, err := s.connect(sess).Players(ctx, query)
	if view.Error, err = sectionFailure("players", err); err != nil {
		return PlayersView{}, err
	}
	if view.Error != nil {
		return view, nil
	}

	for _, p := range page.Users {
		view.Players = append(view.Players, PlayerRow{
			Player:   p,
			Segments: s.segments.Segments(p),
			WinRate:  p.WinRate(),
		})
	}
	view.Total = page.Total
	view.TotalPages = (page.Total + PlayersPageSize - 1) / PlayersPageSize
	return view, nil
}

// Detail loads the player, bets and payments in parallel. A failed part is
// reported on its own and never blanks the others.
func (s *PlayerService) Detail(ctx context.Context, sess *session.Session, uid int64) (PlayerDetailView, error) {
	if _, err := authorize(sess, rules.SectionPlayers); err != nil {
		return PlayerDetailView{}, err
	}

	p := s.connect(sess)
	var view PlayerDetailView
	var g errgroup.Group

	g.Go(func() error {
		d, err := p.PlayerDetail(ctx, uid)
		if view.DetailError, err = sectionFailure("player_detail", err); err != nil {
			return err
		}
		if view.DetailError == nil {
			view.Detail = &d
		}
		return nil
	})
	g.Go(func() error {
		bets, err := p.PlayerBets(ctx, uid, DetailListLimit)
		if view.BetsError, err = sectionFailure("player_bets", err); err != nil {
			return err
		}
		view.Bets = bets
		return nil
	})
	g.Go(func() error {
		pays, err := p.PlayerPayments(ctx, uid, DetailListLimit)
		if view.PaymentsError, err = sectionFailure("player_payments", err); err != nil {
			return err
		}
		view.Payments = pays
		return nil
	})

	if err := g.Wait(); err != nil {
		return PlayerDetailView{}, err
	}
	return view, nil
}

type PlayerSaveResult struct {
	UpdateError *SectionError `json:"update_error,omitempty"`
	NoteError   *SectionError `json:"note_error,omitempty"`
}

func (r PlayerSaveResult) OK() bool { return r.UpdateError == nil && r.NoteError == nil }

// Save writes balances and the note in parallel.
func (s *PlayerService) Save(ctx context.Context, sess *session.Session, uid int64, edit PlayerEdit) (PlayerSaveResult, error) {
	admin, err := authorize(sess, rules.SectionPlayers)
	if err != nil {
		return PlayerSaveResult{}, err
	}
	if edit.Coins < 0 || edit.BalanceUSDTCents < 0 || edit.FreeSpins < 0 {
		return PlayerSaveResult{}, fmt.Errorf("%w: balances cannot be negative", rules.ErrValidation)
	}

	release, err := s.guard.Acquire(sess.ID() + ":player:" + strconv.FormatInt(uid, 10))
	if err != nil {
		return PlayerSaveResult{}, err
	}
	defer release()

	p := s.connect(sess)
	var res PlayerSaveResult
	var g errgroup.Group
	g.Go(func() error {
		err := p.UpdatePlayer(ctx, uid, edit.PlayerUpdate)
		res.UpdateError, err = sectionFailure("player_update", err)
		return err
	})
	g.Go(func() error {
		err := p.SavePlayerNote(ctx, uid, edit.AdminNote)
		res.NoteError, err = sectionFailure("player_note", err)
		return err
	})
	if err := g.Wait(); err != nil {
		return PlayerSaveResult{}, err
	}

	if res.UpdateError == nil {
		detail := fmt.Sprintf("coins=%v usdt_cents=%d free_spins=%d blocked=%t",
			edit.Coins, edit.BalanceUSDTCents, edit.FreeSpins, edit.IsBlocked)
		s.audit.Log(ctx, admin, string(rules.SectionPlayers), "player_updated", strconv.FormatInt(uid, 10), detail)
	}
	if res.NoteError == nil {
		s.audit.Log(ctx, admin, string(rules.SectionPlayers), "player_note_saved", strconv.FormatInt(uid, 10), "")
	}
	return res, nil
}
