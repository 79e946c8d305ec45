package service

import (
	"context"
	"errors"
	"testing"

	"github.com/avvvet/console-services/internal/consolesvc/api"
	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoldRate(t *testing.T) {
	assert.True(t, HoldRate(50, 1000).Equal(decimal.RequireFromString("5")))
	assert.True(t, HoldRate(1, 3).Equal(decimal.RequireFromString("33.33")))
	assert.True(t, HoldRate(10, 0).IsZero())
}

func TestDashboard(t *testing.T) {
	winners := make([]models.Player, 8)
	for i := range winners {
		winners[i] = models.Player{UserID: int64(i + 1)}
	}
	f := &fakePlatform{
		stats: func() (models.Stats, error) {
			return models.Stats{
				Bets:       models.BetStats{Total: 10, Wagered: 2000, GGR: 100},
				TopWinners: winners,
			}, nil
		},
	}
	_, sess := newSession(t, ownerAdmin())
	svc := NewReportService(f.connector())

	view, err := svc.Dashboard(context.Background(), sess)
	require.NoError(t, err)
	assert.Nil(t, view.Error)
	assert.True(t, view.HoldRate.Equal(decimal.NewFromInt(5)))
	assert.Len(t, view.TopWinners, 5)
}

func TestDashboardDeniedLocally(t *testing.T) {
	f := &fakePlatform{}
	_, sess := newSession(t, managerAdmin("players"))
	svc := NewReportService(f.connector())

	_, err := svc.Dashboard(context.Background(), sess)
	var fe *rules.ForbiddenError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, rules.SectionDashboard, fe.Section)
	assert.Zero(t, f.called("Stats"))
	assert.Equal(t, session.Authenticated, sess.State())
}

func TestForbiddenByPlatformIsInline(t *testing.T) {
	f := &fakePlatform{
		live: func(int) (models.LiveFeed, error) {
			return models.LiveFeed{}, &api.APIError{Kind: api.KindForbidden, Status: 403, Section: "live_monitor"}
		},
	}
	_, sess := newSession(t, ownerAdmin())
	svc := NewReportService(f.connector())

	view, err := svc.Live(context.Background(), sess)
	require.NoError(t, err)
	require.NotNil(t, view.Error)
	assert.Equal(t, "forbidden", view.Error.Kind)
	assert.Equal(t, "Forbidden: live_monitor", view.Error.Message)
	assert.False(t, view.Error.Retryable)
	assert.Equal(t, session.Authenticated, sess.State())
}

func TestUnauthorizedEndsView(t *testing.T) {
	f := &fakePlatform{
		games: func() ([]models.GameAggregate, error) { return nil, errUnauthorized },
	}
	_, sess := newSession(t, ownerAdmin())
	svc := NewReportService(f.connector())

	_, err := svc.Games(context.Background(), sess)
	assert.True(t, api.IsKind(err, api.KindUnauthenticated))
	assert.Equal(t, session.Unauthenticated, sess.State())
}

func TestNetworkFailureIsRetryable(t *testing.T) {
	f := &fakePlatform{
		affiliates: func() (models.Affiliates, error) {
			return models.Affiliates{}, &api.APIError{Kind: api.KindTimeout, Path: "/admin/affiliates"}
		},
	}
	_, sess := newSession(t, ownerAdmin())
	svc := NewReportService(f.connector())

	view, err := svc.Affiliates(context.Background(), sess)
	require.NoError(t, err)
	require.NotNil(t, view.Error)
	assert.True(t, view.Error.Retryable)
}

func TestGamesSortedByGGR(t *testing.T) {
	f := &fakePlatform{
		games: func() ([]models.GameAggregate, error) {
			return []models.GameAggregate{
				{Game: "dice", GGR: 10, Wagered: 100, UniquePlayers: 2},
				{Game: "slots", GGR: 50, Wagered: 400, UniquePlayers: 3},
			}, nil
		},
	}
	_, sess := newSession(t, ownerAdmin())
	svc := NewReportService(f.connector())

	view, err := svc.Games(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "slots", view.Games[0].Game)
	assert.Equal(t, 500.0, view.TotalWagered)
	assert.Equal(t, int64(5), view.TotalPlayers)
}

func TestFinancialDays(t *testing.T) {
	var asked int
	f := &fakePlatform{
		financial: func(days int) (models.Financial, error) {
			asked = days
			return models.Financial{}, nil
		},
	}
	_, sess := newSession(t, ownerAdmin())
	svc := NewReportService(f.connector())

	view, err := svc.Financial(context.Background(), sess, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultFinancial, view.Days)
	assert.Equal(t, DefaultFinancial, asked)

	_, err = svc.Financial(context.Background(), sess, 400)
	assert.ErrorIs(t, err, rules.ErrValidation)
}

func TestBonusAnalyticsGroupsByType(t *testing.T) {
	f := &fakePlatform{
		bonusStats: func() (models.BonusStats, error) {
			return models.BonusStats{ByType: []models.BonusTypeStat{
				{BonusType: models.BonusCashback, Status: "active", Cnt: 2},
				{BonusType: models.BonusFreeSpins, Status: "active", Cnt: 1},
				{BonusType: models.BonusCashback, Status: "claimed", Cnt: 3},
			}}, nil
		},
	}
	_, sess := newSession(t, ownerAdmin())
	svc := NewReportService(f.connector())

	view, err := svc.BonusAnalytics(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, []TypeCount{
		{BonusType: models.BonusCashback, Count: 5},
		{BonusType: models.BonusFreeSpins, Count: 1},
	}, view.ByType)
}
