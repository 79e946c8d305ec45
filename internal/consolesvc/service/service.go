package service

import (
	"context"
	"errors"

	"github.com/avvvet/console-services/internal/consolesvc/api"
	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/session"
	log "github.com/sirupsen/logrus"
)

// Platform is the part of the platform admin API the console uses.
// *api.Client implements it.
type Platform interface {
	Login(ctx context.Context, username, password string) (api.LoginResult, error)
	Me(ctx context.Context) (models.Admin, error)
	ListAdmins(ctx context.Context) ([]models.Admin, error)
	CreateAdmin(ctx context.Context, a models.NewAdmin) error
	UpdateAdmin(ctx context.Context, upd models.AdminUpdate) error
	DeleteAdmin(ctx context.Context, id int64) error

	Stats(ctx context.Context) (models.Stats, error)
	Players(ctx context.Context, q api.PlayerQuery) (api.PlayerPage, error)
	PlayerDetail(ctx context.Context, uid int64) (models.PlayerDetail, error)
	UpdatePlayer(ctx context.Context, uid int64, upd models.PlayerUpdate) error
	SavePlayerNote(ctx context.Context, uid int64, note string) error
	PlayerBets(ctx context.Context, uid int64, limit int) ([]models.Bet, error)
	PlayerPayments(ctx context.Context, uid int64, limit int) ([]models.Payment, error)
	Games(ctx context.Context) ([]models.GameAggregate, error)
	Financial(ctx context.Context, days int) (models.Financial, error)
	Cohorts(ctx context.Context) ([]models.Cohort, error)
	Live(ctx context.Context, limit int) (models.LiveFeed, error)
	Affiliates(ctx context.Context) (models.Affiliates, error)

	BonusStats(ctx context.Context) (models.BonusStats, error)
	BonusTemplates(ctx context.Context) ([]models.BonusTemplate, error)
	BonusCampaigns(ctx context.Context) ([]models.BonusCampaign, error)
	IssueBonus(ctx context.Context, req models.BonusIssue) (models.IssueResult, error)
	CreateCampaign(ctx context.Context, req models.BonusIssue) (models.IssueResult, error)
	AssignBonus(ctx context.Context, req models.BonusAssign) (models.IssueResult, error)
}

// Connector binds the platform client to a session.
type Connector func(creds api.Credentials) Platform

// ClientConnector adapts an *api.Client.
func ClientConnector(c *api.Client) Connector {
	return func(creds api.Credentials) Platform {
		return c.For(creds)
	}
}

// SectionError is what a view shows in place of a part that failed to
// load, so an empty table never hides a failure.
type SectionError struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Section   string `json:"section,omitempty"`
	Retryable bool   `json:"retryable"`
}

func (e *SectionError) Error() string { return e.Message }

func newSectionError(err error) *SectionError {
	var ae *api.APIError
	if errors.As(err, &ae) {
		return &SectionError{
			Kind:      string(ae.Kind),
			Message:   ae.Error(),
			Section:   ae.Section,
			Retryable: ae.Retryable(),
		}
	}
	var fe *rules.ForbiddenError
	if errors.As(err, &fe) {
		return &SectionError{Kind: string(api.KindForbidden), Message: fe.Error(), Section: string(fe.Section)}
	}
	return &SectionError{Kind: string(api.KindNetwork), Message: err.Error(), Retryable: true}
}

// sectionFailure turns a fetch error into a section error. Only an
// unauthenticated error is returned, because it ends the whole view.
func sectionFailure(view string, err error) (*SectionError, error) {
	if err == nil {
		return nil, nil
	}
	if api.IsKind(err, api.KindUnauthenticated) {
		return nil, err
	}
	log.WithField("view", view).Errorf("Error loading view: %s", err)
	return newSectionError(err), nil
}

// authorize resolves the session's admin and checks the section.
func authorize(sess *session.Session, s rules.Section) (models.Admin, error) {
	admin, err := sess.Admin()
	if err != nil {
		return models.Admin{}, err
	}
	if err := rules.Authorize(admin, s); err != nil {
		return models.Admin{}, err
	}
	return admin, nil
}
