package service

import (
	"context"
	"testing"

	"github.com/avvvet/console-services/internal/consolesvc/api"
	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func newBonusService(f *fakePlatform, audit *memAudit) *BonusService {
	return NewBonusService(f.connector(), NewSubmitGuard(), NewAuditor(audit, nil))
}

func TestIssueManualBlankAmountIsZero(t *testing.T) {
	var sent models.BonusIssue
	f := &fakePlatform{
		issueBonus: func(req models.BonusIssue) (models.IssueResult, error) {
			sent = req
			return models.IssueResult{AssignedCount: int64Ptr(12), Target: req.Target}, nil
		},
	}
	audit := &memAudit{}
	_, sess := newSession(t, managerAdmin("bonus_management"))
	svc := newBonusService(f, audit)

	res, err := svc.Issue(context.Background(), sess, rules.BonusForm{
		Mode:   rules.IssueManual,
		Type:   "cashback",
		Title:  "Weekend cashback",
		Amount: "",
		Target: "vip",
	})
	require.NoError(t, err)
	require.NotNil(t, sent.Amount)
	assert.True(t, sent.Amount.IsZero())
	assert.Equal(t, "vip", sent.Target)
	assert.True(t, res.IsCampaign())
	assert.False(t, res.IsSingle())
	assert.Equal(t, 1, f.called("IssueBonus"))
	assert.Equal(t, []string{"bonus_issued"}, audit.actions())
}

func TestIssueTemplateSendsOnlyTemplate(t *testing.T) {
	var sent models.BonusIssue
	f := &fakePlatform{
		issueBonus: func(req models.BonusIssue) (models.IssueResult, error) {
			sent = req
			return models.IssueResult{AssignedTo: int64Ptr(77)}, nil
		},
	}
	_, sess := newSession(t, ownerAdmin())
	svc := newBonusService(f, &memAudit{})

	res, err := svc.Issue(context.Background(), sess, rules.BonusForm{
		Mode:       rules.IssueTemplate,
		TemplateID: 4,
		Title:      "ignored",
		Target:     "new",
	})
	require.NoError(t, err)
	require.NotNil(t, sent.TemplateID)
	assert.Equal(t, int64(4), *sent.TemplateID)
	assert.Empty(t, sent.Title)
	assert.Nil(t, sent.Amount)
	assert.True(t, res.IsSingle())
}

func TestIssueFallsBackToCreateCampaign(t *testing.T) {
	f := &fakePlatform{
		issueBonus: func(models.BonusIssue) (models.IssueResult, error) {
			return models.IssueResult{}, &api.APIError{Kind: api.KindRejected, Status: 404, Code: "not found"}
		},
		createCampaign: func(req models.BonusIssue) (models.IssueResult, error) {
			return models.IssueResult{AssignedCount: int64Ptr(3), CampaignID: int64Ptr(9)}, nil
		},
	}
	_, sess := newSession(t, ownerAdmin())
	svc := newBonusService(f, &memAudit{})

	res, err := svc.Issue(context.Background(), sess, rules.BonusForm{Type: "loyalty", Title: "Thanks", Amount: "5", Target: "all"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), *res.AssignedCount)
	assert.Equal(t, 1, f.called("CreateCampaign"))
}

func TestIssueValidationSendsNothing(t *testing.T) {
	f := &fakePlatform{}
	audit := &memAudit{}
	_, sess := newSession(t, ownerAdmin())
	svc := newBonusService(f, audit)

	_, err := svc.Issue(context.Background(), sess, rules.BonusForm{Type: "cashback", Target: "vip"})
	assert.ErrorIs(t, err, rules.ErrValidation)
	_, err = svc.Issue(context.Background(), sess, rules.BonusForm{Type: "cashback", Title: "x", Target: "whales"})
	assert.ErrorIs(t, err, rules.ErrValidation)
	assert.Zero(t, f.called("IssueBonus"))
	assert.Empty(t, audit.actions())
}

func TestIssueRejectedIsNotAudited(t *testing.T) {
	f := &fakePlatform{
		issueBonus: func(models.BonusIssue) (models.IssueResult, error) {
			return models.IssueResult{}, &api.APIError{Kind: api.KindRejected, Status: 200, Code: "campaign_exists"}
		},
	}
	audit := &memAudit{}
	_, sess := newSession(t, ownerAdmin())
	svc := newBonusService(f, audit)

	_, err := svc.Issue(context.Background(), sess, rules.BonusForm{Type: "cashback", Title: "x", Target: "vip"})
	assert.True(t, api.IsKind(err, api.KindRejected))
	assert.Zero(t, f.called("CreateCampaign"))
	assert.Empty(t, audit.actions())
}

func TestAssignSingle(t *testing.T) {
	var sent models.BonusAssign
	f := &fakePlatform{
		assignBonus: func(req models.BonusAssign) (models.IssueResult, error) {
			sent = req
			return models.IssueResult{AssignedTo: int64Ptr(req.UserID)}, nil
		},
	}
	audit := &memAudit{}
	_, sess := newSession(t, ownerAdmin())
	svc := newBonusService(f, audit)

	res, err := svc.Assign(context.Background(), sess, rules.AssignForm{UserID: 77, Type: "free_spins", Title: "Spins", Amount: "-3"})
	require.NoError(t, err)
	assert.True(t, sent.Amount.IsZero())
	assert.True(t, res.IsSingle())
	assert.Equal(t, []string{"bonus_assigned"}, audit.actions())
}

func TestBonusOverviewPartialFailure(t *testing.T) {
	f := &fakePlatform{
		bonusTemplates: func() ([]models.BonusTemplate, error) {
			return nil, &api.APIError{Kind: api.KindForbidden, Section: "bonus_management"}
		},
		bonusCampaigns: func() ([]models.BonusCampaign, error) {
			return []models.BonusCampaign{{ID: 1, TotalPlayers: 10, ClaimedPlayers: 4}}, nil
		},
	}
	_, sess := newSession(t, ownerAdmin())
	svc := newBonusService(f, &memAudit{})

	view, err := svc.Overview(context.Background(), sess)
	require.NoError(t, err)
	require.NotNil(t, view.TemplatesError)
	assert.Equal(t, "forbidden", view.TemplatesError.Kind)
	assert.NotNil(t, view.Templates)
	assert.Len(t, view.Campaigns, 1)
	assert.Len(t, view.Segments, len(rules.AllSegments))
	assert.Equal(t, models.BonusTypes, view.Types)
}
