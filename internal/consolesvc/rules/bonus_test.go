package rules

import (
	"encoding/json"
	"testing"

	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonUnmarshal(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}

func TestParseAmountIsPermissive(t *testing.T) {
	assert.True(t, ParseAmount("").IsZero())
	assert.True(t, ParseAmount("abc").IsZero())
	assert.True(t, ParseAmount("-5").IsZero())
	assert.True(t, ParseAmount(" 12.50 ").Equal(decimal.RequireFromString("12.5")))
}

func TestBuildIssueManualBlankAmount(t *testing.T) {
	req, err := BuildIssue(BonusForm{
		Mode:   IssueManual,
		Type:   "free_spins",
		Title:  "Welcome",
		Target: "vip",
	})
	require.NoError(t, err)
	require.NotNil(t, req.Amount)
	assert.True(t, req.Amount.IsZero())
	assert.Nil(t, req.TemplateID)
	assert.Equal(t, "vip", req.Target)

	b, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Regexp(t, `"amount":"?0"?`, string(b))
}

func TestBuildIssueTemplateRequiresTemplate(t *testing.T) {
	_, err := BuildIssue(BonusForm{Mode: IssueTemplate, Target: "all"})
	assert.ErrorIs(t, err, ErrValidation)

	req, err := BuildIssue(BonusForm{Mode: IssueTemplate, TemplateID: 7, Target: "new", Type: "cashback", Amount: "10"})
	require.NoError(t, err)
	require.NotNil(t, req.TemplateID)
	assert.Equal(t, int64(7), *req.TemplateID)
	assert.Nil(t, req.Amount, "template issuance carries no manual fields")
	assert.Empty(t, req.Type)
}

func TestBuildIssueManualRequiresFields(t *testing.T) {
	_, err := BuildIssue(BonusForm{Mode: IssueManual, Type: "free_spins", Target: "all"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = BuildIssue(BonusForm{Mode: IssueManual, Type: "jackpot", Title: "x", Target: "all"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = BuildIssue(BonusForm{Mode: IssueManual, Type: "loyalty", Title: "x", Target: "whales"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBuildIssueNotifyMessage(t *testing.T) {
	req, err := BuildIssue(BonusForm{Mode: IssueManual, Type: "cashback", Title: "Back", Target: "all",
		Notify: false, NotifyMessage: "ignored"})
	require.NoError(t, err)
	assert.Empty(t, req.NotifyMessage)

	req, err = BuildIssue(BonusForm{Mode: IssueManual, Type: "cashback", Title: "Back", Target: "all",
		Notify: true, NotifyMessage: "Hi {name}, {amount} is yours"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ann, 5 is yours", RenderMessage(req.NotifyMessage, "Ann", decimal.NewFromInt(5)))
}

func TestBuildAssign(t *testing.T) {
	a, err := BuildAssign(AssignForm{UserID: 42, Type: "deposit_bonus", Title: "Manual", Amount: ""})
	require.NoError(t, err)
	assert.Equal(t, models.BonusDeposit, a.Type)
	assert.True(t, a.Amount.IsZero())

	_, err = BuildAssign(AssignForm{Type: "deposit_bonus", Title: "Manual"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestIssueResultShape(t *testing.T) {
	var campaign, single models.IssueResult
	require.NoError(t, jsonUnmarshal(`{"ok":true,"assigned_count":12,"target":"vip"}`, &campaign))
	require.NoError(t, jsonUnmarshal(`{"ok":true,"assigned_to":99}`, &single))

	assert.True(t, campaign.IsCampaign())
	assert.False(t, campaign.IsSingle())
	assert.True(t, single.IsSingle())
	assert.Equal(t, int64(99), *single.AssignedTo)
}
