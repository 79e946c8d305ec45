package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type BonusType string

const (
	BonusFreeSpins BonusType = "free_spins"
	BonusDeposit   BonusType = "deposit_bonus"
	BonusCashback  BonusType = "cashback"
	BonusLoyalty   BonusType = "loyalty"
)

var BonusTypes = []BonusType{BonusFreeSpins, BonusDeposit, BonusCashback, BonusLoyalty}

func (t BonusType) Valid() bool {
	for _, bt := range BonusTypes {
		if bt == t {
			return true
		}
	}
	return false
}

type BonusTemplate struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Type        BonusType       `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

type BonusCampaign struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Type           BonusType  `json:"type"`
	TargetSegment  string     `json:"target_segment"`
	TotalPlayers   int64      `json:"total_players"`
	ClaimedPlayers int64      `json:"claimed_players"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

// ClaimRate is claimed/total, 0 for an empty campaign.
func (c BonusCampaign) ClaimRate() float64 {
	if c.TotalPlayers <= 0 {
		return 0
	}
	return float64(c.ClaimedPlayers) / float64(c.TotalPlayers)
}

// MarshalJSON adds the derived claim_rate for the dashboard.
func (c BonusCampaign) MarshalJSON() ([]byte, error) {
	type campaign BonusCampaign
	return json.Marshal(struct {
		campaign
		ClaimRate float64 `json:"claim_rate"`
	}{campaign(c), c.ClaimRate()})
}

// BonusIssue is the single issuance request sent to the platform. Either
// TemplateID is set, or Type, Title and Amount are.
type BonusIssue struct {
	TemplateID    *int64           `json:"template_id,omitempty"`
	Type          BonusType        `json:"bonus_type,omitempty"`
	Title         string           `json:"title,omitempty"`
	Description   string           `json:"description,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Target        string           `json:"target"`
	Notify        bool             `json:"notify"`
	NotifyMessage string           `json:"notify_message,omitempty"`
}

// BonusAssign grants a bonus to one player.
type BonusAssign struct {
	UserID int64           `json:"user_id"`
	Type   BonusType       `json:"bonus_type"`
	Title  string          `json:"title"`
	Amount decimal.Decimal `json:"amount"`
}

// IssueResult is either a campaign result (AssignedCount set) or a single
// assignment (AssignedTo set).
type IssueResult struct {
	AssignedCount *int64 `json:"assigned_count,omitempty"`
	AssignedTo    *int64 `json:"assigned_to,omitempty"`
	Target        string `json:"target,omitempty"`
	CampaignID    *int64 `json:"campaign_id,omitempty"`
}

func (r IssueResult) IsCampaign() bool { return r.AssignedCount != nil }

func (r IssueResult) IsSingle() bool { return r.AssignedCount == nil && r.AssignedTo != nil }

type BonusTypeStat struct {
	BonusType   BonusType       `json:"bonus_type"`
	Status      string          `json:"status"`
	Cnt         int64           `json:"cnt"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type BonusStats struct {
	ActiveCount  int64           `json:"active_count"`
	ClaimedCount int64           `json:"claimed_count"`
	ClaimedTotal decimal.Decimal `json:"claimed_total"`
	ByType       []BonusTypeStat `json:"by_type"`
}
