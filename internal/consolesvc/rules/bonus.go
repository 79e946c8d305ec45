package rules

import (
	"strings"

	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/shopspring/decimal"
)

// Placeholders the platform substitutes in notification messages.
const (
	PlaceholderName   = "{name}"
	PlaceholderAmount = "{amount}"
)

type IssueMode string

const (
	IssueTemplate IssueMode = "template"
	IssueManual   IssueMode = "manual"
)

// BonusForm is what the operator filled in. Amount is kept as typed.
type BonusForm struct {
	Mode          IssueMode `json:"mode"`
	TemplateID    int64     `json:"template_id,omitempty"`
	Type          string    `json:"bonus_type,omitempty"`
	Title         string    `json:"title,omitempty"`
	Description   string    `json:"description,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	Target        string    `json:"target"`
	Notify        bool      `json:"notify"`
	NotifyMessage string    `json:"notify_message,omitempty"`
}

// ParseAmount is deliberately permissive: blank, unparsable or negative
// input becomes zero.
func ParseAmount(v string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// BuildIssue validates f and turns it into the issuance request.
func BuildIssue(f BonusForm) (models.BonusIssue, error) {
	target, err := ParseSegment(f.Target)
	if err != nil {
		return models.BonusIssue{}, err
	}

	req := models.BonusIssue{
		Target: string(target),
		Notify: f.Notify,
	}
	if f.Notify {
		req.NotifyMessage = f.NotifyMessage
	}

	switch f.Mode {
	case IssueTemplate:
		if f.TemplateID <= 0 {
			return models.BonusIssue{}, validationf("choose a template")
		}
		id := f.TemplateID
		req.TemplateID = &id
	case IssueManual, "":
		bt := models.BonusType(f.Type)
		if !bt.Valid() {
			return models.BonusIssue{}, validationf("unknown bonus type %q", f.Type)
		}
		if strings.TrimSpace(f.Title) == "" {
			return models.BonusIssue{}, validationf("title is required")
		}
		amount := ParseAmount(f.Amount)
		req.Type = bt
		req.Title = strings.TrimSpace(f.Title)
		req.Description = f.Description
		req.Amount = &amount
	default:
		return models.BonusIssue{}, validationf("unknown issue mode %q", f.Mode)
	}
	return req, nil
}

type AssignForm struct {
	UserID int64  `json:"user_id"`
	Type   string `json:"bonus_type"`
	Title  string `json:"title"`
	Amount string `json:"amount"`
}

func BuildAssign(f AssignForm) (models.BonusAssign, error) {
	if f.UserID <= 0 {
		return models.BonusAssign{}, validationf("user id is required")
	}
	bt := models.BonusType(f.Type)
	if !bt.Valid() {
		return models.BonusAssign{}, validationf("unknown bonus type %q", f.Type)
	}
	if strings.TrimSpace(f.Title) == "" {
		return models.BonusAssign{}, validationf("title is required")
	}
	return models.BonusAssign{
		UserID: f.UserID,
		Type:   bt,
		Title:  strings.TrimSpace(f.Title),
		Amount: ParseAmount(f.Amount),
	}, nil
}

// RenderMessage previews a notification the way the platform fills it in.
func RenderMessage(tmpl, name string, amount decimal.Decimal) string {
	r := strings.NewReplacer(PlaceholderName, name, PlaceholderAmount, amount.String())
	return r.Replace(tmpl)
}
