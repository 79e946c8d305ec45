package api

import (
	"context"

	"github.com/avvvet/console-services/internal/consolesvc/models"
)

type templatesResponse struct {
	Templates []models.BonusTemplate `json:"templates"`
}

type campaignsResponse struct {
	Campaigns []models.BonusCampaign `json:"campaigns"`
}

func (c *Client) BonusStats(ctx context.Context) (models.BonusStats, error) {
	var res models.BonusStats
	err := c.get(ctx, "/admin/bonus-stats", &res)
	return res, err
}

func (c *Client) BonusTemplates(ctx context.Context) ([]models.BonusTemplate, error) {
	var res templatesResponse
	err := c.get(ctx, "/admin/bonus/templates", &res)
	return res.Templates, err
}

func (c *Client) BonusCampaigns(ctx context.Context) ([]models.BonusCampaign, error) {
	var res campaignsResponse
	err := c.get(ctx, "/admin/bonus/campaigns", &res)
	return res.Campaigns, err
}

// IssueBonus sends a template or manual issuance to a segment.
func (c *Client) IssueBonus(ctx context.Context, req models.BonusIssue) (models.IssueResult, error) {
	var res models.IssueResult
	err := c.post(ctx, "/admin/bonus/issue", req, &res)
	return res, err
}

// CreateCampaign is the platform's older manual campaign endpoint.
func (c *Client) CreateCampaign(ctx context.Context, req models.BonusIssue) (models.IssueResult, error) {
	var res models.IssueResult
	err := c.post(ctx, "/admin/bonus/create-campaign", req, &res)
	return res, err
}

func (c *Client) AssignBonus(ctx context.Context, req models.BonusAssign) (models.IssueResult, error) {
	var res models.IssueResult
	err := c.post(ctx, "/admin/bonus/assign", req, &res)
	return res, err
}
