package api

import (
	"context"
	"fmt"

	"github.com/avvvet/console-services/internal/consolesvc/models"
)

type gamesResponse struct {
	Games []models.GameAggregate `json:"games"`
}

type cohortsResponse struct {
	Cohorts []models.Cohort `json:"cohorts"`
}

func (c *Client) Stats(ctx context.Context) (models.Stats, error) {
	var res models.Stats
	err := c.get(ctx, "/admin/stats", &res)
	return res, err
}

func (c *Client) Games(ctx context.Context) ([]models.GameAggregate, error) {
	var res gamesResponse
	err := c.get(ctx, "/admin/games", &res)
	return res.Games, err
}

func (c *Client) Financial(ctx context.Context, days int) (models.Financial, error) {
	var res models.Financial
	err := c.get(ctx, fmt.Sprintf("/admin/financial?days=%d", days), &res)
	return res, err
}

func (c *Client) Cohorts(ctx context.Context) ([]models.Cohort, error) {
	var res cohortsResponse
	err := c.get(ctx, "/admin/cohorts", &res)
	return res.Cohorts, err
}

func (c *Client) Live(ctx context.Context, limit int) (models.LiveFeed, error) {
	var res models.LiveFeed
	err := c.get(ctx, fmt.Sprintf("/admin/live?limit=%d", limit), &res)
	return res, err
}

func (c *Client) Affiliates(ctx context.Context) (models.Affiliates, error) {
	var res models.Affiliates
	err := c.get(ctx, "/admin/affiliates", &res)
	return res, err
}
