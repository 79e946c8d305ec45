package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/avvvet/console-services/internal/consolesvc/models"
)

type PlayerQuery struct {
	Limit   int
	Offset  int
	Sort    string
	Search  string
	Segment string
}

func (q PlayerQuery) encode() string {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Segment != "" {
		v.Set("segment", q.Segment)
	}
	return v.Encode()
}

type PlayerPage struct {
	Users []models.Player `json:"users"`
	Total int64           `json:"total"`
}

type betsResponse struct {
	Bets []models.Bet `json:"bets"`
}

type paymentsResponse struct {
	Payments []models.Payment `json:"payments"`
}

func (c *Client) Players(ctx context.Context, q PlayerQuery) (PlayerPage, error) {
	var res PlayerPage
	err := c.get(ctx, "/admin/users?"+q.encode(), &res)
	return res, err
}

func (c *Client) PlayerDetail(ctx context.Context, uid int64) (models.PlayerDetail, error) {
	var res models.PlayerDetail
	err := c.get(ctx, fmt.Sprintf("/admin/user/%d", uid), &res)
	return res, err
}

func (c *Client) UpdatePlayer(ctx context.Context, uid int64, upd models.PlayerUpdate) error {
	return c.post(ctx, fmt.Sprintf("/admin/user/%d/update", uid), upd, nil)
}

func (c *Client) SavePlayerNote(ctx context.Context, uid int64, note string) error {
	return c.post(ctx, fmt.Sprintf("/admin/user/%d/note", uid), map[string]string{"note": note}, nil)
}

func (c *Client) PlayerBets(ctx context.Context, uid int64, limit int) ([]models.Bet, error) {
	var res betsResponse
	err := c.get(ctx, fmt.Sprintf("/admin/bets/%d?limit=%d", uid, limit), &res)
	return res.Bets, err
}

func (c *Client) PlayerPayments(ctx context.Context, uid int64, limit int) ([]models.Payment, error) {
	var res paymentsResponse
	err := c.get(ctx, fmt.Sprintf("/admin/payments/%d?limit=%d", uid, limit), &res)
	return res.Payments, err
}
