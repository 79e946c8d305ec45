package api

import (
	"context"

	"github.com/avvvet/console-services/internal/consolesvc/models"
)

type LoginResult struct {
	Token string       `json:"token"`
	Admin models.Admin `json:"admin"`
}

type meResponse struct {
	Admin models.Admin `json:"admin"`
}

type adminsResponse struct {
	Users []models.Admin `json:"users"`
}

// Login needs no credentials; the caller starts a session from the result.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var res LoginResult
	body := map[string]string{"username": username, "password": password}
	err := c.post(ctx, "/admin/auth/login", body, &res)
	return res, err
}

func (c *Client) Me(ctx context.Context) (models.Admin, error) {
	var res meResponse
	err := c.get(ctx, "/admin/auth/me", &res)
	return res.Admin, err
}

func (c *Client) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	var res adminsResponse
	err := c.get(ctx, "/admin/auth/users", &res)
	return res.Users, err
}

func (c *Client) CreateAdmin(ctx context.Context, a models.NewAdmin) error {
	return c.post(ctx, "/admin/auth/create", a, nil)
}

func (c *Client) UpdateAdmin(ctx context.Context, upd models.AdminUpdate) error {
	return c.post(ctx, "/admin/auth/update", upd, nil)
}

func (c *Client) DeleteAdmin(ctx context.Context, id int64) error {
	return c.post(ctx, "/admin/auth/delete", map[string]int64{"id": id}, nil)
}
