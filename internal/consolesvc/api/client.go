package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Credentials supplies the bearer token and is told when the platform
// rejects it. session.Session implements it.
type Credentials interface {
	Token() string
	Invalidate(ctx context.Context)
}

type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	creds   Credentials
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
	}
}

// For returns a client that authenticates as creds.
func (c *Client) For(creds Credentials) *Client {
	cp := *c
	cp.creds = creds
	return &cp
}

// envelope is the part every platform response shares.
type envelope struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	Required string `json:"required"`
	Message  string `json:"message"`
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		rd = bytes.NewReader(b)
	}

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, rd)
	if err != nil {
		return &APIError{Kind: KindNetwork, Path: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.creds != nil {
		if t := c.creds.Token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
	}

	res, err := c.http.Do(req)
	if err != nil {
		return c.transportError(ctx, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized {
		if c.creds != nil {
			c.creds.Invalidate(context.WithoutCancel(ctx))
		}
		return &APIError{Kind: KindUnauthenticated, Path: path, Status: res.StatusCode}
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return c.transportError(ctx, path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if res.StatusCode >= http.StatusInternalServerError {
			return &APIError{Kind: KindNetwork, Path: path, Status: res.StatusCode, Err: err}
		}
		return &APIError{Kind: KindDecode, Path: path, Status: res.StatusCode, Err: err}
	}

	if !env.OK {
		if env.Error == "forbidden" {
			section := env.Required
			if section == "" {
				section = "unknown section"
			}
			return &APIError{Kind: KindForbidden, Path: path, Status: res.StatusCode, Code: env.Error, Section: section}
		}
		code := env.Error
		if code == "" {
			code = env.Message
		}
		if code == "" {
			code = fmt.Sprintf("request failed with status %d", res.StatusCode)
		}
		return &APIError{Kind: KindRejected, Path: path, Status: res.StatusCode, Code: code}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Kind: KindDecode, Path: path, Status: res.StatusCode, Err: err}
	}
	return nil
}

func (c *Client) transportError(ctx context.Context, path string, err error) error {
	if ctx.Err() != nil {
		// the caller gave up, not the platform
		return &APIError{Kind: KindCanceled, Path: path, Err: ctx.Err()}
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		log.Warnf("platform request %s timed out after %s", path, c.timeout)
		return &APIError{Kind: KindTimeout, Path: path, Err: err}
	}
	return &APIError{Kind: KindNetwork, Path: path, Err: err}
}
