package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wricardo/ludo-game/game/board"
	"github.com/wricardo/ludo-game/game/engine"
	"github.com/wricardo/ludo-game/game/service"
)

// Client drives one session through the REST API.
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SessionID is the session the client plays.
func (c *Client) SessionID() string { return c.sessionID }

// Use points the client at an existing session.
func (c *Client) Use(sessionID string) { c.sessionID = sessionID }

func (c *Client) CreateSession(ctx context.Context, configID string) (*engine.GameState, error) {
	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.sessionID = session.ID
	return session.GameState, nil
}

func (c *Client) GetState(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &state, nil
}

func (c *Client) Roll(ctx context.Context) (*service.MoveResult, error) {
	var result service.MoveResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/roll"), nil, &result); err != nil {
		return nil, fmt.Errorf("roll: %w", err)
	}
	return &result, nil
}

func (c *Client) Select(ctx context.Context, seat board.Seat, piece int) (*service.MoveResult, error) {
	body := map[string]any{"seat": seat, "piece": piece}
	var result service.MoveResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/select"), body, &result); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return &result, nil
}

func (c *Client) Eligible(ctx context.Context) (*service.EligibleInfo, error) {
	var info service.EligibleInfo
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/eligible"), nil, &info); err != nil {
		return nil, fmt.Errorf("eligible: %w", err)
	}
	return &info, nil
}

func (c *Client) Reset(ctx context.Context) (*engine.GameState, error) {
	var result service.MoveResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &result); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return result.GameState, nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
