// Package backend implements the client for the remote smart-garden API.
// Authentication is session-based: a token pair is obtained lazily on first
// use and the access token is refreshed once whenever a call comes back 401.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"garden-controller/config"
	"garden-controller/internal/schedule"
)

// Client talks to the smart-garden backend. It is safe for concurrent use;
// the execution loop and the heartbeat loop share one instance.
type Client struct {
	baseURL  string
	email    string
	password string
	client   *http.Client
	log      zerolog.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewClient creates a backend client from configuration.
func NewClient(cfg *config.BackendConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		email:    cfg.Email,
		password: cfg.Password,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		log: log.With().Str("component", "backend").Logger(),
	}
}

// FetchCircuit fetches the authoritative circuit for this device.
func (c *Client) FetchCircuit(ctx context.Context) (*schedule.Circuit, error) {
	body, err := c.doAuthorized(ctx, http.MethodGet, "/api/circuits/mine", nil)
	if err != nil {
		return nil, err
	}

	var payload circuitPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, newError(KindPayload, err)
	}

	circuit := &schedule.Circuit{
		ID:     payload.ID,
		Name:   payload.Name,
		Active: payload.Active,
	}
	for _, item := range payload.Schedule {
		circuit.Plan = append(circuit.Plan, schedule.ScheduledActivation{
			TimeOfDay: item.Time,
			Amount:    item.Amount,
			Active:    item.Active,
		})
	}
	if len(payload.TodayOneTimeActivations) > 0 {
		first := payload.TodayOneTimeActivations[0]
		ts, err := time.ParseInLocation(schedule.SlotKeyLayout, first.Timestamp, time.Local)
		if err != nil {
			return nil, newError(KindPayload, fmt.Errorf("one-time timestamp %q: %w", first.Timestamp, err))
		}
		circuit.OneTime = &schedule.OneTimeActivation{Timestamp: ts, Amount: first.Amount}
	}

	return circuit, nil
}

// SendExecutionLog reports an executed pump activation.
func (c *Client) SendExecutionLog(ctx context.Context, activation schedule.PumpActivation) error {
	payload := executionLogPayload{Timestamp: activation.Timestamp, Amount: activation.Amount}
	_, err := c.doAuthorized(ctx, http.MethodPost, "/api/circuits/mine/log", payload)
	return err
}

// SendHeartbeat reports that the device is alive.
func (c *Client) SendHeartbeat(ctx context.Context) error {
	_, err := c.doAuthorized(ctx, http.MethodPatch, "/api/circuits/mine/health-check", struct{}{})
	return err
}

// doAuthorized performs an authenticated request, re-authenticating and
// retrying once on 401. It returns the response body on 200.
func (c *Client) doAuthorized(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	body, err := c.do(ctx, method, path, payload, c.token())
	if bErr, ok := err.(*Error); ok && bErr.Kind == KindUnauthorized {
		c.log.Debug().Str("path", path).Msg("token rejected, re-authenticating")
		if err := c.authenticate(ctx); err != nil {
			return nil, err
		}
		return c.do(ctx, method, path, payload, c.token())
	}
	return body, err
}

func (c *Client) do(ctx context.Context, method, path string, payload any, token string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, newError(KindPayload, err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, newError(KindInvalidURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, newError(KindConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, newStatusError(KindUnauthorized, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(KindResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindPayload, err)
	}
	return body, nil
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) ensureToken(ctx context.Context) error {
	c.mu.Lock()
	have := c.accessToken != ""
	c.mu.Unlock()
	if have {
		return nil
	}
	return c.authenticate(ctx)
}

// authenticate refreshes the access token when a refresh token is held,
// falling back to a full credential login.
func (c *Client) authenticate(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refreshToken
	c.mu.Unlock()

	if refresh != "" {
		if err := c.refreshAccessToken(ctx, refresh); err == nil {
			return nil
		}
		c.log.Debug().Msg("token refresh failed, performing full login")
	}
	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) error {
	body, err := c.do(ctx, http.MethodPost, "/api/auth/token",
		authPayload{Email: c.email, Password: c.password}, "")
	if err != nil {
		return err
	}

	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return newError(KindPayload, err)
	}

	c.mu.Lock()
	c.accessToken = resp.Access
	c.refreshToken = resp.Refresh
	c.mu.Unlock()
	return nil
}

func (c *Client) refreshAccessToken(ctx context.Context, refresh string) error {
	body, err := c.do(ctx, http.MethodPost, "/api/auth/token/refresh",
		refreshPayload{Refresh: refresh}, "")
	if err != nil {
		return err
	}

	var resp refreshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return newError(KindPayload, err)
	}

	c.mu.Lock()
	c.accessToken = resp.Access
	c.mu.Unlock()
	return nil
}
