// Package client talks to the Run4Recht server API on behalf of the sync agent.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
)

var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer of the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api http %d: %s", e.Status, e.Message)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

type Settings struct {
	Notifications bool `json:"benachrichtigungen"`
	NightMode     bool `json:"nachtmodus"`
	ManagerView   bool `json:"manager_ansicht"`
}

type Profile struct {
	ID            uint64   `json:"id"`
	FirstName     string   `json:"vorname"`
	LastName      string   `json:"nachname"`
	Email         string   `json:"email"`
	Role          string   `json:"rolle"`
	DepartmentID  uint64   `json:"dienstelle_id"`
	DailyStepGoal int      `json:"tagesziel"`
	StepLengthCm  int      `json:"schrittlaenge_cm"`
	Settings      Settings `json:"einstellungen"`
}

func (p Profile) Name() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type loginResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expires_at"`
	Profile   Profile `json:"profil"`
}

type Client struct {
	BaseURL  string
	Email    string
	Password string

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	profile   Profile

	HTTP *http.Client
}

// Login exchanges the credentials for a bearer token and returns the user's profile.
func (c *Client) Login(ctx context.Context) (Profile, error) {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return Profile{}, errors.New("agent email and password are required")
	}
	var lr loginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    strings.TrimSpace(c.Email),
		"passwort": c.Password,
	}, nil, &lr, false)
	if err != nil {
		return Profile{}, fmt.Errorf("login: %w", err)
	}
	exp, _ := time.Parse(time.RFC3339, strings.TrimSpace(lr.ExpiresAt))

	c.mu.Lock()
	c.token = strings.TrimSpace(lr.Token)
	c.expiresAt = exp
	c.profile = lr.Profile
	c.mu.Unlock()
	return lr.Profile, nil
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// EnsureToken logs in when there is no token or it expires within two minutes.
func (c *Client) EnsureToken(ctx context.Context) error {
	c.mu.RLock()
	tok := c.token
	exp := c.expiresAt
	c.mu.RUnlock()
	if strings.TrimSpace(tok) == "" || (!exp.IsZero() && time.Until(exp) < 2*time.Minute) {
		_, err := c.Login(ctx)
		return err
	}
	return nil
}

func (c *Client) FetchProfile(ctx context.Context, employeeID int64) (Profile, error) {
	var p Profile
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/profil/%d", employeeID), nil, nil, &p, true)
	return p, err
}

func (c *Client) FetchTournamentWindow(ctx context.Context) (activity.TournamentWindow, error) {
	var tw activity.TournamentWindow
	err := c.do(ctx, http.MethodGet, "/api/turnierinfo", nil, nil, &tw, true)
	return tw, err
}

// FetchStatistics returns the employee's stored records inside r.
func (c *Client) FetchStatistics(ctx context.Context, employeeID int64, r calendar.Range) ([]activity.StatisticRecord, error) {
	var out []activity.StatisticRecord
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/statistiken/mitarbeiter/%d/zeitraum", employeeID), r, nil, &out, true)
	return out, err
}

// FetchDepartmentTotals returns one summed record per employee of a department,
// including employees without steps in r.
func (c *Client) FetchDepartmentTotals(ctx context.Context, departmentID int64, r calendar.Range) ([]activity.StatisticRecord, error) {
	var out []activity.StatisticRecord
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/statistiken/dienstellen/%d/zeitraum", departmentID), r, nil, &out, true)
	return out, err
}

func (c *Client) UpsertStatistic(ctx context.Context, rec activity.StatisticRecord) (activity.StatisticRecord, error) {
	var out activity.StatisticRecord
	err := c.do(ctx, http.MethodPut, "/api/statistiken", rec, nil, &out, true)
	return out, err
}

// ApplyDelta adds rec.Steps to the day's total. Replays of the same batch key are
// accepted and reported with applied=false.
func (c *Client) ApplyDelta(ctx context.Context, rec activity.StatisticRecord, batchKey string) (bool, error) {
	var env envelope
	err := c.doEnvelope(ctx, http.MethodPost, "/api/statistiken/delta", rec, map[string]string{"Idempotency-Key": batchKey}, &env, true)
	if err != nil {
		return false, err
	}
	applied, _ := env.Meta["applied"].(bool)
	return applied, nil
}

// FetchRankings returns the department ranking over r.
func (c *Client) FetchRankings(ctx context.Context, r calendar.Range) ([]activity.RankingEntry, error) {
	var out []activity.RankingEntry
	err := c.do(ctx, http.MethodPost, "/api/ranking/zeitraum", r, nil, &out, true)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any, authed bool) error {
	var env envelope
	if err := c.doEnvelope(ctx, method, path, body, headers, &env, authed); err != nil {
		return err
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) doEnvelope(ctx context.Context, method, path string, body any, headers map[string]string, env *envelope, authed bool) error {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return errors.New("api base url is empty")
	}
	if authed {
		if err := c.EnsureToken(ctx); err != nil {
			return err
		}
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.Token())
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(b))
		if json.Unmarshal(b, env) == nil && env.Message != "" {
			msg = env.Message
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(b, env); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 15 * time.Second}
}
