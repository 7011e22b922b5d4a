// Package api is the typed client for the sidequest REST backend.
//
// Each data kind gets one save call and, where the server supports it,
// one fetch call. Calls either return a typed payload or fail with one
// of three error classes: network-unreachable (ErrUnreachable), an HTTP
// status error (*HTTPError), or an undecodable body (ErrMalformed).
//
// The client holds no retry logic. Retries are the sync engine's job,
// via its pending-operation queue.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sidequest-dev/sidequest/internal/model"
)

// DefaultTimeout bounds every request. A timed-out call is treated the
// same as an unreachable server.
const DefaultTimeout = 5 * time.Second

// TokenSource supplies the bearer token attached to authenticated calls.
// An empty token means logged out; authenticated calls are still sent
// and the server's 401 is surfaced as an auth-classed error.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the sidequest backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *log.Logger
}

// New creates a Client for the given base URL.
//
// If logger is nil, a default logger writing to stderr is used.
//
// Example:
//
//	client := api.New("https://quests.example.com", tokenMgr, nil)
//	echo, err := client.SaveProgress(ctx, snapshot)
func New(baseURL string, tokens TokenSource, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(os.Stderr, "[api] ", log.LstdFlags)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		tokens:  tokens,
		logger:  logger,
	}
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register creates an account and returns the issued token.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/auth/register",
		authRequest{Username: username, Password: password}, &resp, false)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Login authenticates and returns the issued token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/auth/login",
		authRequest{Username: username, Password: password}, &resp, false)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// SaveProgress pushes a progress snapshot and returns the server's
// canonical copy.
func (c *Client) SaveProgress(ctx context.Context, p model.ProgressSnapshot) (model.ProgressSnapshot, error) {
	var resp progressResponse
	err := c.do(ctx, http.MethodPost, "/progress",
		progressRequest{Points: p.Points, Streak: p.Streak, LastDay: p.LastClaimedDay},
		&resp, true)
	if err != nil {
		return model.ProgressSnapshot{}, err
	}
	return resp.snapshot(), nil
}

// SaveSeed pushes the daily seed record and returns the server's copy.
func (c *Client) SaveSeed(ctx context.Context, rec model.SeedRecord) (model.SeedRecord, error) {
	var resp seedResponse
	err := c.do(ctx, http.MethodPost, "/progress/seed",
		seedRequest{Seed: rec.Seed, Day: rec.Day}, &resp, true)
	if err != nil {
		return model.SeedRecord{}, err
	}
	return resp.record(), nil
}

// SaveTaskHistory appends one history entry on the server. The optional
// goal fields ride along so the server can associate the entry; goal
// progress itself is incremented with a separate IncrementGoalProgress
// call.
func (c *Client) SaveTaskHistory(ctx context.Context, e model.TaskHistoryEntry, goalProgress int) error {
	req := taskHistoryRequest{
		Quest:  e.Quest,
		Points: e.Points,
		Status: string(e.Status),
	}
	if e.Goal != nil {
		req.GoalID = e.Goal.GoalID
		req.GoalProgress = goalProgress
	}

	var resp messageResponse
	return c.do(ctx, http.MethodPost, "/progress/task-history", req, &resp, true)
}

// TaskHistory fetches the full remote log, newest first.
func (c *Client) TaskHistory(ctx context.Context) ([]model.TaskHistoryEntry, error) {
	var items []taskHistoryItem
	if err := c.do(ctx, http.MethodGet, "/progress/task-history", nil, &items, true); err != nil {
		return nil, err
	}

	entries := make([]model.TaskHistoryEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, it.entry())
	}
	return entries, nil
}

// ClearTaskHistory deletes the remote log.
func (c *Client) ClearTaskHistory(ctx context.Context) error {
	var resp messageResponse
	return c.do(ctx, http.MethodDelete, "/progress/task-history", nil, &resp, true)
}

// SaveRejectInfo pushes the reroll counter and returns the server's copy.
func (c *Client) SaveRejectInfo(ctx context.Context, info model.RejectInfo) (model.RejectInfo, error) {
	var resp rejectInfoResponse
	err := c.do(ctx, http.MethodPost, "/progress/reject-info",
		rejectInfoRequest{Count: info.Count, Day: info.Day}, &resp, true)
	if err != nil {
		return model.RejectInfo{}, err
	}
	return resp.info(), nil
}

// SaveTheme pushes the theme preference and returns the server's copy.
func (c *Client) SaveTheme(ctx context.Context, mode model.ThemeMode) (model.ThemeMode, error) {
	var resp themeResponse
	err := c.do(ctx, http.MethodPost, "/progress/theme",
		themeRequest{ThemeMode: int(mode)}, &resp, true)
	if err != nil {
		return 0, err
	}
	return model.ThemeMode(resp.ThemePreference), nil
}

// Theme fetches the remote theme preference.
func (c *Client) Theme(ctx context.Context) (model.ThemeMode, error) {
	var resp themeResponse
	if err := c.do(ctx, http.MethodGet, "/progress/theme", nil, &resp, true); err != nil {
		return 0, err
	}
	return model.ThemeMode(resp.ThemePreference), nil
}

// IncrementGoalProgress bumps a goal's progress after a completed quest.
func (c *Client) IncrementGoalProgress(ctx context.Context, goalID string, increment int, questID string) error {
	path := "/goals/" + url.PathEscape(goalID) + "/progress"
	var resp json.RawMessage
	return c.do(ctx, http.MethodPatch, path,
		goalProgressRequest{ProgressIncrement: increment, QuestID: questID}, &resp, true)
}

// Health checks server reachability. Used by the connectivity monitor.
func (c *Client) Health(ctx context.Context) error {
	return probe(ctx, c.http, c.baseURL+"/health")
}

// Prober checks reachability of one exact URL. It exists for setups
// where the health endpoint lives on a different host or path than the
// API itself; the URL is probed verbatim, nothing is appended.
type Prober struct {
	url  string
	http *http.Client
}

// NewProber creates a Prober for the given URL.
func NewProber(url string) *Prober {
	return &Prober{
		url:  url,
		http: &http.Client{Timeout: DefaultTimeout},
	}
}

// Health probes the configured URL.
func (p *Prober) Health(ctx context.Context) error {
	return probe(ctx, p.http, p.url)
}

func probe(ctx context.Context, hc *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return &HTTPError{StatusCode: resp.StatusCode}
	}
	return nil
}

// do performs one request/response cycle with auth, encoding and error
// classification.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authed && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to read auth token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrMalformed, method, path, err)
		}
	}

	return nil
}
