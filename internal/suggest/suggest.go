// Package suggest calls the upstream AI-recommendation service that decides
// which technique to apply to the next set. Suggestions are advisory: every
// call path tolerates failure, and async requests never block set logging.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/claude/repflow/internal/technique"
)

// Request describes the set just performed, giving the recommendation
// service the context it needs to pick a technique.
type Request struct {
	ExerciseName string  `json:"exercise_name"`
	LastWeight   float64 `json:"last_weight_kg"`
	LastReps     int     `json:"last_reps"`
	TargetReps   int     `json:"target_reps,omitempty"`
	SetNumber    int     `json:"set_number,omitempty"`
}

// Client talks to the recommendation service. A zero-URL client is disabled
// and returns no suggestions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a suggestion client. timeout <= 0 defaults to 10s.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Enabled reports whether a recommendation endpoint is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Suggest requests a technique for the next set. The returned configuration
// is validated before being handed to the caller; a suggestion the engine
// cannot run is treated as a service error.
func (c *Client) Suggest(ctx context.Context, r Request) (*technique.Applied, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("suggestion service not configured")
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshaling suggestion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/suggest", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating suggestion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("suggestion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("suggestion request failed (status %d): %s", resp.StatusCode, body)
	}

	var applied technique.Applied
	if err := json.NewDecoder(resp.Body).Decode(&applied); err != nil {
		return nil, fmt.Errorf("decoding suggestion: %w", err)
	}

	if err := applied.Config.Validate(); err != nil {
		return nil, fmt.Errorf("suggested configuration rejected: %w", err)
	}
	return &applied, nil
}

// SuggestAsync fires a suggestion request without blocking the caller. The
// callback runs on a background goroutine only when a valid suggestion
// arrives; failures are logged and dropped.
func (c *Client) SuggestAsync(ctx context.Context, r Request, fn func(technique.Applied)) {
	if !c.Enabled() {
		return
	}
	go func() {
		applied, err := c.Suggest(ctx, r)
		if err != nil {
			c.log.Warn("technique suggestion failed", "exercise", r.ExerciseName, "error", err)
			return
		}
		fn(*applied)
	}()
}
