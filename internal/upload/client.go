package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// techniqueEntry mirrors the server's technique listing without importing
// the server package (which would pull in chi and pgx).
type techniqueEntry struct {
	Type      string `json:"type"`
	HasEngine bool   `json:"has_engine"`
}

// ingestResponse mirrors ingest.Result for decoding the server's reply.
type ingestResponse struct {
	Received int      `json:"received"`
	Inserted int64    `json:"inserted"`
	Skipped  int64    `json:"skipped"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// Client sends journaled results to the RepFlow server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new HTTP client for the RepFlow server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// FetchTechniques retrieves the technique types known to the server, mapped
// to whether each has a specialized engine.
func (c *Client) FetchTechniques() (map[string]bool, error) {
	resp, err := c.httpClient.Get(c.serverURL + "/api/v1/techniques")
	if err != nil {
		return nil, fmt.Errorf("fetching techniques: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("techniques request failed (status %d): %s", resp.StatusCode, body)
	}

	var entries []techniqueEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding techniques: %w", err)
	}

	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[e.Type] = e.HasEngine
	}
	return known, nil
}

// SendResults POSTs a batch of result payloads to the server's ingest
// endpoint. Retries up to 3 times with exponential backoff on failure.
func (c *Client) SendResults(data []byte) (*ingestResponse, error) {
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			time.Sleep(time.Duration(1<<uint(attempt-1)) * time.Second)
		}

		req, err := http.NewRequest(http.MethodPost, c.serverURL+"/api/v1/ingest", bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("creating ingest request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			var ir ingestResponse
			if err := json.Unmarshal(body, &ir); err != nil {
				return nil, fmt.Errorf("decoding ingest response: %w", err)
			}
			return &ir, nil
		}
		lastErr = fmt.Errorf("ingest failed (status %d): %s", resp.StatusCode, body)
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}
