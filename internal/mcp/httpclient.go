package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/repflow/internal/models"
	"github.com/claude/repflow/internal/storage"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the RepFlow REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) QueryResults(ctx context.Context, start, end time.Time, _ int, techniqueFilter, exerciseFilter string) ([]models.ResultRow, error) {
	params := timeParams(start, end)
	if techniqueFilter != "" {
		params.Set("technique", techniqueFilter)
	}
	if exerciseFilter != "" {
		params.Set("exercise", exerciseFilter)
	}

	body, err := c.get(ctx, "/api/v1/results", params)
	if err != nil {
		return nil, err
	}

	var rows []models.ResultRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("httpclient: decode results: %w", err)
	}
	return rows, nil
}

func (c *HTTPClient) GetResult(ctx context.Context, id uuid.UUID, _ int) (*models.ResultRow, error) {
	body, err := c.get(ctx, "/api/v1/results/"+id.String(), nil)
	if err != nil {
		return nil, err
	}

	var row models.ResultRow
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("httpclient: decode result: %w", err)
	}
	return &row, nil
}

func (c *HTTPClient) GetTechniqueSummary(ctx context.Context, start, end time.Time, _ int) ([]storage.TechniqueSummary, error) {
	body, err := c.get(ctx, "/api/v1/results/summary", timeParams(start, end))
	if err != nil {
		return nil, err
	}

	var summary []storage.TechniqueSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("httpclient: decode summary: %w", err)
	}
	return summary, nil
}
