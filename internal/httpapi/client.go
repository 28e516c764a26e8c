package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielpatrickdp/wellness-risk/internal/api"
	"github.com/danielpatrickdp/wellness-risk/internal/widget"
)

// #region client
// Client calls the HTTP risk service. It implements widget.Fetcher.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient targets baseURL. hc may be nil.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// FetchRisk reads the latest assessment.
func (c *Client) FetchRisk(ctx context.Context, userID string) (widget.Snapshot, error) {
	u := c.baseURL + "/risk-score?userId=" + url.QueryEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return widget.Snapshot{}, fmt.Errorf("fetch risk: %w", err)
	}
	return c.do(req)
}

// CalculateRisk asks the service to score the user now.
func (c *Client) CalculateRisk(ctx context.Context, userID string) (widget.Snapshot, error) {
	body, err := json.Marshal(api.CalculateRequest{UserID: userID})
	if err != nil {
		return widget.Snapshot{}, fmt.Errorf("calculate risk: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/calculate-risk", bytes.NewReader(body))
	if err != nil {
		return widget.Snapshot{}, fmt.Errorf("calculate risk: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (widget.Snapshot, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return widget.Snapshot{}, fmt.Errorf("%w: %w", widget.ErrTransport, err)
	}
	defer resp.Body.Close()

	var body api.RiskResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return widget.Snapshot{}, fmt.Errorf("%w: %s %s: status %d: %w", widget.ErrTransport, req.Method, req.URL.Path, resp.StatusCode, err)
	}
	return body.Snapshot()
}

// #endregion client
