package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lirany1/test-metrics-charts/pkg/logger"
	"github.com/lirany1/test-metrics-charts/pkg/models"
)

// RemoteError reports a failed call to the metrics API
type RemoteError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("metrics API %s returned status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("metrics API %s: %v", e.URL, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Client fetches timeseries tables from the metrics API
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a metrics API client. A zero timeout means no timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL builds the request URL for a query
func (c *Client) URL(q models.Query) string {
	params := url.Values{}
	params.Set("type", q.Type)
	params.Set("release", q.Release)
	params.Set("build", q.Build)
	params.Set("about", q.About)
	return c.baseURL + url.PathEscape(q.Type) + "?" + params.Encode()
}

type timeseriesResponse struct {
	Data *struct {
		Columns *models.RawTable `json:"columns"`
	} `json:"data"`
}

// FetchTimeseries performs one GET for the query and returns data.columns
func (c *Client) FetchTimeseries(ctx context.Context, q models.Query) (models.RawTable, error) {
	reqURL := c.URL(q)
	logger.Debugf("Fetching timeseries: %s", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &RemoteError{URL: reqURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &RemoteError{URL: reqURL, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &RemoteError{URL: reqURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(body)))}
	}

	var payload timeseriesResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, &RemoteError{URL: reqURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if payload.Data == nil || payload.Data.Columns == nil {
		return nil, &RemoteError{URL: reqURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("response has no data.columns field")}
	}

	return *payload.Data.Columns, nil
}
