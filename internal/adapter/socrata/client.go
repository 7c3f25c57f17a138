// Package socrata fetches CSV pages from a Socrata Open Data resource
// endpoint using $limit/$offset pagination. No authentication is used; the
// ridership dataset is public.
package socrata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client implements pipeline.PageClient against a Socrata resource endpoint.
type Client struct {
	baseURL    string
	datasetID  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Socrata CSV page client for one dataset.
func NewClient(baseURL, datasetID string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		datasetID:  datasetID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchPage requests up to limit rows starting at offset and returns the CSV
// header and data rows. A page past the end of the dataset returns no rows
// and no error; HTTP-level failures return an error.
func (c *Client) FetchPage(ctx context.Context, limit, offset int) ([]string, [][]string, error) {
	params := url.Values{
		"$limit":  {strconv.Itoa(limit)},
		"$offset": {strconv.Itoa(offset)},
	}
	fullURL := fmt.Sprintf("%s/%s.csv?%s", c.baseURL, url.PathEscape(c.datasetID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("page request at offset %d: %w", offset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, nil, fmt.Errorf("socrata API error: status %d: %s", resp.StatusCode, body)
	}

	reader := csv.NewReader(resp.Body)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("decode page at offset %d: %w", offset, err)
	}

	// A fully empty body (not even a header) means end of data.
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}
