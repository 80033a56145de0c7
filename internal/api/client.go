// Package api talks to the Al Adhan prayer times API, which the verify
// command uses as an independent reference for locally computed times.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/revert-companion/prayer-times/internal/geo"
	"github.com/revert-companion/prayer-times/internal/prayer"
	"github.com/revert-companion/prayer-times/internal/solar"
)

const defaultBaseURL = "https://api.aladhan.com/v1"

// Client communicates with the Al Adhan prayer times API.
type Client struct {
	client *resty.Client
	// BaseURL is the API base URL. Defaults to the Al Adhan API.
	// Exported for testing with httptest.
	BaseURL string
}

// NewClient creates a new API client with sensible defaults. Failed
// connections are retried twice.
func NewClient() *Client {
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(500 * time.Millisecond)

	return &Client{
		client:  client,
		BaseURL: defaultBaseURL,
	}
}

// Query describes one day to fetch.
type Query struct {
	Date     solar.Date
	Location geo.Coordinates
	Method   prayer.Method
	Madhab   prayer.Madhab
}

// Timings fetches the timetable for q. Times in the response are in the
// location's own timezone, named by Meta.Timezone.
func (c *Client) Timings(ctx context.Context, q Query) (*Response, error) {
	params := map[string]string{
		"latitude":  strconv.FormatFloat(q.Location.Latitude, 'f', 6, 64),
		"longitude": strconv.FormatFloat(q.Location.Longitude, 'f', 6, 64),
	}
	if id := q.Method.AlAdhanID(); id >= 0 {
		params["method"] = strconv.Itoa(id)
	}
	if q.Madhab != "" {
		params["school"] = strconv.Itoa(q.Madhab.School())
	}

	endpoint := fmt.Sprintf("%s/timings/%s", c.BaseURL, q.Date.Time(time.UTC).Format("02-01-2006"))
	return c.doRequest(ctx, endpoint, params)
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params map[string]string) (*Response, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		body := resp.String()
		if len(body) > 1024 {
			body = body[:1024]
		}
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode(), body)
	}

	var apiResp Response
	if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode API response: %w", err)
	}

	if apiResp.Code != 200 {
		return nil, fmt.Errorf("API error: code=%d status=%s", apiResp.Code, apiResp.Status)
	}

	return &apiResp, nil
}
