package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shikshalaya/attendance-api/pkg/config"
)

// Client resolves the Bikram Sambat representation of a civil date from
// the conversion service. The conversion algorithm itself lives behind
// the service; results are display-only strings.
type Client struct {
	serviceURL string
	httpClient *http.Client
}

// NewClient constructs the calendar client.
func NewClient(cfg config.CalendarConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		serviceURL: cfg.ServiceURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type conversionResponse struct {
	BSDate string `json:"bs_date"`
}

// ToBS maps a civil (AD) date to its BS string, e.g. "2081-05-12".
func (c *Client) ToBS(ctx context.Context, date time.Time) (string, error) {
	endpoint := fmt.Sprintf("%s?date=%s", c.serviceURL, url.QueryEscape(date.Format("2006-01-02")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build conversion request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("convert date: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("convert date: service status %d", resp.StatusCode)
	}

	var decoded conversionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode conversion response: %w", err)
	}
	return decoded.BSDate, nil
}
