package hvakosterstrommen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/angas/strompris-go/dates"
	"github.com/angas/strompris-go/types"
)

const (
	DefaultBaseURL  = "https://www.hvakosterstrommen.no"
	DefaultLocation = "NO1"
)

var ErrUnexpectedStatus = errors.New("unexpected status code")

type rawPrice struct {
	NOKPerKWh *float64   `json:"NOK_per_kWh"`
	EURPerKWh float64    `json:"EUR_per_kWh"`
	EXR       float64    `json:"EXR"`
	TimeStart *time.Time `json:"time_start"`
	TimeEnd   time.Time  `json:"time_end"`
}

type Client struct {
	logger  *slog.Logger
	baseURL string
	client  *http.Client
	loc     *time.Location
}

// New returns a client for the hvakosterstrommen.no price API. Zero values
// fall back to the public API, a default http.Client and the reference
// timezone from package dates.
func New(baseURL string, client *http.Client, loc *time.Location) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if loc == nil {
		loc = dates.Location()
	}
	return &Client{
		logger:  slog.Default().With("module", "hvakosterstrommen"),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		loc:     loc,
	}
}

func (c *Client) URL(date dates.Date, location string) string {
	return fmt.Sprintf("%s/api/v1/prices/%d/%02d-%02d_%s.json",
		c.baseURL, date.Year, int(date.Month), date.Day, location)
}

func (c *Client) FetchToday(ctx context.Context, location string) (types.Table, error) {
	return c.FetchDayPrices(ctx, dates.Today(), location)
}

// FetchDayPrices returns the hourly prices of one day in one location, with
// time_start and time_end converted to the reference timezone. The location
// is not validated here, unknown codes fail upstream.
func (c *Client) FetchDayPrices(ctx context.Context, date dates.Date, location string) (types.Table, error) {
	if date.IsZero() {
		date = dates.Today()
	}
	if location == "" {
		location = DefaultLocation
	}

	url := c.URL(date, location)
	c.logger.DebugContext(ctx, "fetching prices", slog.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices for %s %s: %w", location, date, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d for %s %s", ErrUnexpectedStatus, resp.StatusCode, location, date)
	}

	var rawPrices []rawPrice
	if err := json.NewDecoder(resp.Body).Decode(&rawPrices); err != nil {
		return nil, fmt.Errorf("failed to decode response for %s %s: %w", location, date, err)
	}

	prices := make(types.Table, 0, len(rawPrices))
	for i, raw := range rawPrices {
		if raw.TimeStart == nil || raw.NOKPerKWh == nil {
			return nil, fmt.Errorf("failed to decode response for %s %s: entry %d lacks time_start or NOK_per_kWh", location, date, i)
		}
		prices = append(prices, types.PriceRecord{
			TimeStart: raw.TimeStart.UTC().In(c.loc),
			TimeEnd:   raw.TimeEnd.UTC().In(c.loc),
			NOKPerKWh: *raw.NOKPerKWh,
			EURPerKWh: raw.EURPerKWh,
			EXR:       raw.EXR,
		})
	}

	return prices, nil
}
