package hvakosterstrommen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angas/strompris-go/dates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dayFixture renders one local day of hourly prices the way the upstream
// API does, with time stamps in Oslo local time.
func dayFixture(t *testing.T, date dates.Date) []byte {
	t.Helper()
	type entry struct {
		NOK       float64   `json:"NOK_per_kWh"`
		EUR       float64   `json:"EUR_per_kWh"`
		EXR       float64   `json:"EXR"`
		TimeStart time.Time `json:"time_start"`
		TimeEnd   time.Time `json:"time_end"`
	}
	var entries []entry
	start := date.Midnight(dates.Oslo())
	end := date.AddDays(1).Midnight(dates.Oslo())
	for i, ts := 0, start; ts.Before(end); i, ts = i+1, ts.Add(time.Hour) {
		entries = append(entries, entry{
			NOK:       float64(i) * 0.1,
			EUR:       float64(i) * 0.01,
			EXR:       10,
			TimeStart: ts,
			TimeEnd:   ts.Add(time.Hour),
		})
	}
	b, err := json.Marshal(entries)
	require.NoError(t, err)
	return b
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client(), dates.Oslo())
}

func TestFetchDayPrices(t *testing.T) {
	date := dates.New(2023, time.January, 1)

	var path string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write(dayFixture(t, date))
	})

	prices, err := c.FetchDayPrices(context.Background(), date, "NO1")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/prices/2023/01-01_NO1.json", path)
	require.Len(t, prices, 24)
	assert.Equal(t, 0, prices[0].TimeStart.Hour())
	assert.Equal(t, 23, prices[23].TimeStart.Hour())

	for i, p := range prices {
		assert.Equal(t, "Europe/Oslo", p.TimeStart.Location().String(), "row %d", i)
		assert.Equal(t, date, dates.Of(p.TimeStart), "row %d", i)
		assert.Empty(t, p.LocationCode, "fetcher must not tag location")
		if i > 0 {
			assert.True(t, p.TimeStart.After(prices[i-1].TimeStart), "time_start not increasing at %d", i)
		}
	}
	assert.InDelta(t, 2.3, prices[23].NOKPerKWh, 1e-9)
	assert.Equal(t, 10.0, prices[0].EXR)
}

func TestFetchDayPricesDaylightSaving(t *testing.T) {
	tests := []struct {
		name     string
		date     dates.Date
		expected int
	}{
		{name: "spring forward", date: dates.New(2023, time.March, 26), expected: 23},
		{name: "fall back", date: dates.New(2023, time.October, 29), expected: 25},
		{name: "ordinary day", date: dates.New(2023, time.June, 1), expected: 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write(dayFixture(t, tt.date))
			})
			prices, err := c.FetchDayPrices(context.Background(), tt.date, "NO5")
			require.NoError(t, err)
			assert.Len(t, prices, tt.expected)
		})
	}
}

func TestFetchDayPricesErrors(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		isStatus  bool
		errSubstr string
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			isStatus: true,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			isStatus: true,
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[{"NOK_per_kWh": 1.0,`))
			},
			errSubstr: "failed to decode",
		},
		{
			name: "wrong shape",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"prices": []}`))
			},
			errSubstr: "failed to decode",
		},
		{
			name: "missing time_start",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[{"NOK_per_kWh": 1.0}]`))
			},
			errSubstr: "lacks time_start",
		},
		{
			name: "missing price",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[{"time_start": "2023-01-01T00:00:00+01:00"}]`))
			},
			errSubstr: "lacks time_start or NOK_per_kWh",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, tt.handler)
			prices, err := c.FetchDayPrices(context.Background(), dates.New(2023, time.January, 1), "NO1")
			require.Error(t, err)
			assert.Nil(t, prices)
			if tt.isStatus {
				assert.ErrorIs(t, err, ErrUnexpectedStatus)
			} else {
				assert.NotErrorIs(t, err, ErrUnexpectedStatus)
				assert.ErrorContains(t, err, tt.errSubstr)
			}
		})
	}
}

func TestFetchDayPricesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, nil, dates.Oslo())
	_, err := c.FetchDayPrices(context.Background(), dates.New(2023, time.January, 1), "NO1")
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to fetch prices")
}

func TestFetchDayPricesDefaults(t *testing.T) {
	today := dates.Today()

	var path string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`[]`))
	})

	prices, err := c.FetchDayPrices(context.Background(), dates.Date{}, "")
	require.NoError(t, err)
	assert.Empty(t, prices)
	assert.Equal(t, c.URL(today, DefaultLocation)[len(c.baseURL):], path)
}

func TestURL(t *testing.T) {
	c := New("https://example.com/", nil, nil)
	assert.Equal(t,
		"https://example.com/api/v1/prices/2023/03-05_NO4.json",
		c.URL(dates.New(2023, time.March, 5), "NO4"))
}

func TestRateLimitedTransport(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewRateLimitedTransport(1000, 1, nil)}
	c := New(srv.URL, client, dates.Oslo())
	for range 3 {
		_, err := c.FetchDayPrices(context.Background(), dates.New(2023, time.January, 1), "NO1")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())

	// A cancelled context fails while waiting for a token.
	slow := &http.Client{Transport: NewRateLimitedTransport(0.001, 1, nil)}
	c = New(srv.URL, slow, dates.Oslo())
	_, err := c.FetchDayPrices(context.Background(), dates.New(2023, time.January, 1), "NO1")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.FetchDayPrices(ctx, dates.New(2023, time.January, 1), "NO1")
	assert.Error(t, err)
}

func TestRateLimitedTransportDisabled(t *testing.T) {
	next := http.DefaultTransport
	assert.Equal(t, next, NewRateLimitedTransport(0, 1, next))
}
