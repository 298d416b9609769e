package prices

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angas/strompris-go/dates"
	"github.com/angas/strompris-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu       sync.Mutex
	calls    []string
	failOn   string
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func (f *fakeFetcher) FetchDayPrices(ctx context.Context, date dates.Date, location string) (types.Table, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	key := fmt.Sprintf("%s_%s", date, location)
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if key == f.failOn {
		return nil, errors.New("upstream exploded")
	}

	var t types.Table
	start := date.Midnight(dates.Oslo())
	end := date.AddDays(1).Midnight(dates.Oslo())
	for i, ts := 0, start; ts.Before(end); i, ts = i+1, ts.Add(time.Hour) {
		t = append(t, types.PriceRecord{TimeStart: ts, TimeEnd: ts.Add(time.Hour), NOKPerKWh: float64(i + 1)})
	}
	return t, nil
}

func TestFetchPrices(t *testing.T) {
	f := &fakeFetcher{}
	a := NewAggregator(f, 4)

	end := dates.New(2023, time.January, 7)
	table, err := a.FetchPrices(context.Background(), end, 7, []string{"NO1", "NO2"})
	require.NoError(t, err)
	require.Len(t, table, 14*24)
	assert.Len(t, f.calls, 14)

	// Groups appear date-major, location-minor.
	var groups []string
	for i, r := range table {
		g := fmt.Sprintf("%s_%s", dates.Of(r.TimeStart), r.LocationCode)
		if i == 0 || groups[len(groups)-1] != g {
			groups = append(groups, g)
		}
		assert.Equal(t, Locations[r.LocationCode], r.Location)
	}
	expected := []string{}
	for _, d := range dates.Range(end, 7) {
		expected = append(expected, d.String()+"_NO1", d.String()+"_NO2")
	}
	assert.Equal(t, expected, groups)
	assert.Equal(t, "2023-01-01_NO1", groups[0])
	assert.Equal(t, "2023-01-07_NO2", groups[13])
}

func TestFetchPricesDefaults(t *testing.T) {
	f := &fakeFetcher{}
	a := NewAggregator(f, 0)

	table, err := a.FetchPrices(context.Background(), dates.Date{}, 1, nil)
	require.NoError(t, err)

	assert.Len(t, f.calls, len(Locations))
	today := dates.Today()
	for _, c := range f.calls {
		assert.Contains(t, c, today.String())
	}
	assert.NotEmpty(t, table)
	assert.Equal(t, "NO1", table[0].LocationCode)
	assert.Equal(t, "NO5", table[len(table)-1].LocationCode)
}

func TestFetchPricesDuplicateLocations(t *testing.T) {
	f := &fakeFetcher{}
	a := NewAggregator(f, 2)

	table, err := a.FetchPrices(context.Background(), dates.New(2023, time.January, 1), 1, []string{"NO3", "NO3"})
	require.NoError(t, err)
	assert.Len(t, table, 48, "overlapping requests yield duplicate rows")
	assert.Equal(t, table[0], table[24])
}

func TestFetchPricesInvalidArguments(t *testing.T) {
	tests := []struct {
		name      string
		days      int
		locations []string
	}{
		{name: "zero days", days: 0},
		{name: "negative days", days: -3},
		{name: "too many days", days: MaxDays + 1},
		{name: "max int days", days: math.MaxInt},
		{name: "unknown location", days: 1, locations: []string{"NO1", "SE3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{}
			_, err := NewAggregator(f, 1).FetchPrices(context.Background(), dates.New(2023, time.January, 1), tt.days, tt.locations)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Empty(t, f.calls)
		})
	}
}

func TestFetchPricesMaxDays(t *testing.T) {
	f := &fakeFetcher{}
	table, err := NewAggregator(f, 8).FetchPrices(context.Background(), dates.New(2023, time.December, 31), MaxDays, []string{"NO1"})
	require.NoError(t, err)
	assert.Len(t, f.calls, MaxDays)
	assert.Len(t, table, MaxDays*24)
}

func TestFetchPricesFailureAbortsAll(t *testing.T) {
	f := &fakeFetcher{failOn: "2023-01-02_NO2"}
	a := NewAggregator(f, 1)

	table, err := a.FetchPrices(context.Background(), dates.New(2023, time.January, 3), 3, []string{"NO1", "NO2"})
	require.Error(t, err)
	assert.Nil(t, table)
	assert.ErrorContains(t, err, "upstream exploded")
	assert.ErrorContains(t, err, "NO2 on 2023-01-02")
	assert.NotErrorIs(t, err, ErrInvalidArgument)
}

func TestFetchPricesConcurrencyLimit(t *testing.T) {
	f := &fakeFetcher{delay: 10 * time.Millisecond}
	a := NewAggregator(f, 3)

	_, err := a.FetchPrices(context.Background(), dates.New(2023, time.January, 7), 7, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, f.maxSeen.Load(), int32(3))
	assert.Greater(t, f.maxSeen.Load(), int32(1), "fetches should overlap")
}

func TestWithActivityCost(t *testing.T) {
	table := types.Table{
		{NOKPerKWh: 1.0, LocationCode: "NO1", Location: "Oslo"},
		{NOKPerKWh: 0.0, LocationCode: "NO1", Location: "Oslo"},
		{NOKPerKWh: 2.4, LocationCode: "NO2", Location: "Kristiansand"},
	}

	out, err := WithActivityCost(table, "shower", 10)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.InDelta(t, 0.4167, out[0].Cost.Value(), 1e-4)
	assert.Equal(t, 0.0, out[1].Cost.Value())
	assert.True(t, out[1].Cost.IsValid())
	assert.InDelta(t, 1.0, out[2].Cost.Value(), 1e-9)
	for _, r := range out {
		assert.Equal(t, "shower", r.Activity)
	}

	// The input is untouched.
	for _, r := range table {
		assert.Empty(t, r.Activity)
		assert.False(t, r.Cost.IsValid())
	}
}

func TestWithActivityCostLinear(t *testing.T) {
	table := types.Table{{NOKPerKWh: 0.73}, {NOKPerKWh: 1.91}, {NOKPerKWh: 0}, {NOKPerKWh: -0.05}}
	for _, activity := range ActivityNames() {
		t.Run(activity, func(t *testing.T) {
			for minutes := 1; minutes <= 2000; minutes++ {
				single, err := WithActivityCost(table, activity, minutes)
				require.NoError(t, err)
				double, err := WithActivityCost(table, activity, 2*minutes)
				require.NoError(t, err)
				for i := range table {
					if 2*single[i].Cost.Value() != double[i].Cost.Value() {
						t.Fatalf("row %d, %d minutes: expected %v, got %v", i, 2*minutes, 2*single[i].Cost.Value(), double[i].Cost.Value())
					}
				}
			}
		})
	}
}

func TestWithActivityCostLongDuration(t *testing.T) {
	table := types.Table{{NOKPerKWh: 1.0}}
	for _, minutes := range []int{153722868, math.MaxInt32} {
		out, err := WithActivityCost(table, "watch_tv", minutes)
		require.NoError(t, err)
		cost := out[0].Cost.Value()
		assert.Greater(t, cost, 0.0, "%d minutes", minutes)
		assert.InEpsilon(t, float64(minutes)/60, cost, 1e-12, "%d minutes", minutes)
	}
}

func TestWithActivityCostRetagging(t *testing.T) {
	table := types.Table{{NOKPerKWh: 1.0}}
	first, err := WithActivityCost(table, "heat", 60)
	require.NoError(t, err)
	second, err := WithActivityCost(first, "baking", 60)
	require.NoError(t, err)

	assert.Equal(t, "heat", first[0].Activity)
	assert.InDelta(t, 1.5, first[0].Cost.Value(), 1e-9)
	assert.Equal(t, "baking", second[0].Activity)
	assert.InDelta(t, 2.0, second[0].Cost.Value(), 1e-9)
}

func TestWithActivityCostInvalid(t *testing.T) {
	table := types.Table{{NOKPerKWh: 1.0}}

	tests := []struct {
		name     string
		activity string
		minutes  int
		contains string
	}{
		{name: "unknown activity", activity: "sauna", minutes: 10, contains: "baking, cooking, heat, shower, watch_tv"},
		{name: "empty activity", activity: "", minutes: 10, contains: "unknown activity"},
		{name: "zero minutes", activity: "shower", minutes: 0, contains: "minutes must be positive"},
		{name: "negative minutes", activity: "shower", minutes: -5, contains: "minutes must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := WithActivityCost(table, tt.activity, tt.minutes)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.ErrorContains(t, err, tt.contains)
		})
	}
}

func TestDailyAverages(t *testing.T) {
	f := &fakeFetcher{}
	table, err := NewAggregator(f, 0).FetchPrices(context.Background(), dates.New(2023, time.January, 2), 2, []string{"NO1", "NO4"})
	require.NoError(t, err)

	daily := DailyAverages(table)
	require.Len(t, daily, 4)

	expected := []struct {
		date     string
		location string
	}{
		{"2023-01-01", "NO1"},
		{"2023-01-01", "NO4"},
		{"2023-01-02", "NO1"},
		{"2023-01-02", "NO4"},
	}
	for i, e := range expected {
		assert.Equal(t, e.date, dates.Of(daily[i].Date).String())
		assert.Equal(t, e.location, daily[i].LocationCode)
		assert.Equal(t, Locations[e.location], daily[i].Location)
		assert.Equal(t, 24, daily[i].Hours)
		assert.InDelta(t, 12.5, daily[i].NOKPerKWh, 1e-9)
		assert.Equal(t, 0, daily[i].Date.Hour())
		assert.Equal(t, "Europe/Oslo", daily[i].Date.Location().String())
	}
}

func TestDailyAveragesEmpty(t *testing.T) {
	assert.Empty(t, DailyAverages(nil))
}

func TestRegistries(t *testing.T) {
	assert.Equal(t, []string{"NO1", "NO2", "NO3", "NO4", "NO5"}, LocationCodes())
	assert.Equal(t, []string{"baking", "cooking", "heat", "shower", "watch_tv"}, ActivityNames())

	locs := SortedLocations()
	require.Len(t, locs, 5)
	assert.Equal(t, Location{Code: "NO4", Name: "Tromsø"}, locs[3])

	_, ok := Locations[DefaultLocation]
	assert.True(t, ok)
	_, ok = Activities[DefaultActivity]
	assert.True(t, ok)
}
