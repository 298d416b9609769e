package prices

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/angas/strompris-go/dates"
	"github.com/angas/strompris-go/types"
	"golang.org/x/sync/errgroup"
)

type Aggregator struct {
	logger      *slog.Logger
	fetcher     types.DayPriceFetcher
	concurrency int
}

// NewAggregator fans out day fetches to fetcher with at most concurrency
// requests in flight. A concurrency below 1 means no limit.
func NewAggregator(fetcher types.DayPriceFetcher, concurrency int) *Aggregator {
	return &Aggregator{
		logger:      slog.Default().With("module", "prices"),
		fetcher:     fetcher,
		concurrency: concurrency,
	}
}

// FetchPrices returns the prices of every location for every date in
// [end-(days-1), end], tagged with location code and name. Rows are ordered
// date-major, location-minor, each day as delivered upstream. Repeated
// locations are fetched and returned repeatedly. Any failing fetch fails the
// whole call.
func (a *Aggregator) FetchPrices(ctx context.Context, end dates.Date, days int, locations []string) (types.Table, error) {
	if days < 1 || days > MaxDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d, got %d", ErrInvalidArgument, MaxDays, days)
	}
	if end.IsZero() {
		end = dates.Today()
	}
	if len(locations) == 0 {
		locations = LocationCodes()
	}
	for _, loc := range locations {
		if _, ok := Locations[loc]; !ok {
			return nil, fmt.Errorf("%w: unknown location %q", ErrInvalidArgument, loc)
		}
	}

	type job struct {
		date     dates.Date
		location string
	}
	var jobs []job
	for _, date := range dates.Range(end, days) {
		for _, loc := range locations {
			jobs = append(jobs, job{date: date, location: loc})
		}
	}

	a.logger.DebugContext(ctx, "fetching prices",
		slog.String("end", end.String()),
		slog.Int("days", days),
		slog.Any("locations", locations))

	frames := make([]types.Table, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, j := range jobs {
		g.Go(func() error {
			rows, err := a.fetcher.FetchDayPrices(gctx, j.date, j.location)
			if err != nil {
				return fmt.Errorf("failed to fetch prices for %s on %s: %w", j.location, j.date, err)
			}
			rows = rows.Clone()
			name := Locations[j.location]
			for k := range rows {
				rows[k].LocationCode = j.location
				rows[k].Location = name
			}
			frames[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n := 0
	for _, f := range frames {
		n += len(f)
	}
	table := make(types.Table, 0, n)
	for _, f := range frames {
		table = append(table, f...)
	}
	return table, nil
}
