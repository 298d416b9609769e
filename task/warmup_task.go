package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/angas/strompris-go/dates"
	"github.com/angas/strompris-go/prices"
)

// NewWarmupTask fetches today's and tomorrow's prices for every location so
// the first page views are served from the cache. Tomorrow's prices are
// published around midday; an earlier run only warms today.
func NewWarmupTask(logger *slog.Logger, aggregator *prices.Aggregator) func() {
	return func() { runWarmupTask(logger, aggregator, dates.Today()) }
}

func runWarmupTask(logger *slog.Logger, aggregator *prices.Aggregator, today dates.Date) {
	logger.Debug("running warmup task...")

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	rows := 0
	for _, date := range []dates.Date{today, today.AddDays(1)} {
		t, err := aggregator.FetchPrices(ctx, date, 1, nil)
		if err != nil {
			logger.Warn("warmup fetch failed", slog.String("date", date.String()), slog.Any("error", err))
			continue
		}
		rows += len(t)
	}

	logger.Info("warmup task done", slog.Int("noOfRows", rows))
}
