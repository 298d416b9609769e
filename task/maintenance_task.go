package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/angas/strompris-go/httpcache"
	"github.com/dustin/go-humanize"
)

type LogPurger interface {
	PurgeLog(ctx context.Context, maxLogEntries int) (int64, error)
}

func NewMaintenanceTask(logger *slog.Logger, cache *httpcache.Cache, logs LogPurger, maxLogEntries int) func() {
	return func() {
		logger.Debug("running maintenance task...")

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		purged, err := cache.Purge(ctx)
		if err != nil {
			logger.Error("cache maintenance error", slog.Any("error", err))
		}

		if logs != nil {
			if _, err := logs.PurgeLog(ctx, maxLogEntries); err != nil {
				logger.Error("log maintenance error", slog.Any("error", err))
			}
		}

		stats, err := cache.Stats(ctx)
		if err != nil {
			logger.Error("cache stats error", slog.Any("error", err))
			return
		}

		logger.Info("maintenance task done",
			slog.Int64("purged", purged),
			slog.Int("entries", stats.Entries),
			slog.String("size", humanize.Bytes(uint64(stats.Bytes))),
			slog.Int64("hits", stats.Hits),
			slog.Int64("misses", stats.Misses))
	}
}
