package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/angas/strompris-go/config"
	"github.com/angas/strompris-go/dates"
	"github.com/angas/strompris-go/httpcache"
	"github.com/angas/strompris-go/prices"
	"github.com/robfig/cron/v3"
)

type Tasks struct {
	cron            *cron.Cron
	cnfg            *config.AppConfig
	MaintenanceTask func()
	WarmupTask      func()
}

// NewTasks creates the scheduled jobs. logs may be nil when no database is
// configured.
func NewTasks(cache *httpcache.Cache, logs LogPurger, aggregator *prices.Aggregator, cnfg *config.AppConfig) *Tasks {
	logger := slog.Default().With("module", "tasks")
	return &Tasks{
		cron:            cron.New(cron.WithLocation(dates.Location())),
		cnfg:            cnfg,
		MaintenanceTask: NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), cache, logs, cnfg.Logging.GetDbMaxEntries()),
		WarmupTask:      NewWarmupTask(logger.With(slog.String("task", "warmup")), aggregator),
	}
}

func (t *Tasks) Run() error {
	if _, err := t.cron.AddFunc(t.cnfg.Cache.GetPurgeAt(), t.MaintenanceTask); err != nil {
		return fmt.Errorf("failed to schedule maintenance task: %w", err)
	}
	if t.cnfg.Warmup.RunAt != "" {
		if _, err := t.cron.AddFunc(t.cnfg.Warmup.RunAt, t.WarmupTask); err != nil {
			return fmt.Errorf("failed to schedule warmup task: %w", err)
		}
	}
	t.cron.Start()
	return nil
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}
