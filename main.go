package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/angas/strompris-go/config"
	"github.com/angas/strompris-go/database"
	"github.com/angas/strompris-go/dates"
	"github.com/angas/strompris-go/httpcache"
	"github.com/angas/strompris-go/hvakosterstrommen"
	"github.com/angas/strompris-go/logging"
	"github.com/angas/strompris-go/prices"
	"github.com/angas/strompris-go/task"
	"github.com/angas/strompris-go/www"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Sprintf("failed to load .env: %v", err))
	}

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := dates.SetTimezone(cnfg.Gui.GetTimezone()); err != nil {
		panic(fmt.Sprintf("failed to set timezone: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cnfg.Logging.GetConsoleLevel(),
		TimeFormat: time.RFC3339,
	})
	logger := slog.New(consoleHandler)
	slog.SetDefault(logger)
	logger.Debug("strompris is starting...", slog.String("version", Version))

	var (
		store httpcache.Store = httpcache.NewMemoryStore()
		logs  www.LogReader
		purge task.LogPurger
	)
	if cnfg.Cache.Path != "" {
		db, err := database.New(ctx, cnfg.Cache.Path)
		if err != nil {
			panic(fmt.Sprintf("failed to connect to database: %v", err))
		}
		defer db.Close()

		logger = slog.New(logging.NewMultiHandler(
			consoleHandler,
			logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
		slog.SetDefault(logger)

		// Now we can use the logger to log database operations into the database itself
		db.SetLogger(logger.With("module", "database"))

		store, logs, purge = db, db, db
	} else {
		logger.Info("no cache path configured, caching responses in memory")
	}

	cache := httpcache.New(store, cnfg.Cache.GetTTL())
	httpClient := &http.Client{
		Timeout: cnfg.Upstream.GetTimeout(),
		Transport: httpcache.NewTransport(cache,
			hvakosterstrommen.NewRateLimitedTransport(cnfg.Upstream.GetRequestsPerSecond(), 1, nil)),
	}
	client := hvakosterstrommen.New(cnfg.Upstream.BaseURL, httpClient, dates.Location())
	aggregator := prices.NewAggregator(client, cnfg.Upstream.GetConcurrency())

	tasks := task.NewTasks(cache, purge, aggregator, cnfg)
	if isDevMode() {
		logger.Info("dev mode, skipping task scheduling")
	} else {
		if err := tasks.Run(); err != nil {
			panic(fmt.Sprintf("failed to schedule tasks: %v", err))
		}
		defer tasks.Stop()
	}

	server, err := www.NewServer(cnfg.Api, aggregator, logs, Version)
	if err != nil {
		panic(fmt.Sprintf("failed to create server: %v", err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("main context done")
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
	}()

	if err := server.Run(ctx); err != nil {
		exitWithError(logger, err)
	}
}

func isDevMode() bool {
	return strings.EqualFold(os.Getenv("APP_ENV"), "development")
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}
	if syncer, ok := logger.Handler().(interface{ Sync() error }); ok {
		if syncErr := syncer.Sync(); syncErr != nil {
			logger.Error("failed to flush logger", slog.Any("error", syncErr))
		}
	}

	time.Sleep(2 * time.Second)
	os.Exit(1)
}
