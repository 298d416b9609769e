package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/angas/strompris-go/config"
	"github.com/angas/strompris-go/database"
	"github.com/angas/strompris-go/dates"
	"github.com/angas/strompris-go/httpcache"
	"github.com/angas/strompris-go/hvakosterstrommen"
	"github.com/angas/strompris-go/prices"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	format  string
)

var rootCmd = &cobra.Command{
	Use:   "strompris",
	Short: "Fetch Norwegian electricity spot prices",
	Long: `strompris fetches hourly spot prices from hvakosterstrommen.no and prints them
as a table or as a Vega-Lite chart document.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		})))
		switch format {
		case "table", "chart":
			return nil
		default:
			return fmt.Errorf("unknown format %q, must be table or chart", format)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "output format: table or chart")
}

// newAggregator builds the same fetch pipeline as the server. The returned
// func releases the cache database, if one is configured.
func newAggregator() (*prices.Aggregator, func(), error) {
	cnfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := dates.SetTimezone(cnfg.Gui.GetTimezone()); err != nil {
		return nil, nil, fmt.Errorf("setting timezone: %w", err)
	}

	var store httpcache.Store = httpcache.NewMemoryStore()
	closer := func() {}
	if cnfg.Cache.Path != "" {
		db, err := database.New(rootCmd.Context(), cnfg.Cache.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening cache database: %w", err)
		}
		store, closer = db, db.Close
	}

	httpClient := &http.Client{
		Timeout: cnfg.Upstream.GetTimeout(),
		Transport: httpcache.NewTransport(httpcache.New(store, cnfg.Cache.GetTTL()),
			hvakosterstrommen.NewRateLimitedTransport(cnfg.Upstream.GetRequestsPerSecond(), 1, nil)),
	}
	client := hvakosterstrommen.New(cnfg.Upstream.BaseURL, httpClient, dates.Location())
	return prices.NewAggregator(client, cnfg.Upstream.GetConcurrency()), closer, nil
}

func parseEnd(end string) (dates.Date, error) {
	if end == "" {
		return dates.Today(), nil
	}
	return dates.Parse(end)
}
