package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/angas/strompris-go/prices"
	"github.com/angas/strompris-go/types"
	"github.com/angas/strompris-go/www/vegalite"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	pricesEnd       string
	pricesDays      int
	pricesLocations []string
	pricesDaily     bool
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Print hourly prices for a range of days",
	Long: `Fetches hourly prices for every day in [end-(days-1), end] and every location,
all locations when none are given.`,
	Example: `  strompris prices --location NO1 --location NO5 --end 2023-01-07 --days 7
  strompris prices --daily --format chart > daily.vl.json`,
	RunE: runPrices,
}

func init() {
	pricesCmd.Flags().StringVar(&pricesEnd, "end", "", "last date, YYYY-MM-DD (default today)")
	pricesCmd.Flags().IntVar(&pricesDays, "days", prices.DefaultDays, "number of days ending at --end")
	pricesCmd.Flags().StringSliceVarP(&pricesLocations, "location", "l", nil, "location code, repeatable (default all)")
	pricesCmd.Flags().BoolVar(&pricesDaily, "daily", false, "print daily averages instead of hourly prices")
	rootCmd.AddCommand(pricesCmd)
}

func runPrices(cmd *cobra.Command, args []string) error {
	end, err := parseEnd(pricesEnd)
	if err != nil {
		return err
	}

	aggregator, closer, err := newAggregator()
	if err != nil {
		return err
	}
	defer closer()

	table, err := aggregator.FetchPrices(cmd.Context(), end, pricesDays, pricesLocations)
	if err != nil {
		return fmt.Errorf("fetching prices: %w", err)
	}

	out := cmd.OutOrStdout()
	if pricesDaily {
		daily := prices.DailyAverages(table)
		if format == "chart" {
			return writeChart(out, func() (vegalite.Chart, error) { return vegalite.DailyPricesChart(daily) })
		}
		return printDaily(out, daily)
	}
	if format == "chart" {
		return writeChart(out, func() (vegalite.Chart, error) { return vegalite.PricesChart(table) })
	}
	return printTable(out, cmd.ErrOrStderr(), table)
}

func writeChart(w io.Writer, build func() (vegalite.Chart, error)) error {
	chart, err := build()
	if err != nil {
		return fmt.Errorf("building chart: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(chart)
}

// printTable writes the rows to w and a row count to status.
func printTable(w, status io.Writer, table types.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	withCost := len(table) > 0 && table[0].Cost.IsValid()
	if withCost {
		fmt.Fprintln(tw, "Start\tLocation\tNOK/kWh\tActivity\tCost (NOK)")
	} else {
		fmt.Fprintln(tw, "Start\tLocation\tNOK/kWh\tEUR/kWh")
	}
	for _, r := range table {
		start := r.TimeStart.Format("2006-01-02 15:04")
		if withCost {
			fmt.Fprintf(tw, "%s\t%s\t%.4f\t%s\t%.4f\n", start, r.LocationCode, r.NOKPerKWh, r.Activity, r.Cost.Value())
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\n", start, r.LocationCode, r.NOKPerKWh, r.EURPerKWh)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(status, "%s rows\n", humanize.Comma(int64(len(table))))
	return nil
}

func printDaily(w io.Writer, daily types.DailyTable) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tLocation\tAvg NOK/kWh\tHours")
	for _, d := range daily {
		fmt.Fprintf(tw, "%s\t%s %s\t%.4f\t%d\n", d.Date.Format("2006-01-02"), d.LocationCode, d.Location, d.NOKPerKWh, d.Hours)
	}
	return tw.Flush()
}
