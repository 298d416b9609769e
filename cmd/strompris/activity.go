package main

import (
	"fmt"

	"github.com/angas/strompris-go/prices"
	"github.com/angas/strompris-go/www/vegalite"
	"github.com/spf13/cobra"
)

var (
	activityEnd      string
	activityLocation string
	activityName     string
	activityMinutes  int
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Print what an activity costs at each hour of a day",
	Example: `  strompris activity --activity baking --minutes 45 --location NO3`,
	RunE: runActivity,
}

func init() {
	activityCmd.Flags().StringVar(&activityEnd, "date", "", "date, YYYY-MM-DD (default today)")
	activityCmd.Flags().StringVarP(&activityLocation, "location", "l", prices.DefaultLocation, "location code")
	activityCmd.Flags().StringVarP(&activityName, "activity", "a", prices.DefaultActivity, "activity name")
	activityCmd.Flags().IntVarP(&activityMinutes, "minutes", "m", prices.DefaultMinutes, "duration in minutes")
	rootCmd.AddCommand(activityCmd)
}

func runActivity(cmd *cobra.Command, args []string) error {
	date, err := parseEnd(activityEnd)
	if err != nil {
		return err
	}
	// Fail on a bad activity before any request is made.
	if _, err := prices.WithActivityCost(nil, activityName, activityMinutes); err != nil {
		return err
	}

	aggregator, closer, err := newAggregator()
	if err != nil {
		return err
	}
	defer closer()

	table, err := aggregator.FetchPrices(cmd.Context(), date, 1, []string{activityLocation})
	if err != nil {
		return fmt.Errorf("fetching prices: %w", err)
	}
	table, err = prices.WithActivityCost(table, activityName, activityMinutes)
	if err != nil {
		return err
	}

	if format == "chart" {
		return writeChart(cmd.OutOrStdout(), func() (vegalite.Chart, error) { return vegalite.ActivityChart(table, activityName) })
	}
	return printTable(cmd.OutOrStdout(), cmd.ErrOrStderr(), table)
}
