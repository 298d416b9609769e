package www

import (
	"log/slog"
	"net/http"

	"github.com/angas/strompris-go/dates"
	"github.com/angas/strompris-go/prices"
	"github.com/angas/strompris-go/www/vegalite"
)

func NewPlotPricesHandler(logger *slog.Logger, aggregator *prices.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parsePlotPricesQuery(r.URL)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		table, err := aggregator.FetchPrices(r.Context(), q.EndDate(), q.Days, q.Locations)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		chart, err := vegalite.PricesChart(table)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		if err := writeJSON(w, chart); err != nil {
			logger.ErrorContext(r.Context(), "writing plot_prices response", slog.Any("error", err))
		}
	}
}

func NewPlotDailyPricesHandler(logger *slog.Logger, aggregator *prices.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parsePlotPricesQuery(r.URL)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		table, err := aggregator.FetchPrices(r.Context(), q.EndDate(), q.Days, q.Locations)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		chart, err := vegalite.DailyPricesChart(prices.DailyAverages(table))
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		if err := writeJSON(w, chart); err != nil {
			logger.ErrorContext(r.Context(), "writing plot_daily_prices response", slog.Any("error", err))
		}
	}
}

// NewPlotActivityHandler charts the cost of an activity over today's prices
// in one location.
func NewPlotActivityHandler(logger *slog.Logger, aggregator *prices.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parsePlotActivityQuery(r.URL)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		// Reject unknown activities before going upstream.
		if _, err := prices.WithActivityCost(nil, q.Activity, q.Minutes); err != nil {
			writeError(w, r, logger, err)
			return
		}

		table, err := aggregator.FetchPrices(r.Context(), dates.Today(), 1, []string{q.Location})
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		table, err = prices.WithActivityCost(table, q.Activity, q.Minutes)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		chart, err := vegalite.ActivityChart(table, q.Activity)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		if err := writeJSON(w, chart); err != nil {
			logger.ErrorContext(r.Context(), "writing plot_activity response", slog.Any("error", err))
		}
	}
}
