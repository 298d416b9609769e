package www

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/angas/strompris-go/dates"
	"github.com/angas/strompris-go/prices"
)

type activityView struct {
	Name string
	KW   float64
}

type pageData struct {
	Version    string
	Today      string
	Locations  []prices.Location
	Activities []activityView
	Defaults   struct {
		Location string
		Activity string
		Minutes  int
		Days     int
	}
}

func newPageData(version string) pageData {
	d := pageData{
		Version:   version,
		Today:     dates.Today().String(),
		Locations: prices.SortedLocations(),
	}
	for _, name := range prices.ActivityNames() {
		d.Activities = append(d.Activities, activityView{Name: name, KW: prices.Activities[name]})
	}
	d.Defaults.Location = prices.DefaultLocation
	d.Defaults.Activity = prices.DefaultActivity
	d.Defaults.Minutes = prices.DefaultMinutes
	d.Defaults.Days = prices.DefaultDays
	return d
}

func NewPageHandler(logger *slog.Logger, tm *TemplateManager, name string, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := tm.ExecuteToWriter(name, newPageData(version), &buf); err != nil {
			logger.ErrorContext(r.Context(), "rendering page", slog.String("template", name), slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		buf.WriteTo(w)
	}
}
