package vegalite

import (
	"fmt"

	"github.com/angas/strompris-go/types"
)

// PricesChart draws one price line per location over time.
func PricesChart(t types.Table) (Chart, error) {
	c := NewChart("", "line")
	c.Encoding = Encoding{
		X:     ptr(Temporal(types.ColTimeStart).WithTitle("Time").WithAxis("%-e %b", -45)),
		Y:     ptr(Quantitative(types.ColNOKPerKWh).WithTitle("NOK/kWh")),
		Color: ptr(Nominal(types.ColLocation).WithTitle("Location")),
		Tooltip: []Field{
			Nominal(types.ColLocation),
			Quantitative(types.ColNOKPerKWh),
			Temporal(types.ColTimeStart),
		},
	}
	return c.WithData(t)
}

// DailyPricesChart draws the daily mean price per location.
func DailyPricesChart(t types.DailyTable) (Chart, error) {
	c := NewChart("Daily average price", "line")
	c.Mark.Point = true
	c.Encoding = Encoding{
		X:     ptr(Temporal(types.ColDate).WithTitle("Date").WithTimeUnit("yearmonthdate")),
		Y:     ptr(Quantitative(types.ColNOKPerKWh).WithTitle("Daily average (NOK/kWh)")),
		Color: ptr(Nominal(types.ColLocation).WithTitle("Location")),
		Tooltip: []Field{
			Nominal(types.ColLocation),
			Quantitative(types.ColNOKPerKWh),
			Temporal(types.ColDate).WithTimeUnit("yearmonthdate"),
		},
	}
	return c.WithData(t)
}

// ActivityChart draws the cost of an activity over time per location.
func ActivityChart(t types.Table, activity string) (Chart, error) {
	c := NewChart(fmt.Sprintf("Cost of %s over time", activity), "line")
	c.Encoding = Encoding{
		X:     ptr(Temporal(types.ColTimeStart).WithTitle("Time in hour")),
		Y:     ptr(Quantitative(types.ColCost).WithTitle("Cost (NOK)")),
		Color: ptr(Nominal(types.ColLocation).WithTitle("Location")),
		Tooltip: []Field{
			Nominal(types.ColLocation),
			Nominal(types.ColActivity),
			Quantitative(types.ColCost),
			Temporal(types.ColTimeStart),
		},
	}
	return c.WithData(t)
}

func ptr[T any](v T) *T {
	return &v
}
