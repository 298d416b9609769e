package types

import (
	"context"
	"time"

	"github.com/angas/strompris-go/dates"
	"github.com/angas/strompris-go/types/maybe"
	"github.com/samber/lo"
)

// Column names, as exposed to chart documents.
const (
	ColTimeStart    = "time_start"
	ColTimeEnd      = "time_end"
	ColNOKPerKWh    = "NOK_per_kWh"
	ColEURPerKWh    = "EUR_per_kWh"
	ColEXR          = "EXR"
	ColLocationCode = "location_code"
	ColLocation     = "location"
	ColActivity     = "activity"
	ColCost         = "cost"
	ColDate         = "date"
	ColHours        = "hours"
)

// PriceRecord is one hour of spot price for one location.
type PriceRecord struct {
	TimeStart    time.Time
	TimeEnd      time.Time
	NOKPerKWh    float64 // Price in NOK per kWh, excluding VAT
	EURPerKWh    float64
	EXR          float64 // NOK/EUR exchange rate
	LocationCode string
	Location     string
	Activity     string
	Cost         maybe.Maybe[float64] // Only set together with Activity
}

func (r PriceRecord) field(col string) any {
	switch col {
	case ColTimeStart:
		return r.TimeStart
	case ColTimeEnd:
		return r.TimeEnd
	case ColNOKPerKWh:
		return r.NOKPerKWh
	case ColEURPerKWh:
		return r.EURPerKWh
	case ColEXR:
		return r.EXR
	case ColLocationCode:
		return r.LocationCode
	case ColLocation:
		return r.Location
	case ColActivity:
		return r.Activity
	case ColCost:
		return r.Cost.Any()
	}
	return nil
}

// Table is an ordered set of price records. Rows are never deduplicated.
type Table []PriceRecord

func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	c := make(Table, len(t))
	copy(c, t)
	return c
}

// Columns returns the columns present in the table. Location columns are
// present once any row is tagged with a location, activity columns once any
// row carries an activity.
func (t Table) Columns() []string {
	cols := []string{ColTimeStart, ColTimeEnd, ColNOKPerKWh, ColEURPerKWh, ColEXR}
	if lo.SomeBy(t, func(r PriceRecord) bool { return r.LocationCode != "" }) {
		cols = append(cols, ColLocationCode, ColLocation)
	}
	if lo.SomeBy(t, func(r PriceRecord) bool { return r.Activity != "" }) {
		cols = append(cols, ColActivity, ColCost)
	}
	return cols
}

// Values returns one map per row, keyed by Columns().
func (t Table) Values() []map[string]any {
	cols := t.Columns()
	return lo.Map(t, func(r PriceRecord, _ int) map[string]any {
		m := make(map[string]any, len(cols))
		for _, col := range cols {
			m[col] = r.field(col)
		}
		return m
	})
}

// DailyPrice is the mean price of one calendar day for one location.
type DailyPrice struct {
	Date         time.Time // Local midnight
	LocationCode string
	Location     string
	NOKPerKWh    float64
	Hours        int // Number of hourly rows averaged
}

type DailyTable []DailyPrice

func (t DailyTable) Columns() []string {
	return []string{ColDate, ColLocationCode, ColLocation, ColNOKPerKWh, ColHours}
}

func (t DailyTable) Values() []map[string]any {
	return lo.Map(t, func(d DailyPrice, _ int) map[string]any {
		return map[string]any{
			ColDate:         d.Date,
			ColLocationCode: d.LocationCode,
			ColLocation:     d.Location,
			ColNOKPerKWh:    d.NOKPerKWh,
			ColHours:        d.Hours,
		}
	})
}

// DayPriceFetcher retrieves one day of prices for one location. Returned rows
// are not tagged with a location.
type DayPriceFetcher interface {
	FetchDayPrices(ctx context.Context, date dates.Date, location string) (Table, error)
}
