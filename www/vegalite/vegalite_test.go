package vegalite

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/angas/strompris-go/types"
	"github.com/angas/strompris-go/types/maybe"
)

func pricedTable() types.Table {
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	var t types.Table
	for i := range 3 {
		ts := start.Add(time.Duration(i) * time.Hour)
		t = append(t,
			types.PriceRecord{TimeStart: ts, TimeEnd: ts.Add(time.Hour), NOKPerKWh: 1, LocationCode: "NO1", Location: "Oslo"},
			types.PriceRecord{TimeStart: ts, TimeEnd: ts.Add(time.Hour), NOKPerKWh: 2, LocationCode: "NO5", Location: "Bergen"})
	}
	return t
}

func withActivity(t types.Table) types.Table {
	t = t.Clone()
	for i := range t {
		t[i].Activity = "shower"
		t[i].Cost = maybe.Some(t[i].NOKPerKWh * 2.5 / 6)
	}
	return t
}

// encodedFields decodes a serialized chart and collects every "field"
// referenced under "encoding".
func encodedFields(t *testing.T, c Chart) ([]string, map[string]any) {
	t.Helper()
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	var fields []string
	var walk func(v any)
	walk = func(v any) {
		switch v := v.(type) {
		case map[string]any:
			if f, ok := v["field"].(string); ok {
				fields = append(fields, f)
			}
			for _, child := range v {
				walk(child)
			}
		case []any:
			for _, child := range v {
				walk(child)
			}
		}
	}
	walk(doc["encoding"])
	return fields, doc
}

func TestChartsReferenceOnlyPresentColumns(t *testing.T) {
	priced := pricedTable()
	tests := []struct {
		name  string
		data  Tabular
		build func() (Chart, error)
	}{
		{name: "prices", data: priced, build: func() (Chart, error) { return PricesChart(priced) }},
		{name: "activity", data: withActivity(priced), build: func() (Chart, error) { return ActivityChart(withActivity(priced), "shower") }},
		{name: "daily", data: types.DailyTable{{Date: time.Now(), LocationCode: "NO1", Location: "Oslo", NOKPerKWh: 1, Hours: 24}}, build: func() (Chart, error) {
			return DailyPricesChart(types.DailyTable{{Date: time.Now(), LocationCode: "NO1", Location: "Oslo", NOKPerKWh: 1, Hours: 24}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.build()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			fields, doc := encodedFields(t, c)
			if len(fields) == 0 {
				t.Fatalf("expected encoded fields")
			}
			cols := tt.data.Columns()
			for _, f := range fields {
				if !slices.Contains(cols, f) {
					t.Errorf("field %q not in columns %v", f, cols)
				}
			}

			values := doc["data"].(map[string]any)["values"].([]any)
			if len(values) != len(tt.data.Values()) {
				t.Errorf("expected %d values, got %d", len(tt.data.Values()), len(values))
			}
			for _, v := range values {
				row := v.(map[string]any)
				if len(row) != len(cols) {
					t.Errorf("expected %d keys per row, got %d", len(cols), len(row))
				}
			}
			if doc["$schema"] != Schema {
				t.Errorf("expected schema %s, got %v", Schema, doc["$schema"])
			}
		})
	}
}

func TestPricesChartEncoding(t *testing.T) {
	c, err := PricesChart(pricedTable())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Mark.Type != "line" {
		t.Errorf("expected line mark, got %s", c.Mark.Type)
	}
	if c.Encoding.X.Field != types.ColTimeStart || c.Encoding.X.Type != TypeTemporal {
		t.Errorf("unexpected x encoding %+v", c.Encoding.X)
	}
	if c.Encoding.X.Axis == nil || c.Encoding.X.Axis.Format != "%-e %b" || *c.Encoding.X.Axis.LabelAngle != -45 {
		t.Errorf("unexpected x axis %+v", c.Encoding.X.Axis)
	}
	if c.Encoding.Y.Field != types.ColNOKPerKWh || c.Encoding.Y.Type != TypeQuantitative {
		t.Errorf("unexpected y encoding %+v", c.Encoding.Y)
	}
	if c.Encoding.Color.Field != types.ColLocation {
		t.Errorf("expected color by location, got %+v", c.Encoding.Color)
	}
	tooltip := []string{}
	for _, f := range c.Encoding.Tooltip {
		tooltip = append(tooltip, f.Field)
	}
	if !slices.Equal(tooltip, []string{types.ColLocation, types.ColNOKPerKWh, types.ColTimeStart}) {
		t.Errorf("unexpected tooltip %v", tooltip)
	}
}

func TestActivityChartTitle(t *testing.T) {
	c, err := ActivityChart(withActivity(pricedTable()), "shower")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Title != "Cost of shower over time" {
		t.Errorf("unexpected title %q", c.Title)
	}
	if c.Encoding.Y.Field != types.ColCost {
		t.Errorf("expected y on cost, got %s", c.Encoding.Y.Field)
	}
	if c.Encoding.X.Title != "Time in hour" {
		t.Errorf("unexpected x title %q", c.Encoding.X.Title)
	}
}

func TestChartUnknownField(t *testing.T) {
	// An untagged table has no cost column.
	_, err := ActivityChart(pricedTable(), "shower")
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}

	// Nor a location column before aggregation.
	untagged := types.Table{{TimeStart: time.Now(), NOKPerKWh: 1}}
	_, err = PricesChart(untagged)
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

func TestChartEmptyTable(t *testing.T) {
	c, err := PricesChart(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var doc struct {
		Data struct {
			Values []any `json:"values"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if doc.Data.Values == nil || len(doc.Data.Values) != 0 {
		t.Errorf("expected empty values array, got %v", doc.Data.Values)
	}
}
