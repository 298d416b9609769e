package vegalite

import (
	"errors"
	"fmt"
	"slices"
)

const Schema = "https://vega.github.io/schema/vega-lite/v5.json"

const (
	TypeQuantitative = "quantitative"
	TypeTemporal     = "temporal"
	TypeNominal      = "nominal"
)

var ErrUnknownField = errors.New("encoding references unknown field")

// Tabular is anything that can be embedded as inline chart data.
type Tabular interface {
	Columns() []string
	Values() []map[string]any
}

func NewChart(title string, mark string) Chart {
	return Chart{
		Schema: Schema,
		Title:  title,
		Width:  "container",
		Height: 400,
		Mark:   Mark{Type: mark, Tooltip: true},
	}
}

func Temporal(field string) Field {
	return Field{Field: field, Type: TypeTemporal}
}

func Quantitative(field string) Field {
	return Field{Field: field, Type: TypeQuantitative}
}

func Nominal(field string) Field {
	return Field{Field: field, Type: TypeNominal}
}

func (f Field) WithTitle(title string) Field {
	f.Title = title
	return f
}

func (f Field) WithTimeUnit(unit string) Field {
	f.TimeUnit = unit
	return f
}

func (f Field) WithAxis(format string, labelAngle int) Field {
	f.Axis = &Axis{Format: format, LabelAngle: &labelAngle}
	return f
}

// Fields lists every field referenced by the encoding.
func (c Chart) Fields() []string {
	var fields []string
	for _, f := range []*Field{c.Encoding.X, c.Encoding.Y, c.Encoding.Color} {
		if f != nil {
			fields = append(fields, f.Field)
		}
	}
	for _, f := range c.Encoding.Tooltip {
		fields = append(fields, f.Field)
	}
	return fields
}

// WithData embeds the rows of data and checks that every encoded field is
// one of its columns. An empty data set has no columns to check against.
func (c Chart) WithData(data Tabular) (Chart, error) {
	values := data.Values()
	if len(values) > 0 {
		cols := data.Columns()
		for _, f := range c.Fields() {
			if !slices.Contains(cols, f) {
				return Chart{}, fmt.Errorf("%w: %s", ErrUnknownField, f)
			}
		}
	}
	c.Data = Data{Values: values}
	return c, nil
}
