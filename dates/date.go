package dates

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

const dateLayout = "2006-01-02"

var (
	osloLoc         *time.Location
	displayLocation *time.Location
)

func init() {
	var err error
	osloLoc, err = time.LoadLocation("Europe/Oslo")
	if err != nil {
		panic(fmt.Sprintf("failed to load Oslo location: %v", err))
	}
	displayLocation = osloLoc
}

// SetTimezone changes the reference timezone used for "today" and for
// normalizing upstream timestamps. Defaults to Europe/Oslo.
func SetTimezone(timezone string) error {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %s: %w", timezone, err)
	}
	displayLocation = loc
	return nil
}

func Location() *time.Location {
	return displayLocation
}

func Oslo() *time.Location {
	return osloLoc
}

// Date is a calendar date without a time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func New(year int, month time.Month, day int) Date {
	return Of(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Of returns the calendar date of t in t's own location.
func Of(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func Today() Date {
	return Of(time.Now().In(displayLocation))
}

func Parse(str string) (Date, error) {
	t, err := time.Parse(dateLayout, str)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", str)
	}
	return Of(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) AddDays(days int) Date {
	return New(d.Year, d.Month, d.Day+days)
}

func (d Date) Compare(other Date) int {
	a, b := d.Midnight(time.UTC), other.Midnight(time.UTC)
	return a.Compare(b)
}

// Midnight is the first instant of the date in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Range returns the inclusive range [end-(days-1), end] in ascending order.
func Range(end Date, days int) []Date {
	if days < 1 {
		return nil
	}
	r := make([]Date, days)
	for i := range days {
		r[i] = end.AddDays(i - days + 1)
	}
	return r
}
