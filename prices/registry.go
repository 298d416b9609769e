package prices

import (
	"errors"
	"slices"

	"github.com/samber/lo"
)

var ErrInvalidArgument = errors.New("invalid argument")

const (
	DefaultLocation = "NO1"
	DefaultActivity = "shower"
	DefaultMinutes  = 10
	DefaultDays     = 7

	// MaxDays bounds a single range request.
	MaxDays = 366
)

// Locations maps price zone codes to display names. Read only.
var Locations = map[string]string{
	"NO1": "Oslo",
	"NO2": "Kristiansand",
	"NO3": "Trondheim",
	"NO4": "Tromsø",
	"NO5": "Bergen",
}

// Activities maps activity names to average power draw in kW. Read only.
var Activities = map[string]float64{
	"shower":   2.5,
	"cooking":  3.0,
	"watch_tv": 1.0,
	"baking":   2.0,
	"heat":     1.5,
}

func LocationCodes() []string {
	codes := lo.Keys(Locations)
	slices.Sort(codes)
	return codes
}

func ActivityNames() []string {
	names := lo.Keys(Activities)
	slices.Sort(names)
	return names
}

type Location struct {
	Code string
	Name string
}

// SortedLocations returns the registry as a list ordered by code.
func SortedLocations() []Location {
	return lo.Map(LocationCodes(), func(code string, _ int) Location {
		return Location{Code: code, Name: Locations[code]}
	})
}
