package www

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/angas/strompris-go/dates"
	"github.com/angas/strompris-go/prices"
	"github.com/go-playground/validator/v10"
)

var errInvalidQuery = errors.New("invalid query parameter")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	return v
}

type plotPricesQuery struct {
	Locations []string `query:"locations" validate:"dive,required"`
	End       string   `query:"end" validate:"omitempty,datetime=2006-01-02"`
	Days      int      `query:"days" validate:"min=1,max=366"`
}

func (q plotPricesQuery) EndDate() dates.Date {
	if q.End == "" {
		return dates.Today()
	}
	d, _ := dates.Parse(q.End) // validated
	return d
}

type plotActivityQuery struct {
	Location string `query:"location" validate:"required"`
	Activity string `query:"activity" validate:"required"`
	Minutes  int    `query:"minutes" validate:"gt=0"`
}

func parsePlotPricesQuery(u *url.URL) (plotPricesQuery, error) {
	days, err := intOrDefault(u, "days", prices.DefaultDays)
	if err != nil {
		return plotPricesQuery{}, err
	}
	q := plotPricesQuery{
		Locations: u.Query()["locations"],
		End:       u.Query().Get("end"),
		Days:      days,
	}
	if err := validate.Struct(q); err != nil {
		return plotPricesQuery{}, validationError(err)
	}
	return q, nil
}

func parsePlotActivityQuery(u *url.URL) (plotActivityQuery, error) {
	minutes, err := intOrDefault(u, "minutes", prices.DefaultMinutes)
	if err != nil {
		return plotActivityQuery{}, err
	}
	q := plotActivityQuery{
		Location: stringOrDefault(u, "location", prices.DefaultLocation),
		Activity: stringOrDefault(u, "activity", prices.DefaultActivity),
		Minutes:  minutes,
	}
	if err := validate.Struct(q); err != nil {
		return plotActivityQuery{}, validationError(err)
	}
	return q, nil
}

func intOrDefault(u *url.URL, key string, defaultValue int) (int, error) {
	v := u.Query().Get(key)
	if v == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w %s: %q is not an integer", errInvalidQuery, key, v)
	}
	return i, nil
}

func stringOrDefault(u *url.URL, key string, defaultValue string) string {
	if v := u.Query().Get(key); v != "" {
		return v
	}
	return defaultValue
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", errInvalidQuery, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must be a date formatted as YYYY-MM-DD", fe.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return fmt.Errorf("%w: %s", errInvalidQuery, strings.Join(msgs, ", "))
}

// writeError answers client mistakes with 400 and everything else with a
// generic 500, the details only go to the log.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if errors.Is(err, errInvalidQuery) || errors.Is(err, prices.ErrInvalidArgument) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.ErrorContext(r.Context(), "handling request", slog.Any("error", err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}
