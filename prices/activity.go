package prices

import (
	"fmt"
	"strings"

	"github.com/angas/strompris-go/calc"
	"github.com/angas/strompris-go/types"
	"github.com/angas/strompris-go/types/maybe"
)

// WithActivityCost returns a copy of table where every row is tagged with
// activity and the cost of running it for minutes at that hour's price.
// The input table is left untouched.
func WithActivityCost(table types.Table, activity string, minutes int) (types.Table, error) {
	kW, ok := Activities[activity]
	if !ok {
		return nil, fmt.Errorf("%w: unknown activity %q, must be one of: %s",
			ErrInvalidArgument, activity, strings.Join(ActivityNames(), ", "))
	}
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: minutes must be positive, got %d", ErrInvalidArgument, minutes)
	}

	kWh := calc.EnergyKWh(kW, float64(minutes)/60)
	out := table.Clone()
	for i := range out {
		out[i].Activity = activity
		out[i].Cost = maybe.Some(calc.Cost(kWh, out[i].NOKPerKWh))
	}
	return out, nil
}
