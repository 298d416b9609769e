package prices

import (
	"github.com/angas/strompris-go/dates"
	"github.com/angas/strompris-go/types"
)

// DailyAverages groups rows by calendar day (in the zone of time_start) and
// location, and returns the mean price of each group in order of first
// appearance. Duplicate rows are counted as many times as they occur.
func DailyAverages(table types.Table) types.DailyTable {
	type key struct {
		date     dates.Date
		location string
	}
	type acc struct {
		sum   float64
		count int
	}

	index := make(map[key]int)
	var sums []acc
	out := make(types.DailyTable, 0)

	for _, r := range table {
		k := key{date: dates.Of(r.TimeStart), location: r.LocationCode}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			sums = append(sums, acc{})
			out = append(out, types.DailyPrice{
				Date:         k.date.Midnight(r.TimeStart.Location()),
				LocationCode: r.LocationCode,
				Location:     r.Location,
			})
		}
		sums[i].sum += r.NOKPerKWh
		sums[i].count++
	}

	for i := range out {
		out[i].NOKPerKWh = sums[i].sum / float64(sums[i].count)
		out[i].Hours = sums[i].count
	}
	return out
}
