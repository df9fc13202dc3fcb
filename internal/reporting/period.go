package reporting

import (
	"time"

	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
)

const dayLayout = "2006-01-02"

// DateRange is a whole-day UTC window. End is the last instant of the final
// day; queries use the half-open [Start, Until()).
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange snaps from/to to whole UTC days.
func NewDateRange(from, to time.Time) (DateRange, error) {
	start := startOfDay(from)
	last := startOfDay(to)
	if last.Before(start) {
		return DateRange{}, pkgerrors.New(pkgerrors.CodeValidation, "end must not be before start")
	}
	return DateRange{Start: start, End: endOfDay(last)}, nil
}

// LastDays returns the window of n days ending on now's day.
func LastDays(now time.Time, n int) DateRange {
	if n < 1 {
		n = 1
	}
	last := startOfDay(now)
	return DateRange{Start: last.AddDate(0, 0, -(n - 1)), End: endOfDay(last)}
}

// Days counts calendar days in the range, both ends included.
func (r DateRange) Days() int {
	return int(startOfDay(r.End).Sub(r.Start)/(24*time.Hour)) + 1
}

// Until is the exclusive upper bound: midnight after the final day.
func (r DateRange) Until() time.Time {
	return startOfDay(r.End).Add(24 * time.Hour)
}

// Previous is the equally long window whose Until is this window's Start.
func (r DateRange) Previous() DateRange {
	return DateRange{
		Start: r.Start.AddDate(0, 0, -r.Days()),
		End:   r.Start.Add(-time.Nanosecond),
	}
}

// DayKeys lists every day in the range as YYYY-MM-DD.
func (r DateRange) DayKeys() []string {
	days := r.Days()
	keys := make([]string, 0, days)
	for i := 0; i < days; i++ {
		keys = append(keys, r.Start.AddDate(0, 0, i).Format(dayLayout))
	}
	return keys
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(day time.Time) time.Time {
	return day.Add(24*time.Hour - time.Nanosecond)
}
