package history

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fivetwenty-io/powerschool/pkg/fiql"
)

// Static errors for err113 compliance.
var (
	ErrInvalidStep       = errors.New("step must be positive")
	ErrValueKindMismatch = errors.New("start and stop values are of different kinds")
	ErrStartRequired     = errors.New("selector has no year-derived start value")
	ErrUnsupportedValue  = errors.New("unsupported value kind")
	ErrOutOfRange        = errors.New("interval bound out of integer range")
)

// Interval is one step of a sweep. Integer intervals over negative values
// are reversed: they cover (End, Start] instead of [Start, End).
type Interval struct {
	Start fiql.Value
	End   fiql.Value
}

// Expression renders the interval as a FIQL range over selector.
func (i Interval) Expression(selector string) string {
	return fiql.Build(selector, i.Start, i.End)
}

// Walk returns the intervals of a sweep from start down to rules.Stop.
//
// Each interval is emitted while its lower working value is still at or above
// the floor, so a sweep holds floor((start-stop)/step)+1 intervals. Adjacent
// intervals share a boundary.
func Walk(start fiql.Value, rules Rules) ([]Interval, error) {
	if rules.Step <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStep, rules.Step)
	}

	if start.IsNone() {
		return nil, ErrStartRequired
	}

	if start.Kind() != rules.Stop.Kind() {
		return nil, fmt.Errorf("%w: start is %s, stop is %s", ErrValueKindMismatch, start.Kind(), rules.Stop.Kind())
	}

	switch start.Kind() {
	case fiql.KindInt:
		from, _ := start.IntValue()
		stop, _ := rules.Stop.IntValue()

		// every bound lies in [stop-step, from+step]
		if from > math.MaxInt-rules.Step || stop < math.MinInt+rules.Step {
			return nil, fmt.Errorf("%w: start %d, stop %d, step %d", ErrOutOfRange, from, stop, rules.Step)
		}

		return walkInts(from, stop, rules.Step), nil
	case fiql.KindDate:
		from, _ := start.DateValue()
		stop, _ := rules.Stop.DateValue()

		return walkDates(from, stop, rules.Step), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, start.Kind())
	}
}

func walkInts(from, stop, step int) []Interval {
	if from < stop {
		return nil
	}

	out := make([]Interval, 0, (from-stop)/step+1)

	for w := from; w >= stop; w -= step {
		if w < 0 {
			out = append(out, Interval{Start: fiql.Int(w), End: fiql.Int(w - step)})

			continue
		}

		out = append(out, Interval{Start: fiql.Int(w), End: fiql.Int(w + step)})
	}

	return out
}

// walkDates derives every bound from the start date so a Feb 29 start does
// not drift by a day after the first non-leap year.
func walkDates(from, stop time.Time, step int) []Interval {
	var out []Interval

	upper := addYears(from, step)

	for n := 0; ; n++ {
		lower := addYears(from, -n*step)
		if lower.Before(stop) {
			break
		}

		out = append(out, Interval{Start: fiql.Date(lower), End: fiql.Date(upper)})
		upper = lower
	}

	return out
}

// addYears shifts t by years, clamping Feb 29 to Feb 28 in non-leap years.
func addYears(t time.Time, years int) time.Time {
	y, m, d := t.Date()
	y += years

	if m == time.February && d == 29 && !isLeap(y) {
		d = 28
	}

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// Generate returns the FIQL expressions of a sweep over selectorName.
func Generate(selectorName string, start fiql.Value, rules Rules) ([]string, error) {
	intervals, err := Walk(start, rules)
	if err != nil {
		return nil, fmt.Errorf("generating %s history: %w", selectorName, err)
	}

	out := make([]string, 0, len(intervals))
	for _, interval := range intervals {
		out = append(out, interval.Expression(selectorName))
	}

	return out, nil
}

// HistoricalQueries sweeps selectorName from the school year currentYearID
// back to its floor. Generic selectors need HistoricalQueriesFrom.
func HistoricalQueries(currentYearID int, selectorName string) ([]string, error) {
	sel := SelectorFor(selectorName)

	err := checkYearID(sel, currentYearID)
	if err != nil {
		return nil, err
	}

	start, ok := TransformYearID(currentYearID, sel)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStartRequired, selectorName)
	}

	return Generate(selectorName, start, RulesFor(sel, currentYearID))
}

// HistoricalQueriesFrom sweeps selectorName from an explicit start value.
func HistoricalQueriesFrom(selectorName string, start fiql.Value, currentYearID int) ([]string, error) {
	sel := SelectorFor(selectorName)

	err := checkYearID(sel, currentYearID)
	if err != nil {
		return nil, err
	}

	return Generate(selectorName, start, RulesFor(sel, currentYearID))
}

// checkYearID rejects year ids whose term id bounds do not fit in an int.
func checkYearID(sel Selector, yearID int) error {
	if sel == TermID && (yearID > math.MaxInt/TermIDStep || yearID < -math.MaxInt/TermIDStep) {
		return fmt.Errorf("%w: year id %d", ErrOutOfRange, yearID)
	}

	return nil
}
