// Package history generates the FIQL range expressions used to sweep a
// PowerSchool table backwards through time, one school year at a time.
//
// A sweep starts at the interval containing the current school year and walks
// towards a floor value. The walk's step and floor depend on the selector: year
// ids step by one, term ids by a hundred, dates by a calendar year, and other
// identifiers in blocks of ten thousand.
package history

import (
	"strings"
	"time"

	"github.com/fivetwenty-io/powerschool/pkg/fiql"
)

// Selector classifies a selector name.
type Selector int

const (
	// GenericID is any identifier without a known relation to the school year.
	GenericID Selector = iota
	// YearID is the PowerSchool yearid column.
	YearID
	// TermID is the PowerSchool termid column; a term id is yearid*100 plus a term number.
	TermID
	// Date is any column whose name contains "date".
	Date
)

// PowerSchool year ids count school years from 1990-1991.
const BaseYear = 1990

// Walk floors and steps.
const (
	YearIDStop  = 10
	YearIDStep  = 1
	TermIDStep  = 100
	GenericStep = 10000
	GenericStop = 0
	DateStep    = 1
)

// DateStop is the earliest school year start swept for date selectors.
var DateStop = time.Date(2000, time.July, 1, 0, 0, 0, 0, time.UTC)

// SelectorFor classifies name. Unknown names are GenericID.
func SelectorFor(name string) Selector {
	lower := strings.ToLower(name)

	switch {
	case lower == "yearid":
		return YearID
	case lower == "termid":
		return TermID
	case strings.Contains(lower, "date"):
		return Date
	default:
		return GenericID
	}
}

// String implements fmt.Stringer.
func (s Selector) String() string {
	switch s {
	case YearID:
		return "yearid"
	case TermID:
		return "termid"
	case Date:
		return "date"
	default:
		return "generic"
	}
}

// Rules are the step and floor of a sweep. Step is in selector units, or in
// calendar years for date selectors.
type Rules struct {
	Step int
	Stop fiql.Value
}

// RulesFor returns the sweep rules for sel in the school year yearID.
func RulesFor(sel Selector, yearID int) Rules {
	switch sel {
	case YearID:
		return Rules{Step: YearIDStep, Stop: fiql.Int(YearIDStop)}
	case TermID:
		return Rules{Step: TermIDStep, Stop: fiql.Int(-(yearID * TermIDStep))}
	case Date:
		return Rules{Step: DateStep, Stop: fiql.Date(DateStop)}
	default:
		return Rules{Step: GenericStep, Stop: fiql.Int(GenericStop)}
	}
}

// TransformYearID maps a year id to the starting value of a sweep over sel.
// Generic identifiers cannot be derived from a year id and report false.
func TransformYearID(yearID int, sel Selector) (fiql.Value, bool) {
	switch sel {
	case YearID:
		return fiql.Int(yearID), true
	case TermID:
		return fiql.Int(yearID * TermIDStep), true
	case Date:
		return fiql.Date(time.Date(yearID+BaseYear, time.July, 1, 0, 0, 0, 0, time.UTC)), true
	default:
		return fiql.Value{}, false
	}
}

// YearIDFor returns the year id of the school year containing t. School
// years begin on July 1.
func YearIDFor(t time.Time) int {
	year := t.Year() - BaseYear
	if t.Month() < time.July {
		year--
	}

	return year
}
