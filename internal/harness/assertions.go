package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/mrqart/internal/station"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s %s %s\n", ev.Seq, ev.Kind, ev.Type, ev.Station, ev.Verdict)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Trace: result.Trace}
	}

	switch a.Type {
	case AssertPullCount:
		if result.PullsIssued != int64(*a.Count) {
			return fail(fmt.Sprintf("%d pulls issued", *a.Count), fmt.Sprintf("%d", result.PullsIssued))
		}

	case AssertPendingPulls:
		if result.PendingPulls != *a.Count {
			return fail(fmt.Sprintf("%d pending pulls", *a.Count), fmt.Sprintf("%d", result.PendingPulls))
		}

	case AssertStationOrder:
		if got := result.View.Order(); !slices.Equal(got, a.Stations) {
			return fail(fmt.Sprintf("stations %v", a.Stations), fmt.Sprintf("%v", got))
		}

	case AssertSelector:
		if got := result.View.Selector; !slices.Equal(got, a.Stations) {
			return fail(fmt.Sprintf("selector %v", a.Stations), fmt.Sprintf("%v", got))
		}

	case AssertFresh:
		if result.View.Fresh != *a.Value {
			return fail(fmt.Sprintf("fresh=%t", *a.Value), fmt.Sprintf("fresh=%t", result.View.Fresh))
		}

	case AssertEntries:
		sv, ok := result.View.Station(a.Station)
		var got []string
		if ok {
			for _, e := range sv.Entries {
				got = append(got, e.Fragment.SequenceKey)
			}
		}
		if !slices.Equal(got, a.Sequences) {
			return fail(fmt.Sprintf("%s entries %v", a.Station, a.Sequences), fmt.Sprintf("%v", got))
		}

	case AssertExpanded:
		entry, err := pick(result.View, a)
		if err != nil {
			return fail(fmt.Sprintf("%s[%d] present", a.Station, a.Index), err.Error())
		}
		if entry.Fragment.Expanded != *a.Value {
			return fail(fmt.Sprintf("%s[%d] expanded=%t", a.Station, a.Index, *a.Value),
				fmt.Sprintf("expanded=%t", entry.Fragment.Expanded))
		}

	case AssertDeviations:
		entry, err := pick(result.View, a)
		if err != nil {
			return fail(fmt.Sprintf("%s[%d] present", a.Station, a.Index), err.Error())
		}
		got := make([]string, 0, len(entry.Fragment.Deviations))
		for _, d := range entry.Fragment.Deviations {
			got = append(got, d.Param)
		}
		if !slices.Equal(got, a.Params) {
			return fail(fmt.Sprintf("%s[%d] deviations %v", a.Station, a.Index, a.Params), fmt.Sprintf("%v", got))
		}

	case AssertFlagged:
		entry, err := pick(result.View, a)
		if err != nil {
			return fail(fmt.Sprintf("%s[%d] present", a.Station, a.Index), err.Error())
		}
		got := []string{}
		for _, row := range entry.Fragment.Table {
			if row.Flagged {
				got = append(got, row.Param)
			}
		}
		if !slices.Equal(got, a.Params) {
			return fail(fmt.Sprintf("%s[%d] flagged %v", a.Station, a.Index, a.Params), fmt.Sprintf("%v", got))
		}

	case AssertVerdicts:
		got := make([]string, len(result.Trace))
		for i, ev := range result.Trace {
			got[i] = ev.Verdict
		}
		if !slices.Equal(got, a.Verdicts) {
			return fail(fmt.Sprintf("verdicts %v", a.Verdicts), fmt.Sprintf("%v", got))
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func pick(v station.View, a Assertion) (station.Entry, error) {
	sv, ok := v.Station(a.Station)
	if !ok {
		return station.Entry{}, fmt.Errorf("station %s not shown", a.Station)
	}
	if a.Index >= len(sv.Entries) {
		return station.Entry{}, fmt.Errorf("station %s has %d entries", a.Station, len(sv.Entries))
	}
	return sv.Entries[a.Index], nil
}
