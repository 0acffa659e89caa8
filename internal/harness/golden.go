package harness

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mrqart/internal/render"
	"github.com/roach88/mrqart/internal/station"
)

// Snapshot renders a result as stable text: counters, the journaled
// trace and the final view in plain theme.
func Snapshot(name string, result *Result) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "scenario: %s\n", name)
	fmt.Fprintf(&b, "pulls: issued=%d pending=%d\n", result.PullsIssued, result.PendingPulls)
	fmt.Fprintf(&b, "fresh: %t\n", result.View.Fresh)
	fmt.Fprintf(&b, "selector: %s\n", strings.Join(result.View.Options(), " "))

	b.WriteString("\ntrace:\n")
	for _, ev := range result.Trace {
		parts := []string{strconv.FormatInt(ev.Seq, 10), ev.Kind}
		for _, s := range []string{ev.Type, ev.Station, ev.Verdict} {
			if s != "" {
				parts = append(parts, s)
			}
		}
		b.WriteString("  " + strings.Join(parts, " ") + "\n")
	}

	b.WriteString("\nview:\n")
	b.WriteString(renderView(result.View))
	b.WriteString("\n")

	return []byte(b.String())
}

func renderView(v station.View) string {
	if len(v.Stations) == 0 {
		return "(empty)"
	}
	f := render.NewFormatter(render.PlainTheme())
	blocks := make([]string, len(v.Stations))
	for i, sv := range v.Stations {
		frags := make([]render.Fragment, len(sv.Entries))
		for j, e := range sv.Entries {
			frags[j] = e.Fragment
		}
		blocks[i] = f.Station(sv.ID, frags)
	}
	return strings.Join(blocks, "\n")
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario.Name, result))

	return result, nil
}
