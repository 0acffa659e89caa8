package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one scripted client session.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Params is the detail table parameter list. Empty uses the defaults.
	Params []string `yaml:"params,omitempty"`

	// Session is the fixed session id. Default "test-session".
	Session string `yaml:"session,omitempty"`

	// Pulls answers full-state pulls in call order.
	Pulls []PullResponse `yaml:"pulls,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// PullResponse is one scripted pull outcome. Exactly one field is set.
type PullResponse struct {
	// State is a full-state body given as YAML.
	State *yaml.Node `yaml:"state,omitempty"`

	// Raw is a literal body, for bodies that are not valid state.
	Raw string `yaml:"raw,omitempty"`

	// Error fails the pull with this message.
	Error string `yaml:"error,omitempty"`
}

// Step is one scenario action. Exactly one field is set.
type Step struct {
	Frame   *yaml.Node `yaml:"frame,omitempty"`
	Raw     string     `yaml:"raw,omitempty"`
	Inject  *yaml.Node `yaml:"inject,omitempty"`
	Pull    *int       `yaml:"pull,omitempty"`
	PullAll bool       `yaml:"pull_all,omitempty"`
}

// Assertion validates the state after all steps.
type Assertion struct {
	Type string `yaml:"type"`

	// Count is used by pull_count and pending_pulls.
	Count *int `yaml:"count,omitempty"`

	// Stations is used by station_order and selector.
	Stations []string `yaml:"stations,omitempty"`

	// Station and Index pick one entry, newest first, for entries,
	// expanded, deviations and flagged.
	Station string `yaml:"station,omitempty"`
	Index   int    `yaml:"index,omitempty"`

	// Sequences is used by entries.
	Sequences []string `yaml:"sequences,omitempty"`

	// Value is used by fresh and expanded.
	Value *bool `yaml:"value,omitempty"`

	// Params is used by deviations and flagged.
	Params []string `yaml:"params,omitempty"`

	// Verdicts is used by verdicts.
	Verdicts []string `yaml:"verdicts,omitempty"`
}

// Assertion type constants.
const (
	AssertPullCount    = "pull_count"
	AssertPendingPulls = "pending_pulls"
	AssertStationOrder = "station_order"
	AssertSelector     = "selector"
	AssertFresh        = "fresh"
	AssertEntries      = "entries"
	AssertExpanded     = "expanded"
	AssertDeviations   = "deviations"
	AssertFlagged      = "flagged"
	AssertVerdicts     = "verdicts"
)

// DefaultSession is the session id used when a scenario names none.
const DefaultSession = "test-session"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// scenarioKeys mirrors Scenario with the embedded payloads left as
// generic values. Strict decoding into it rejects unknown scenario, pull
// and step keys without checking the keys of frames, states or records.
type scenarioKeys struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Params      []string `yaml:"params"`
	Session     string   `yaml:"session"`
	Pulls       []struct {
		State any    `yaml:"state"`
		Raw   string `yaml:"raw"`
		Error string `yaml:"error"`
	} `yaml:"pulls"`
	Steps []struct {
		Frame   any    `yaml:"frame"`
		Raw     string `yaml:"raw"`
		Inject  any    `yaml:"inject"`
		Pull    *int   `yaml:"pull"`
		PullAll bool   `yaml:"pull_all"`
	} `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var keys scenarioKeys
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&keys); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Payload nodes keep their key order, so the scenario itself is
	// decoded a second time without strict field checking.
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if scenario.Session == "" {
		scenario.Session = DefaultSession
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, p := range s.Pulls {
		set := 0
		if p.State != nil {
			set++
		}
		if p.Raw != "" {
			set++
		}
		if p.Error != "" {
			set++
		}
		if set != 1 {
			return fmt.Errorf("pulls[%d]: exactly one of state, raw, error is required", i)
		}
	}

	for i, step := range s.Steps {
		set := 0
		if step.Frame != nil {
			set++
		}
		if step.Raw != "" {
			set++
		}
		if step.Inject != nil {
			set++
		}
		if step.Pull != nil {
			set++
		}
		if step.PullAll {
			set++
		}
		if set != 1 {
			return fmt.Errorf("steps[%d]: exactly one of frame, raw, inject, pull, pull_all is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertPullCount, AssertPendingPulls:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertStationOrder, AssertSelector:
		if a.Stations == nil {
			return fmt.Errorf("assertions[%d]: stations is required for %s", index, a.Type)
		}
	case AssertFresh:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for fresh", index)
		}
	case AssertEntries:
		if a.Station == "" || a.Sequences == nil {
			return fmt.Errorf("assertions[%d]: station and sequences are required for entries", index)
		}
	case AssertExpanded:
		if a.Station == "" || a.Value == nil {
			return fmt.Errorf("assertions[%d]: station and value are required for expanded", index)
		}
	case AssertDeviations, AssertFlagged:
		if a.Station == "" || a.Params == nil {
			return fmt.Errorf("assertions[%d]: station and params are required for %s", index, a.Type)
		}
	case AssertVerdicts:
		if a.Verdicts == nil {
			return fmt.Errorf("assertions[%d]: verdicts is required", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Index < 0 {
		return fmt.Errorf("assertions[%d]: index must be non-negative", index)
	}
	return nil
}
