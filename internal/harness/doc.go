// Package harness runs client scenarios against a real engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	params: [TR, TE]
//	pulls:
//	  - state:
//	      MR1: { station: MR1, type: new, content: { ... } }
//	  - error: "connection refused"
//	steps:
//	  - frame: { type: update, content: 1 }
//	  - pull: 0
//	  - raw: "not json"
//	  - inject: { station: MR2, input: { ... }, ... }
//	assertions:
//	  - type: pull_count
//	    count: 1
//	  - type: station_order
//	    stations: [MR1]
//
// Frames, states and injected records are converted from YAML to JSON with
// mapping key order preserved, so full-state order is what the file says.
//
// # Steps
//
//   - frame: a push frame, given as YAML
//   - raw: a push frame, given as literal text
//   - inject: a record submitted through the debug injection path
//   - pull: run the pending pull at this index (0 is the oldest)
//   - pull_all: run every pending pull, oldest first
//
// Every step drains the engine queue before the next one starts.
// Pulls are answered from the scenario's pulls list in call order.
//
// # Assertion Types
//
//   - pull_count: pulls issued by the engine
//   - pending_pulls: pulls launched but not yet run
//   - station_order: station ids top to bottom
//   - selector: station ids in first-seen order
//   - fresh: the freshness flag
//   - entries: sequence keys of one station, newest first
//   - expanded: initial disclosure of one entry
//   - deviations: deviation parameters of one entry, in display order
//   - flagged: flagged detail rows of one entry
//   - verdicts: journaled verdict of every handled event, in order
//
// # Deterministic Testing
//
// Each run uses a fixed session id, a stepping wall clock, a deferred pull
// launcher and an in-memory journal, so the same scenario always yields
// the same trace and rendered view for golden comparison.
package harness
