// Package event defines the acquisition record pushed by the MRQART server
// and the notification envelope that carries it.
//
// A notification frame is JSON of the form:
//
//	{"type": "new", "station": "MR1", "content": {
//	    "station": "MR1",
//	    "input":    {"SeriesNumber": "3", "SequenceName": "ep2d_bold", "TR": "1800", ...},
//	    "template": {"TR": "2000", ...},
//	    "errors":   {"TR": {"expect": "2000", "have": "1800"}},
//	    "conforms": false
//	}}
//
// "new" frames always carry a Record. "update" frames are advisory: the
// server sends either a Record or the running volume count of the series.
// Any other type is returned undecoded so callers can ignore it.
//
// INVARIANTS:
//   - Record.Conforms == (len(Record.Errors) == 0); a frame violating this
//     is rejected with an INVARIANT_VIOLATION ParseError
//   - Record.StationID is never empty after parsing
//   - Values keep their raw JSON bytes; display strings are derived
//
// The full-state body returned by the pull endpoint is decoded by
// ParseFullState, which keeps the server's station order.
package event
