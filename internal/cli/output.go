package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/mrqart/internal/render"
	"github.com/roach88/mrqart/internal/station"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Run failure (rejected record, engine error, replay mismatch)
	ExitCommandError = 2 // Command error (bad config, journal not found, etc.)
)

// Error codes reported in JSON output.
const (
	ErrCodeGeneric  = "E001"
	ErrCodeConfig   = "E002"
	ErrCodeJournal  = "E003"
	ErrCodeInput    = "E004"
	ErrCodeRejected = "E005"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an
// ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`            // "ok" or "error"
	Session string    `json:"session,omitempty"` // engine session, when one ran
	Data    any       `json:"data,omitempty"`    // success payload
	Error   *CLIError `json:"error,omitempty"`   // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a result. In text mode text is printed as is; in JSON
// mode data is wrapped in a CLIResponse.
func (f *OutputFormatter) Success(session string, data any, text string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "ok",
			Session: session,
			Data:    data,
		})
	}

	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	_, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	return err
}

// ViewJSON is the JSON form of a station view.
type ViewJSON struct {
	Fresh    bool          `json:"fresh"`
	Selector []string      `json:"selector"`
	Stations []StationJSON `json:"stations"`
}

// StationJSON is one station, entries newest first.
type StationJSON struct {
	ID      string      `json:"id"`
	Entries []EntryJSON `json:"entries"`
}

// EntryJSON summarizes one rendered record.
type EntryJSON struct {
	Sequence   string   `json:"sequence"`
	Conforms   bool     `json:"conforms"`
	Expanded   bool     `json:"expanded"`
	Deviations []string `json:"deviations"`
}

func viewJSON(v station.View) ViewJSON {
	out := ViewJSON{
		Fresh:    v.Fresh,
		Selector: v.Options(),
		Stations: make([]StationJSON, 0, len(v.Stations)),
	}
	for _, sv := range v.Stations {
		sj := StationJSON{ID: sv.ID, Entries: make([]EntryJSON, 0, len(sv.Entries))}
		for _, e := range sv.Entries {
			devs := make([]string, 0, len(e.Fragment.Deviations))
			for _, d := range e.Fragment.Deviations {
				devs = append(devs, d.Param+" should be "+d.Expect+" but have "+d.Have)
			}
			sj.Entries = append(sj.Entries, EntryJSON{
				Sequence:   e.Fragment.SequenceKey,
				Conforms:   e.Fragment.Conforms,
				Expanded:   e.Fragment.Expanded,
				Deviations: devs,
			})
		}
		out.Stations = append(out.Stations, sj)
	}
	return out
}

// viewText renders every station in display order.
func viewText(v station.View, f render.Formatter) string {
	if len(v.Stations) == 0 {
		return "No records."
	}
	blocks := make([]string, 0, len(v.Stations))
	for _, sv := range v.Stations {
		frags := make([]render.Fragment, len(sv.Entries))
		for i, e := range sv.Entries {
			frags[i] = e.Fragment
		}
		blocks = append(blocks, f.Station(sv.ID, frags))
	}
	return strings.Join(blocks, "\n")
}
