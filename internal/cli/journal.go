package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/mrqart/internal/journal"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	ConnectionFlags
	Session string
	Station string
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect a session journal",
		Long: `List the sessions recorded in a journal, or the entries of one session.

Without filters every session is listed. --session or --station lists the
matching entries in order.

Examples:
  mrqart journal --journal ./mrqart.db
  mrqart journal --journal ./mrqart.db --session 0192f3c4-...
  mrqart journal --journal ./mrqart.db --station MR1 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	opts.register(cmd, "journal")
	cmd.Flags().StringVar(&opts.Session, "session", "", "list entries of this session")
	cmd.Flags().StringVar(&opts.Station, "station", "", "list entries for this station")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	cfg, err := resolveConfig(cmd, opts.RootOptions, &opts.ConnectionFlags)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	if cfg.Journal == "" {
		_ = formatter.Error(ErrCodeConfig, "no journal configured", nil)
		return NewExitError(ExitCommandError, "--journal is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	jr, err := journal.Open(cfg.Journal)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer jr.Close()

	if opts.Session == "" && opts.Station == "" {
		sessions, err := jr.Sessions(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitFailure, "failed to list sessions", err)
		}
		return formatter.Success("", sessions, sessionsText(sessions))
	}

	if opts.Session != "" {
		if _, err := jr.Session(ctx, opts.Session); err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), map[string]string{"session": opts.Session})
			return WrapExitError(ExitFailure, "unknown session", err)
		}
	}

	entries, err := jr.Entries(ctx, journal.Filter{Session: opts.Session, Station: opts.Station})
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to list entries", err)
	}
	return formatter.Success(opts.Session, entries, entriesText(entries))
}

func sessionsText(sessions []journal.Session) string {
	if len(sessions) == 0 {
		return "No sessions."
	}
	var b strings.Builder
	for i, s := range sessions {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %s", s.ID, s.StartedAt.UTC().Format(time.RFC3339))
		if s.PushURL != "" {
			fmt.Fprintf(&b, "  %s", s.PushURL)
		}
	}
	return b.String()
}

func entriesText(entries []journal.Entry) string {
	if len(entries) == 0 {
		return "No entries."
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %4d %-6s %-8s", shortID(e.Session), e.Seq, e.Kind, e.Verdict)
		if e.Type != "" {
			fmt.Fprintf(&b, " %s", e.Type)
		}
		if e.Station != "" {
			fmt.Fprintf(&b, " %s", e.Station)
		}
		if e.Error != "" {
			fmt.Fprintf(&b, " (%s)", e.Error)
		}
	}
	return b.String()
}

// shortID keeps the first eight characters of a session id.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
