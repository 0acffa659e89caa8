package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mrqart/internal/engine"
	"github.com/roach88/mrqart/internal/journal"
	"github.com/roach88/mrqart/internal/render"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	ConnectionFlags
	Session string
	Check   bool
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild a journaled session's view",
		Long: `Rebuild the view of a recorded session from its journal.

Frames, pull results and injected records are applied in their original
order. No server is contacted. With --check the session is replayed twice
and the command fails if the two views differ.

Examples:
  mrqart replay --journal ./mrqart.db
  mrqart replay --journal ./mrqart.db --session 0192f3c4-...
  mrqart replay --journal ./mrqart.db --check --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	opts.register(cmd, "journal")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id (default: latest)")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "replay twice and compare")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
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

	session, err := pickSession(ctx, jr, opts.Session)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), map[string]string{"session": opts.Session})
		return WrapExitError(ExitFailure, "no session to replay", err)
	}

	entries, err := jr.Entries(ctx, journal.Filter{Session: session.ID})
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read journal", err)
	}

	replayOpts := []engine.Option{
		engine.WithRenderer(render.New(cfg.Params)),
		engine.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr()).With("replaying", session.ID)),
	}

	eng, err := engine.Replay(ctx, entries, replayOpts...)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitFailure, "replay failed", err)
	}
	view := viewJSON(eng.View())

	if opts.Check {
		again, err := engine.Replay(ctx, entries, replayOpts...)
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitFailure, "replay failed", err)
		}
		if err := sameView(view, viewJSON(again.View())); err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), map[string]string{"session": session.ID})
			return WrapExitError(ExitFailure, "replay is not deterministic", err)
		}
	}

	data := replayJSON{Replayed: session.ID, Entries: len(entries), View: view}
	text := fmt.Sprintf("Session %s (%d entries)\n\n%s", session.ID, len(entries),
		viewText(eng.View(), render.NewFormatter(render.PlainTheme())))
	return formatter.Success(session.ID, data, text)
}

type replayJSON struct {
	Replayed string   `json:"replayed"`
	Entries  int      `json:"entries"`
	View     ViewJSON `json:"view"`
}

// pickSession returns the named session, or the latest one when id is
// empty.
func pickSession(ctx context.Context, jr *journal.Journal, id string) (journal.Session, error) {
	if id != "" {
		return jr.Session(ctx, id)
	}
	s, err := jr.LatestSession(ctx)
	if errors.Is(err, journal.ErrNotFound) {
		return journal.Session{}, fmt.Errorf("journal has no sessions: %w", err)
	}
	return s, err
}

func sameView(a, b ViewJSON) error {
	ja, err := json.Marshal(a)
	if err != nil {
		return err
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return err
	}
	if string(ja) != string(jb) {
		return fmt.Errorf("views differ:\n  first:  %s\n  second: %s", ja, jb)
	}
	return nil
}
