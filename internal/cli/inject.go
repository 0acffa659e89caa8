package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mrqart/internal/engine"
	"github.com/roach88/mrqart/internal/event"
	"github.com/roach88/mrqart/internal/journal"
	"github.com/roach88/mrqart/internal/render"
)

// InjectOptions holds flags for the inject command.
type InjectOptions struct {
	*RootOptions
	ConnectionFlags

	// SessionGenerator overrides session ids (for testing).
	SessionGenerator engine.SessionGenerator

	// Stdin replaces os.Stdin for "-" (for testing).
	Stdin io.Reader
}

// NewInjectCommand creates the inject command.
func NewInjectCommand(rootOpts *RootOptions) *cobra.Command {
	return newInjectCommand(&InjectOptions{RootOptions: rootOpts})
}

func newInjectCommand(opts *InjectOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inject <record.json>...",
		Short: "Render records without a server",
		Long: `Render one or more acquisition records as if each arrived in a "new"
notification, then print the resulting view.

Each argument is a file holding one record object, or "-" for stdin.
Records are injected in argument order, so the last one is shown first.

Examples:
  mrqart inject testdata/mprage.json
  cat record.json | mrqart inject -
  mrqart inject --journal ./mrqart.db a.json b.json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInject(opts, cmd, args)
		},
	}

	opts.register(cmd, "journal")

	return cmd
}

func runInject(opts *InjectOptions, cmd *cobra.Command, args []string) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	cfg, err := resolveConfig(cmd, opts.RootOptions, &opts.ConnectionFlags)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}

	records := make([]event.Record, 0, len(args))
	for _, arg := range args {
		data, err := readInput(arg, opts.Stdin)
		if err != nil {
			_ = formatter.Error(ErrCodeInput, err.Error(), map[string]string{"file": arg})
			return WrapExitError(ExitCommandError, "failed to read record", err)
		}
		rec, err := event.ParseRecord(data)
		if err != nil {
			_ = formatter.Error(ErrCodeRejected, err.Error(), map[string]string{"file": arg, "code": string(event.CodeOf(err))})
			return WrapExitError(ExitFailure, fmt.Sprintf("record %s rejected", arg), err)
		}
		records = append(records, rec)
	}

	engineOpts := []engine.Option{
		engine.WithRenderer(render.New(cfg.Params)),
		engine.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())),
		engine.WithQueueSize(len(records)),
	}
	if opts.SessionGenerator != nil {
		engineOpts = append(engineOpts, engine.WithSessionGenerator(opts.SessionGenerator))
	}
	if cfg.Journal != "" {
		jr, err := journal.Open(cfg.Journal)
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer jr.Close()
		engineOpts = append(engineOpts, engine.WithRecorder(jr))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	eng := engine.New(nil, engineOpts...)
	for _, rec := range records {
		if err := eng.Inject(ctx, rec); err != nil {
			return WrapExitError(ExitFailure, "inject failed", err)
		}
	}
	if err := eng.Drain(ctx); err != nil {
		return WrapExitError(ExitFailure, "inject failed", err)
	}

	view := eng.View()
	return formatter.Success(eng.Session(), viewJSON(view), viewText(view, render.NewFormatter(render.PlainTheme())))
}

// readInput reads a file, or r (default stdin) for "-".
func readInput(path string, r io.Reader) ([]byte, error) {
	if path != "-" {
		return os.ReadFile(path)
	}
	if r == nil {
		r = os.Stdin
	}
	return io.ReadAll(r)
}
