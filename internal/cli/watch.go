package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/roach88/mrqart/internal/engine"
	"github.com/roach88/mrqart/internal/journal"
	"github.com/roach88/mrqart/internal/metrics"
	"github.com/roach88/mrqart/internal/render"
	"github.com/roach88/mrqart/internal/transport"
	"github.com/roach88/mrqart/internal/tui"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	ConnectionFlags
	TUI bool

	// SessionGenerator overrides session ids (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionGenerator engine.SessionGenerator

	// Theme overrides the output theme (for testing).
	Theme *render.Theme
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return newWatchCommand(&WatchOptions{RootOptions: rootOpts})
}

func newWatchCommand(opts *WatchOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the MRQART push channel",
		Long: `Connect to the MRQART server and follow acquisitions live.

The push channel is dialed and redialed on disconnect. The first update
seen before any record triggers a full-state pull. Each rendered record is
printed as it arrives, or shown in an interactive view with --tui.

Examples:
  mrqart watch
  mrqart watch --push ws://scanner:5000/ --state http://scanner:8080/state
  mrqart watch --journal ./mrqart.db --metrics-addr :9100
  mrqart watch --tui`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	opts.register(cmd, "push", "state", "journal", "metrics-addr", "queue-size", "reconnect-delay")
	cmd.Flags().BoolVar(&opts.TUI, "tui", false, "interactive terminal view")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	cfg, err := resolveConfig(cmd, opts.RootOptions, &opts.ConnectionFlags)
	if err != nil {
		return err
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	if opts.TUI {
		// The alternate screen owns the terminal.
		logger = engine.DiscardLogger()
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineOpts := []engine.Option{
		engine.WithQueueSize(cfg.QueueSize),
		engine.WithRenderer(render.New(cfg.Params)),
		engine.WithLogger(logger),
		engine.WithEndpoints(cfg.PushURL, cfg.StateURL),
	}
	if opts.SessionGenerator != nil {
		engineOpts = append(engineOpts, engine.WithSessionGenerator(opts.SessionGenerator))
	}

	if cfg.Journal != "" {
		jr, err := journal.Open(cfg.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := jr.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
		engineOpts = append(engineOpts, engine.WithRecorder(jr))
	}

	if cfg.MetricsAddr != "" {
		m := metrics.New()
		_, shutdown, err := serveMetrics(cfg.MetricsAddr, m, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to serve metrics", err)
		}
		defer shutdown()
		engineOpts = append(engineOpts, engine.WithObserver(m))
	}

	eng := engine.New(transport.NewHTTPPuller(cfg.StateURL, 0), engineOpts...)
	push := transport.NewPush(cfg.PushURL, eng,
		transport.WithReconnectDelay(cfg.ReconnectDelay),
		transport.WithPushLogger(logger),
	)

	logger.Info("watching", "push", cfg.PushURL, "state", cfg.StateURL, "session", eng.Session())

	return runSession(ctx, opts, cmd.OutOrStdout(), eng, push)
}

// runSession runs the engine and push client until ctx ends or the view
// exits, printing changes unless the TUI is active.
func runSession(ctx context.Context, opts *WatchOptions, out io.Writer, eng *engine.Engine, push *transport.Push) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Subscribe before the loop starts so no change is missed.
	var changes <-chan engine.Change
	if !opts.TUI {
		var unsubscribe func()
		changes, unsubscribe = eng.Subscribe(64)
		defer unsubscribe()
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		errs <- eng.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		errs <- push.Run(ctx)
	}()

	var viewErr error
	if opts.TUI {
		viewErr = tui.Run(ctx, eng)
		if errors.Is(viewErr, tea.ErrProgramKilled) || errors.Is(viewErr, context.Canceled) {
			viewErr = nil
		}
	} else {
		printChanges(ctx, out, eng.Session(), changes, opts)
	}

	cancel()
	wg.Wait()
	close(errs)

	if viewErr != nil {
		return WrapExitError(ExitFailure, "terminal view failed", viewErr)
	}
	for err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, engine.ErrQueueClosed) {
			return WrapExitError(ExitFailure, "session error", err)
		}
	}
	return nil
}

// printChanges writes each rendered record and pull outcome until the
// subscription closes or ctx ends.
func printChanges(ctx context.Context, out io.Writer, session string, changes <-chan engine.Change, opts *WatchOptions) {
	theme := render.DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	f := render.NewFormatter(theme)
	formatter := &OutputFormatter{Format: opts.Format, Writer: out}

	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			printChange(formatter, f, session, c)
		}
	}
}

func printChange(out *OutputFormatter, f render.Formatter, session string, c engine.Change) {
	switch c.Kind {
	case engine.ChangeInserted:
		for _, e := range c.Entries {
			_ = out.Success(session, changeJSON(c), f.Station(e.Record.StationID, []render.Fragment{e.Fragment}))
		}
	case engine.ChangeRebuilt:
		_ = out.Success(session, changeJSON(c), fmt.Sprintf("-- full state: %d records --\n%s", len(c.Entries), viewText(c.View, f)))
	case engine.ChangePullFailed:
		_ = out.Error(ErrCodeGeneric, c.Err.Error(), map[string]int64{"pull": c.PullID})
	}
}

type changeJSONData struct {
	Change string   `json:"change"`
	Pull   int64    `json:"pull,omitempty"`
	View   ViewJSON `json:"view"`
}

func changeJSON(c engine.Change) changeJSONData {
	return changeJSONData{Change: c.Kind.String(), Pull: c.PullID, View: viewJSON(c.View)}
}

// serveMetrics starts the /metrics endpoint and returns the bound address.
// The returned function shuts it down.
func serveMetrics(addr string, m *metrics.Metrics, logger *slog.Logger) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("metrics listening", "addr", ln.Addr().String())

	return ln.Addr().String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
