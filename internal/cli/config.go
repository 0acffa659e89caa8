package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/mrqart/internal/config"
)

// ConnectionFlags are the settings a command line may override.
type ConnectionFlags struct {
	PushURL        string
	StateURL       string
	Journal        string
	MetricsAddr    string
	QueueSize      int
	ReconnectDelay time.Duration
}

// register adds the flags that the connection commands share. Only the
// flags a command actually uses are registered.
func (f *ConnectionFlags) register(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		switch name {
		case "push":
			cmd.Flags().StringVar(&f.PushURL, "push", "", "push websocket URL (default "+config.DefaultPushURL+")")
		case "state":
			cmd.Flags().StringVar(&f.StateURL, "state", "", "full-state URL (default "+config.DefaultStateURL+")")
		case "journal":
			cmd.Flags().StringVar(&f.Journal, "journal", "", "SQLite journal path")
		case "metrics-addr":
			cmd.Flags().StringVar(&f.MetricsAddr, "metrics-addr", "", "serve /metrics on this address")
		case "queue-size":
			cmd.Flags().IntVar(&f.QueueSize, "queue-size", config.DefaultQueueSize, "engine queue capacity")
		case "reconnect-delay":
			cmd.Flags().DurationVar(&f.ReconnectDelay, "reconnect-delay", config.DefaultReconnectDelay, "wait before redialing the push channel")
		}
	}
}

// overrides returns the flags the user set explicitly.
func (f *ConnectionFlags) overrides(cmd *cobra.Command) config.Overrides {
	var o config.Overrides
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("push") {
		o.PushURL = &f.PushURL
	}
	if changed("state") {
		o.StateURL = &f.StateURL
	}
	if changed("journal") {
		o.Journal = &f.Journal
	}
	if changed("metrics-addr") {
		o.MetricsAddr = &f.MetricsAddr
	}
	if changed("queue-size") {
		o.QueueSize = &f.QueueSize
	}
	if changed("reconnect-delay") {
		o.ReconnectDelay = &f.ReconnectDelay
	}
	return o
}

// resolveConfig layers flags over the environment, config file and
// defaults.
func resolveConfig(cmd *cobra.Command, opts *RootOptions, flags *ConnectionFlags) (config.Config, error) {
	cfg, err := config.Load(config.Options{
		ConfigFile: opts.Config,
		Overrides:  flags.overrides(cmd),
	})
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}
