// Package config resolves client settings from flags, the environment, a
// CUE config file and defaults, in that order of precedence.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"

	"github.com/roach88/mrqart/internal/render"
)

//go:embed schema.cue
var schemaCUE string

// Environment variables.
const (
	EnvPushURL        = "MRQART_PUSH_URL"
	EnvStateURL       = "MRQART_STATE_URL"
	EnvJournal        = "MRQART_JOURNAL"
	EnvMetricsAddr    = "MRQART_METRICS_ADDR"
	EnvQueueSize      = "MRQART_QUEUE_SIZE"
	EnvReconnectDelay = "MRQART_RECONNECT_DELAY"
)

// Defaults.
const (
	DefaultPushURL        = "ws://localhost:5000/"
	DefaultStateURL       = "http://localhost:8080/state"
	DefaultQueueSize      = 64
	DefaultReconnectDelay = 5 * time.Second
)

// Config is the resolved client configuration.
type Config struct {
	PushURL        string        `json:"push_url"`
	StateURL       string        `json:"state_url"`
	Journal        string        `json:"journal"`
	MetricsAddr    string        `json:"metrics_addr"`
	QueueSize      int           `json:"queue_size"`
	ReconnectDelay time.Duration `json:"reconnect_delay"`
	Params         []string      `json:"params"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		PushURL:        DefaultPushURL,
		StateURL:       DefaultStateURL,
		QueueSize:      DefaultQueueSize,
		ReconnectDelay: DefaultReconnectDelay,
		Params:         slices.Clone(render.DefaultParams),
	}
}

// Overrides holds values set explicitly on the command line. Nil fields
// are unset.
type Overrides struct {
	PushURL        *string
	StateURL       *string
	Journal        *string
	MetricsAddr    *string
	QueueSize      *int
	ReconnectDelay *time.Duration
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is a CUE file. Empty skips the file layer.
	ConfigFile string

	// EnvFile is a dotenv file read when present. Default ".env".
	EnvFile string

	// LookupEnv reads the process environment. Default os.LookupEnv.
	LookupEnv func(string) (string, bool)

	Overrides Overrides
}

// Error reports an invalid setting and where it came from.
type Error struct {
	Source string
	Field  string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("config %s: %s: %v", e.Source, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if the error is a config Error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// Load resolves the configuration.
func Load(opts Options) (Config, error) {
	cfg := Default()

	if opts.ConfigFile != "" {
		if err := applyFile(&cfg, opts.ConfigFile); err != nil {
			return Config{}, err
		}
	}

	lookup, err := envLookup(opts)
	if err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	applyOverrides(&cfg, opts.Overrides)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the resolved values.
func (c Config) Validate() error {
	if err := checkURL(c.PushURL, "ws", "wss"); err != nil {
		return &Error{Source: "resolved", Field: "push_url", Err: err}
	}
	if err := checkURL(c.StateURL, "http", "https"); err != nil {
		return &Error{Source: "resolved", Field: "state_url", Err: err}
	}
	if c.QueueSize <= 0 {
		return &Error{Source: "resolved", Field: "queue_size", Err: fmt.Errorf("must be positive, got %d", c.QueueSize)}
	}
	if c.ReconnectDelay <= 0 {
		return &Error{Source: "resolved", Field: "reconnect_delay", Err: fmt.Errorf("must be positive, got %s", c.ReconnectDelay)}
	}
	if len(c.Params) == 0 {
		return &Error{Source: "resolved", Field: "params", Err: errors.New("must not be empty")}
	}
	return nil
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !slices.Contains(schemes, u.Scheme) {
		return fmt.Errorf("scheme %q not in %v", u.Scheme, schemes)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// fileConfig mirrors the CUE schema. Pointers distinguish unset fields.
type fileConfig struct {
	PushURL        *string  `json:"push_url"`
	StateURL       *string  `json:"state_url"`
	Journal        *string  `json:"journal"`
	MetricsAddr    *string  `json:"metrics_addr"`
	QueueSize      *int     `json:"queue_size"`
	ReconnectDelay *string  `json:"reconnect_delay"`
	Params         []string `json:"params"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Error{Source: path, Err: err}
	}

	fc, err := decodeFile(path, data)
	if err != nil {
		return err
	}

	setString(&cfg.PushURL, fc.PushURL)
	setString(&cfg.StateURL, fc.StateURL)
	setString(&cfg.Journal, fc.Journal)
	setString(&cfg.MetricsAddr, fc.MetricsAddr)
	if fc.QueueSize != nil {
		cfg.QueueSize = *fc.QueueSize
	}
	if fc.ReconnectDelay != nil {
		d, err := time.ParseDuration(*fc.ReconnectDelay)
		if err != nil {
			return &Error{Source: path, Field: "reconnect_delay", Err: err}
		}
		cfg.ReconnectDelay = d
	}
	if fc.Params != nil {
		cfg.Params = fc.Params
	}
	return nil
}

// decodeFile validates a CUE document against #Config and decodes it.
// The definition is closed, so unknown fields are errors.
func decodeFile(path string, data []byte) (fileConfig, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fileConfig{}, &Error{Source: "schema.cue", Err: err}
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return fileConfig{}, &Error{Source: path, Err: err}
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fileConfig{}, &Error{Source: path, Err: err}
	}

	var fc fileConfig
	if err := unified.Decode(&fc); err != nil {
		return fileConfig{}, &Error{Source: path, Err: err}
	}
	return fc, nil
}

// envLookup layers the process environment over the dotenv file.
func envLookup(opts Options) (func(string) (string, bool), error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}

	dotenv := map[string]string{}
	if _, err := os.Stat(envFile); err == nil {
		if dotenv, err = godotenv.Read(envFile); err != nil {
			return nil, &Error{Source: envFile, Err: err}
		}
	}

	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPushURL); ok && v != "" {
		cfg.PushURL = v
	}
	if v, ok := lookup(EnvStateURL); ok && v != "" {
		cfg.StateURL = v
	}
	if v, ok := lookup(EnvJournal); ok {
		cfg.Journal = v
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := lookup(EnvQueueSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &Error{Source: "env", Field: EnvQueueSize, Err: err}
		}
		cfg.QueueSize = n
	}
	if v, ok := lookup(EnvReconnectDelay); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &Error{Source: "env", Field: EnvReconnectDelay, Err: err}
		}
		cfg.ReconnectDelay = d
	}
	return nil
}

func applyOverrides(cfg *Config, o Overrides) {
	setString(&cfg.PushURL, o.PushURL)
	setString(&cfg.StateURL, o.StateURL)
	setString(&cfg.Journal, o.Journal)
	setString(&cfg.MetricsAddr, o.MetricsAddr)
	if o.QueueSize != nil {
		cfg.QueueSize = *o.QueueSize
	}
	if o.ReconnectDelay != nil {
		cfg.ReconnectDelay = *o.ReconnectDelay
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
