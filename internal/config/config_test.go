package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mrqart/internal/render"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{EnvFile: missingEnvFile(t), LookupEnv: noEnv})
	require.NoError(t, err)

	assert.Equal(t, DefaultPushURL, cfg.PushURL)
	assert.Equal(t, DefaultStateURL, cfg.StateURL)
	assert.Equal(t, DefaultQueueSize, cfg.QueueSize)
	assert.Equal(t, DefaultReconnectDelay, cfg.ReconnectDelay)
	assert.Equal(t, render.DefaultParams, cfg.Params)
	assert.Empty(t, cfg.Journal)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestDefault_ParamsAreCopied(t *testing.T) {
	cfg := Default()
	cfg.Params[0] = "changed"
	assert.NotEqual(t, "changed", render.DefaultParams[0])
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeFile(t, "mrqart.cue", `
push_url:        "ws://scanner:5000/"
state_url:       "http://scanner:8080/state"
journal:         "/var/lib/mrqart/journal.db"
queue_size:      128
reconnect_delay: "2s"
params: ["TR", "TE"]
`)

	cfg, err := Load(Options{ConfigFile: path, EnvFile: missingEnvFile(t), LookupEnv: noEnv})
	require.NoError(t, err)

	assert.Equal(t, "ws://scanner:5000/", cfg.PushURL)
	assert.Equal(t, "http://scanner:8080/state", cfg.StateURL)
	assert.Equal(t, "/var/lib/mrqart/journal.db", cfg.Journal)
	assert.Equal(t, 128, cfg.QueueSize)
	assert.Equal(t, 2*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, []string{"TR", "TE"}, cfg.Params)
}

func TestLoad_ConfigFileRejected(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", `push_uri: "ws://x/"`},
		{"bad scheme", `push_url: "http://x/"`},
		{"queue too small", `queue_size: 0`},
		{"queue not int", `queue_size: "big"`},
		{"empty param", `params: ["TR", ""]`},
		{"bad duration", `reconnect_delay: "soon"`},
		{"syntax", `push_url: `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "bad.cue", tt.content)
			_, err := Load(Options{ConfigFile: path, EnvFile: missingEnvFile(t), LookupEnv: noEnv})
			require.Error(t, err)
			assert.True(t, IsConfigError(err), "got %T: %v", err, err)
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(Options{ConfigFile: "/nonexistent/mrqart.cue", EnvFile: missingEnvFile(t), LookupEnv: noEnv})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "mrqart.cue", `queue_size: 128
state_url: "http://file:8080/state"`)

	cfg, err := Load(Options{
		ConfigFile: path,
		EnvFile:    missingEnvFile(t),
		LookupEnv: envMap(map[string]string{
			EnvQueueSize:      "256",
			EnvReconnectDelay: "750ms",
			EnvJournal:        "env.db",
		}),
	})
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.QueueSize)
	assert.Equal(t, 750*time.Millisecond, cfg.ReconnectDelay)
	assert.Equal(t, "env.db", cfg.Journal)
	assert.Equal(t, "http://file:8080/state", cfg.StateURL)
}

func TestLoad_DotenvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "MRQART_PUSH_URL=ws://dotenv:5000/\nMRQART_METRICS_ADDR=:9100\n")

	cfg, err := Load(Options{EnvFile: envFile, LookupEnv: noEnv})
	require.NoError(t, err)
	assert.Equal(t, "ws://dotenv:5000/", cfg.PushURL)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
}

func TestLoad_ProcessEnvBeatsDotenv(t *testing.T) {
	envFile := writeFile(t, ".env", "MRQART_PUSH_URL=ws://dotenv:5000/\n")

	cfg, err := Load(Options{
		EnvFile:   envFile,
		LookupEnv: envMap(map[string]string{EnvPushURL: "ws://process:5000/"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "ws://process:5000/", cfg.PushURL)
}

func TestLoad_BadEnv(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvQueueSize, "many"},
		{EnvReconnectDelay, "later"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := Load(Options{
				EnvFile:   missingEnvFile(t),
				LookupEnv: envMap(map[string]string{tt.key: tt.value}),
			})
			require.Error(t, err)

			var ce *Error
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "env", ce.Source)
			assert.Equal(t, tt.key, ce.Field)
		})
	}
}

func TestLoad_OverridesWin(t *testing.T) {
	push := "ws://flag:5000/"
	size := 8
	delay := time.Second

	cfg, err := Load(Options{
		EnvFile:   missingEnvFile(t),
		LookupEnv: envMap(map[string]string{EnvPushURL: "ws://env:5000/", EnvQueueSize: "32"}),
		Overrides: Overrides{PushURL: &push, QueueSize: &size, ReconnectDelay: &delay},
	})
	require.NoError(t, err)

	assert.Equal(t, push, cfg.PushURL)
	assert.Equal(t, 8, cfg.QueueSize)
	assert.Equal(t, time.Second, cfg.ReconnectDelay)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"push scheme", func(c *Config) { c.PushURL = "http://x/" }, "push_url"},
		{"push host", func(c *Config) { c.PushURL = "ws:///" }, "push_url"},
		{"state scheme", func(c *Config) { c.StateURL = "ftp://x/state" }, "state_url"},
		{"queue", func(c *Config) { c.QueueSize = -1 }, "queue_size"},
		{"delay", func(c *Config) { c.ReconnectDelay = 0 }, "reconnect_delay"},
		{"params", func(c *Config) { c.Params = nil }, "params"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			var ce *Error
			require.ErrorAs(t, cfg.Validate(), &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}

	require.NoError(t, Default().Validate())
}

func TestError_Message(t *testing.T) {
	err := &Error{Source: "env", Field: EnvQueueSize, Err: os.ErrInvalid}
	assert.Equal(t, "config env: MRQART_QUEUE_SIZE: invalid argument", err.Error())

	err = &Error{Source: "a.cue", Err: os.ErrInvalid}
	assert.Equal(t, "config a.cue: invalid argument", err.Error())
}
