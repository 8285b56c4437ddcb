package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "ws://127.0.0.1:8090/ws", c.GatewayURL)
	assert.Equal(t, "centinela.db", c.DatabaseDSN)
	assert.Equal(t, 6*time.Second, c.PreciseLocationTimeout)
	assert.Empty(t, c.UserID)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	resetArgs(t, []string{"cmd"})

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "ws://127.0.0.1:8090/ws", cfg.GatewayURL)
	assert.Equal(t, 6*time.Second, cfg.PreciseLocationTimeout)
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expected    *Config
		expectPanic bool
	}{
		{name: "Test1 OK",
			args: []string{"cmd", "-g", "ws://gw.example:9000/ws", "-p", "centinela-prod", "-t", "10", "-u", "u1", "-n", "Ana"},
			expected: &Config{
				GatewayURL:             "ws://gw.example:9000/ws",
				FirestoreProjectID:     "centinela-prod",
				PreciseLocationTimeout: 10 * time.Second,
				UserID:                 "u1",
				UserName:               "Ana",
			}},
		{name: "Test2 incorrect timeout",
			args: []string{"cmd", "-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetArgs(t, tt.args)

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Equal(t, tt.expected, config)
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}

func TestParseJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"gateway_url": "wss://gw.example/ws",
		"database_dsn": "/tmp/centinela.db",
		"precise_location_timeout": "9s",
		"user_id": "u9"
	}`), 0o600))

	resetArgs(t, []string{"cmd", "-c", path})

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "wss://gw.example/ws", cfg.GatewayURL)
	assert.Equal(t, "/tmp/centinela.db", cfg.DatabaseDSN)
	assert.Equal(t, 9*time.Second, cfg.PreciseLocationTimeout)
	assert.Equal(t, "u9", cfg.UserID)
	assert.Empty(t, cfg.FirestoreProjectID, "absent keys keep earlier values")
}

func TestParseJson_NoFlagMeansNoFile(t *testing.T) {
	resetArgs(t, []string{"cmd"})

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "ws://127.0.0.1:8090/ws", cfg.GatewayURL)
}

func resetArgs(t *testing.T, args []string) {
	t.Helper()
	old := os.Args
	oldCmd := flag.CommandLine
	os.Args = args
	flag.CommandLine = flag.NewFlagSet(args[0], flag.PanicOnError)
	t.Cleanup(func() {
		os.Args = old
		flag.CommandLine = oldCmd
	})
}
