package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.MetricsPort)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "", cfg.Table.Path)
	assert.False(t, cfg.Security.Auth.Enabled)
	assert.False(t, cfg.Security.RateLimit.Enabled)
	assert.True(t, cfg.Security.CORS.Enabled)
	assert.True(t, cfg.HotReload.Enabled)
	assert.True(t, cfg.Observability.Metrics.Enabled)
}

func TestLoadConfigFromYAMLFile(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
server:
  host: 0.0.0.0
  port: "8081"
table:
  path: /data/rates.xlsx
  sheet: Rates
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "/data/rates.xlsx", cfg.Table.Path)
	assert.Equal(t, "Rates", cfg.Table.Sheet)
	// Untouched fields keep their defaults
	assert.Equal(t, "9090", cfg.Server.MetricsPort)
}

func TestLoadConfigFromJSONFile(t *testing.T) {
	path := writeConfigFile(t, "config.json",
		`{"server": {"port": "8082"}, "table": {"path": "rates.csv"}}`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "8082", cfg.Server.Port)
	assert.Equal(t, "rates.csv", cfg.Table.Path)
}

func TestLoadConfigUnsupportedFileFormat(t *testing.T) {
	path := writeConfigFile(t, "config.toml", "port = 8080")

	_, err := LoadConfig(path, nil)
	assert.ErrorContains(t, err, "unsupported config file format")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
server:
  port: "8081"
`)
	t.Setenv("PAYIN_PORT", "8082")
	t.Setenv("PAYIN_TABLE_FILE", "/env/rates.csv")
	t.Setenv("PAYIN_READ_TIMEOUT", "20s")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "8082", cfg.Server.Port)
	assert.Equal(t, "/env/rates.csv", cfg.Table.Path)
	assert.Equal(t, 20*time.Second, cfg.Server.ReadTimeout)
}

func TestCLIOverridesEnv(t *testing.T) {
	// Only flags the user explicitly set take effect, so register and set one
	hostFlag := pflag.String("host", "localhost", "")
	require.NoError(t, pflag.Set("host", "cli-host"))

	t.Setenv("PAYIN_HOST", "env-host")

	port := "8080"
	cfg, err := LoadConfig("", &CLIFlags{
		Host: hostFlag,
		Port: &port, // never registered, so it must not override
	})
	require.NoError(t, err)

	assert.Equal(t, "cli-host", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = "notaport" },
			wantErr: "server.port",
		},
		{
			name:    "port collision",
			mutate:  func(c *Config) { c.Server.MetricsPort = c.Server.Port },
			wantErr: "cannot be the same",
		},
		{
			name:    "bad table format",
			mutate:  func(c *Config) { c.Table.Path = "rates.txt" },
			wantErr: "unsupported format",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Observability.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "negative debounce",
			mutate:  func(c *Config) { c.HotReload.Debounce = -time.Second },
			wantErr: "debounce",
		},
		{
			name: "tls without cert",
			mutate: func(c *Config) {
				c.TLS.Enabled = true
				c.TLS.KeyFile = "key.pem"
			},
			wantErr: "cert_file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestGetAddresses(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:8080", cfg.GetServerAddress())
	assert.Equal(t, "localhost:9090", cfg.GetMetricsAddress())
}
