package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-databricks/pkg/databricks"
)

const cfgTestFilePerms = 0o600

// writeTestConfig writes a YAML config to a temp dir and returns the path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), cfgTestFilePerms))
	return configPath
}

func TestLoadConfig_ValidFile(t *testing.T) {
	t.Setenv("TEST_DATABRICKS_TOKEN", "dapi-123")

	cfg, err := LoadConfig(writeTestConfig(t, `
server:
  name: analytics
  version: 1.2.3
  transport: http
  address: ":9090"
  log_level: debug
  client_logging: false
databricks:
  host: https://example.cloud.databricks.com
  token: ${TEST_DATABRICKS_TOKEN}
  wait_timeout: 5m
  enable_get_secret: true
toolkits:
  compute:
    descriptions:
      start_cluster: "Start it"
  ml:
    enabled: false
audit:
  enabled: true
  database_url: postgres://localhost/audit
  retention_days: 7
`))
	require.NoError(t, err)

	assert.Equal(t, "analytics", cfg.Server.Name)
	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.False(t, cfg.Server.ClientLoggingEnabled())
	assert.Equal(t, "dapi-123", cfg.Databricks.Token)
	assert.Equal(t, 5*time.Minute, cfg.Databricks.WaitTimeout)
	assert.True(t, cfg.Databricks.EnableGetSecret)
	assert.Equal(t, false, cfg.Toolkits["ml"]["enabled"])
	assert.Equal(t, 7, cfg.Audit.RetentionDays)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeTestConfig(t, "server: [unclosed"))
	require.Error(t, err)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_EXPAND_HOST", "https://host")

	assert.Equal(t, "host: https://host", expandEnvVars("host: ${TEST_EXPAND_HOST}"))
	assert.Equal(t, "token: ", expandEnvVars("token: ${TEST_EXPAND_UNSET_VAR}"))
	assert.Equal(t, "plain $HOME", expandEnvVars("plain $HOME"))
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, defaultName, cfg.Server.Name)
	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.Equal(t, defaultAddress, cfg.Server.Address)
	assert.Equal(t, defaultLogLevel, cfg.Server.LogLevel)
	assert.True(t, cfg.Server.ClientLoggingEnabled())
	assert.Equal(t, databricks.DefaultWaitTimeout, cfg.Databricks.WaitTimeout)
	assert.Equal(t, defaultRetentionDays, cfg.Audit.RetentionDays)
}

func TestApplyDefaults_PreservesExisting(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Name = "custom"
	cfg.Server.Transport = TransportHTTP
	cfg.Databricks.WaitTimeout = time.Minute
	cfg.Audit.RetentionDays = 3
	applyDefaults(cfg)

	assert.Equal(t, "custom", cfg.Server.Name)
	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, time.Minute, cfg.Databricks.WaitTimeout)
	assert.Equal(t, 3, cfg.Audit.RetentionDays)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DATABRICKS_HOST", "https://env-host")
	t.Setenv("DATABRICKS_TOKEN", "dapi-env")
	t.Setenv("DATABRICKS_CONFIG_PROFILE", "")
	t.Setenv("ENABLE_GET_SECRET", "true")
	t.Setenv("DATABRICKS_WAIT_TIMEOUT", "90s")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("MCP_TRANSPORT", "http")
	t.Setenv("MCP_ADDRESS", ":7070")
	t.Setenv("AUDIT_DATABASE_URL", "postgres://audit")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://env-host", cfg.Databricks.Host)
	assert.Equal(t, "dapi-env", cfg.Databricks.Token)
	assert.True(t, cfg.Databricks.EnableGetSecret)
	assert.Equal(t, 90*time.Second, cfg.Databricks.WaitTimeout)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.True(t, cfg.Audit.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestConfigFromEnv_InvalidValues(t *testing.T) {
	t.Run("secret gate", func(t *testing.T) {
		t.Setenv("ENABLE_GET_SECRET", "maybe")
		_, err := ConfigFromEnv()
		require.Error(t, err)
	})
	t.Run("wait timeout", func(t *testing.T) {
		t.Setenv("ENABLE_GET_SECRET", "")
		t.Setenv("DATABRICKS_WAIT_TIMEOUT", "forever")
		_, err := ConfigFromEnv()
		require.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "unknown transport",
			mutate:  func(c *Config) { c.Server.Transport = "grpc" },
			wantErr: "Transport",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Server.LogLevel = "trace" },
			wantErr: "LogLevel",
		},
		{
			name:    "prompt without content",
			mutate:  func(c *Config) { c.Server.Prompts = []PromptConfig{{Name: "p"}} },
			wantErr: "Content",
		},
		{
			name: "audit without database",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
			},
			wantErr: "audit.database_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidate_JoinsErrors(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Server.Transport = "grpc"
	cfg.Audit.Enabled = true

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transport")
	assert.Contains(t, err.Error(), "audit.database_url")
}
