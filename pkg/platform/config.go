// Package platform wires the Databricks toolkits, middleware, audit log and
// metrics into one MCP server.
package platform

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/txn2/mcp-databricks/pkg/audit"
	"github.com/txn2/mcp-databricks/pkg/databricks"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

const (
	defaultName          = "mcp-databricks"
	defaultAddress       = ":8080"
	defaultLogLevel      = "info"
	defaultRetentionDays = 90
)

// Config holds the complete server configuration.
type Config struct {
	Server     ServerConfig              `yaml:"server"`
	Databricks databricks.Config         `yaml:"databricks"`
	Toolkits   map[string]map[string]any `yaml:"toolkits"`
	Audit      audit.Config              `yaml:"audit"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Name          string         `yaml:"name"`
	Version       string         `yaml:"version"`
	Description   string         `yaml:"description"`
	Instructions  string         `yaml:"instructions"`
	Transport     string         `yaml:"transport" validate:"oneof=stdio http"`
	Address       string         `yaml:"address"`
	LogLevel      string         `yaml:"log_level" validate:"oneof=debug info warn error"`
	ClientLogging *bool          `yaml:"client_logging"`
	Prompts       []PromptConfig `yaml:"prompts" validate:"dive"`
}

// PromptConfig defines an additional static MCP prompt.
type PromptConfig struct {
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
	Content     string `yaml:"content" validate:"required"`
}

// ClientLoggingEnabled reports whether log notifications are sent to clients.
// Defaults to true.
func (s ServerConfig) ClientLoggingEnabled() bool {
	return s.ClientLogging == nil || *s.ClientLogging
}

// LoadConfig loads configuration from a YAML file. ${VAR} references are
// expanded from the environment before parsing.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by admin
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration and applies defaults.
func ParseConfig(data []byte) (*Config, error) {
	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// ConfigFromEnv builds configuration from environment variables alone.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Transport: os.Getenv("MCP_TRANSPORT"),
			Address:   os.Getenv("MCP_ADDRESS"),
			LogLevel:  strings.ToLower(os.Getenv("LOG_LEVEL")),
		},
		Databricks: databricks.Config{
			Host:    os.Getenv("DATABRICKS_HOST"),
			Token:   os.Getenv("DATABRICKS_TOKEN"),
			Profile: os.Getenv("DATABRICKS_CONFIG_PROFILE"),
		},
		Audit: audit.Config{
			DatabaseURL: os.Getenv("AUDIT_DATABASE_URL"),
		},
	}
	cfg.Audit.Enabled = cfg.Audit.DatabaseURL != ""

	if v := os.Getenv("ENABLE_GET_SECRET"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("parsing ENABLE_GET_SECRET: %w", err)
		}
		cfg.Databricks.EnableGetSecret = enabled
	}
	if v := os.Getenv("DATABRICKS_WAIT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing DATABRICKS_WAIT_TIMEOUT: %w", err)
		}
		cfg.Databricks.WaitTimeout = d
	}

	applyDefaults(cfg)
	return cfg, nil
}

// envVarPattern matches ${VAR} references.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = defaultName
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = TransportStdio
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultAddress
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = defaultLogLevel
	}
	if cfg.Databricks.WaitTimeout <= 0 {
		cfg.Databricks.WaitTimeout = databricks.DefaultWaitTimeout
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = defaultRetentionDays
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error

	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Errorf("%s: failed %s validation", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	if c.Audit.Enabled && c.Audit.DatabaseURL == "" {
		errs = append(errs, errors.New("audit.database_url is required when audit is enabled"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config validation errors: %w", err)
	}
	return nil
}
