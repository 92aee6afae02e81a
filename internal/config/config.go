// Package config provides configuration loading and defaults for the issue-mcp server.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultGraphQLURL is the issue tracker endpoint as seen from an Android
// emulator talking to a server on the host machine.
const DefaultGraphQLURL = "http://10.0.2.2:3000/graphql"

// ResourceFilter holds allowlist and denylist glob patterns.
type ResourceFilter struct {
	Allowlist []string `yaml:"allowlist" toml:"allowlist"`
	Denylist  []string `yaml:"denylist" toml:"denylist"`
}

// SafetyConfig groups the filters applied to issue listings.
type SafetyConfig struct {
	Owners   ResourceFilter `yaml:"owners" toml:"owners"`
	Statuses ResourceFilter `yaml:"statuses" toml:"statuses"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	LogPath string `yaml:"log_path" toml:"log_path"`
}

// ServerConfig holds network and authentication settings.
type ServerConfig struct {
	Port      int    `yaml:"port" toml:"port"`
	AuthToken string `yaml:"auth_token" toml:"auth_token"`
}

// LogConfig selects the slog handler and level.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format" toml:"format"`
}

// GraphQLConfig holds connection details for the issue tracker GraphQL API.
type GraphQLConfig struct {
	URL string `yaml:"url" toml:"url"`
	// APIKey is optional; when set it is sent as the x-api-key header.
	APIKey string `yaml:"api_key" toml:"api_key"`
	// Timeout is the HTTP request timeout in seconds.
	Timeout int `yaml:"timeout" toml:"timeout"`
}

// Config is the top-level configuration structure for the issue-mcp server.
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Safety  SafetyConfig  `yaml:"safety" toml:"safety"`
	Audit   AuditConfig   `yaml:"audit" toml:"audit"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	GraphQL GraphQLConfig `yaml:"graphql" toml:"graphql"`
}

// LoadConfig reads and parses a configuration file from the given path.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Fields absent from the file keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to decode toml config: %w", err)
		}
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns a new Config populated with sensible default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Audit: AuditConfig{
			Enabled: true,
			LogPath: "audit.log",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		GraphQL: GraphQLConfig{
			URL:     DefaultGraphQLURL,
			Timeout: 30,
		},
	}
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - ISSUE_MCP_AUTH_TOKEN overrides cfg.Server.AuthToken
//   - ISSUE_MCP_LOG_LEVEL overrides cfg.Log.Level
//   - ISSUE_GRAPHQL_URL overrides cfg.GraphQL.URL
//   - ISSUE_GRAPHQL_API_KEY overrides cfg.GraphQL.APIKey
func ApplyEnvOverrides(cfg *Config) {
	if token := os.Getenv("ISSUE_MCP_AUTH_TOKEN"); token != "" {
		cfg.Server.AuthToken = token
	}
	if level := os.Getenv("ISSUE_MCP_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if url := os.Getenv("ISSUE_GRAPHQL_URL"); url != "" {
		cfg.GraphQL.URL = url
	}
	if key := os.Getenv("ISSUE_GRAPHQL_API_KEY"); key != "" {
		cfg.GraphQL.APIKey = key
	}
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated).
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded random token.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
