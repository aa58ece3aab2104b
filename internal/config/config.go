// ABOUTME: Configuration loading and parsing for dashboard-gateway
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvironmentProduction forces secure session cookies.
const EnvironmentProduction = "production"

// ReservedPaths are routes the gateway serves itself. Section entry paths and
// metrics.path may not take them.
var ReservedPaths = []string{"/health", "/health/ready", "/api/me"}

// MinJWTSecretLength matches the signing key requirement of the auth package.
const MinJWTSecretLength = 32

// Config represents the complete dashboard-gateway configuration
type Config struct {
	Server   ServerConfig    `yaml:"server" toml:"server"`
	Database DatabaseConfig  `yaml:"database" toml:"database"`
	Auth     AuthConfig      `yaml:"auth" toml:"auth"`
	Session  SessionConfig   `yaml:"session" toml:"session"`
	Sections []SectionConfig `yaml:"sections" toml:"sections"`
	Logging  LoggingConfig   `yaml:"logging" toml:"logging"`
	Metrics  MetricsConfig   `yaml:"metrics" toml:"metrics"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr    string `yaml:"http_addr" toml:"http_addr"`
	Environment string `yaml:"environment" toml:"environment"` // development, production
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// AuthConfig holds identity token configuration
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" toml:"jwt_secret"`
	Issuer    string        `yaml:"issuer" toml:"issuer"`
	TokenTTL  time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	TokenTTLRaw string `yaml:"token_ttl" toml:"token_ttl"`
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	TokenCookie string        `yaml:"token_cookie" toml:"token_cookie"`
	RoleCookie  string        `yaml:"role_cookie" toml:"role_cookie"`
	Secure      bool          `yaml:"secure" toml:"secure"`
	MaxAge      time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling; empty means a browser-session cookie
	MaxAgeRaw string `yaml:"max_age" toml:"max_age"`
}

// SectionConfig describes one role-gated dashboard section
type SectionConfig struct {
	Name      string `yaml:"name" toml:"name"`
	Role      string `yaml:"role" toml:"role"`
	EntryPath string `yaml:"entry_path" toml:"entry_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expandedData, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// IsProduction reports whether the server runs in the production environment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, EnvironmentProduction)
}

// applyDefaults fills in optional fields
func (c *Config) applyDefaults() {
	if c.Server.Environment == "" {
		c.Server.Environment = "development"
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "dashboard-gateway"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 12 * time.Hour
	}
	if c.IsProduction() {
		c.Session.Secure = true
	}
	if len(c.Sections) == 0 {
		c.Sections = DefaultSections()
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// DefaultSections returns the built-in dashboard sections
func DefaultSections() []SectionConfig {
	return []SectionConfig{
		{Name: "agency", Role: "TravelAgency", EntryPath: "/dashboard/agency"},
		{Name: "agent", Role: "TravelAgent", EntryPath: "/dashboard/agent"},
		{Name: "airline", Role: "Airline", EntryPath: "/dashboard/airline"},
		{Name: "partnership", Role: "Partnership", EntryPath: "/dashboard/partnership"},
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", MinJWTSecretLength)
	}

	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Session.MaxAge < 0 {
		return fmt.Errorf("session.max_age must be positive")
	}
	if c.Session.MaxAge > 0 && c.Session.MaxAge < time.Second {
		return fmt.Errorf("session.max_age must be at least 1s")
	}

	if c.Session.TokenCookie != "" && c.Session.TokenCookie == c.Session.RoleCookie {
		return fmt.Errorf("session.token_cookie and session.role_cookie must differ")
	}

	if c.IsProduction() && !c.Session.Secure {
		return fmt.Errorf("session.secure must be true in production")
	}

	seen := make(map[string]bool, len(c.Sections))
	seenPaths := make(map[string]string, len(c.Sections))
	for i, s := range c.Sections {
		if s.Name == "" || s.Role == "" || s.EntryPath == "" {
			return fmt.Errorf("sections[%d]: name, role and entry_path are required", i)
		}
		if !strings.HasPrefix(s.EntryPath, "/") {
			return fmt.Errorf("sections[%d]: entry_path %q must start with /", i, s.EntryPath)
		}
		if s.EntryPath == "/" || path.Clean(s.EntryPath) != s.EntryPath || strings.ContainsAny(s.EntryPath, "{} \t") {
			return fmt.Errorf("sections[%d]: entry_path %q must be a clean path below / without braces or a trailing slash", i, s.EntryPath)
		}
		if seen[s.Role] {
			return fmt.Errorf("sections[%d]: role %q already has a section", i, s.Role)
		}
		if prev, ok := seenPaths[s.EntryPath]; ok {
			return fmt.Errorf("sections[%d]: entry_path %q already used by section %q", i, s.EntryPath, prev)
		}
		if slices.Contains(ReservedPaths, s.EntryPath) {
			return fmt.Errorf("sections[%d]: entry_path %q is reserved", i, s.EntryPath)
		}
		seen[s.Role] = true
		seenPaths[s.EntryPath] = s.Name
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.Metrics.Enabled {
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return fmt.Errorf("metrics.path must start with /")
		}
		if slices.Contains(ReservedPaths, c.Metrics.Path) {
			return fmt.Errorf("metrics.path %q is reserved", c.Metrics.Path)
		}
		for _, s := range c.Sections {
			if c.Metrics.Path == s.EntryPath || c.Metrics.Path == s.EntryPath+"/" {
				return fmt.Errorf("metrics.path %q collides with section %q", c.Metrics.Path, s.Name)
			}
		}
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.TokenTTLRaw != "" {
		cfg.Auth.TokenTTL, err = time.ParseDuration(cfg.Auth.TokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing token_ttl %q: %w", cfg.Auth.TokenTTLRaw, err)
		}
	}

	if cfg.Session.MaxAgeRaw != "" {
		cfg.Session.MaxAge, err = time.ParseDuration(cfg.Session.MaxAgeRaw)
		if err != nil {
			return fmt.Errorf("parsing max_age %q: %w", cfg.Session.MaxAgeRaw, err)
		}
	}

	return nil
}
