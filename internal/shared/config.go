package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Exchange ExchangeConfig `toml:"exchange"`
	State    StateConfig    `toml:"state"`
	Database DatabaseConfig `toml:"database"`
	Report   ReportConfig   `toml:"report"`
	History  HistoryConfig  `toml:"history"`
	Log      LogConfig      `toml:"log"`
}

// ExchangeConfig contains track exchange API settings.
type ExchangeConfig struct {
	BaseURL   string  `toml:"base_url"`
	PageSize  int     `toml:"page_size"`
	RateLimit float64 `toml:"rate_limit"`
	UserAgent string  `toml:"user_agent"`
}

// StateConfig selects where the UId table snapshot is persisted.
type StateConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ReportConfig controls duplicate reporting.
type ReportConfig struct {
	OnlyUnfinished bool   `toml:"only_unfinished"`
	Format         string `toml:"format"`
}

// HistoryConfig toggles the run history log.
type HistoryConfig struct {
	Enabled bool `toml:"enabled"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate reports the first invalid setting wrapped in [ErrInvalidConfig].
func (c *Config) Validate() error {
	if c.Exchange.BaseURL == "" {
		return fmt.Errorf("%w: exchange.base_url is empty", ErrInvalidConfig)
	}
	if c.Exchange.PageSize <= 0 {
		return fmt.Errorf("%w: exchange.page_size must be positive, got %d", ErrInvalidConfig, c.Exchange.PageSize)
	}
	if c.Exchange.RateLimit < 0 {
		return fmt.Errorf("%w: exchange.rate_limit must not be negative", ErrInvalidConfig)
	}

	switch c.State.Backend {
	case BackendJSON:
		if c.State.Path == "" {
			return fmt.Errorf("%w: state.path is empty", ErrInvalidConfig)
		}
	case BackendSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown state.backend %q", ErrInvalidConfig, c.State.Backend)
	}

	if c.History.Enabled && c.Database.Path == "" {
		return fmt.Errorf("%w: history requires database.path", ErrInvalidConfig)
	}

	switch c.Report.Format {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("%w: unknown report.format %q", ErrInvalidConfig, c.Report.Format)
	}

	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// UsesDatabase reports whether any enabled component needs the SQLite database.
func (c *Config) UsesDatabase() bool {
	return c.State.Backend == BackendSQLite || c.History.Enabled
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
