// Package config provides Viper-based configuration loading for the
// cardstack player and tools.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FeaturesConfig selects the edition of the game data.
type FeaturesConfig struct {
	// ME enables the Masterpiece edition: help archives, flybys and
	// redirected sounds.
	ME bool `mapstructure:"me"`
	// Menu enables the main menu stack.
	Menu     bool `mapstructure:"menu"`
	Demo     bool `mapstructure:"demo"`
	MakingOf bool `mapstructure:"making_of"`
}

// EngineConfig holds frame loop and game data settings.
type EngineConfig struct {
	// DataDir is the directory holding the .dat archives and qtw movies.
	DataDir string `mapstructure:"data_dir"`
	// Catalog is an optional stack catalog file merged over the built-in one.
	Catalog  string         `mapstructure:"catalog"`
	Language string         `mapstructure:"language"`
	Features FeaturesConfig `mapstructure:"features"`
	// FrameDelay is slept at the end of every frame.
	FrameDelay time.Duration `mapstructure:"frame_delay"`
	// AutosavePeriod is the minimum time between autosaves; zero disables them.
	AutosavePeriod time.Duration `mapstructure:"autosave_period"`
	PlayMystFlyby  bool          `mapstructure:"play_myst_flyby"`
	// LoadSlot starts from a save slot when non-negative.
	LoadSlot int `mapstructure:"load_slot"`
	// StartStack and StartCard override the first location when StartCard is
	// non-zero.
	StartStack uint16 `mapstructure:"start_stack"`
	StartCard  uint16 `mapstructure:"start_card"`
	QueueSize  int    `mapstructure:"queue_size"`
	// ZipMode and Transitions are the runtime settings applied to a new
	// game. They are rewritten by the options dialog before a game starts.
	ZipMode     bool `mapstructure:"zip_mode"`
	Transitions bool `mapstructure:"transitions"`
	// CacheEnabled keeps decoded resources between lookups.
	CacheEnabled bool `mapstructure:"cache_enabled"`
}

// ScriptingConfig holds Lua stack script settings.
type ScriptingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// InstructionLimit bounds each Lua call for stacks without their own
	// limit; zero uses the scripting default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Save store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageConfig selects the save store.
type StorageConfig struct {
	// Driver is one of "memory", "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`
	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `mapstructure:"sqlite_path"`
	// SettingsFile stores the runtime settings changed in the options dialog.
	SettingsFile string `mapstructure:"settings_file"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// ConsoleConfig holds the gRPC debug console settings.
type ConsoleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	// RequestTimeout bounds how long a request waits for the frame loop.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (c ConsoleConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HeadlessConfig tunes the simulated platform of the headless player.
type HeadlessConfig struct {
	// Replay is the input replay file; empty runs until QuitAfter.
	Replay string `mapstructure:"replay"`
	// QuitAfter ends a run without replay file after this much game time.
	QuitAfter      time.Duration `mapstructure:"quit_after"`
	MovieDuration  time.Duration `mapstructure:"movie_duration"`
	EffectDuration time.Duration `mapstructure:"effect_duration"`
	CharWidth      int           `mapstructure:"char_width"`
	LineHeight     int           `mapstructure:"line_height"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output lists zap sinks; empty means stderr.
	Output []string `mapstructure:"output"`
}

// Config is the top-level application configuration.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Console   ConsoleConfig   `mapstructure:"console"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateEngine(c.Engine); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Storage.Driver == DriverPostgres {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Console.Enabled {
		if err := validateConsole(c.Console); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateHeadless(c.Headless); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateEngine(e EngineConfig) error {
	var errs []string
	if e.DataDir == "" {
		errs = append(errs, "engine.data_dir must not be empty")
	}
	if e.FrameDelay < 0 {
		errs = append(errs, "engine.frame_delay must not be negative")
	}
	if e.AutosavePeriod < 0 {
		errs = append(errs, "engine.autosave_period must not be negative")
	}
	if e.QueueSize < 1 {
		errs = append(errs, fmt.Sprintf("engine.queue_size must be >= 1, got %d", e.QueueSize))
	}
	if e.Features.Demo && e.Features.MakingOf {
		errs = append(errs, "engine.features.demo and engine.features.making_of are exclusive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Driver {
	case DriverMemory, DriverPostgres:
	case DriverSQLite:
		if s.SQLitePath == "" {
			return errors.New("storage.sqlite_path must not be empty for the sqlite driver")
		}
	default:
		return fmt.Errorf("storage.driver must be one of [memory, sqlite, postgres], got %q", s.Driver)
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateConsole(c ConsoleConfig) error {
	var errs []string
	if c.Host == "" {
		errs = append(errs, "console.host must not be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("console.port must be 0-65535, got %d", c.Port))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, "console.request_timeout must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateHeadless(h HeadlessConfig) error {
	var errs []string
	if h.MovieDuration <= 0 {
		errs = append(errs, "headless.movie_duration must be positive")
	}
	if h.EffectDuration <= 0 {
		errs = append(errs, "headless.effect_duration must be positive")
	}
	if h.CharWidth < 1 || h.LineHeight < 1 {
		errs = append(errs, fmt.Sprintf("headless.char_width and headless.line_height must be >= 1, got %d and %d", h.CharWidth, h.LineHeight))
	}
	if h.Replay == "" && h.QuitAfter <= 0 {
		errs = append(errs, "headless.quit_after must be positive when no replay file is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance with defaults and CARDSTACK_ environment
// overrides installed.
//
// Postcondition: Returns a non-nil Viper with no config file set.
func NewViper() *viper.Viper {
	v := viper.New()

	// Environment variable overrides with CARDSTACK_ prefix
	v.SetEnvPrefix("CARDSTACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.data_dir", ".")
	v.SetDefault("engine.frame_delay", "10ms")
	v.SetDefault("engine.autosave_period", "5m")
	v.SetDefault("engine.load_slot", -1)
	v.SetDefault("engine.queue_size", 64)
	v.SetDefault("engine.zip_mode", false)
	v.SetDefault("engine.transitions", true)
	v.SetDefault("engine.cache_enabled", true)

	v.SetDefault("scripting.enabled", true)
	v.SetDefault("scripting.instruction_limit", 0)

	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "saves.db")
	v.SetDefault("storage.settings_file", "settings.yaml")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "cardstack")
	v.SetDefault("database.password", "cardstack")
	v.SetDefault("database.name", "cardstack")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("console.enabled", false)
	v.SetDefault("console.host", "127.0.0.1")
	v.SetDefault("console.port", 50071)
	v.SetDefault("console.request_timeout", "5s")

	v.SetDefault("headless.quit_after", "10m")
	v.SetDefault("headless.movie_duration", "2s")
	v.SetDefault("headless.effect_duration", "500ms")
	v.SetDefault("headless.char_width", 8)
	v.SetDefault("headless.line_height", 14)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
