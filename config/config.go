// Package config loads the advisor configuration from a YAML file with
// ADVISOR_* environment overrides, and sets up logging.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"academic-advisor-go/analytics"
	"academic-advisor-go/db"
	"academic-advisor-go/llm"
)

// Store drivers.
const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Redis   RedisConfig   `mapstructure:"redis" yaml:"redis"`
	SQLite  SQLiteConfig  `mapstructure:"sqlite" yaml:"sqlite"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Grading GradingConfig `mapstructure:"grading" yaml:"grading"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

type ServerConfig struct {
	Addr  string `mapstructure:"addr" yaml:"addr"`
	Debug bool   `mapstructure:"debug" yaml:"debug"`
}

type StoreConfig struct {
	Driver   string `mapstructure:"driver" yaml:"driver"` // redis, sqlite or memory
	SeedDemo bool   `mapstructure:"seed_demo" yaml:"seed_demo"`
}

type RedisConfig struct {
	Addr       string `mapstructure:"addr" yaml:"addr"`
	Password   string `mapstructure:"password" yaml:"password"`
	DB         int    `mapstructure:"db" yaml:"db"`
	MaxRetries int    `mapstructure:"max_retries" yaml:"max_retries"`
}

type SQLiteConfig struct {
	Path        string `mapstructure:"path" yaml:"path"`
	ReadRetries int    `mapstructure:"read_retries" yaml:"read_retries"`
}

// LLMConfig configures the optional completion fallback for unrecognized questions.
type LLMConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	APIKey   string        `mapstructure:"api_key" yaml:"api_key"`
	Model    string        `mapstructure:"model" yaml:"model"`
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type GradingConfig struct {
	MidtermMax float64 `mapstructure:"midterm_max" yaml:"midterm_max"`
	FinalMax   float64 `mapstructure:"final_max" yaml:"final_max"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // console or json
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Store:  StoreConfig{Driver: DriverMemory, SeedDemo: true},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			MaxRetries: 3,
		},
		SQLite: SQLiteConfig{
			Path:        "advisor.db",
			ReadRetries: 3,
		},
		LLM: LLMConfig{
			Model:   "gemini-2.5-flash",
			Timeout: 30 * time.Second,
		},
		Grading: GradingConfig{MidtermMax: 20, FinalMax: 50},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// LoadFromPath reads configuration from path and merges environment variables,
// e.g. ADVISOR_REDIS_ADDR. A missing file is created with default values; an
// empty path means defaults plus environment only.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("ADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := writeConfigFile(path, Default()); err != nil {
				return nil, fmt.Errorf("failed to write default config: %w", err)
			}
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so that environment overrides apply even
// when the file does not mention it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.debug", d.Server.Debug)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.seed_demo", d.Store.SeedDemo)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.max_retries", d.Redis.MaxRetries)
	v.SetDefault("sqlite.path", d.SQLite.Path)
	v.SetDefault("sqlite.read_retries", d.SQLite.ReadRetries)
	v.SetDefault("llm.enabled", d.LLM.Enabled)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.endpoint", d.LLM.Endpoint)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("grading.midterm_max", d.Grading.MidtermMax)
	v.SetDefault("grading.final_max", d.Grading.FinalMax)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Validate checks the configuration for common errors and inconsistencies.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverRedis, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("invalid store driver '%s', must be one of: redis, sqlite, memory", c.Store.Driver)
	}
	if c.Store.Driver == DriverSQLite && c.SQLite.Path == "" {
		return fmt.Errorf("sqlite.path cannot be empty")
	}
	if c.Grading.MidtermMax <= 0 || c.Grading.FinalMax <= 0 {
		return fmt.Errorf("grading maxima must be positive")
	}
	if c.LLM.Enabled && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required when llm.enabled is true")
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level '%s': %w", c.Logging.Level, err)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format '%s', must be 'console' or 'json'", c.Logging.Format)
	}
	return nil
}

// Scale returns the grading scale used by the analytics.
func (c *Config) Scale() analytics.GradingScale {
	return analytics.GradingScale{MidtermMax: c.Grading.MidtermMax, FinalMax: c.Grading.FinalMax}
}

// RedisOptions returns the Redis client options.
func (c *Config) RedisOptions() db.RedisOptions {
	return db.RedisOptions{
		Addr:       c.Redis.Addr,
		Password:   c.Redis.Password,
		DB:         c.Redis.DB,
		MaxRetries: c.Redis.MaxRetries,
	}
}

// CompleterConfig returns the completion client configuration.
func (c *Config) CompleterConfig() llm.Config {
	return llm.Config{
		APIKey:   c.LLM.APIKey,
		Model:    c.LLM.Model,
		Endpoint: c.LLM.Endpoint,
		Timeout:  c.LLM.Timeout,
	}
}

// SetupLogging configures the global zerolog logger.
func SetupLogging(cfg LoggingConfig, out io.Writer) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", cfg.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	return nil
}

// writeConfigFile writes a Config struct to a YAML file.
func writeConfigFile(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
