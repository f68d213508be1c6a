// Package config materializes viper settings into explicit configuration
// structs that are passed to each component at construction.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mfierro/gastos/internal/common"
)

// Config is the full application configuration.
type Config struct {
	Logging      LoggingConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	LLM          LLMConfig
	API          APIConfig
	Consumer     ConsumerConfig
	HomeCurrency string
}

// LoggingConfig controls the global slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver string // "sqlite" or "postgres"

	// SQLite
	Path string

	// Postgres
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig configures the stream consumer and the confirmation channel.
type RedisConfig struct {
	URL                 string
	Stream              string
	Group               string
	Consumer            string
	ConfirmationChannel string
}

// LLMConfig configures the LLM client.
type LLMConfig struct {
	Provider    string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// APIConfig configures the HTTP read API.
type APIConfig struct {
	ListenAddr string
	Key        string
}

// ConsumerConfig tunes the stream consumer loop.
type ConsumerConfig struct {
	BatchSize     int64
	BlockTimeout  time.Duration
	RetryInterval time.Duration
}

func setDefaults() {
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")

	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.path", "data/gastos.db")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.url", "redis://localhost:6379")
	viper.SetDefault("redis.stream", "gastos:msgs")
	viper.SetDefault("redis.group", "expense-workers")
	viper.SetDefault("redis.consumer", "worker-1")
	viper.SetDefault("redis.confirmation_channel", "gastos:confirmations")

	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.model", "")
	viper.SetDefault("llm.timeout", 30*time.Second)
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.max_tokens", 512)

	viper.SetDefault("api.listen_addr", ":8000")

	viper.SetDefault("consumer.batch_size", 10)
	viper.SetDefault("consumer.block_timeout", 5*time.Second)
	viper.SetDefault("consumer.retry_interval", 5*time.Second)

	viper.SetDefault("currency.home", "CLP")
}

// Load reads the configuration from viper into an explicit Config. Every key
// can be overridden from the environment with the GASTOS_ prefix and dots
// replaced by underscores, e.g. GASTOS_LLM_API_KEY for llm.api_key.
func Load() (*Config, error) {
	viper.SetEnvPrefix("GASTOS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	cfg := &Config{
		Logging: LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(viper.GetString("database.driver")),
			Path:     viper.GetString("database.path"),
			Host:     viper.GetString("database.host"),
			Port:     viper.GetInt("database.port"),
			User:     viper.GetString("database.user"),
			Password: viper.GetString("database.password"),
			Name:     viper.GetString("database.name"),
			SSLMode:  viper.GetString("database.sslmode"),
		},
		Redis: RedisConfig{
			URL:                 viper.GetString("redis.url"),
			Stream:              viper.GetString("redis.stream"),
			Group:               viper.GetString("redis.group"),
			Consumer:            viper.GetString("redis.consumer"),
			ConfirmationChannel: viper.GetString("redis.confirmation_channel"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(viper.GetString("llm.provider")),
			APIKey:      viper.GetString("llm.api_key"),
			Model:       viper.GetString("llm.model"),
			Timeout:     viper.GetDuration("llm.timeout"),
			Temperature: viper.GetFloat64("llm.temperature"),
			MaxTokens:   viper.GetInt("llm.max_tokens"),
		},
		API: APIConfig{
			ListenAddr: viper.GetString("api.listen_addr"),
			Key:        viper.GetString("api.key"),
		},
		Consumer: ConsumerConfig{
			BatchSize:     viper.GetInt64("consumer.batch_size"),
			BlockTimeout:  viper.GetDuration("consumer.block_timeout"),
			RetryInterval: viper.GetDuration("consumer.retry_interval"),
		},
		HomeCurrency: strings.ToUpper(viper.GetString("currency.home")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for the sqlite driver", common.ErrMissingConfig)
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("%w: database.host and database.name are required for the postgres driver", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported database driver %q", common.ErrInvalidConfig, c.Database.Driver)
	}

	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("%w: unsupported llm provider %q", common.ErrInvalidConfig, c.LLM.Provider)
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("%w: redis.url is required", common.ErrMissingConfig)
	}
	if c.Redis.Stream == "" || c.Redis.Group == "" || c.Redis.Consumer == "" {
		return fmt.Errorf("%w: redis stream, group and consumer names are required", common.ErrMissingConfig)
	}

	if c.Consumer.BatchSize <= 0 {
		return fmt.Errorf("%w: consumer.batch_size must be positive", common.ErrInvalidConfig)
	}
	if len(c.HomeCurrency) != 3 {
		return fmt.Errorf("%w: currency.home must be a 3-letter code", common.ErrInvalidConfig)
	}

	return nil
}
