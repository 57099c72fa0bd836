package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/vytor/linguaflash/internal/logger"
)

// Config is read from, in increasing priority: defaults, an optional
// linguaflash.yaml, a .env file and the process environment.
type Config struct {
	Addr                  string        `mapstructure:"addr"`
	DBPath                string        `mapstructure:"db_path"`
	LogLevel              string        `mapstructure:"log_level"`
	WorkerShards          int           `mapstructure:"worker_shards"`
	WorkerQueueSize       int           `mapstructure:"worker_queue_size"`
	ReevaluateConcurrency int           `mapstructure:"reevaluate_concurrency"`
	CurriculumPath        string        `mapstructure:"curriculum_path"`
	ShutdownTimeout       time.Duration `mapstructure:"shutdown_timeout"`
}

// Load builds the configuration. The config file is linguaflash.yaml in the
// working directory unless LINGUAFLASH_CONFIG names another file; a missing
// default file is not an error.
func Load() (Config, error) {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("db_path", "linguaflash.db")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("worker_shards", 8)
	v.SetDefault("worker_queue_size", 64)
	v.SetDefault("reevaluate_concurrency", 4)
	v.SetDefault("curriculum_path", "")
	v.SetDefault("shutdown_timeout", "10s")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("LINGUAFLASH_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error loading config file: %w", err)
		}
	} else {
		v.SetConfigName("linguaflash")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("error loading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	if _, err := logger.LookupLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.WorkerShards < 1 || c.WorkerShards > 1024 {
		errs = append(errs, fmt.Errorf("WORKER_SHARDS must be between 1 and 1024, got %d", c.WorkerShards))
	}
	if c.WorkerQueueSize < 1 {
		errs = append(errs, fmt.Errorf("WORKER_QUEUE_SIZE must be at least 1, got %d", c.WorkerQueueSize))
	}
	if c.ReevaluateConcurrency < 1 {
		errs = append(errs, fmt.Errorf("REEVALUATE_CONCURRENCY must be at least 1, got %d", c.ReevaluateConcurrency))
	}
	if c.CurriculumPath != "" {
		if _, err := os.Stat(c.CurriculumPath); err != nil {
			errs = append(errs, fmt.Errorf("CURRICULUM_PATH: %w", err))
		}
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.ShutdownTimeout))
	}
	return errors.Join(errs...)
}
