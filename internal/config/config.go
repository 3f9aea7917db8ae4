package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — настройки CLI: решатель, хранилище, метрики и логирование.
type Config struct {
	Solver  SolverConfig
	DBPath  string
	Metrics MetricsConfig
	Log     LogConfig
}

type SolverConfig struct {
	Workers   int
	TimeLimit time.Duration
	NodeLimit int
}

type MetricsConfig struct {
	// Textfile — путь для выгрузки метрик в формате Prometheus; пусто — не выгружать.
	Textfile string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load читает конфигурацию: значения по умолчанию, затем файл, затем
// переменные окружения STANDALLOC_*.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("solver.workers", 1)
	v.SetDefault("solver.time_limit", "0s")
	v.SetDefault("solver.node_limit", 0)
	v.SetDefault("db_path", "standalloc.db")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/standalloc")
	v.AddConfigPath(".")

	if configPath := os.Getenv("STANDALLOC_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Файл найден, но не читается
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("STANDALLOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Solver: SolverConfig{
			Workers:   v.GetInt("solver.workers"),
			TimeLimit: v.GetDuration("solver.time_limit"),
			NodeLimit: v.GetInt("solver.node_limit"),
		},
		DBPath: v.GetString("db_path"),
		Metrics: MetricsConfig{
			Textfile: v.GetString("metrics.textfile"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Solver.Workers < 1 {
		return fmt.Errorf("solver.workers must be >= 1 (got %d)", cfg.Solver.Workers)
	}
	if cfg.Solver.TimeLimit < 0 {
		return fmt.Errorf("solver.time_limit must be >= 0 (got %s)", cfg.Solver.TimeLimit)
	}
	if cfg.Solver.NodeLimit < 0 {
		return fmt.Errorf("solver.node_limit must be >= 0 (got %d)", cfg.Solver.NodeLimit)
	}

	validLogLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be trace, debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[cfg.Log.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}
	return nil
}
