package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"standAlloc/internal/bnb"
	"standAlloc/internal/config"
	"standAlloc/internal/logging"
	"standAlloc/internal/store"
	"standAlloc/internal/telemetry"
)

var (
	logger     zerolog.Logger
	cfg        *config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "standalloc",
	Short: "Назначение воздушных судов на стоянки",
	Long: "standalloc распределяет прибывающие воздушные суда по стоянкам на дискретном горизонте,\n" +
		"минимизируя суммарную стоимость: точный поиск ветвей и границ и эвристики для сравнения.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "путь к файлу конфигурации (YAML)")
	rootCmd.AddCommand(solveCmd, benchCmd, exampleCmd, runsCmd)
}

func main() {
	// Прерывание останавливает поиск, решатель вернёт лучшее найденное решение.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		os.Setenv("STANDALLOC_CONFIG_PATH", configPath)
	}
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return nil
}

// openStore открывает хранилище, если путь задан; nil — хранение выключено.
func openStore(path string) (*store.DB, error) {
	if path == "" {
		return nil, nil
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

// searchObserver собирает наблюдателей поиска: лог и, при необходимости, метрики.
func searchObserver(reg *prometheus.Registry) (bnb.Observer, error) {
	obs := []bnb.Observer{bnb.LogObserver{Logger: logger}}
	if reg != nil {
		m, err := telemetry.NewMetricsObserver(reg)
		if err != nil {
			return nil, err
		}
		obs = append(obs, m)
	}
	return bnb.Observers(obs...), nil
}

func flushMetrics(reg *prometheus.Registry) {
	if reg == nil || cfg.Metrics.Textfile == "" {
		return
	}
	if err := telemetry.WriteTextfile(cfg.Metrics.Textfile, reg); err != nil {
		logger.Error().Err(err).Msg("failed to write metrics")
		return
	}
	logger.Debug().Str("path", cfg.Metrics.Textfile).Msg("metrics written")
}
