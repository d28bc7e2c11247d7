package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"DispersionSignal/internal/di"
	"DispersionSignal/internal/usecase"
	"DispersionSignal/pkg/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

func main() {
	root := &cobra.Command{
		Use:   "dispersion-signal",
		Short: "Multi-source crypto price dispersion signal engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			var err error
			cfg, err = config.LoadWithEnv(configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	root.AddCommand(serveCmd(), calculateCmd(), summarizeCmd(), signalsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server, collector, consumer and scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			return app.Run()
		},
	}
}

func calculateCmd() *cobra.Command {
	var (
		coinsFlag string
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Run one calculation round across all sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, closeFn, err := buildCalculate()
			if err != nil {
				return err
			}
			defer closeFn()

			coins := cfg.Sources.Coins
			if coinsFlag != "" {
				coins = strings.Split(strings.ToUpper(coinsFlag), ",")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			results, err := calc.Run(ctx, coins, dryRun)
			if err != nil {
				return err
			}
			return printJSON(results)
		},
	}
	cmd.Flags().StringVar(&coinsFlag, "coins", "", "comma-separated symbols (default: config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute without persisting or publishing")
	return cmd
}

func summarizeCmd() *cobra.Command {
	var (
		date   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Build the daily market summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			lgr, err := di.ProvideLogger(cfg)
			if err != nil {
				return err
			}
			ch, err := di.ProvideClickHouseClient(cfg)
			if err != nil {
				return err
			}
			defer ch.Close()

			store := di.ProvideSignalStore(ch, lgr)
			sum := di.ProvideSummarizeUsecase(di.ProvideCalculator(lgr), store, lgr, cfg)

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			summary, err := sum.Run(ctx, date, dryRun)
			if err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
	cmd.Flags().StringVar(&date, "date", "today", "today | yesterday | YYYY-MM-DD")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute without persisting")
	return cmd
}

func signalsCmd() *cobra.Command {
	var (
		symbol, level, sigType, date string
		limit                        int
	)
	cmd := &cobra.Command{
		Use:   "signals",
		Short: "Query stored signals",
		RunE: func(cmd *cobra.Command, args []string) error {
			lgr, err := di.ProvideLogger(cfg)
			if err != nil {
				return err
			}
			ch, err := di.ProvideClickHouseClient(cfg)
			if err != nil {
				return err
			}
			defer ch.Close()

			store := di.ProvideSignalStore(ch, lgr)
			query := di.ProvideQueryUsecase(store, nil, lgr, cfg)

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			signals, err := query.GetSignals(ctx, usecase.GetSignalsParams{
				Symbol: strings.ToUpper(symbol),
				Level:  level,
				Type:   sigType,
				Date:   date,
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			return printJSON(signals)
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "filter by symbol")
	cmd.Flags().StringVar(&level, "level", "", "low | medium | high")
	cmd.Flags().StringVar(&sigType, "type", "", "convergence | divergence | neutral")
	cmd.Flags().StringVar(&date, "date", "", "today | yesterday | YYYY-MM-DD")
	cmd.Flags().IntVar(&limit, "limit", 20, "max rows")
	return cmd
}

func buildCalculate() (*usecase.CalculateUsecase, func(), error) {
	lgr, err := di.ProvideLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	ch, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, nil, err
	}

	store := di.ProvideSignalStore(ch, lgr)
	registry := di.ProvideSourceRegistry(cfg, lgr)
	calc := di.ProvideCalculateUsecase(registry, di.ProvideCalculator(lgr), store, nil, di.ProvideMetrics(), lgr, cfg)

	return calc, func() { _ = ch.Close() }, nil
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
