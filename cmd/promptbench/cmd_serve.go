package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptbench/promptbench/internal/config"
	"github.com/promptbench/promptbench/internal/dataset"
	"github.com/promptbench/promptbench/internal/execution"
	"github.com/promptbench/promptbench/internal/history"
	"github.com/promptbench/promptbench/internal/orchestration"
	"github.com/promptbench/promptbench/internal/webserver"
)

func newServeCommand() *cobra.Command {
	var (
		host        string
		port        int
		modelName   string
		baseURL     string
		datasetPath string
		corsOrigins []string
		noHistory   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the benchmark REST API server",
		Long: `Start an HTTP server exposing the benchmark pipeline.

Endpoints cover running benchmarks (inline or from the dataset), inspecting
techniques and subjects, adjusting scoring weights, and dataset management.
The server shuts down gracefully on interrupt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if modelName != "" {
				cfg.Model.Name = modelName
			}
			if baseURL != "" {
				cfg.Model.BaseURL = baseURL
			}
			if datasetPath != "" {
				cfg.Dataset.Path = datasetPath
			}

			logger := slog.Default()

			problems := dataset.Sample()
			if cfg.Dataset.Path != "" {
				problems, err = dataset.LoadFile(cfg.Dataset.Path)
				if err != nil {
					return fmt.Errorf("loading dataset: %w", err)
				}
			}

			var store history.Store = history.NopStore{}
			if cfg.HistoryEnabled() && !noHistory {
				sqlStore, err := history.NewSQLiteStore(cfg.History.Path, history.WithLogger(logger))
				if err != nil {
					return fmt.Errorf("opening history store: %w", err)
				}
				defer sqlStore.Close() //nolint:errcheck
				store = sqlStore
			}

			engine := execution.NewOllamaEngine(cfg.Model.Name,
				execution.WithBaseURL(cfg.Model.BaseURL),
				execution.WithTimeout(time.Duration(cfg.Model.TimeoutSec)*time.Second),
				execution.WithMaxTokens(cfg.Model.MaxTokens),
				execution.WithLogger(logger),
			)
			defer engine.Shutdown(context.Background()) //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			// A cold model runtime is not fatal here; /health reports it.
			if err := engine.Initialize(ctx); err != nil {
				logger.Warn("model runtime unreachable, starting anyway", "error", err)
			}

			opts := []orchestration.Option{
				orchestration.WithWeights(cfg.BenchmarkWeights()),
				orchestration.WithLogger(logger),
			}
			if _, nop := store.(history.NopStore); !nop {
				opts = append(opts, orchestration.WithStore(store))
			}

			srv, err := webserver.New(webserver.Config{
				Host:           cfg.Server.Host,
				Port:           cfg.Server.Port,
				AllowedOrigins: corsOrigins,
				Logger:         logger,
				Pipeline:       orchestration.NewPipeline(engine, opts...),
				Problems:       problems,
				Store:          store,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host to bind (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (overrides config)")
	cmd.Flags().StringVar(&modelName, "model", "", "Model to benchmark (overrides config)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Ollama base URL (overrides config)")
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Dataset JSON or CSV file (default: built-in sample problems)")
	cmd.Flags().StringArrayVar(&corsOrigins, "cors-origin", nil, "Origin allowed to call the API cross-site (can be repeated)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip the historical selection override and result persistence")

	return cmd
}
