package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/promptbench/promptbench/internal/config"
	"github.com/promptbench/promptbench/internal/dataset"
	"github.com/promptbench/promptbench/internal/execution"
	"github.com/promptbench/promptbench/internal/history"
	"github.com/promptbench/promptbench/internal/models"
	"github.com/promptbench/promptbench/internal/orchestration"
	"github.com/promptbench/promptbench/internal/spinner"
)

func newRunCommand() *cobra.Command {
	var (
		subject      string
		answer       string
		datasetPath  string
		problemID    int
		runAll       bool
		modelName    string
		baseURL      string
		outputPath   string
		noHistory    bool
		accuracy     float64
		completeness float64
		efficiency   float64
	)

	cmd := &cobra.Command{
		Use:   "run [problem]",
		Short: "Benchmark prompting techniques on a problem or a dataset",
		Long: `Benchmark every prompting technique on a problem and report the winner.

The problem can be given inline, picked from a dataset file by id, or the
whole dataset can be run with --all. Datasets are JSON files, or CSV files
with problem,answer[,category] columns. Without a dataset file the built-in
sample problems are used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
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
			if cmd.Flags().Changed("accuracy") {
				cfg.Weights.Accuracy = &accuracy
			}
			if cmd.Flags().Changed("completeness") {
				cfg.Weights.Completeness = &completeness
			}
			if cmd.Flags().Changed("efficiency") {
				cfg.Weights.Efficiency = &efficiency
			}

			problems, err := resolveProblems(args, cmd.Flags().Changed("id"), problemID, runAll, subject, answer, cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			engine := execution.NewOllamaEngine(cfg.Model.Name,
				execution.WithBaseURL(cfg.Model.BaseURL),
				execution.WithTimeout(time.Duration(cfg.Model.TimeoutSec)*time.Second),
				execution.WithMaxTokens(cfg.Model.MaxTokens),
			)
			if err := engine.Initialize(ctx); err != nil {
				return fmt.Errorf("connecting to model runtime: %w", err)
			}
			defer engine.Shutdown(context.Background()) //nolint:errcheck

			opts := []orchestration.Option{
				orchestration.WithWeights(cfg.BenchmarkWeights()),
			}
			if cfg.HistoryEnabled() && !noHistory {
				store, err := history.NewSQLiteStore(cfg.History.Path)
				if err != nil {
					return fmt.Errorf("opening history store: %w", err)
				}
				defer store.Close() //nolint:errcheck
				opts = append(opts, orchestration.WithStore(store))
			}
			pipeline := orchestration.NewPipeline(engine, opts...)

			out := cmd.OutOrStdout()
			interactive := false
			if f, ok := out.(*os.File); ok {
				interactive = term.IsTerminal(int(f.Fd()))
			}

			results := make([]*models.BenchmarkResult, 0, len(problems))
			failed := 0
			for _, problem := range problems {
				if ctx.Err() != nil {
					return fmt.Errorf("interrupted: %w", ctx.Err())
				}
				stopSpinner := func() {}
				if interactive {
					stopSpinner = spinner.Start(cmd.ErrOrStderr(), fmt.Sprintf("benchmarking with %s", cfg.Model.Name))
				}
				result := pipeline.Benchmark(ctx, problem)
				stopSpinner()
				printComparison(out, result)
				results = append(results, result)
				if !result.Succeeded() {
					failed++
				}
			}

			if outputPath != "" {
				if err := saveResults(results, outputPath); err != nil {
					return fmt.Errorf("saving results: %w", err)
				}
				fmt.Fprintf(out, "Results saved to: %s\n", outputPath) //nolint:errcheck
			}

			if failed > 0 {
				return &BenchmarkFailureError{
					Message: fmt.Sprintf("%d of %d problems produced no usable result", failed, len(results)),
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Subject for few-shot example selection (algebra, calculus, statistics, general)")
	cmd.Flags().StringVar(&answer, "answer", "", "Ground-truth answer for the inline problem")
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Dataset JSON or CSV file (default: built-in sample problems)")
	cmd.Flags().IntVar(&problemID, "id", 0, "Benchmark a single dataset problem by id")
	cmd.Flags().BoolVar(&runAll, "all", false, "Benchmark every problem in the dataset")
	cmd.Flags().StringVar(&modelName, "model", "", "Model to benchmark (overrides config)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Ollama base URL (overrides config)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output JSON file for results")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip the historical selection override and result persistence")
	cmd.Flags().Float64Var(&accuracy, "accuracy", 0, "Accuracy weight (renormalized with the others)")
	cmd.Flags().Float64Var(&completeness, "completeness", 0, "Completeness weight (renormalized with the others)")
	cmd.Flags().Float64Var(&efficiency, "efficiency", 0, "Efficiency weight (renormalized with the others)")

	return cmd
}

// resolveProblems turns the CLI input modes into a list of benchmark inputs.
func resolveProblems(args []string, byID bool, problemID int, runAll bool, subject, answer string, cfg *config.Config) ([]models.Problem, error) {
	if len(args) == 1 {
		if byID || runAll {
			return nil, fmt.Errorf("an inline problem cannot be combined with --id or --all")
		}
		problem := models.Problem{Text: args[0], Subject: subject}
		if answer != "" {
			problem.GroundTruth = &answer
		}
		return []models.Problem{problem}, nil
	}

	if !byID && !runAll {
		return nil, fmt.Errorf("provide a problem, or select dataset problems with --id or --all")
	}

	set := dataset.Sample()
	if cfg.Dataset.Path != "" {
		loaded, err := dataset.LoadFile(cfg.Dataset.Path)
		if err != nil {
			return nil, fmt.Errorf("loading dataset: %w", err)
		}
		set = loaded
	}

	if byID {
		entry, ok := set.Get(problemID)
		if !ok {
			return nil, fmt.Errorf("problem %d not found in dataset", problemID)
		}
		return []models.Problem{entry.ToModel()}, nil
	}

	entries := set.Problems()
	if len(entries) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	problems := make([]models.Problem, 0, len(entries))
	for _, entry := range entries {
		problems = append(problems, entry.ToModel())
	}
	return problems, nil
}

func saveResults(results []*models.BenchmarkResult, path string) error {
	var payload any = results
	if len(results) == 1 {
		payload = results[0]
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
