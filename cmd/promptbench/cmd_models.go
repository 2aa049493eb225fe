package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptbench/promptbench/internal/config"
	"github.com/promptbench/promptbench/internal/execution"
)

func newModelsCommand() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models available on the Ollama runtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if baseURL != "" {
				cfg.Model.BaseURL = baseURL
			}

			engine := execution.NewOllamaEngine(cfg.Model.Name,
				execution.WithBaseURL(cfg.Model.BaseURL),
			)
			names, err := engine.ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing models: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No models installed. Pull one with: ollama pull llama3") //nolint:errcheck
				return nil
			}
			for _, name := range names {
				marker := " "
				if name == cfg.Model.Name {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, name) //nolint:errcheck
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Ollama base URL (overrides config)")

	return cmd
}
