package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/promptbench/promptbench/internal/config"
	"github.com/promptbench/promptbench/internal/dataset"
	"github.com/promptbench/promptbench/internal/wizard"
)

func newNewCommand() *cobra.Command {
	var (
		datasetPath string
		problem     string
		answer      string
		category    string
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Add a problem to a dataset file",
		Long: `Add a problem with its ground-truth answer to a dataset JSON file.

When running in a terminal, an interactive wizard collects the fields.
In non-interactive environments (CI, pipes), pass --problem and --answer.
The dataset file is created if it does not exist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			path := datasetPath
			if path == "" {
				path = cfg.Dataset.Path
			}
			if path == "" {
				path = "dataset.json"
			}

			spec := &wizard.ProblemSpec{Problem: problem, Answer: answer, Category: category}
			if problem == "" && answer == "" {
				spec, err = wizard.RunProblemWizard(cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
			} else if err := wizard.ValidateProblem(spec); err != nil {
				return err
			}

			set := dataset.New()
			if _, err := os.Stat(path); err == nil {
				set, err = dataset.Load(path)
				if err != nil {
					return fmt.Errorf("loading dataset: %w", err)
				}
			}

			entry := set.Add(spec.Problem, spec.Answer, spec.Category)
			if err := set.Save(path); err != nil {
				return fmt.Errorf("saving dataset: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added problem %d to %s (%d total)\n", //nolint:errcheck
				entry.ID, path, set.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Dataset JSON file to append to (default: dataset.json)")
	cmd.Flags().StringVar(&problem, "problem", "", "Problem statement (skips the wizard)")
	cmd.Flags().StringVar(&answer, "answer", "", "Ground-truth answer (skips the wizard)")
	cmd.Flags().StringVar(&category, "category", "", "Problem category (default: general)")

	return cmd
}
