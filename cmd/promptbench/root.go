package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promptbench",
		Short: "promptbench - benchmark prompting techniques against local LLMs",
		Long: `promptbench compares prompting techniques (zero-shot, few-shot) on math
problems against an Ollama-hosted model.

Each technique is scored on accuracy, completeness and efficiency; the
weighted winner is selected per problem, optionally informed by the
historical record of past runs.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newNewCommand())
	cmd.AddCommand(newModelsCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
