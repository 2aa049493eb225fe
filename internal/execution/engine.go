package execution

import (
	"context"

	"github.com/promptbench/promptbench/internal/models"
)

// Engine is the interface for running prompts through a language model.
// Execute reports model failures inside the result rather than as an error,
// so one failing technique never aborts a benchmark run.
type Engine interface {
	// Initialize verifies the backing model is reachable.
	Initialize(ctx context.Context) error

	// Execute runs one prompt to completion and returns the response
	// with execution metrics.
	Execute(ctx context.Context, prompt string) models.ExecutionResult

	// Shutdown cleans up resources
	Shutdown(ctx context.Context) error

	// Model names the model this engine drives.
	Model() string
}
