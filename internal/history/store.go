// Package history persists benchmark outcomes and answers the aggregate
// query behind history-based technique selection: which technique has the
// best average overall score for a domain.
package history

import (
	"context"

	"github.com/promptbench/promptbench/internal/models"
)

// Store is the persistence boundary. Both operations are best-effort from
// the orchestrator's point of view: a failing store changes provenance, not
// the benchmark outcome.
type Store interface {
	// SaveResult persists the compact record of one benchmark run.
	SaveResult(ctx context.Context, result models.StoredResult) error

	// BestTechniqueForDomain ranks the allowed techniques for a domain
	// by historical average overall score. Failures are reported inside
	// the selection with a machine-readable reason, never as an error.
	BestTechniqueForDomain(ctx context.Context, domain string, allowed []models.Technique) models.HistorySelection

	// Close releases the store's resources.
	Close() error
}

// NopStore is the disabled store: writes vanish and queries report
// "disabled" so the orchestrator falls back to runtime scores.
type NopStore struct{}

func (NopStore) SaveResult(ctx context.Context, result models.StoredResult) error {
	return nil
}

func (NopStore) BestTechniqueForDomain(ctx context.Context, domain string, allowed []models.Technique) models.HistorySelection {
	return models.HistorySelection{
		Success: false,
		Domain:  domain,
		Reason:  models.HistoryReasonDisabled,
	}
}

func (NopStore) Close() error {
	return nil
}
