package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/promptbench/promptbench/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func storedResult(domain string, zeroShot, fewShot float64) models.StoredResult {
	return models.StoredResult{
		Domain:           domain,
		PromptUsed:       "prompt",
		ModelResponse:    "response",
		PerformanceScore: fewShot,
		Comparison: []models.ComparisonRecord{
			{Technique: models.TechniqueFewShot, Overall: fewShot},
			{Technique: models.TechniqueZeroShot, Overall: zeroShot},
		},
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResult(ctx, storedResult("algebra", 0.6, 0.8)))
	require.NoError(t, store.SaveResult(ctx, storedResult("algebra", 0.7, 0.9)))

	selection := store.BestTechniqueForDomain(ctx, "algebra", nil)
	require.True(t, selection.Success)
	require.Equal(t, models.TechniqueFewShot, selection.BestTechnique)
	require.Len(t, selection.Ranking, 2)

	best := selection.Ranking[0]
	require.Equal(t, models.TechniqueFewShot, best.Technique)
	require.InDelta(t, 0.85, best.AverageOverall, 1e-9)
	require.Equal(t, 2, best.Samples)
	require.NotNil(t, best.CI95Lo)
	require.NotNil(t, best.CI95Hi)
	require.LessOrEqual(t, *best.CI95Lo, best.AverageOverall)
	require.GreaterOrEqual(t, *best.CI95Hi, best.AverageOverall)

	require.Equal(t, models.TechniqueZeroShot, selection.Ranking[1].Technique)
	require.InDelta(t, 0.65, selection.Ranking[1].AverageOverall, 1e-9)
}

func TestSQLiteStoreNoData(t *testing.T) {
	store := newTestStore(t)

	selection := store.BestTechniqueForDomain(context.Background(), "calculus", nil)
	require.False(t, selection.Success)
	require.Equal(t, models.HistoryReasonNoData, selection.Reason)
}

func TestSQLiteStoreDomainsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResult(ctx, storedResult("algebra", 0.9, 0.5)))

	selection := store.BestTechniqueForDomain(ctx, "statistics", nil)
	require.False(t, selection.Success)
	require.Equal(t, models.HistoryReasonNoData, selection.Reason)
}

func TestSQLiteStoreAllowedFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Zero-shot dominates, but is not in the allowed set.
	require.NoError(t, store.SaveResult(ctx, storedResult("algebra", 0.9, 0.5)))

	selection := store.BestTechniqueForDomain(ctx, "algebra", []models.Technique{models.TechniqueFewShot})
	require.True(t, selection.Success)
	require.Equal(t, models.TechniqueFewShot, selection.BestTechnique)
	require.Len(t, selection.Ranking, 1)
}

func TestSQLiteStoreSingleSampleHasNoCI(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResult(ctx, storedResult("algebra", 0.6, 0.8)))

	selection := store.BestTechniqueForDomain(ctx, "algebra", nil)
	require.True(t, selection.Success)
	require.Nil(t, selection.Ranking[0].CI95Lo)
	require.Nil(t, selection.Ranking[0].CI95Hi)
}

func TestSQLiteStoreTieBreaksByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResult(ctx, storedResult("algebra", 0.7, 0.7)))

	selection := store.BestTechniqueForDomain(ctx, "algebra", nil)
	require.True(t, selection.Success)
	// Equal averages and sample counts: alphabetical order decides.
	require.Equal(t, models.TechniqueFewShot, selection.BestTechnique)
}

func TestNopStore(t *testing.T) {
	store := NopStore{}

	require.NoError(t, store.SaveResult(context.Background(), models.StoredResult{}))

	selection := store.BestTechniqueForDomain(context.Background(), "algebra", nil)
	require.False(t, selection.Success)
	require.Equal(t, models.HistoryReasonDisabled, selection.Reason)
	require.NoError(t, store.Close())
}
