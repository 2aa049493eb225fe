package orchestration

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/promptbench/promptbench/internal/execution"
	"github.com/promptbench/promptbench/internal/models"
)

type fakeStore struct {
	selection  models.HistorySelection
	saveErr    error
	saved      []models.StoredResult
	gotDomain  string
	gotAllowed []models.Technique
}

func (f *fakeStore) SaveResult(ctx context.Context, result models.StoredResult) error {
	f.saved = append(f.saved, result)
	return f.saveErr
}

func (f *fakeStore) BestTechniqueForDomain(ctx context.Context, domain string, allowed []models.Technique) models.HistorySelection {
	f.gotDomain = domain
	f.gotAllowed = allowed
	s := f.selection
	s.Domain = domain
	return s
}

func (f *fakeStore) Close() error { return nil }

// answering distinguishes techniques by prompt shape: few-shot prompts
// carry the examples preamble.
func answering(fewShotResponse, zeroShotResponse string) func(prompt string) models.ExecutionResult {
	return func(prompt string) models.ExecutionResult {
		response := zeroShotResponse
		if strings.Contains(prompt, "Here are some examples:") {
			response = fewShotResponse
		}
		return models.ExecutionResult{
			Response: response,
			Model:    "mock",
			Success:  true,
			Metrics:  models.Metrics{TotalTokens: 50, ElapsedTime: 2},
		}
	}
}

func TestBenchmark(t *testing.T) {
	engine := &execution.MockEngine{Fn: answering("The sum is 42. Answer: 42", "No idea")}
	pipeline := NewPipeline(engine)

	result := pipeline.Benchmark(context.Background(), models.Problem{Text: "What is 15 + 27?"})

	require.True(t, result.Succeeded())
	require.NotEmpty(t, result.RunID)
	require.Len(t, result.Results, 2)
	require.Equal(t, models.TechniqueFewShot, result.BestTechnique)
	require.Equal(t, models.SelectionRuntime, result.SelectionSource)
	require.NotNil(t, result.BestResult)
	require.Equal(t, 1.0, result.BestResult.Scores.Accuracy)

	require.Len(t, result.Comparison, 2)
	require.GreaterOrEqual(t, result.Comparison[0].Overall, result.Comparison[1].Overall)
	require.Equal(t, models.TechniqueFewShot, result.Comparison[0].Technique)

	// Both techniques were dispatched.
	require.Len(t, engine.Prompts(), 2)
}

func TestBenchmarkFaultIsolation(t *testing.T) {
	engine := &execution.MockEngine{Fn: func(prompt string) models.ExecutionResult {
		if strings.Contains(prompt, "Here are some examples:") {
			return models.ExecutionResult{
				Response: "Answer: 42",
				Success:  true,
				Metrics:  models.Metrics{TotalTokens: 40, ElapsedTime: 2},
			}
		}
		return models.ExecutionResult{Success: false, ErrorMsg: "connection reset"}
	}}
	pipeline := NewPipeline(engine)

	result := pipeline.Benchmark(context.Background(), models.Problem{Text: "What is 15 + 27?"})

	require.True(t, result.Succeeded())
	require.Equal(t, models.TechniqueFewShot, result.BestTechnique)

	failed := result.Results[models.TechniqueZeroShot]
	require.False(t, failed.Success)
	require.Equal(t, "connection reset", failed.ErrorMsg)
	require.Zero(t, failed.Scores)

	// Only the surviving technique appears in the comparison.
	require.Len(t, result.Comparison, 1)
	require.Equal(t, models.TechniqueFewShot, result.Comparison[0].Technique)
}

func TestBenchmarkFailedTechniqueNeverWinsScoreTie(t *testing.T) {
	// Accuracy-only weights make a successful wrong answer score exactly
	// 0.0, tying the zero overall of a failed technique. The successful
	// technique must still win.
	engine := &execution.MockEngine{Fn: func(prompt string) models.ExecutionResult {
		if strings.Contains(prompt, "Here are some examples:") {
			return models.ExecutionResult{
				Response: "7",
				Success:  true,
				Metrics:  models.Metrics{TotalTokens: 5, ElapsedTime: 1},
			}
		}
		return models.ExecutionResult{Success: false, ErrorMsg: "model timed out"}
	}}
	pipeline := NewPipeline(engine, WithWeights(models.Weights{Accuracy: 1}))

	answer := "42"
	result := pipeline.Benchmark(context.Background(),
		models.Problem{Text: "What is 15 + 27?", GroundTruth: &answer})

	require.True(t, result.Succeeded())
	require.Equal(t, models.TechniqueFewShot, result.BestTechnique)
	require.True(t, result.BestResult.Success)
	require.Zero(t, result.BestResult.Scores.Overall)
}

func TestBenchmarkAllTechniquesFail(t *testing.T) {
	engine := &execution.MockEngine{Fn: func(prompt string) models.ExecutionResult {
		return models.ExecutionResult{Success: false, ErrorMsg: "model missing"}
	}}
	pipeline := NewPipeline(engine)

	result := pipeline.Benchmark(context.Background(), models.Problem{Text: "What is 15 + 27?"})

	require.False(t, result.Succeeded())
	require.NotNil(t, result.BestResult)
	require.False(t, result.BestResult.Success)
	require.Empty(t, result.Comparison)
}

func TestBenchmarkTieBreakIsStable(t *testing.T) {
	// Identical responses on both techniques force an exact score tie.
	engine := &execution.MockEngine{Fn: func(prompt string) models.ExecutionResult {
		return models.ExecutionResult{
			Response: "Answer: 42",
			Success:  true,
			Metrics:  models.Metrics{TotalTokens: 50, ElapsedTime: 2},
		}
	}}
	pipeline := NewPipeline(engine)
	problem := models.Problem{Text: "What is 15 + 27?"}

	first := pipeline.Benchmark(context.Background(), problem)
	require.Equal(t, first.Results[models.TechniqueZeroShot].Scores.Overall,
		first.Results[models.TechniqueFewShot].Scores.Overall, "scores must tie for this test")

	// Larger hash wins the tie.
	want := models.TechniqueZeroShot
	if selectionHash(problem.Text, models.TechniqueFewShot) > selectionHash(problem.Text, models.TechniqueZeroShot) {
		want = models.TechniqueFewShot
	}

	for i := 0; i < 5; i++ {
		result := pipeline.Benchmark(context.Background(), problem)
		require.Equal(t, want, result.BestTechnique)
	}
}

func TestSelectionHashIgnoresCosmeticFormatting(t *testing.T) {
	for _, tech := range []models.Technique{models.TechniqueZeroShot, models.TechniqueFewShot} {
		plain := selectionHash("What is 15 + 27?", tech)
		require.Equal(t, plain, selectionHash("  What is 15 + 27?  ", tech))
		require.Equal(t, plain, selectionHash("Q: What is 15 + 27?\nA:", tech))
	}
}

func TestSetWeights(t *testing.T) {
	pipeline := NewPipeline(&execution.MockEngine{})

	acc := 0.8
	weights := pipeline.SetWeights(models.WeightsUpdate{Accuracy: &acc})

	sum := weights.Accuracy + weights.Completeness + weights.Efficiency
	require.InDelta(t, 1.0, sum, 1e-9)
	require.Greater(t, weights.Accuracy, weights.Completeness)
	require.Equal(t, weights, pipeline.Weights())
}

func TestBenchmarkHistoryOverride(t *testing.T) {
	engine := &execution.MockEngine{Fn: answering("The sum is 42. Answer: 42", "No idea")}
	store := &fakeStore{selection: models.HistorySelection{
		Success:       true,
		BestTechnique: models.TechniqueZeroShot,
		Ranking: []models.TechniqueRank{
			{Technique: models.TechniqueZeroShot, AverageOverall: 0.9, Samples: 12},
			{Technique: models.TechniqueFewShot, AverageOverall: 0.7, Samples: 12},
		},
	}}
	pipeline := NewPipeline(engine, WithStore(store))

	result := pipeline.Benchmark(context.Background(),
		models.Problem{Text: "What is 15 + 27?", Subject: "algebra"})

	require.Equal(t, models.TechniqueZeroShot, result.BestTechnique)
	require.Equal(t, models.SelectionHistory, result.SelectionSource)
	require.NotNil(t, result.BestResult)
	require.Equal(t, models.TechniqueZeroShot, result.BestResult.Technique)
	require.NotNil(t, result.SelectionDetails)
	require.Len(t, result.SelectionDetails.Ranking, 2)

	require.Equal(t, "algebra", store.gotDomain)
	require.ElementsMatch(t,
		[]models.Technique{models.TechniqueZeroShot, models.TechniqueFewShot},
		store.gotAllowed)
}

func TestBenchmarkHistoryKeepsRuntimeChoiceWhenUnusable(t *testing.T) {
	t.Run("no data", func(t *testing.T) {
		engine := &execution.MockEngine{Fn: answering("Answer: 42", "No idea")}
		store := &fakeStore{selection: models.HistorySelection{
			Success: false,
			Reason:  models.HistoryReasonNoData,
		}}
		pipeline := NewPipeline(engine, WithStore(store))

		result := pipeline.Benchmark(context.Background(), models.Problem{Text: "What is 15 + 27?"})

		require.Equal(t, models.SelectionRuntime, result.SelectionSource)
		require.Equal(t, models.TechniqueFewShot, result.BestTechnique)
		require.Equal(t, models.HistoryReasonNoData, result.SelectionDetails.Reason)
	})

	t.Run("historical best failed this run", func(t *testing.T) {
		engine := &execution.MockEngine{Fn: func(prompt string) models.ExecutionResult {
			if strings.Contains(prompt, "Here are some examples:") {
				return models.ExecutionResult{Response: "Answer: 42", Success: true,
					Metrics: models.Metrics{TotalTokens: 40, ElapsedTime: 2}}
			}
			return models.ExecutionResult{Success: false, ErrorMsg: "down"}
		}}
		store := &fakeStore{selection: models.HistorySelection{
			Success:       true,
			BestTechnique: models.TechniqueZeroShot,
		}}
		pipeline := NewPipeline(engine, WithStore(store))

		result := pipeline.Benchmark(context.Background(), models.Problem{Text: "What is 15 + 27?"})

		require.Equal(t, models.SelectionRuntime, result.SelectionSource)
		require.Equal(t, models.TechniqueFewShot, result.BestTechnique)
	})
}

func TestBenchmarkPersistsCompactRecord(t *testing.T) {
	engine := &execution.MockEngine{Fn: answering("The sum is 42. Answer: 42", "No idea")}
	store := &fakeStore{selection: models.HistorySelection{Success: false, Reason: models.HistoryReasonNoData}}
	pipeline := NewPipeline(engine, WithStore(store))

	result := pipeline.Benchmark(context.Background(), models.Problem{Text: "What is 15 + 27?"})

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	require.Equal(t, "general", saved.Domain, "missing subject falls back to general")
	require.Equal(t, result.BestResult.Prompt, saved.PromptUsed)
	require.Equal(t, result.BestResult.Response, saved.ModelResponse)
	require.Equal(t, result.BestResult.Scores.Overall, saved.PerformanceScore)
	require.Len(t, saved.Comparison, 2)
}

func TestBenchmarkSaveFailureIsNonFatal(t *testing.T) {
	engine := &execution.MockEngine{Fn: func(prompt string) models.ExecutionResult {
		return models.ExecutionResult{Success: false, ErrorMsg: "down"}
	}}
	store := &fakeStore{saveErr: context.DeadlineExceeded}
	pipeline := NewPipeline(engine, WithStore(store))

	result := pipeline.Benchmark(context.Background(), models.Problem{Text: "What is 15 + 27?"})

	require.False(t, result.Succeeded())
	require.NotNil(t, result.SelectionDetails)
	require.Equal(t, models.HistoryReasonWriteFailed, result.SelectionDetails.Reason)
}
