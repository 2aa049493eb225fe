package models

import "time"

// Technique identifies a prompt-construction strategy.
type Technique string

const (
	TechniqueZeroShot Technique = "zero_shot"
	TechniqueFewShot  Technique = "few_shot"
)

// SelectionSource records how the best technique was chosen.
type SelectionSource string

const (
	// SelectionRuntime means the greedy comparison of this run's scores decided.
	SelectionRuntime SelectionSource = "runtime_scores"
	// SelectionHistory means aggregate historical data overrode the runtime pick.
	SelectionHistory SelectionSource = "db_history"
)

// Problem is a single benchmark input.
type Problem struct {
	Text        string  `json:"problem" yaml:"problem"`
	GroundTruth *string `json:"ground_truth,omitempty" yaml:"answer,omitempty"`
	Subject     string  `json:"subject,omitempty" yaml:"subject,omitempty"`
}

// ExampleRecord is a worked problem/solution pair used for few-shot prompts.
// Pools of these are immutable at run time.
type ExampleRecord struct {
	Problem  string `json:"problem" yaml:"problem"`
	Solution string `json:"solution" yaml:"solution"`
	// ConditionalProbability tags examples eligible for the
	// conditional-probability selection override.
	ConditionalProbability bool `json:"conditional_probability,omitempty" yaml:"conditional_probability,omitempty"`
}

// Metrics holds usage and timing data reported by the model runtime.
// Durations are in seconds; token counts are raw counts from the runtime.
type Metrics struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	ElapsedTime      float64 `json:"elapsed_time"`
	LoadTime         float64 `json:"load_time,omitempty"`
	PromptEvalTime   float64 `json:"prompt_eval_time,omitempty"`
	EvalTime         float64 `json:"eval_time,omitempty"`
}

// ExecutionResult is what one technique's model call produced.
type ExecutionResult struct {
	Response string  `json:"response"`
	Model    string  `json:"model,omitempty"`
	Success  bool    `json:"success"`
	Metrics  Metrics `json:"metrics"`
	ErrorMsg string  `json:"error,omitempty"`
}

// ScoreSet holds the three sub-scores and their weighted combination,
// each in [0, 1] and rounded to 3 decimals.
type ScoreSet struct {
	Accuracy     float64 `json:"accuracy"`
	Completeness float64 `json:"completeness"`
	Efficiency   float64 `json:"efficiency"`
	Overall      float64 `json:"overall"`
}

// TechniqueResult is the full evaluation of one technique on one problem.
type TechniqueResult struct {
	Technique Technique `json:"technique"`
	Success   bool      `json:"success"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response,omitempty"`
	Metrics   Metrics   `json:"metrics"`
	Scores    ScoreSet  `json:"scores"`
	ErrorMsg  string    `json:"error,omitempty"`
}

// ComparisonRecord is a read-only projection of a successful technique's
// result, used for ranking.
type ComparisonRecord struct {
	Technique    Technique `json:"technique"`
	Accuracy     float64   `json:"accuracy"`
	Completeness float64   `json:"completeness"`
	Efficiency   float64   `json:"efficiency"`
	Overall      float64   `json:"overall"`
	Latency      float64   `json:"latency"`
	Tokens       int       `json:"tokens"`
}

// BenchmarkResult is the complete outcome of one benchmark invocation.
type BenchmarkResult struct {
	RunID            string                        `json:"run_id"`
	Problem          string                        `json:"problem"`
	GroundTruth      *string                       `json:"ground_truth"`
	Subject          string                        `json:"subject,omitempty"`
	Timestamp        time.Time                     `json:"timestamp"`
	Results          map[Technique]TechniqueResult `json:"all_results"`
	Comparison       []ComparisonRecord            `json:"comparison"`
	BestTechnique    Technique                     `json:"best_technique"`
	BestResult       *TechniqueResult              `json:"best_result"`
	Weights          Weights                       `json:"weights"`
	SelectionSource  SelectionSource               `json:"selection_source"`
	SelectionDetails *HistorySelection             `json:"selection_details,omitempty"`
}

// Succeeded reports whether at least one technique produced a usable result.
func (r *BenchmarkResult) Succeeded() bool {
	return r.BestResult != nil && r.BestResult.Success
}

// StoredResult is the compact record handed to the persistence boundary.
type StoredResult struct {
	Domain           string             `json:"domain"`
	PromptUsed       string             `json:"prompt_used"`
	ModelResponse    string             `json:"model_response"`
	PerformanceScore float64            `json:"performance_score"`
	Comparison       []ComparisonRecord `json:"technique_comparison"`
}

// NewStoredResult projects a BenchmarkResult down to the persisted shape.
// The domain falls back to "general" when the problem carried no subject.
func NewStoredResult(r *BenchmarkResult) StoredResult {
	domain := r.Subject
	if domain == "" {
		domain = "general"
	}
	sr := StoredResult{
		Domain:     domain,
		Comparison: r.Comparison,
	}
	if r.BestResult != nil {
		sr.PromptUsed = r.BestResult.Prompt
		sr.ModelResponse = r.BestResult.Response
		sr.PerformanceScore = r.BestResult.Scores.Overall
	}
	return sr
}

// TechniqueRank is one row of a historical ranking.
type TechniqueRank struct {
	Technique      Technique `json:"technique"`
	AverageOverall float64   `json:"average_overall"`
	Samples        int       `json:"samples"`
	// CI95 is a bootstrap confidence interval over the sampled overall
	// scores, populated when at least two samples exist.
	CI95Lo *float64 `json:"ci95_lo,omitempty"`
	CI95Hi *float64 `json:"ci95_hi,omitempty"`
}

// HistorySelection is the historical selector's answer for a domain.
type HistorySelection struct {
	Success       bool            `json:"success"`
	Domain        string          `json:"domain,omitempty"`
	BestTechnique Technique       `json:"best_technique,omitempty"`
	Ranking       []TechniqueRank `json:"ranking,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	ErrorMsg      string          `json:"error,omitempty"`
}

// History selection failure reasons.
const (
	HistoryReasonNoData         = "no_data"
	HistoryReasonDisabled       = "disabled"
	HistoryReasonNotInitialized = "not_initialized"
	HistoryReasonQueryFailed    = "query_failed"
	HistoryReasonWriteFailed    = "write_failed"
)
