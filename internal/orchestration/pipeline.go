// Package orchestration runs the benchmark pipeline: one prompt per
// technique, concurrent execution, scoring, and deterministic selection of
// the best technique.
package orchestration

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/promptbench/promptbench/internal/execution"
	"github.com/promptbench/promptbench/internal/history"
	"github.com/promptbench/promptbench/internal/models"
	"github.com/promptbench/promptbench/internal/prompt"
	"github.com/promptbench/promptbench/internal/scoring"
)

// Pipeline owns the full benchmark flow. Weights are the only mutable state
// and are guarded; everything else is read-only after construction, so
// concurrent Benchmark calls are safe.
type Pipeline struct {
	generator *prompt.Generator
	engine    execution.Engine
	store     history.Store
	logger    *slog.Logger

	// useHistory enables the post-hoc history-based selection override.
	useHistory bool

	mu      sync.RWMutex
	weights models.Weights

	accuracy     scoring.AccuracyScorer
	completeness scoring.CompletenessScorer
	efficiency   scoring.EfficiencyScorer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithGenerator replaces the default prompt generator.
func WithGenerator(g *prompt.Generator) Option {
	return func(p *Pipeline) {
		p.generator = g
	}
}

// WithStore attaches a history store and enables history-based selection.
func WithStore(s history.Store) Option {
	return func(p *Pipeline) {
		p.store = s
		p.useHistory = true
	}
}

// WithWeights sets the initial scoring weights. They are normalized on the
// way in, like every other weight mutation.
func WithWeights(w models.Weights) Option {
	return func(p *Pipeline) {
		p.weights = w.Normalize()
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates a Pipeline around the given engine. History-based
// selection is off until a store is attached.
func NewPipeline(engine execution.Engine, opts ...Option) *Pipeline {
	p := &Pipeline{
		generator: prompt.NewGenerator(),
		engine:    engine,
		store:     history.NopStore{},
		logger:    slog.Default(),
		weights:   models.DefaultWeights(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Techniques lists the techniques a benchmark will exercise.
func (p *Pipeline) Techniques() []models.Technique {
	return p.generator.Techniques()
}

// Subjects lists the subjects the few-shot generator has example pools for.
func (p *Pipeline) Subjects() []string {
	return p.generator.Subjects()
}

// Model reports the engine's model name.
func (p *Pipeline) Model() string {
	return p.engine.Model()
}

// Ping verifies the model runtime is reachable.
func (p *Pipeline) Ping(ctx context.Context) error {
	return p.engine.Initialize(ctx)
}

// Weights returns the current scoring weights.
func (p *Pipeline) Weights() models.Weights {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.weights
}

// SetWeights applies a partial update and renormalizes so the weights
// always sum to 1.
func (p *Pipeline) SetWeights(update models.WeightsUpdate) models.Weights {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.weights = p.weights.Apply(update)
	return p.weights
}

// Benchmark runs every technique against the problem and selects a winner.
// Individual technique failures are isolated into their own results; the
// only benchmark-level failure mode is every technique failing, visible via
// Succeeded on the result.
func (p *Pipeline) Benchmark(ctx context.Context, problem models.Problem) *models.BenchmarkResult {
	weights := p.Weights()

	techniques := p.generator.Techniques()
	sort.Slice(techniques, func(i, j int) bool { return techniques[i] < techniques[j] })

	prompts := make([]string, len(techniques))
	for i, tech := range techniques {
		text, err := p.generator.Generate(tech, problem)
		if err != nil {
			// Unreachable for generator-listed techniques; degrade
			// to the bare problem text.
			p.logger.Warn("prompt generation failed", "technique", tech, "error", err)
			text = problem.Text
		}
		prompts[i] = text
	}

	// One task per technique, each writing its own slot. The group is a
	// pure barrier: worker failures live inside the results, and no
	// sibling is canceled by a slow or failing peer.
	executions := make([]models.ExecutionResult, len(techniques))
	var g errgroup.Group
	for i := range techniques {
		g.Go(func() error {
			executions[i] = p.engine.Execute(ctx, prompts[i])
			return nil
		})
	}
	g.Wait()

	results := make(map[models.Technique]models.TechniqueResult, len(techniques))
	for i, tech := range techniques {
		results[tech] = p.scoreTechnique(tech, problem, prompts[i], executions[i], weights)
	}

	best := p.selectBest(problem.Text, techniques, results)

	result := &models.BenchmarkResult{
		RunID:           uuid.NewString(),
		Problem:         problem.Text,
		GroundTruth:     problem.GroundTruth,
		Subject:         problem.Subject,
		Timestamp:       time.Now().UTC(),
		Results:         results,
		Comparison:      buildComparison(techniques, results),
		BestTechnique:   best,
		Weights:         weights,
		SelectionSource: models.SelectionRuntime,
	}
	bestResult := results[best]
	result.BestResult = &bestResult

	p.applyHistorySelection(ctx, result)
	p.persist(ctx, result)

	return result
}

// scoreTechnique turns one execution into a scored technique result. Failed
// executions keep zero scores and the error message.
func (p *Pipeline) scoreTechnique(tech models.Technique, problem models.Problem, promptText string, exec models.ExecutionResult, weights models.Weights) models.TechniqueResult {
	result := models.TechniqueResult{
		Technique: tech,
		Success:   exec.Success,
		Prompt:    promptText,
		Response:  exec.Response,
		Metrics:   exec.Metrics,
		ErrorMsg:  exec.ErrorMsg,
	}
	if !exec.Success {
		p.logger.Warn("technique execution failed", "technique", tech, "error", exec.ErrorMsg)
		return result
	}

	scores := models.ScoreSet{
		Accuracy:     scoring.Round3(p.accuracy.Score(exec.Response, problem.GroundTruth, problem.Text)),
		Completeness: scoring.Round3(p.completeness.Score(exec.Response, problem.Text)),
		Efficiency:   p.efficiency.Score(exec.Response, exec.Metrics),
	}
	scores.Overall = scoring.Round3(weights.Overall(scores))
	result.Scores = scores
	return result
}

// selectBest applies the greedy rule: walk techniques in lexicographic
// order, keep the higher overall, and break exact ties with a deterministic
// content hash so the same problem always selects the same technique. Only
// successful techniques compete; a failed technique can win only when every
// technique failed.
func (p *Pipeline) selectBest(problemText string, techniques []models.Technique, results map[models.Technique]models.TechniqueResult) models.Technique {
	eligible := make([]models.Technique, 0, len(techniques))
	for _, tech := range techniques {
		if results[tech].Success {
			eligible = append(eligible, tech)
		}
	}
	if len(eligible) == 0 {
		eligible = techniques
	}

	best := eligible[0]
	bestScore := results[best].Scores.Overall
	bestHash := selectionHash(problemText, best)

	for _, tech := range eligible[1:] {
		score := results[tech].Scores.Overall
		hash := selectionHash(problemText, tech)
		if score > bestScore || (score == bestScore && hash > bestHash) {
			best, bestScore, bestHash = tech, score, hash
		}
	}
	return best
}

// selectionHash is the versioned tie-break hash. It must stay stable across
// processes; changing it changes which technique wins exact ties. Hashing
// the normalized problem text keeps the tie-break aligned with example
// selection, so cosmetic reformatting never changes the winner.
func selectionHash(problemText string, tech models.Technique) uint64 {
	return xxhash.Sum64String(prompt.NormalizeProblem(problemText) + "\x00" + string(tech))
}

// buildComparison projects the successful techniques into the ranking
// table, sorted by overall descending. The sort is stable so equal scores
// keep lexicographic technique order.
func buildComparison(techniques []models.Technique, results map[models.Technique]models.TechniqueResult) []models.ComparisonRecord {
	comparison := make([]models.ComparisonRecord, 0, len(techniques))
	for _, tech := range techniques {
		r := results[tech]
		if !r.Success {
			continue
		}
		comparison = append(comparison, models.ComparisonRecord{
			Technique:    tech,
			Accuracy:     r.Scores.Accuracy,
			Completeness: r.Scores.Completeness,
			Efficiency:   r.Scores.Efficiency,
			Overall:      r.Scores.Overall,
			Latency:      r.Metrics.ElapsedTime,
			Tokens:       r.Metrics.TotalTokens,
		})
	}
	sort.SliceStable(comparison, func(i, j int) bool {
		return comparison[i].Overall > comparison[j].Overall
	})
	return comparison
}

// applyHistorySelection asks the history store to override the runtime
// selection with the historically best technique for the domain, restricted
// to the techniques that succeeded in this run. Any store failure keeps the
// runtime selection and records why.
func (p *Pipeline) applyHistorySelection(ctx context.Context, result *models.BenchmarkResult) {
	if !p.useHistory {
		return
	}

	var succeeded []models.Technique
	for tech, r := range result.Results {
		if r.Success {
			succeeded = append(succeeded, tech)
		}
	}
	if len(succeeded) == 0 {
		return
	}

	domain := result.Subject
	if domain == "" {
		domain = "general"
	}

	selection := p.store.BestTechniqueForDomain(ctx, domain, succeeded)
	result.SelectionDetails = &selection
	if !selection.Success {
		p.logger.Debug("history selection unavailable", "domain", domain, "reason", selection.Reason)
		return
	}

	if r, ok := result.Results[selection.BestTechnique]; ok && r.Success {
		result.BestTechnique = selection.BestTechnique
		result.BestResult = &r
		result.SelectionSource = models.SelectionHistory
	}
}

// persist writes the compact record. Failures are logged and recorded but
// never fail the benchmark.
func (p *Pipeline) persist(ctx context.Context, result *models.BenchmarkResult) {
	if err := p.store.SaveResult(ctx, models.NewStoredResult(result)); err != nil {
		p.logger.Warn("saving benchmark result failed", "error", err)
		if result.SelectionDetails == nil {
			result.SelectionDetails = &models.HistorySelection{
				Success:  false,
				Reason:   models.HistoryReasonWriteFailed,
				ErrorMsg: err.Error(),
			}
		}
	}
}
