package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/promptbench/promptbench/internal/models"
)

// Generator renders a problem into a prompt for each supported technique.
// All selection is deterministic: the same problem, subject and pool always
// produce the same prompt, across runs and processes.
type Generator struct {
	pools map[string][]models.ExampleRecord
}

// Option configures a Generator.
type Option func(*Generator)

// WithPools replaces the compiled-in example pools.
func WithPools(pools map[string][]models.ExampleRecord) Option {
	return func(g *Generator) {
		g.pools = pools
	}
}

// NewGenerator creates a Generator backed by the compiled-in example pools
// unless overridden.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{pools: DefaultPools()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Techniques lists the prompt-construction strategies this generator
// supports, in execution order.
func (g *Generator) Techniques() []models.Technique {
	return []models.Technique{models.TechniqueZeroShot, models.TechniqueFewShot}
}

// Subjects lists the subjects with a compiled-in example pool, sorted.
func (g *Generator) Subjects() []string {
	subjects := make([]string, 0, len(g.pools))
	for subject := range g.pools {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	return subjects
}

// Generate renders the prompt for one technique.
func (g *Generator) Generate(technique models.Technique, problem models.Problem) (string, error) {
	switch technique {
	case models.TechniqueZeroShot:
		return g.ZeroShot(problem.Text), nil
	case models.TechniqueFewShot:
		return g.FewShot(problem.Text, problem.Subject, 0), nil
	default:
		return "", fmt.Errorf("unknown technique %q", technique)
	}
}

const zeroShotInstruction = "Solve the following problem step by step and be concise."

// ZeroShot renders the problem directly, behind a fixed instruction.
func (g *Generator) ZeroShot(problem string) string {
	return zeroShotInstruction + "\n\n" + strings.TrimSpace(problem)
}

// DefaultExampleCount returns how many examples a subject gets by default.
// Subjects with denser reasoning chains get two.
func DefaultExampleCount(subject string) int {
	switch subject {
	case "calculus", "statistics":
		return 2
	}
	return 1
}

// FewShot renders the problem behind numExamples worked examples selected
// from the subject's pool. numExamples <= 0 means the subject default. An
// empty pool degrades to the zero-shot prompt.
func (g *Generator) FewShot(problem, subject string, numExamples int) string {
	if numExamples <= 0 {
		numExamples = DefaultExampleCount(subject)
	}

	examples := g.selectExamples(problem, subject, numExamples)
	if len(examples) == 0 {
		return g.ZeroShot(problem)
	}

	var b strings.Builder
	b.WriteString("Here are some examples:\n\n")
	for _, ex := range examples {
		fmt.Fprintf(&b, "Problem: %s\nSolution: %s\n\n", ex.Problem, ex.Solution)
	}
	b.WriteString("Now solve this problem:\n")
	fmt.Fprintf(&b, "Problem: %s\nSolution:", strings.TrimSpace(problem))
	return b.String()
}

// candidateFactor widens the sampling window: n examples are drawn from the
// top 3n highly relevant ones.
const candidateFactor = 3

type rankedExample struct {
	example models.ExampleRecord
	score   float64
}

func (g *Generator) selectExamples(problem, subject string, n int) []models.ExampleRecord {
	pool, ok := g.pools[subject]
	if !ok || len(pool) == 0 {
		pool = g.pools[DefaultSubject]
	}
	if len(pool) == 0 {
		return nil
	}
	if n > len(pool) {
		n = len(pool)
	}

	normalized := NormalizeProblem(problem)

	// Conditional-probability problems prefer examples tagged for them,
	// bypassing relevance ranking when the pool has enough.
	if isConditionalProbability(normalized) {
		var tagged []models.ExampleRecord
		for _, ex := range pool {
			if ex.ConditionalProbability {
				tagged = append(tagged, ex)
			}
		}
		if len(tagged) >= n {
			return tagged[:n]
		}
	}

	keywords := extractKeywords(normalized)
	scored := make([]rankedExample, 0, len(pool))
	for _, ex := range pool {
		text := ex.Problem + " " + ex.Solution
		scored = append(scored, rankedExample{ex, relevance(keywords, normalized, text)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].example.Problem < scored[j].example.Problem
	})

	highly := 0
	for _, r := range scored {
		if r.score > highlyRelevant {
			highly++
		}
	}

	if highly >= n {
		limit := n * candidateFactor
		if limit > highly {
			limit = highly
		}
		candidates := append([]rankedExample(nil), scored[:limit]...)
		// Deterministic sample: keying the order on a hash of the
		// problem text gives each problem its own stable subset.
		sort.SliceStable(candidates, func(i, j int) bool {
			return sampleKey(normalized, candidates[i].example.Problem) <
				sampleKey(normalized, candidates[j].example.Problem)
		})
		out := make([]models.ExampleRecord, 0, n)
		for _, c := range candidates[:n] {
			out = append(out, c.example)
		}
		return out
	}

	out := make([]models.ExampleRecord, 0, n)
	for _, r := range scored[:n] {
		out = append(out, r.example)
	}
	return out
}

func sampleKey(problem, example string) uint64 {
	return xxhash.Sum64String(problem + "\x00" + example)
}

// NormalizeProblem strips a leading "Q:" marker and a trailing empty "A:"
// line so cosmetic formatting does not change example selection or the
// deterministic choices keyed on the problem text.
func NormalizeProblem(problem string) string {
	s := strings.TrimSpace(problem)
	if len(s) >= 2 && strings.EqualFold(s[:2], "q:") {
		s = strings.TrimSpace(s[2:])
	}
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		if last := strings.TrimSpace(s[i+1:]); strings.EqualFold(last, "a:") {
			s = strings.TrimSpace(s[:i])
		}
	}
	return s
}
