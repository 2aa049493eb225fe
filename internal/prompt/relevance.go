package prompt

import "strings"

// Relevance ranks pool examples against a problem with a fixed vocabulary:
// no tokenization beyond substring membership. The score is a weighted sum
// of shared subject keywords, a bonus for sharing an operation word, and a
// bonus for mentioning the same concrete object, capped at 1.0.

const (
	keywordWeight  = 0.7
	operationBonus = 0.2
	objectBonus    = 0.15

	// highlyRelevant is the cut above which an example qualifies for the
	// sampled-selection path.
	highlyRelevant = 0.4
)

var subjectKeywords = []string{
	"solve", "equation", "variable", "factor", "simplify", "expand",
	"polynomial", "derivative", "integral", "limit", "differentiate",
	"mean", "median", "mode", "average", "variance", "deviation",
	"probability", "percent", "fraction", "divide", "multiply",
	"add", "subtract", "sum",
}

var operationWords = []string{
	"solve", "factor", "simplify", "derivative", "integral", "limit",
	"mean", "median", "probability", "calculate", "evaluate", "find",
}

var concreteObjects = []string{
	"dice", "die", "coin", "card", "deck", "bag", "marble", "ball", "spinner",
}

// extractKeywords returns the fixed-vocabulary keywords present in text.
func extractKeywords(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range subjectKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}

// relevance scores one example against the problem's keyword set.
func relevance(problemKeywords []string, problem string, example string) float64 {
	exLower := strings.ToLower(example)
	probLower := strings.ToLower(problem)

	score := 0.0
	if len(problemKeywords) > 0 {
		shared := 0
		for _, kw := range problemKeywords {
			if strings.Contains(exLower, kw) {
				shared++
			}
		}
		score += keywordWeight * float64(shared) / float64(len(problemKeywords))
	}

	if sharesAny(probLower, exLower, operationWords) {
		score += operationBonus
	}
	if sharesAny(probLower, exLower, concreteObjects) {
		score += objectBonus
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// sharesAny reports whether a and b both contain at least one common word
// from vocab.
func sharesAny(a, b string, vocab []string) bool {
	for _, w := range vocab {
		if strings.Contains(a, w) && strings.Contains(b, w) {
			return true
		}
	}
	return false
}

var probabilityMarkers = []string{"probability", "p("}

var conditionalMarkers = []string{"given that", "given ", "|", "conditional"}

// isConditionalProbability detects conditional-probability phrasing: a
// probability marker plus a conditioning marker.
func isConditionalProbability(problem string) bool {
	lower := strings.ToLower(problem)
	return containsAny(lower, probabilityMarkers) && containsAny(lower, conditionalMarkers)
}

func containsAny(s string, vocab []string) bool {
	for _, w := range vocab {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
