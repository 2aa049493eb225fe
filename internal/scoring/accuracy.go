package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

// AccuracyScorer grades a response against a ground-truth answer using a
// ladder of matching strategies: exact string match, numeric comparison,
// then symbolic equivalence. When no ground truth exists it either derives
// one from a pure-arithmetic problem or falls back to a heuristic quality
// score.
type AccuracyScorer struct{}

// numericTolerance is the strict upper bound on the difference between two
// numbers that still count as equal.
const numericTolerance = 1e-4

var (
	answerMarkerRe = regexp.MustCompile(`(?i)(?:answer|result|solution)\s*[:\-=]\s*([^\n]+)`)
	numberTokenRe  = regexp.MustCompile(`-?\d+\.?\d*(?:/\d+)?`)
	plainNumberRe  = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	digitRe        = regexp.MustCompile(`\d`)
	answerHintRe   = regexp.MustCompile(`(?i)(?:answer|result|solution)\s*[:\-=]`)
	fillerWordRe   = regexp.MustCompile(`(?i)\b(is|equals|the|answer)\b`)
	mathExprRe     = regexp.MustCompile(`[-+*/().\d\s^x]+`)

	whatIsRe   = regexp.MustCompile(`(?i)^\s*what\s+is\s+([0-9\s.+\-*/^()]+?)\s*\??\s*$`)
	bareExprRe = regexp.MustCompile(`^\s*([0-9\s.+\-*/^()]+)\s*[=?]\s*$`)
	operatorRe = regexp.MustCompile(`[+\-*/^]`)
)

// Score returns 1.0 for a full match, 0.5 for a partial match and 0.0 for
// none. expected may be nil; problem provides context for auto-deriving a
// missing ground truth.
func (AccuracyScorer) Score(response string, expected *string, problem string) float64 {
	if strings.TrimSpace(response) == "" {
		return 0.0
	}

	expectedStr := ""
	if expected != nil {
		expectedStr = strings.TrimSpace(*expected)
	}
	if expectedStr == "" && problem != "" {
		if derived, ok := DeriveGroundTruth(problem); ok {
			expectedStr = derived
		}
	}
	if expectedStr == "" {
		return heuristicScore(response)
	}

	candidates := extractCandidates(response)

	for _, candidate := range candidates {
		if exactMatch(candidate, expectedStr) ||
			numericMatch(candidate, expectedStr) ||
			symbolicMatch(candidate, expectedStr) {
			return 1.0
		}
	}

	for _, candidate := range candidates {
		if partialMatch(candidate, expectedStr) {
			return 0.5
		}
	}

	return 0.0
}

// DeriveGroundTruth evaluates a pure-arithmetic problem ("What is 15 + 27?"
// or a bare expression ending in "=" or "?") into its answer. Whole-number
// results render without a decimal point.
func DeriveGroundTruth(problem string) (string, bool) {
	var expr string
	if m := whatIsRe.FindStringSubmatch(problem); m != nil {
		expr = m[1]
	} else if m := bareExprRe.FindStringSubmatch(strings.TrimSpace(problem)); m != nil {
		expr = m[1]
	} else {
		return "", false
	}

	// Require at least one digit and one operator so prose like
	// "what is x" never evaluates.
	if !digitRe.MatchString(expr) || !operatorRe.MatchString(expr) {
		return "", false
	}
	return evaluateArithmetic(expr)
}

// extractCandidates pulls potential answers out of a response: text after
// answer markers, every numeric token, and the last non-blank line.
// Duplicates are removed, order preserved.
func extractCandidates(response string) []string {
	var candidates []string

	for _, m := range answerMarkerRe.FindAllStringSubmatch(response, -1) {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}

	candidates = append(candidates, numberTokenRe.FindAllString(response, -1)...)

	lines := strings.Split(response, "\n")
	for j := len(lines) - 1; j >= 0; j-- {
		if line := strings.TrimSpace(lines[j]); line != "" {
			candidates = append(candidates, line)
			break
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	unique := candidates[:0]
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}

func exactMatch(candidate, expected string) bool {
	return strings.EqualFold(strings.TrimSpace(candidate), strings.TrimSpace(expected))
}

// numericMatch compares the first numeric token on each side. The tolerance
// is strict: a difference of exactly 1e-4 does not match.
func numericMatch(candidate, expected string) bool {
	cTok := plainNumberRe.FindString(candidate)
	eTok := plainNumberRe.FindString(expected)
	if cTok == "" || eTok == "" {
		return false
	}
	cVal, err1 := strconv.ParseFloat(cTok, 64)
	eVal, err2 := strconv.ParseFloat(eTok, 64)
	if err1 != nil || err2 != nil {
		return false
	}
	diff := cVal - eVal
	if diff < 0 {
		diff = -diff
	}
	return diff < numericTolerance
}

// symbolicMatch strips filler words, extracts the mathematical substring of
// each side and tests algebraic equivalence. Anything unparseable is a
// non-match.
func symbolicMatch(candidate, expected string) bool {
	c := cleanForAlgebra(candidate)
	e := cleanForAlgebra(expected)
	if c == "" || e == "" {
		return false
	}
	return equivalentExpressions(c, e)
}

func cleanForAlgebra(text string) string {
	text = fillerWordRe.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")
	if m := mathExprRe.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	return strings.TrimSpace(text)
}

func partialMatch(candidate, expected string) bool {
	c := strings.ToLower(candidate)
	e := strings.ToLower(expected)
	return strings.Contains(c, e) || strings.Contains(e, c)
}

// heuristicScore estimates answer quality when no ground truth is available.
func heuristicScore(response string) float64 {
	score := 0.5
	if digitRe.MatchString(response) {
		score += 0.2
	}
	lower := strings.ToLower(response)
	for _, word := range []string{"therefore", "because", "thus", "so"} {
		if strings.Contains(lower, word) {
			score += 0.1
			break
		}
	}
	if answerHintRe.MatchString(response) {
		score += 0.2
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
