package scoring

import (
	"regexp"
	"strings"
)

// CompletenessScorer grades how thoroughly a response works the problem:
// length, step-by-step structure, organization, and explanation quality.
// Each component is independently capped; the total is capped at 1.0.
type CompletenessScorer struct{}

var (
	numberedStepRe = regexp.MustCompile(`(?i)\b(?:step\s+)?\d+[.):]`)
	sequentialRe   = regexp.MustCompile(`(?i)\b(?:first|second|third|next|then|finally)\b`)
	bulletRe       = regexp.MustCompile(`(?m)^\s*[-*•]\s`)
	answerLineRe   = regexp.MustCompile(`(?i)(?:answer|result|solution|final|therefore)\s*[:\-=]`)
)

var conclusionWords = []string{"therefore", "thus", "hence", "so", "conclusion", "finally"}

var reasoningPhrases = []string{
	"because", "since", "as", "when", "where", "why",
	"this means", "which gives", "we get", "we can",
}

var operationWords = []string{
	"add", "subtract", "multiply", "divide", "calculate",
	"compute", "solve", "equals", "simplify",
}

// Score returns a completeness score in [0, 1]. problem is accepted for
// interface symmetry with the other scorers but does not affect the result.
func (CompletenessScorer) Score(response, problem string) float64 {
	if strings.TrimSpace(response) == "" {
		return 0.0
	}

	score := scoreLength(response) +
		scoreSteps(response) +
		scoreStructure(response) +
		scoreExplanation(response)

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// scoreLength is a step function of word count, up to 0.25.
func scoreLength(response string) float64 {
	words := len(strings.Fields(response))
	switch {
	case words >= 100:
		return 0.25
	case words >= 50:
		return 0.20
	case words >= 30:
		return 0.15
	case words >= 15:
		return 0.10
	case words >= 5:
		return 0.05
	}
	return 0.0
}

// scoreSteps rewards step-by-step reasoning markers, up to 0.30.
func scoreSteps(response string) float64 {
	count := len(numberedStepRe.FindAllString(response, -1)) +
		len(sequentialRe.FindAllString(response, -1)) +
		len(bulletRe.FindAllString(response, -1))

	switch {
	case count >= 5:
		return 0.30
	case count >= 3:
		return 0.20
	case count >= 1:
		return 0.10
	}
	return 0.0
}

// scoreStructure rewards paragraphs, an explicit answer line and a
// conclusion word, up to 0.25.
func scoreStructure(response string) float64 {
	score := 0.0

	paragraphs := 0
	for _, p := range strings.Split(response, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}
	nonBlankLines := 0
	for _, l := range strings.Split(response, "\n") {
		if strings.TrimSpace(l) != "" {
			nonBlankLines++
		}
	}

	if paragraphs >= 3 || nonBlankLines >= 5 {
		score += 0.10
	} else if paragraphs >= 2 || nonBlankLines >= 3 {
		score += 0.05
	}

	if answerLineRe.MatchString(response) {
		score += 0.10
	}

	lower := strings.ToLower(response)
	for _, word := range conclusionWords {
		if strings.Contains(lower, word) {
			score += 0.05
			break
		}
	}

	if score > 0.25 {
		score = 0.25
	}
	return score
}

// scoreExplanation rewards reasoning connectives and named mathematical
// operations, up to 0.20.
func scoreExplanation(response string) float64 {
	lower := strings.ToLower(response)
	score := 0.0

	reasoning := 0
	for _, phrase := range reasoningPhrases {
		if strings.Contains(lower, phrase) {
			reasoning++
		}
	}
	if reasoning >= 3 {
		score += 0.10
	} else if reasoning >= 1 {
		score += 0.05
	}

	operations := 0
	for _, word := range operationWords {
		if strings.Contains(lower, word) {
			operations++
		}
	}
	if operations >= 2 {
		score += 0.10
	} else if operations >= 1 {
		score += 0.05
	}

	if score > 0.20 {
		score = 0.20
	}
	return score
}
