package scoring

import (
	"math"
	"strings"

	"github.com/promptbench/promptbench/internal/models"
)

// EfficiencyScorer grades resource usage: latency, token spend, and how
// concise the response is relative to a math answer's ideal length.
// The combination is 0.4·time + 0.3·tokens + 0.3·conciseness, rounded to
// three decimals.
type EfficiencyScorer struct{}

// Score returns an efficiency score in [0, 1].
func (EfficiencyScorer) Score(response string, metrics models.Metrics) float64 {
	overall := scoreTime(metrics.ElapsedTime)*0.4 +
		scoreTokens(metrics.TotalTokens, response)*0.3 +
		scoreConciseness(response)*0.3

	return Round3(overall)
}

// Round3 rounds to three decimal places, the precision every published
// score carries.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// scoreTime is piecewise in elapsed seconds. Missing data is neutral; a
// sub-second answer is suspicious rather than ideal.
func scoreTime(elapsed float64) float64 {
	switch {
	case elapsed == 0:
		return 0.5
	case elapsed < 1:
		return 0.6
	case elapsed <= 3:
		return 1.0
	case elapsed <= 8:
		return 0.9
	case elapsed <= 15:
		return 0.7
	case elapsed <= 30:
		return 0.5
	}
	return 0.3
}

// scoreTokens averages a step function on total token count with one on the
// tokens-per-word ratio.
func scoreTokens(totalTokens int, response string) float64 {
	if totalTokens == 0 {
		return 0.5
	}

	var countScore float64
	switch {
	case totalTokens <= 100:
		countScore = 1.0
	case totalTokens <= 300:
		countScore = 0.9
	case totalTokens <= 500:
		countScore = 0.7
	case totalTokens <= 1000:
		countScore = 0.5
	default:
		countScore = 0.3
	}

	ratioScore := 0.5
	if words := len(strings.Fields(response)); words > 0 {
		ratio := float64(totalTokens) / float64(words)
		switch {
		case ratio >= 1.0 && ratio <= 2.0:
			ratioScore = 1.0
		case ratio >= 0.8 && ratio <= 2.5:
			ratioScore = 0.8
		default:
			ratioScore = 0.6
		}
	}

	return (countScore + ratioScore) / 2
}

// scoreConciseness is piecewise on word count; 30-100 words is the sweet
// spot for a worked math answer.
func scoreConciseness(response string) float64 {
	words := len(strings.Fields(response))
	switch {
	case words >= 30 && words <= 100:
		return 1.0
	case words >= 20 && words < 30:
		return 0.9
	case words > 100 && words <= 150:
		return 0.9
	case words >= 10 && words < 20:
		return 0.7
	case words > 150 && words <= 250:
		return 0.7
	}
	return 0.5
}
