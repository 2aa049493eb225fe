package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccuracyScore(t *testing.T) {
	scorer := AccuracyScorer{}
	expected := func(s string) *string { return &s }

	t.Run("exact match", func(t *testing.T) {
		score := scorer.Score("The answer is 42", expected("42"), "")
		require.Equal(t, 1.0, score)
	})

	t.Run("fraction matches decimal", func(t *testing.T) {
		score := scorer.Score("The answer is 3/4", expected("0.75"), "")
		require.Equal(t, 1.0, score)
	})

	t.Run("symbolic equivalence", func(t *testing.T) {
		score := scorer.Score("Solution: 1 + x", expected("x+1"), "")
		require.Equal(t, 1.0, score)
	})

	t.Run("different expression no match", func(t *testing.T) {
		score := scorer.Score("x+1", expected("x+2"), "")
		require.Equal(t, 0.0, score)
	})

	t.Run("wrong number no match", func(t *testing.T) {
		score := scorer.Score("The answer is 45", expected("42"), "")
		require.Equal(t, 0.0, score)
	})

	t.Run("negative root is partial", func(t *testing.T) {
		// x^2 = 25 has two roots; a response giving only the
		// negative one earns partial credit against "5".
		score := scorer.Score("x = -5", expected("5"), "Solve: x^2 = 25")
		require.Equal(t, 0.5, score)
	})

	t.Run("derived ground truth", func(t *testing.T) {
		score := scorer.Score("Answer: 42", nil, "What is 15 + 27?")
		require.Equal(t, 1.0, score)
	})

	t.Run("empty response", func(t *testing.T) {
		score := scorer.Score("   ", expected("42"), "")
		require.Equal(t, 0.0, score)
	})

	t.Run("answer marker beats stray numbers", func(t *testing.T) {
		response := "Step 1: take 100 and divide by 4.\nAnswer: 25"
		score := scorer.Score(response, expected("25"), "")
		require.Equal(t, 1.0, score)
	})
}

func TestNumericMatchTolerance(t *testing.T) {
	t.Run("within tolerance", func(t *testing.T) {
		require.True(t, numericMatch("1.00009", "1"))
	})

	t.Run("at tolerance boundary", func(t *testing.T) {
		// The bound is strict: a difference of 1e-4 is not a match.
		require.False(t, numericMatch("1.0001", "1"))
	})

	t.Run("non-numeric sides", func(t *testing.T) {
		require.False(t, numericMatch("abc", "def"))
	})
}

func TestDeriveGroundTruth(t *testing.T) {
	cases := []struct {
		name    string
		problem string
		want    string
		ok      bool
	}{
		{"what is form", "What is 15 + 27?", "42", true},
		{"bare expression", "144 / 12 =", "12", true},
		{"whole result stays whole", "What is 20 * 5?", "100", true},
		{"prose question", "What is the capital of France?", "", false},
		{"equation not arithmetic", "Solve for x: 2x + 6 = 14", "", false},
		{"no operator", "What is 42?", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DeriveGroundTruth(tc.problem)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.Equal(t, tc.want, got)
			}
		})
	}
}

func TestHeuristicScore(t *testing.T) {
	scorer := AccuracyScorer{}

	t.Run("bare prose", func(t *testing.T) {
		score := scorer.Score("It depends on the context", nil, "Explain limits")
		require.Equal(t, 0.5, score)
	})

	t.Run("all signals", func(t *testing.T) {
		response := "We add the terms, therefore Answer: 42"
		score := scorer.Score(response, nil, "Explain limits")
		require.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("digits only", func(t *testing.T) {
		score := scorer.Score("roughly 100 units", nil, "Explain limits")
		require.InDelta(t, 0.7, score, 1e-9)
	})
}

func TestExtractCandidates(t *testing.T) {
	response := "Answer: 42\nSome working with 15 and 27.\nFinal line here 42"
	candidates := extractCandidates(response)

	require.Contains(t, candidates, "42")
	require.Contains(t, candidates, "15")
	require.Contains(t, candidates, "27")
	require.Contains(t, candidates, "Final line here 42")

	seen := map[string]int{}
	for _, c := range candidates {
		seen[c]++
		require.Equal(t, 1, seen[c], "candidate %q duplicated", c)
	}
}
