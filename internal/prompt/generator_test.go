package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/promptbench/promptbench/internal/models"
)

func TestZeroShot(t *testing.T) {
	g := NewGenerator()
	prompt := g.ZeroShot("  What is 15 + 27?  ")

	require.True(t, strings.HasSuffix(prompt, "What is 15 + 27?"))
	require.Contains(t, prompt, zeroShotInstruction)
}

func TestFewShotFormat(t *testing.T) {
	g := NewGenerator()
	prompt := g.FewShot("Solve for x: 2x + 5 = 13", "algebra", 2)

	require.True(t, strings.HasPrefix(prompt, "Here are some examples:\n\n"))
	require.Contains(t, prompt, "Now solve this problem:\nProblem: Solve for x: 2x + 5 = 13\nSolution:")
	require.True(t, strings.HasSuffix(prompt, "Solution:"))
	require.Equal(t, 3, strings.Count(prompt, "Problem: "), "two examples plus the target problem")
}

func TestFewShotDeterminism(t *testing.T) {
	g := NewGenerator()

	first := g.FewShot("Find the probability of rolling a 6 on a dice", "statistics", 2)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, g.FewShot("Find the probability of rolling a 6 on a dice", "statistics", 2))
	}
}

func TestFewShotNormalizationInvariance(t *testing.T) {
	g := NewGenerator()

	plain := g.selectExamples("Find the mean of 5, 10, 15", "statistics", 2)
	prefixed := g.selectExamples("Q: Find the mean of 5, 10, 15", "statistics", 2)
	trailing := g.selectExamples("Find the mean of 5, 10, 15\nA:", "statistics", 2)

	require.Equal(t, plain, prefixed)
	require.Equal(t, plain, trailing)
}

func TestFewShotConditionalProbabilityOverride(t *testing.T) {
	g := NewGenerator()

	examples := g.selectExamples(
		"What is the probability of drawing an ace given that the card is red?",
		"statistics", 2)

	require.Len(t, examples, 2)
	for _, ex := range examples {
		require.True(t, ex.ConditionalProbability, "expected a conditional-probability example, got %q", ex.Problem)
	}
}

func TestFewShotUnknownSubjectFallsBack(t *testing.T) {
	g := NewGenerator()
	prompt := g.FewShot("What is 12 + 8?", "geography", 1)

	require.Contains(t, prompt, "Here are some examples:")
	// The general pool holds simple arithmetic examples.
	require.Contains(t, prompt, "Solution: ")
}

func TestFewShotEmptyPoolDegradesToZeroShot(t *testing.T) {
	g := NewGenerator(WithPools(map[string][]models.ExampleRecord{}))
	prompt := g.FewShot("What is 12 + 8?", "algebra", 2)

	require.Equal(t, g.ZeroShot("What is 12 + 8?"), prompt)
}

func TestFewShotLowRelevanceUsesTopRanked(t *testing.T) {
	pools := map[string][]models.ExampleRecord{
		DefaultSubject: {
			{Problem: "Unrelated trivia one", Solution: "n/a"},
			{Problem: "Unrelated trivia two", Solution: "n/a"},
			{Problem: "Unrelated trivia three", Solution: "n/a"},
		},
	}
	g := NewGenerator(WithPools(pools))

	examples := g.selectExamples("completely different topic", DefaultSubject, 2)
	require.Len(t, examples, 2)
	// No example clears the relevance threshold, so selection is the raw
	// top-n: alphabetical within equal scores.
	require.Equal(t, "Unrelated trivia one", examples[0].Problem)
	require.Equal(t, "Unrelated trivia three", examples[1].Problem)
}

func TestDefaultExampleCount(t *testing.T) {
	require.Equal(t, 2, DefaultExampleCount("calculus"))
	require.Equal(t, 2, DefaultExampleCount("statistics"))
	require.Equal(t, 1, DefaultExampleCount("algebra"))
	require.Equal(t, 1, DefaultExampleCount("general"))
	require.Equal(t, 1, DefaultExampleCount(""))
}

func TestGenerate(t *testing.T) {
	g := NewGenerator()
	problem := models.Problem{Text: "Solve for x: 2x + 5 = 13", Subject: "algebra"}

	t.Run("zero shot", func(t *testing.T) {
		prompt, err := g.Generate(models.TechniqueZeroShot, problem)
		require.NoError(t, err)
		require.Equal(t, g.ZeroShot(problem.Text), prompt)
	})

	t.Run("few shot", func(t *testing.T) {
		prompt, err := g.Generate(models.TechniqueFewShot, problem)
		require.NoError(t, err)
		require.Contains(t, prompt, "Here are some examples:")
	})

	t.Run("unknown technique", func(t *testing.T) {
		_, err := g.Generate(models.Technique("chain_of_thought"), problem)
		require.Error(t, err)
	})
}

func TestNormalizeProblem(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Solve for x", "Solve for x"},
		{"leading marker", "Q: Solve for x", "Solve for x"},
		{"lowercase marker", "q: Solve for x", "Solve for x"},
		{"trailing answer line", "Solve for x\nA:", "Solve for x"},
		{"both", "Q: Solve for x\nA:", "Solve for x"},
		{"interior colon kept", "Solve: 2x = 10", "Solve: 2x = 10"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NormalizeProblem(tc.in))
		})
	}
}
