// Package wizard collects new dataset problems interactively.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Categories a problem can be filed under, matching the few-shot example
// pool subjects.
var Categories = []string{"general", "algebra", "calculus", "statistics"}

// ProblemSpec holds all fields collected during the interactive wizard.
type ProblemSpec struct {
	Problem  string
	Answer   string
	Category string
}

// ValidateProblem rejects specs without a problem statement or an answer.
func ValidateProblem(spec *ProblemSpec) error {
	if strings.TrimSpace(spec.Problem) == "" {
		return fmt.Errorf("problem statement is required")
	}
	if strings.TrimSpace(spec.Answer) == "" {
		return fmt.Errorf("answer is required")
	}
	return nil
}

// RunProblemWizard runs an interactive huh form to collect one dataset
// problem with its expected answer.
func RunProblemWizard(in io.Reader, out io.Writer) (*ProblemSpec, error) {
	var (
		problem  string
		answer   string
		category = Categories[0]
	)

	categoryOptions := make([]huh.Option[string], 0, len(Categories))
	for _, c := range Categories {
		categoryOptions = append(categoryOptions, huh.NewOption(c, c))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Problem").
				Description("The problem statement the model will be asked to solve").
				Placeholder("What is 15 + 27?").
				Value(&problem).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("problem statement is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Answer").
				Description("The expected answer, used as ground truth for scoring").
				Placeholder("42").
				Value(&answer).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("answer is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Category").
				Description("Controls which few-shot example pool is used").
				Options(categoryOptions...).
				Value(&category),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	spec := &ProblemSpec{
		Problem:  strings.TrimSpace(problem),
		Answer:   strings.TrimSpace(answer),
		Category: category,
	}
	if err := ValidateProblem(spec); err != nil {
		return nil, err
	}
	return spec, nil
}
