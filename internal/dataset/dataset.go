// Package dataset manages benchmark problems with ground-truth answers.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/promptbench/promptbench/internal/models"
	"github.com/promptbench/promptbench/internal/validation"
)

// Problem is one dataset entry. IDs are assigned on insertion and stay
// stable for the life of the set.
type Problem struct {
	ID       int    `json:"id"`
	Problem  string `json:"problem"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

// ToModel converts a dataset entry into the benchmark input shape.
func (p Problem) ToModel() models.Problem {
	m := models.Problem{Text: p.Problem, Subject: p.Category}
	if p.Answer != "" {
		answer := p.Answer
		m.GroundTruth = &answer
	}
	return m
}

// Set is a mutable collection of problems, safe for concurrent use.
type Set struct {
	mu       sync.RWMutex
	problems []Problem
	nextID   int
}

// New creates an empty set.
func New() *Set {
	return &Set{}
}

// Add appends a problem and returns it with its assigned ID. An empty
// category defaults to "general".
func (s *Set) Add(problem, answer, category string) Problem {
	if category == "" {
		category = "general"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := Problem{
		ID:       s.nextID,
		Problem:  problem,
		Answer:   answer,
		Category: category,
	}
	s.nextID++
	s.problems = append(s.problems, p)
	return p
}

// Problems returns a copy of all problems in insertion order.
func (s *Set) Problems() []Problem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Problem(nil), s.problems...)
}

// Get looks a problem up by ID.
func (s *Set) Get(id int) (Problem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.problems {
		if p.ID == id {
			return p, true
		}
	}
	return Problem{}, false
}

// Remove deletes a problem by ID. It reports whether the ID existed.
func (s *Set) Remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.problems {
		if p.ID == id {
			s.problems = append(s.problems[:i], s.problems[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of problems.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.problems)
}

// Categories returns the distinct categories present, sorted.
func (s *Set) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]bool{}
	for _, p := range s.problems {
		seen[p.Category] = true
	}
	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

// Save writes the set to a JSON file.
func (s *Set) Save(path string) error {
	s.mu.RLock()
	problems := append([]Problem(nil), s.problems...)
	s.mu.RUnlock()

	data, err := json.MarshalIndent(problems, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing dataset %s: %w", path, err)
	}
	return nil
}

// Load reads and schema-validates a JSON dataset file. IDs in the file are
// ignored; entries are renumbered in file order.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}

	if errs := validation.ValidateDatasetBytes(data); len(errs) > 0 {
		return nil, fmt.Errorf("invalid dataset %s:\n  %s", path, strings.Join(errs, "\n  "))
	}

	var problems []Problem
	if err := json.Unmarshal(data, &problems); err != nil {
		return nil, fmt.Errorf("decoding dataset %s: %w", path, err)
	}

	s := New()
	for _, p := range problems {
		s.Add(p.Problem, p.Answer, p.Category)
	}
	return s, nil
}

// Sample returns the built-in benchmark problems.
func Sample() *Set {
	s := New()

	s.Add("What is 15 + 27?", "42", "arithmetic")
	s.Add("Calculate 144 / 12", "12", "arithmetic")
	s.Add("What is 7 * 8?", "56", "arithmetic")

	s.Add("Solve for x: 2x + 5 = 15", "5", "algebra")
	s.Add("If 3x = 21, what is x?", "7", "algebra")
	// x^2 = 25 also has the root -5; only the positive root is credited
	// as a full match.
	s.Add("Solve: x^2 = 25", "5", "algebra")

	s.Add("A train travels 120 miles in 2 hours. What is its average speed in miles per hour?",
		"60", "word_problem")
	s.Add("If a pizza is cut into 8 slices and you eat 3, what fraction of the pizza remains?",
		"5/8", "word_problem")

	s.Add("What is the sum of the first 10 positive integers?", "55", "arithmetic")
	s.Add("A rectangle has length 8 and width 5. What is its area?", "40", "geometry")

	return s
}
