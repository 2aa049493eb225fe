package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile loads a dataset from JSON or CSV based on the file extension.
func LoadFile(path string) (*Set, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return LoadCSV(path)
	}
	return Load(path)
}

// LoadCSV reads problems from a CSV file into a Set. The first row must be
// a header naming at least "problem" and "answer" columns; a "category"
// column is optional. Header matching is case-insensitive.
func LoadCSV(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", path)
	}

	cols := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	problemCol, ok := cols["problem"]
	if !ok {
		return nil, fmt.Errorf("csv: %s has no %q column", path, "problem")
	}
	answerCol, ok := cols["answer"]
	if !ok {
		return nil, fmt.Errorf("csv: %s has no %q column", path, "answer")
	}
	categoryCol, hasCategory := cols["category"]

	set := New()
	for i, record := range records[1:] {
		problem := strings.TrimSpace(record[problemCol])
		answer := strings.TrimSpace(record[answerCol])
		if problem == "" {
			return nil, fmt.Errorf("csv: row %d has an empty problem", i+2)
		}
		category := ""
		if hasCategory {
			category = strings.TrimSpace(record[categoryCol])
		}
		set.Add(problem, answer, category)
	}
	return set, nil
}
