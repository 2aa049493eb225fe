package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptbench/promptbench/internal/models"
)

// newFakeOllama serves the two endpoints the engine talks to, answering
// every prompt with the given response text.
func newFakeOllama(t *testing.T, response string, generateStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"models":[{"name":"llama3"}]}`)) //nolint:errcheck
	})
	mux.HandleFunc("POST /api/generate", func(w http.ResponseWriter, _ *http.Request) {
		if generateStatus != http.StatusOK {
			http.Error(w, "boom", generateStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"response":             response,
			"prompt_eval_count":    30,
			"eval_count":           50,
			"eval_duration":        2_000_000_000,
			"prompt_eval_duration": 100_000_000,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommandInlineProblem(t *testing.T) {
	srv := newFakeOllama(t, "15 + 27 = 42. Answer: 42", http.StatusOK)
	outputPath := filepath.Join(t.TempDir(), "result.json")

	out, err := runCLI(t, "run", "What is 15 + 27?",
		"--answer", "42",
		"--subject", "general",
		"--base-url", srv.URL,
		"--no-history",
		"-o", outputPath)

	require.NoError(t, err)
	assert.Contains(t, out, "Problem: What is 15 + 27?")
	assert.Contains(t, out, "Best technique:")
	assert.Contains(t, out, "Results saved to:")

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	var result models.BenchmarkResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.True(t, result.Succeeded())
	require.Equal(t, 1.0, result.BestResult.Scores.Accuracy)
}

func TestRunCommandDatasetProblemByID(t *testing.T) {
	srv := newFakeOllama(t, "Answer: 42", http.StatusOK)

	out, err := runCLI(t, "run", "--id", "0", "--base-url", srv.URL, "--no-history")

	require.NoError(t, err)
	assert.Contains(t, out, "Problem: What is 15 + 27?")
	assert.Contains(t, out, "Expected: 42")
}

func TestRunCommandUnknownDatasetID(t *testing.T) {
	srv := newFakeOllama(t, "Answer: 42", http.StatusOK)

	_, err := runCLI(t, "run", "--id", "99", "--base-url", srv.URL, "--no-history")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "problem 99 not found")
}

func TestRunCommandRequiresInput(t *testing.T) {
	_, err := runCLI(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provide a problem")
}

func TestRunCommandRejectsConflictingModes(t *testing.T) {
	_, err := runCLI(t, "run", "2 + 2", "--all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be combined")
}

func TestRunCommandBenchmarkFailureExitsDistinctly(t *testing.T) {
	srv := newFakeOllama(t, "", http.StatusInternalServerError)

	_, err := runCLI(t, "run", "2 + 2", "--base-url", srv.URL, "--no-history")

	require.Error(t, err)
	var benchErr *BenchmarkFailureError
	require.True(t, errors.As(err, &benchErr))
}

func TestRunCommandUnreachableRuntimeIsConfigError(t *testing.T) {
	srv := newFakeOllama(t, "", http.StatusOK)
	srv.Close()

	_, err := runCLI(t, "run", "2 + 2", "--base-url", srv.URL, "--no-history")

	require.Error(t, err)
	var benchErr *BenchmarkFailureError
	require.False(t, errors.As(err, &benchErr))
	assert.Contains(t, err.Error(), "connecting to model runtime")
}

func TestNewCommandAppendsToDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")

	out, err := runCLI(t, "new",
		"--dataset", path,
		"--problem", "What is 6 * 7?",
		"--answer", "42",
		"--category", "general")

	require.NoError(t, err)
	assert.Contains(t, out, "Added problem 0")

	out, err = runCLI(t, "new",
		"--dataset", path,
		"--problem", "What is 9 * 9?",
		"--answer", "81")
	require.NoError(t, err)
	assert.Contains(t, out, "Added problem 1")
	assert.Contains(t, out, "(2 total)")
}

func TestNewCommandRejectsMissingAnswer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")

	_, err := runCLI(t, "new", "--dataset", path, "--problem", "What is 6 * 7?")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer is required")
}

func TestModelsCommand(t *testing.T) {
	srv := newFakeOllama(t, "", http.StatusOK)

	out, err := runCLI(t, "models", "--base-url", srv.URL)

	require.NoError(t, err)
	assert.Contains(t, out, "llama3")
}
