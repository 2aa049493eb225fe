package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/promptbench/promptbench/internal/models"
)

// Generation defaults. Temperature zero and a fixed seed keep repeated runs
// on identical prompts reproducible; num_predict and num_ctx bound the work
// the model may do.
const (
	defaultBaseURL    = "http://localhost:11434"
	defaultTimeout    = 5 * time.Minute
	defaultSeed       = 42
	defaultNumPredict = 512
	defaultNumCtx     = 4096
)

var _ Engine = (*OllamaEngine)(nil)

// OllamaEngine drives a local Ollama server over its HTTP API.
type OllamaEngine struct {
	client  *http.Client
	baseURL string
	model   string
	logger  *slog.Logger
	opts    generationOptions
}

type generationOptions struct {
	Temperature float64 `json:"temperature"`
	Seed        int     `json:"seed"`
	NumPredict  int     `json:"num_predict"`
	NumCtx      int     `json:"num_ctx"`
}

// OllamaOption configures an OllamaEngine.
type OllamaOption func(*OllamaEngine)

// WithBaseURL points the engine at a non-default Ollama server.
func WithBaseURL(baseURL string) OllamaOption {
	return func(e *OllamaEngine) {
		e.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) OllamaOption {
	return func(e *OllamaEngine) {
		e.client = client
	}
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) OllamaOption {
	return func(e *OllamaEngine) {
		e.client.Timeout = d
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) OllamaOption {
	return func(e *OllamaEngine) {
		e.logger = logger
	}
}

// WithMaxTokens bounds the completion length.
func WithMaxTokens(n int) OllamaOption {
	return func(e *OllamaEngine) {
		e.opts.NumPredict = n
	}
}

// NewOllamaEngine creates an engine for the named model.
func NewOllamaEngine(model string, opts ...OllamaOption) *OllamaEngine {
	e := &OllamaEngine{
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: defaultBaseURL,
		model:   model,
		logger:  slog.Default(),
		opts: generationOptions{
			Temperature: 0,
			Seed:        defaultSeed,
			NumPredict:  defaultNumPredict,
			NumCtx:      defaultNumCtx,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model returns the model name this engine drives.
func (e *OllamaEngine) Model() string {
	return e.model
}

// Initialize verifies the Ollama server is reachable.
func (e *OllamaEngine) Initialize(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("creating connection check request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to ollama at %s: %w", e.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama at %s returned status %d", e.baseURL, resp.StatusCode)
	}
	return nil
}

// Shutdown releases idle connections.
func (e *OllamaEngine) Shutdown(ctx context.Context) error {
	e.client.CloseIdleConnections()
	return nil
}

type generateRequest struct {
	Model   string            `json:"model"`
	Prompt  string            `json:"prompt"`
	Stream  bool              `json:"stream"`
	Options generationOptions `json:"options"`
}

type generateResponse struct {
	Response           string `json:"response"`
	PromptEvalCount    int    `json:"prompt_eval_count"`
	EvalCount          int    `json:"eval_count"`
	LoadDuration       int64  `json:"load_duration"`
	PromptEvalDuration int64  `json:"prompt_eval_duration"`
	EvalDuration       int64  `json:"eval_duration"`
}

// Execute runs one prompt through /api/generate without streaming.
func (e *OllamaEngine) Execute(ctx context.Context, prompt string) models.ExecutionResult {
	start := time.Now()

	payload := generateRequest{
		Model:   e.model,
		Prompt:  prompt,
		Stream:  false,
		Options: e.opts,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return e.failure(fmt.Sprintf("marshaling request: %v", err), start)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return e.failure(fmt.Sprintf("creating request: %v", err), start)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Error("ollama call failed", "model", e.model, "error", err)
		return e.failure(err.Error(), start)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return e.failure(fmt.Sprintf("reading response: %v", err), start)
	}

	if resp.StatusCode != http.StatusOK {
		return e.failure(classifyHTTPError(e.model, resp.StatusCode, respBody), start)
	}

	var gen generateResponse
	if err := json.Unmarshal(respBody, &gen); err != nil {
		return e.failure(fmt.Sprintf("decoding response: %v", err), start)
	}

	elapsed := time.Since(start).Seconds()
	e.logger.Debug("ollama call complete",
		"model", e.model,
		"elapsed_s", elapsed,
		"tokens", gen.PromptEvalCount+gen.EvalCount)

	return models.ExecutionResult{
		Response: gen.Response,
		Model:    e.model,
		Success:  true,
		Metrics: models.Metrics{
			PromptTokens:     gen.PromptEvalCount,
			CompletionTokens: gen.EvalCount,
			TotalTokens:      gen.PromptEvalCount + gen.EvalCount,
			ElapsedTime:      elapsed,
			LoadTime:         float64(gen.LoadDuration) / 1e9,
			PromptEvalTime:   float64(gen.PromptEvalDuration) / 1e9,
			EvalTime:         float64(gen.EvalDuration) / 1e9,
		},
	}
}

// failure builds a result carrying the elapsed time up to the failure point.
func (e *OllamaEngine) failure(errMsg string, start time.Time) models.ExecutionResult {
	return models.ExecutionResult{
		Model:    e.model,
		Success:  false,
		ErrorMsg: errMsg,
		Metrics:  models.Metrics{ElapsedTime: time.Since(start).Seconds()},
	}
}

// classifyHTTPError distinguishes a missing model from other server errors.
// Anything it cannot classify degrades to a generic message.
func classifyHTTPError(model string, status int, body []byte) string {
	if status == http.StatusNotFound {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && strings.Contains(errResp.Error, "not found") {
			return fmt.Sprintf("model %q not found; run: ollama pull %s", model, model)
		}
	}
	return fmt.Sprintf("ollama returned status %d: %s", status, strings.TrimSpace(string(body)))
}

// ListModels returns the model names the server has available.
func (e *OllamaEngine) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("creating list request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decoding model list: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
