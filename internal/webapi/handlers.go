// Package webapi exposes the benchmark pipeline, dataset and history store
// over HTTP.
package webapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/promptbench/promptbench/internal/dataset"
	"github.com/promptbench/promptbench/internal/history"
	"github.com/promptbench/promptbench/internal/models"
	"github.com/promptbench/promptbench/internal/orchestration"
)

var techniqueDescriptions = map[string]string{
	"zero_shot": "Direct question without examples or context",
	"few_shot":  "Includes example problems and solutions",
}

var subjectDescriptions = map[string]string{
	"algebra":    "Linear equations, quadratic equations, factoring, systems",
	"statistics": "Mean, median, mode, variance, probability, combinations",
	"calculus":   "Derivatives, integrals, limits",
	"general":    "Basic arithmetic problems",
}

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	pipeline *orchestration.Pipeline
	problems *dataset.Set
	store    history.Store
	logger   *slog.Logger
}

// HandlersOption configures Handlers.
type HandlersOption func(*Handlers)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) HandlersOption {
	return func(h *Handlers) {
		h.logger = logger
	}
}

// NewHandlers creates Handlers over the given pipeline, dataset and store.
func NewHandlers(pipeline *orchestration.Pipeline, problems *dataset.Set, store history.Store, opts ...HandlersOption) *Handlers {
	h := &Handlers{
		pipeline: pipeline,
		problems: problems,
		store:    store,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleHealth reports model-runtime connectivity and current configuration.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	connected := h.pipeline.Ping(r.Context()) == nil
	status := "healthy"
	if !connected {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         status,
		Model:          h.pipeline.Model(),
		ModelConnected: connected,
		DatasetSize:    h.problems.Len(),
		Weights:        h.pipeline.Weights(),
	})
}

// HandleBenchmark runs every technique against the submitted problem and
// returns the comparative result.
func (h *Handlers) HandleBenchmark(w http.ResponseWriter, r *http.Request) {
	var req BenchmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Problem == "" {
		writeError(w, http.StatusBadRequest, "problem is required")
		return
	}

	h.runBenchmark(w, r, models.Problem{
		Text:        req.Problem,
		GroundTruth: req.GroundTruth,
		Subject:     req.Subject,
	})
}

// HandleBenchmarkDatasetProblem benchmarks a stored problem, using its
// recorded answer as ground truth.
func (h *Handlers) HandleBenchmarkDatasetProblem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "problem id must be an integer")
		return
	}
	problem, ok := h.problems.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "problem not found")
		return
	}

	h.runBenchmark(w, r, problem.ToModel())
}

func (h *Handlers) runBenchmark(w http.ResponseWriter, r *http.Request, problem models.Problem) {
	result := h.pipeline.Benchmark(r.Context(), problem)
	if !result.Succeeded() {
		msg := "benchmark failed"
		if result.BestResult != nil && result.BestResult.ErrorMsg != "" {
			msg = result.BestResult.ErrorMsg
		}
		h.logger.Error("benchmark failed", "run_id", result.RunID, "error", msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleTechniques lists the supported prompting techniques.
func (h *Handlers) HandleTechniques(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, TechniquesResponse{
		Techniques:   h.pipeline.Techniques(),
		Descriptions: techniqueDescriptions,
	})
}

// HandleSubjects lists the subjects with few-shot example pools.
func (h *Handlers) HandleSubjects(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SubjectsResponse{
		Subjects:     h.pipeline.Subjects(),
		Descriptions: subjectDescriptions,
	})
}

// HandleGetWeights returns the current scoring weights.
func (h *Handlers) HandleGetWeights(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, WeightsResponse{
		Weights:     h.pipeline.Weights(),
		Description: "Weights used for calculating overall scores",
	})
}

// HandleUpdateWeights applies a partial weights update. The result is
// renormalized to sum to 1.
func (h *Handlers) HandleUpdateWeights(w http.ResponseWriter, r *http.Request) {
	var update models.WeightsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	for name, v := range map[string]*float64{
		"accuracy":     update.Accuracy,
		"completeness": update.Completeness,
		"efficiency":   update.Efficiency,
	} {
		if v != nil && *v < 0 {
			writeError(w, http.StatusBadRequest, name+" weight must be non-negative")
			return
		}
	}

	weights := h.pipeline.SetWeights(update)
	writeJSON(w, http.StatusOK, WeightsUpdatedResponse{
		Message: "Weights updated successfully",
		Weights: weights,
	})
}

// HandleGetDataset returns all stored problems and their categories.
func (h *Handlers) HandleGetDataset(w http.ResponseWriter, _ *http.Request) {
	problems := h.problems.Problems()
	writeJSON(w, http.StatusOK, DatasetResponse{
		Size:       len(problems),
		Categories: h.problems.Categories(),
		Problems:   problems,
	})
}

// HandleGetProblem returns one stored problem by id.
func (h *Handlers) HandleGetProblem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "problem id must be an integer")
		return
	}
	problem, ok := h.problems.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "problem not found")
		return
	}
	writeJSON(w, http.StatusOK, problem)
}

// HandleAddProblem appends a problem to the dataset.
func (h *Handlers) HandleAddProblem(w http.ResponseWriter, r *http.Request) {
	var req ProblemAdd
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Problem == "" || req.Answer == "" {
		writeError(w, http.StatusBadRequest, "problem and answer are required")
		return
	}

	h.problems.Add(req.Problem, req.Answer, req.Category)
	writeJSON(w, http.StatusOK, ProblemAddedResponse{
		Message:     "Problem added successfully",
		DatasetSize: h.problems.Len(),
	})
}

// HandleRemoveProblem deletes a problem from the dataset by id.
func (h *Handlers) HandleRemoveProblem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "problem id must be an integer")
		return
	}
	if !h.problems.Remove(id) {
		writeError(w, http.StatusNotFound, "problem not found")
		return
	}
	writeJSON(w, http.StatusOK, ProblemRemovedResponse{
		Message:     "Problem removed successfully",
		DatasetSize: h.problems.Len(),
	})
}

// HandleSaveResult persists an externally held benchmark result.
func (h *Handlers) HandleSaveResult(w http.ResponseWriter, r *http.Request) {
	var req SaveResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Result) == 0 {
		writeError(w, http.StatusBadRequest, "result is required")
		return
	}

	result, err := decodeBenchmarkResult(req.Result)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid result: "+err.Error())
		return
	}

	if err := h.store.SaveResult(r.Context(), models.NewStoredResult(result)); err != nil {
		h.logger.Warn("manual save failed", "error", err)
		writeJSON(w, http.StatusOK, SaveResultResponse{Message: "Save failed", Saved: false})
		return
	}
	writeJSON(w, http.StatusOK, SaveResultResponse{Message: "Result saved", Saved: true})
}

// decodeBenchmarkResult maps a loosely typed result payload onto the typed
// record, tolerating unknown fields.
func decodeBenchmarkResult(raw map[string]any) (*models.BenchmarkResult, error) {
	var result models.BenchmarkResult
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     &result,
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("building decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	return &result, nil
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("POST /benchmark", h.HandleBenchmark)
	mux.HandleFunc("POST /benchmark/dataset/{id}", h.HandleBenchmarkDatasetProblem)
	mux.HandleFunc("GET /techniques", h.HandleTechniques)
	mux.HandleFunc("GET /subjects", h.HandleSubjects)
	mux.HandleFunc("GET /weights", h.HandleGetWeights)
	mux.HandleFunc("POST /weights", h.HandleUpdateWeights)
	mux.HandleFunc("GET /dataset", h.HandleGetDataset)
	mux.HandleFunc("GET /dataset/{id}", h.HandleGetProblem)
	mux.HandleFunc("POST /dataset", h.HandleAddProblem)
	mux.HandleFunc("DELETE /dataset/{id}", h.HandleRemoveProblem)
	mux.HandleFunc("POST /results/save", h.HandleSaveResult)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
