package webapi

import (
	"github.com/promptbench/promptbench/internal/dataset"
	"github.com/promptbench/promptbench/internal/models"
)

// BenchmarkRequest is the body for POST /benchmark.
type BenchmarkRequest struct {
	Problem     string  `json:"problem"`
	GroundTruth *string `json:"ground_truth,omitempty"`
	Subject     string  `json:"subject,omitempty"`
}

// ProblemAdd is the body for POST /dataset.
type ProblemAdd struct {
	Problem  string `json:"problem"`
	Answer   string `json:"answer"`
	Category string `json:"category,omitempty"`
}

// SaveResultRequest is the body for POST /results/save. Result is kept
// loosely typed so externally produced records with extra fields still
// save; it is decoded into a BenchmarkResult before persisting.
type SaveResultRequest struct {
	Result map[string]any `json:"result"`
	Source string         `json:"source,omitempty"`
}

// HealthResponse reports API and model-runtime status.
type HealthResponse struct {
	Status         string         `json:"status"`
	Model          string         `json:"model"`
	ModelConnected bool           `json:"model_connected"`
	DatasetSize    int            `json:"dataset_size"`
	Weights        models.Weights `json:"weights"`
}

// TechniquesResponse lists the supported prompting techniques.
type TechniquesResponse struct {
	Techniques   []models.Technique `json:"techniques"`
	Descriptions map[string]string  `json:"descriptions"`
}

// SubjectsResponse lists the subjects with few-shot example pools.
type SubjectsResponse struct {
	Subjects     []string          `json:"subjects"`
	Descriptions map[string]string `json:"descriptions"`
}

// WeightsResponse is the body for GET /weights.
type WeightsResponse struct {
	Weights     models.Weights `json:"weights"`
	Description string         `json:"description"`
}

// WeightsUpdatedResponse is the body for a successful POST /weights.
type WeightsUpdatedResponse struct {
	Message string         `json:"message"`
	Weights models.Weights `json:"weights"`
}

// DatasetResponse is the body for GET /dataset.
type DatasetResponse struct {
	Size       int               `json:"size"`
	Categories []string          `json:"categories"`
	Problems   []dataset.Problem `json:"problems"`
}

// ProblemAddedResponse is the body for a successful POST /dataset.
type ProblemAddedResponse struct {
	Message     string `json:"message"`
	DatasetSize int    `json:"dataset_size"`
}

// ProblemRemovedResponse is the body for a successful DELETE /dataset/{id}.
type ProblemRemovedResponse struct {
	Message     string `json:"message"`
	DatasetSize int    `json:"dataset_size"`
}

// SaveResultResponse is the body for POST /results/save.
type SaveResultResponse struct {
	Message string `json:"message"`
	Saved   bool   `json:"saved"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
