package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/promptbench/promptbench/internal/models"
	"github.com/promptbench/promptbench/internal/statistics"
)

const schema = `
CREATE TABLE IF NOT EXISTS benchmark_results (
	id                   TEXT PRIMARY KEY,
	domain               TEXT NOT NULL,
	prompt_used          TEXT NOT NULL,
	model_response       TEXT NOT NULL,
	performance_score    REAL NOT NULL,
	technique_comparison TEXT NOT NULL,
	created_at           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_benchmark_results_domain ON benchmark_results(domain);
`

// ciSeed fixes the bootstrap resampling so rankings are reproducible.
const ciSeed = 1

// SQLiteStore persists benchmark records in a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) SQLiteOption {
	return func(s *SQLiteStore) {
		s.logger = logger
	}
}

// NewSQLiteStore opens (creating if needed) the database at path. Use
// ":memory:" for an ephemeral store.
func NewSQLiteStore(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	s := &SQLiteStore{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveResult inserts one compact benchmark record.
func (s *SQLiteStore) SaveResult(ctx context.Context, result models.StoredResult) error {
	comparison, err := json.Marshal(result.Comparison)
	if err != nil {
		return fmt.Errorf("encoding technique comparison: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO benchmark_results
			(id, domain, prompt_used, model_response, performance_score, technique_comparison, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		result.Domain,
		result.PromptUsed,
		result.ModelResponse,
		result.PerformanceScore,
		string(comparison),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting benchmark record: %w", err)
	}
	return nil
}

// BestTechniqueForDomain aggregates every stored comparison for the domain
// and ranks the allowed techniques by average overall score. Ties break by
// sample count, then technique name, so the ranking is stable.
func (s *SQLiteStore) BestTechniqueForDomain(ctx context.Context, domain string, allowed []models.Technique) models.HistorySelection {
	if s.db == nil {
		return models.HistorySelection{
			Success: false,
			Domain:  domain,
			Reason:  models.HistoryReasonNotInitialized,
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT technique_comparison FROM benchmark_results WHERE domain = ?`, domain)
	if err != nil {
		s.logger.Warn("history query failed", "domain", domain, "error", err)
		return models.HistorySelection{
			Success:  false,
			Domain:   domain,
			Reason:   models.HistoryReasonQueryFailed,
			ErrorMsg: err.Error(),
		}
	}
	defer rows.Close()

	allowedSet := make(map[models.Technique]bool, len(allowed))
	for _, t := range allowed {
		allowedSet[t] = true
	}

	samples := make(map[models.Technique][]float64)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return models.HistorySelection{
				Success:  false,
				Domain:   domain,
				Reason:   models.HistoryReasonQueryFailed,
				ErrorMsg: err.Error(),
			}
		}
		var comparison []models.ComparisonRecord
		if err := json.Unmarshal([]byte(raw), &comparison); err != nil {
			// Skip records written by incompatible versions.
			s.logger.Warn("skipping unreadable history record", "domain", domain, "error", err)
			continue
		}
		for _, rec := range comparison {
			if len(allowedSet) > 0 && !allowedSet[rec.Technique] {
				continue
			}
			samples[rec.Technique] = append(samples[rec.Technique], rec.Overall)
		}
	}
	if err := rows.Err(); err != nil {
		return models.HistorySelection{
			Success:  false,
			Domain:   domain,
			Reason:   models.HistoryReasonQueryFailed,
			ErrorMsg: err.Error(),
		}
	}

	if len(samples) == 0 {
		return models.HistorySelection{
			Success: false,
			Domain:  domain,
			Reason:  models.HistoryReasonNoData,
		}
	}

	ranking := make([]models.TechniqueRank, 0, len(samples))
	for technique, scores := range samples {
		rank := models.TechniqueRank{
			Technique:      technique,
			AverageOverall: average(scores),
			Samples:        len(scores),
		}
		if len(scores) >= 2 {
			ci := statistics.BootstrapCIWithSeed(scores, 0.95, ciSeed)
			rank.CI95Lo = &ci.Lower
			rank.CI95Hi = &ci.Upper
		}
		ranking = append(ranking, rank)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].AverageOverall != ranking[j].AverageOverall {
			return ranking[i].AverageOverall > ranking[j].AverageOverall
		}
		if ranking[i].Samples != ranking[j].Samples {
			return ranking[i].Samples > ranking[j].Samples
		}
		return ranking[i].Technique < ranking[j].Technique
	})

	return models.HistorySelection{
		Success:       true,
		Domain:        domain,
		BestTechnique: ranking[0].Technique,
		Ranking:       ranking,
	}
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
