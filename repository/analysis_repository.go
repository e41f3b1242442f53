package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"contractpilot-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// AnalysisRepository persists published analysis results. A result row is
// written exactly once and never updated; re-analysis creates a new row.
type AnalysisRepository struct {
	db *pgxpool.Pool
}

// NewAnalysisRepository creates a new analysis result repository
func NewAnalysisRepository(db *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save stores a completed analysis result
func (r *AnalysisRepository) Save(ctx context.Context, result *models.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	query := `
		INSERT INTO analysis_results (id, contract_type, overall_risk_level, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.Exec(
		ctx, query,
		result.ID,
		result.ContractType,
		string(result.OverallRiskLevel),
		payload,
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis result: %w", err)
	}
	return nil
}

// GetByID retrieves an analysis result by ID
func (r *AnalysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisResult, error) {
	query := `SELECT payload FROM analysis_results WHERE id = $1`

	var payload []byte
	if err := r.db.QueryRow(ctx, query, id).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query analysis result: %w", err)
	}

	result := &models.AnalysisResult{}
	if err := json.Unmarshal(payload, result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis result: %w", err)
	}
	return result, nil
}
