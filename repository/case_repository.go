package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contractpilot-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CaseRepository handles database operations for the precedent index
type CaseRepository struct {
	db *pgxpool.Pool
}

// NewCaseRepository creates a new precedent case repository
func NewCaseRepository(db *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// PrecedentRow is one stored precedent case with its query distance
type PrecedentRow struct {
	ID           uuid.UUID
	CaseNumber   string
	Summary      string
	Court        string
	DecidedOn    *time.Time
	RelevantText string
	ContractType *string
	Distance     float64
}

// Search performs a cosine-distance search over the precedent index.
// contractType narrows the search when the index tags cases by contract
// category; an empty value searches the whole corpus.
func (r *CaseRepository) Search(
	ctx context.Context,
	embedding []float64,
	contractType string,
	limit int,
) ([]PrecedentRow, error) {
	if len(embedding) != 768 {
		return nil, fmt.Errorf("embedding must be 768 dimensions, got %d", len(embedding))
	}

	vectorStr := formatVector(embedding)

	var filter string
	var args []interface{}
	if contractType == "" {
		filter = "TRUE"
		args = []interface{}{vectorStr, limit}
	} else {
		filter = "(contract_type IS NULL OR contract_type = $2)"
		args = []interface{}{vectorStr, contractType, limit}
	}

	query := fmt.Sprintf(`
		SELECT
			id,
			case_number,
			summary,
			court,
			decided_on,
			relevant_text,
			contract_type,
			embedding <=> $1::vector AS distance
		FROM precedent_cases
		WHERE %s
		ORDER BY embedding <=> $1::vector
		LIMIT $%d`, filter, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query precedent cases: %w", err)
	}
	defer rows.Close()

	var cases []PrecedentRow
	for rows.Next() {
		var row PrecedentRow
		err := rows.Scan(
			&row.ID,
			&row.CaseNumber,
			&row.Summary,
			&row.Court,
			&row.DecidedOn,
			&row.RelevantText,
			&row.ContractType,
			&row.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan precedent case: %w", err)
		}
		cases = append(cases, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating precedent cases: %w", err)
	}

	return cases, nil
}

// Insert stores one precedent case with its embedding
func (r *CaseRepository) Insert(
	ctx context.Context,
	caseNumber, summary, court string,
	decidedOn *time.Time,
	relevantText string,
	contractType *string,
	embedding []float64,
) (uuid.UUID, error) {
	if len(embedding) != 768 {
		return uuid.Nil, fmt.Errorf("embedding must be 768 dimensions, got %d", len(embedding))
	}

	query := `
		INSERT INTO precedent_cases (
			case_number, summary, court, decided_on, relevant_text,
			contract_type, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7::vector)
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(
		ctx, query,
		caseNumber, summary, court, decidedOn, relevantText,
		contractType, formatVector(embedding),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert precedent case: %w", err)
	}
	return id, nil
}

// Cited converts a stored row into the wire-level cited case shape
func (row PrecedentRow) Cited() models.CitedCase {
	return models.CitedCase{
		CaseNumber: row.CaseNumber,
		Summary:    row.Summary,
		Relevance:  fmt.Sprintf("벡터 유사도 %.2f", 1-row.Distance),
	}
}
