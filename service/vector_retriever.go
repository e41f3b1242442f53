package service

import (
	"context"
	"fmt"

	"contractpilot-backend/models"
	"contractpilot-backend/repository"
)

// VectorCaseRetriever answers the precedent query contract from the
// pgvector index: embed the query, search by cosine distance.
type VectorCaseRetriever struct {
	repo     *repository.CaseRepository
	embedder Embedder
}

// NewVectorCaseRetriever creates a retriever over the precedent index
func NewVectorCaseRetriever(repo *repository.CaseRepository, embedder Embedder) *VectorCaseRetriever {
	return &VectorCaseRetriever{repo: repo, embedder: embedder}
}

// Search embeds the query text and returns the nearest precedent cases.
// An empty index yields an empty list.
func (r *VectorCaseRetriever) Search(ctx context.Context, query, contractType string, limit int) ([]models.CitedCase, error) {
	if limit <= 0 {
		return []models.CitedCase{}, nil
	}

	queryText := query
	if contractType != "" {
		queryText = fmt.Sprintf("[계약 유형: %s] %s", contractType, query)
	}

	embedding, err := r.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := r.repo.Search(ctx, embedding, contractType, limit)
	if err != nil {
		return nil, err
	}

	cited := make([]models.CitedCase, 0, len(rows))
	for _, row := range rows {
		cited = append(cited, row.Cited())
	}
	return cited, nil
}
