package service

import (
	"context"
	"sort"
	"strings"

	"contractpilot-backend/models"
)

// relevanceRelated marks cases attached as related precedent rather than
// quoted in a reply
const relevanceRelated = "관련 판례"

// CaseRetriever is the precedent query contract: given query text (and
// optionally the contract type), return cited cases ranked by descending
// relevance, capped at limit. Zero results is an empty list, not an error.
// Implementations must be safe for concurrent use.
type CaseRetriever interface {
	Search(ctx context.Context, query, contractType string, limit int) ([]models.CitedCase, error)
}

// KeywordCaseRetriever ranks an embedded corpus by keyword hits. When
// nothing matches it falls back to the head of the corpus so consultation
// replies always have related precedent to lean on.
type KeywordCaseRetriever struct {
	cases []precedentCase
}

// NewKeywordCaseRetriever returns a retriever over the general contract corpus
func NewKeywordCaseRetriever() *KeywordCaseRetriever {
	return &KeywordCaseRetriever{cases: contractCases}
}

// NewLaborCaseRetriever returns a retriever over the labor-law corpus
func NewLaborCaseRetriever() *KeywordCaseRetriever {
	return &KeywordCaseRetriever{cases: laborCases}
}

// Search ranks cases by the number of matched keywords. Ranking is stable
// so equally relevant cases keep corpus order.
func (r *KeywordCaseRetriever) Search(ctx context.Context, query, contractType string, limit int) ([]models.CitedCase, error) {
	if limit <= 0 {
		return []models.CitedCase{}, nil
	}

	type scored struct {
		c     precedentCase
		score int
	}
	var matched []scored
	for _, c := range r.cases {
		score := 0
		for _, kw := range c.Keywords {
			if strings.Contains(query, kw) {
				score++
			}
		}
		if score > 0 {
			matched = append(matched, scored{c: c, score: score})
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})

	var picked []precedentCase
	if len(matched) > 0 {
		for _, m := range matched {
			picked = append(picked, m.c)
		}
	} else {
		// no keyword hit: surface the head of the corpus as related reading
		picked = r.cases
	}
	if len(picked) > limit {
		picked = picked[:limit]
	}

	cited := make([]models.CitedCase, 0, len(picked))
	for _, c := range picked {
		cited = append(cited, models.CitedCase{
			CaseNumber: c.CaseNumber,
			Summary:    c.Summary,
			Relevance:  relevanceRelated,
		})
	}
	return cited, nil
}
