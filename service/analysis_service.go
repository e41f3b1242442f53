package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"contractpilot-backend/models"

	"github.com/google/uuid"
)

var ErrTooManyClauseFailures = errors.New("too many clauses failed analysis")

// ClauseScorer is the scoring stage of the per-clause pipeline
type ClauseScorer interface {
	Score(ctx context.Context, clause models.Clause, contractType string, cases []models.CitedCase) (*models.ClauseAnalysis, error)
}

// ClauseDrafter is the remediation stage of the per-clause pipeline
type ClauseDrafter interface {
	Draft(ctx context.Context, clause models.Clause, analysis *models.ClauseAnalysis) (*string, error)
}

// AnalysisStore publishes completed analysis results
type AnalysisStore interface {
	Save(ctx context.Context, result *models.AnalysisResult) error
}

// AnalysisService drives the document analysis: segmentation, per-clause
// fan-out (retrieve, score, draft) and aggregation into one result.
type AnalysisService struct {
	retriever CaseRetriever
	scorer    ClauseScorer
	drafter   ClauseDrafter
	store     AnalysisStore
	policy    Policy
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithRetriever sets the precedent retriever
func AnalysisWithRetriever(r CaseRetriever) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.retriever = r
	}
}

// AnalysisWithScorer sets the clause risk scorer
func AnalysisWithScorer(scorer ClauseScorer) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.scorer = scorer
	}
}

// AnalysisWithDrafter sets the alternative clause drafter
func AnalysisWithDrafter(d ClauseDrafter) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.drafter = d
	}
}

// AnalysisWithStore sets the result store
func AnalysisWithStore(store AnalysisStore) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.store = store
	}
}

// AnalysisWithPolicy sets the analysis policy
func AnalysisWithPolicy(p Policy) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.policy = p
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{policy: DefaultPolicy()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeDocumentRequest carries the extracted document text
type AnalyzeDocumentRequest struct {
	Text string
}

// AnalyzeDocumentResult carries the published analysis
type AnalyzeDocumentResult struct {
	Result *models.AnalysisResult
}

// clauseOutcome is the accumulator slot for one clause pipeline
type clauseOutcome struct {
	annotated models.AnnotatedClause
	failed    bool
}

// AnalyzeDocument runs the full document analysis. Per-clause pipelines run
// concurrently; the result is assembled only after every pipeline finished
// or failed, and published atomically. Up to MaxClauseFailures clauses may
// fail scoring and are carried as "analysis unavailable" rather than given
// a fabricated score; beyond that bound the whole analysis fails.
func (s *AnalysisService) AnalyzeDocument(
	ctx context.Context,
	req AnalyzeDocumentRequest,
) (*AnalyzeDocumentResult, error) {
	if s.scorer == nil {
		return nil, errors.New("scorer not set")
	}

	clauses, err := SegmentClauses(req.Text)
	if err != nil {
		return nil, err
	}

	contractType := DetectContractType(req.Text)

	outcomes := make([]clauseOutcome, len(clauses))
	concurrency := s.policy.AnalysisConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := range clauses {
		// cancellation stops issuing new clause work; in-flight pipelines
		// drain via wg before we return
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				outcomes[i] = s.processClause(ctx, clauses[i], contractType)
			}(i)
		}
		if ctx.Err() != nil {
			break
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for _, o := range outcomes {
		if o.failed {
			failed++
		}
	}
	if failed > s.policy.MaxClauseFailures(len(clauses)) {
		return nil, fmt.Errorf("%w: %d of %d clauses", ErrTooManyClauseFailures, failed, len(clauses))
	}

	result := s.aggregate(contractType, outcomes)

	if s.store != nil {
		if err := s.store.Save(ctx, result); err != nil {
			return nil, fmt.Errorf("failed to publish analysis result: %w", err)
		}
	}

	return &AnalyzeDocumentResult{Result: result}, nil
}

// processClause runs retrieve -> score -> draft for one clause. A failure
// at any stage fails this clause only; the failure is counted at the join
// point against the document-level bound.
func (s *AnalysisService) processClause(ctx context.Context, clause models.Clause, contractType string) clauseOutcome {
	annotated := models.AnnotatedClause{
		Clause:       clause,
		SimilarCases: []models.CitedCase{},
	}

	var cases []models.CitedCase
	if s.retriever != nil {
		var err error
		cases, err = s.retriever.Search(ctx, clause.Content, contractType, s.policy.CitationLimit)
		if err != nil {
			log.Printf("Warning: Failed to retrieve precedent for clause %d: %v", clause.Number, err)
			annotated.AnalysisUnavailable = true
			return clauseOutcome{annotated: annotated, failed: true}
		}
	}

	analysis, err := s.scorer.Score(ctx, clause, contractType, cases)
	if err != nil {
		log.Printf("Warning: Failed to score clause %d: %v", clause.Number, err)
		annotated.AnalysisUnavailable = true
		return clauseOutcome{annotated: annotated, failed: true}
	}
	annotated.Analysis = analysis

	// precedent is attached only to clauses worth a second look
	if analysis.RiskScore >= s.policy.HighRiskThreshold && len(cases) > 0 {
		annotated.SimilarCases = cases
	}

	if s.drafter != nil && analysis.RiskScore >= s.policy.RemediationThreshold {
		alternative, err := s.drafter.Draft(ctx, clause, analysis)
		if err != nil {
			log.Printf("Warning: Failed to draft alternative for clause %d: %v", clause.Number, err)
			annotated.Analysis = nil
			annotated.AnalysisUnavailable = true
			return clauseOutcome{annotated: annotated, failed: true}
		}
		annotated.Alternative = alternative
	}

	return clauseOutcome{annotated: annotated}
}

// aggregate assembles the document-level result from clause outcomes
func (s *AnalysisService) aggregate(contractType string, outcomes []clauseOutcome) *models.AnalysisResult {
	result := &models.AnalysisResult{
		ID:           uuid.New(),
		ContractType: contractType,
		TotalClauses: len(outcomes),
		Clauses:      make([]models.AnnotatedClause, 0, len(outcomes)),
		CreatedAt:    time.Now().UTC(),
	}

	sum := 0
	scored := 0
	for _, o := range outcomes {
		result.Clauses = append(result.Clauses, o.annotated)
		if o.annotated.Analysis == nil {
			result.ClausesExcluded++
			continue
		}
		score := o.annotated.Analysis.RiskScore
		sum += score
		scored++
		if score >= s.policy.HighRiskThreshold {
			result.HighRiskClauses++
		}
		if score >= s.policy.RemediationThreshold {
			result.RemediationEligible++
		}
	}

	if scored > 0 {
		result.AverageRiskScore = round1(float64(sum) / float64(scored))
	}
	result.OverallRiskLevel = riskLevelFor(result.AverageRiskScore)
	result.Summary = s.synthesizeSummary(contractType, result.Clauses)

	return result
}

// riskLevelFor buckets the document average: <4 low, <6 medium, <8 high,
// else critical (boundary-inclusive on the upper bucket).
func riskLevelFor(average float64) models.RiskLevel {
	switch {
	case average < 4:
		return models.RiskLevelLow
	case average < 6:
		return models.RiskLevelMedium
	case average < 8:
		return models.RiskLevelHigh
	default:
		return models.RiskLevelCritical
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// synthesizeSummary builds the document-level summary from the clauses at
// or above the remediation threshold
func (s *AnalysisService) synthesizeSummary(contractType string, clauses []models.AnnotatedClause) string {
	var flagged []models.AnnotatedClause
	for _, c := range clauses {
		if c.Analysis != nil && c.Analysis.RiskScore >= s.policy.RemediationThreshold {
			flagged = append(flagged, c)
		}
	}

	if len(flagged) == 0 {
		return fmt.Sprintf("이 %s는 전반적으로 위험 요소가 적습니다. 일반적인 검토 후 서명을 진행해도 됩니다.", contractType)
	}

	var issues strings.Builder
	for i, c := range flagged {
		if i >= 3 {
			break
		}
		title := c.Title
		if title == "" {
			title = fmt.Sprintf("%d번 조항", c.Number)
		}
		fmt.Fprintf(&issues, "- %s: %s\n", title, c.Analysis.Summary)
	}

	return fmt.Sprintf(`이 %s에서 %d개의 고위험 조항이 발견되었습니다.

주요 문제점:
%s
서명 전 해당 조항들의 수정을 권고합니다.`, contractType, len(flagged), issues.String())
}
