package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"contractpilot-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScorer scores clauses by their number
type fakeScorer struct {
	scores map[int]int
	fail   map[int]bool
}

func (s *fakeScorer) Score(ctx context.Context, clause models.Clause, contractType string, cases []models.CitedCase) (*models.ClauseAnalysis, error) {
	if s.fail[clause.Number] {
		return nil, ErrScoringFailed
	}
	score, ok := s.scores[clause.Number]
	if !ok {
		score = 2
	}
	return &models.ClauseAnalysis{
		RiskScore: score,
		Summary:   fmt.Sprintf("조항 %d 평가", clause.Number),
		Issues:    []string{},
	}, nil
}

type fakeDrafter struct {
	policy Policy
}

func (d *fakeDrafter) Draft(ctx context.Context, clause models.Clause, analysis *models.ClauseAnalysis) (*string, error) {
	if analysis == nil || analysis.RiskScore < d.policy.RemediationThreshold {
		return nil, nil
	}
	text := "수정안: " + clause.Content
	return &text, nil
}

type fakeStore struct {
	saved []*models.AnalysisResult
}

func (s *fakeStore) Save(ctx context.Context, result *models.AnalysisResult) error {
	s.saved = append(s.saved, result)
	return nil
}

// makeContract builds a numbered document with n clauses
func makeContract(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "%d. 이것은 %d번째 조항입니다.\n", i, i)
	}
	return b.String()
}

func newTestService(scorer ClauseScorer, store AnalysisStore) *AnalysisService {
	return NewAnalysisService(
		AnalysisWithScorer(scorer),
		AnalysisWithDrafter(&fakeDrafter{policy: DefaultPolicy()}),
		AnalysisWithStore(store),
	)
}

func TestAnalyzeDocumentAggregation(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(&fakeScorer{scores: map[int]int{1: 6, 2: 7, 3: 8}}, store)

	result, err := svc.AnalyzeDocument(context.Background(), AnalyzeDocumentRequest{
		Text: makeContract(3),
	})
	require.NoError(t, err)

	r := result.Result
	assert.Equal(t, 3, r.TotalClauses)
	assert.Equal(t, 3, r.HighRiskClauses, "scores 6, 7 and 8 are all high risk")
	assert.Equal(t, 2, r.RemediationEligible, "only 7 and 8 qualify for redrafting")
	assert.Equal(t, 7.0, r.AverageRiskScore)
	assert.Equal(t, models.RiskLevelHigh, r.OverallRiskLevel)
	assert.Zero(t, r.ClausesExcluded)
	assert.NotEmpty(t, r.Summary)

	// alternatives exist exactly for the remediation-eligible clauses
	assert.Nil(t, r.Clauses[0].Alternative)
	assert.NotNil(t, r.Clauses[1].Alternative)
	assert.NotNil(t, r.Clauses[2].Alternative)

	require.Len(t, store.saved, 1)
	assert.Equal(t, r.ID, store.saved[0].ID)
}

func TestAnalyzeDocumentAverageRounding(t *testing.T) {
	svc := newTestService(&fakeScorer{scores: map[int]int{1: 4, 2: 4, 3: 3}}, nil)

	result, err := svc.AnalyzeDocument(context.Background(), AnalyzeDocumentRequest{
		Text: makeContract(3),
	})
	require.NoError(t, err)
	assert.Equal(t, 3.7, result.Result.AverageRiskScore)
	assert.Equal(t, models.RiskLevelLow, result.Result.OverallRiskLevel)
}

func TestAnalyzeDocumentRiskBuckets(t *testing.T) {
	tests := []struct {
		name   string
		scores map[int]int
		want   models.RiskLevel
	}{
		{"low below four", map[int]int{1: 3, 2: 4}, models.RiskLevelLow},
		{"medium at four", map[int]int{1: 4, 2: 4}, models.RiskLevelMedium},
		{"high at six", map[int]int{1: 6, 2: 6}, models.RiskLevelHigh},
		{"critical at eight", map[int]int{1: 8, 2: 8}, models.RiskLevelCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeScorer{scores: tt.scores}, nil)
			result, err := svc.AnalyzeDocument(context.Background(), AnalyzeDocumentRequest{
				Text: makeContract(2),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Result.OverallRiskLevel)
		})
	}
}

func TestAnalyzeDocumentClauseOrderPreserved(t *testing.T) {
	svc := newTestService(&fakeScorer{}, nil)

	result, err := svc.AnalyzeDocument(context.Background(), AnalyzeDocumentRequest{
		Text: makeContract(12),
	})
	require.NoError(t, err)

	require.Len(t, result.Result.Clauses, 12)
	for i, c := range result.Result.Clauses {
		assert.Equal(t, i+1, c.Number, "concurrent scoring must not reorder clauses")
	}
}

func TestAnalyzeDocumentToleratesOneFailure(t *testing.T) {
	svc := newTestService(&fakeScorer{
		scores: map[int]int{1: 5, 2: 5, 3: 5, 4: 5},
		fail:   map[int]bool{5: true},
	}, nil)

	result, err := svc.AnalyzeDocument(context.Background(), AnalyzeDocumentRequest{
		Text: makeContract(5),
	})
	require.NoError(t, err)

	r := result.Result
	assert.Equal(t, 5, r.TotalClauses)
	assert.Equal(t, 1, r.ClausesExcluded)
	assert.True(t, r.Clauses[4].AnalysisUnavailable)
	assert.Nil(t, r.Clauses[4].Analysis)
	// average covers only scored clauses
	assert.Equal(t, 5.0, r.AverageRiskScore)
}

func TestAnalyzeDocumentTooManyFailures(t *testing.T) {
	svc := newTestService(&fakeScorer{
		fail: map[int]bool{3: true, 4: true, 5: true},
	}, nil)

	_, err := svc.AnalyzeDocument(context.Background(), AnalyzeDocumentRequest{
		Text: makeContract(5),
	})
	assert.ErrorIs(t, err, ErrTooManyClauseFailures)
}

func TestAnalyzeDocumentEmptyText(t *testing.T) {
	svc := newTestService(&fakeScorer{}, nil)

	_, err := svc.AnalyzeDocument(context.Background(), AnalyzeDocumentRequest{Text: "  \n "})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestAnalyzeDocumentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newTestService(&fakeScorer{}, &fakeStore{})
	_, err := svc.AnalyzeDocument(ctx, AnalyzeDocumentRequest{Text: makeContract(3)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeDocumentStoreFailure(t *testing.T) {
	svc := NewAnalysisService(
		AnalysisWithScorer(&fakeScorer{}),
		AnalysisWithStore(&failingStore{}),
	)

	_, err := svc.AnalyzeDocument(context.Background(), AnalyzeDocumentRequest{
		Text: makeContract(2),
	})
	assert.Error(t, err)
}

type failingStore struct{}

func (s *failingStore) Save(ctx context.Context, result *models.AnalysisResult) error {
	return errors.New("database unavailable")
}
