package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordRetrieverCapsResults(t *testing.T) {
	r := NewKeywordCaseRetriever()

	cases, err := r.Search(context.Background(), "계약 해지와 손해배상 및 위약금 문제", "", 3)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(cases), 3)
	assert.NotEmpty(t, cases)
}

func TestKeywordRetrieverRanksbyHits(t *testing.T) {
	r := NewKeywordCaseRetriever()

	cases, err := r.Search(context.Background(), "부당한 계약 해지 통보를 받았습니다", "", 5)
	require.NoError(t, err)
	require.NotEmpty(t, cases)

	// the top result must actually concern termination
	assert.Contains(t, cases[0].Summary, "해지")
}

func TestKeywordRetrieverFallbackWhenNoMatch(t *testing.T) {
	r := NewKeywordCaseRetriever()

	cases, err := r.Search(context.Background(), "xyz", "", 2)
	require.NoError(t, err)
	assert.Len(t, cases, 2, "no keyword hit should still surface related precedent")
	for _, c := range cases {
		assert.Equal(t, "관련 판례", c.Relevance)
	}
}

func TestKeywordRetrieverZeroLimit(t *testing.T) {
	r := NewKeywordCaseRetriever()

	cases, err := r.Search(context.Background(), "해지", "", 0)
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestLaborRetrieverUsesLaborCorpus(t *testing.T) {
	r := NewLaborCaseRetriever()

	cases, err := r.Search(context.Background(), "임금체불과 퇴직금 문제로 고민입니다", "", 3)
	require.NoError(t, err)
	require.NotEmpty(t, cases)
	for _, c := range cases {
		assert.NotEmpty(t, c.CaseNumber)
		assert.NotEmpty(t, c.Summary)
	}
}
