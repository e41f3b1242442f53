package service

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleContract = `본 계약은 갑과 을 사이에 체결된다.

제1조 (목적)
본 계약은 근로 조건을 정함을 목적으로 한다.

제2조 (근무시간)
근무시간은 주 40시간으로 한다.
연장 근로는 당사자 합의로 정한다.

제3조 (해지)
갑은 30일 전 통보로 계약을 해지할 수 있다.`

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func TestSegmentClausesArticleMarkers(t *testing.T) {
	clauses, err := SegmentClauses(sampleContract)
	require.NoError(t, err)
	require.Len(t, clauses, 4)

	// preamble before the first marker is its own clause without a title
	assert.Equal(t, 1, clauses[0].Number)
	assert.Empty(t, clauses[0].Title)
	assert.Contains(t, clauses[0].Content, "갑과 을")

	assert.Equal(t, "제1조 (목적)", clauses[1].Title)
	assert.Equal(t, "제2조 (근무시간)", clauses[2].Title)
	assert.Equal(t, "제3조 (해지)", clauses[3].Title)

	// numbers are sequential from 1
	for i, c := range clauses {
		assert.Equal(t, i+1, c.Number)
	}

	// multi-line clause bodies are kept together
	assert.Contains(t, clauses[2].Content, "연장 근로")
}

func TestSegmentClausesLossless(t *testing.T) {
	inputs := []string{
		sampleContract,
		"1. 첫 번째 조항입니다.\n2. 두 번째 조항입니다.",
		"마커가 전혀 없는 문단 하나.\n\n그리고 다른 문단.",
		"한 줄짜리 계약서",
	}

	for _, input := range inputs {
		clauses, err := SegmentClauses(input)
		require.NoError(t, err)

		var joined strings.Builder
		for _, c := range clauses {
			joined.WriteString(c.Content)
		}
		assert.Equal(t, stripWhitespace(input), stripWhitespace(joined.String()),
			"every non-whitespace character must land in exactly one clause")
	}
}

func TestSegmentClausesNumberedList(t *testing.T) {
	clauses, err := SegmentClauses("1. 대금은 선불로 한다.\n2. 하자 보수는 30일 내에 한다.")
	require.NoError(t, err)
	require.Len(t, clauses, 2)
	assert.Equal(t, "1. 대금은 선불로 한다.", clauses[0].Title)
	assert.Equal(t, 2, clauses[1].Number)
}

func TestSegmentClausesParagraphFallback(t *testing.T) {
	clauses, err := SegmentClauses("조항 번호가 없는 첫 문단.\n\n둘째 문단.")
	require.NoError(t, err)
	require.Len(t, clauses, 2)
	assert.Empty(t, clauses[0].Title)
	assert.Equal(t, "조항 번호가 없는 첫 문단.", clauses[0].Content)
}

func TestSegmentClausesDegenerateSingleSegment(t *testing.T) {
	clauses, err := SegmentClauses("계약 전체가 한 덩어리인 텍스트")
	require.NoError(t, err)
	require.Len(t, clauses, 1)
	assert.Equal(t, 1, clauses[0].Number)
}

func TestSegmentClausesEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\n\t"} {
		_, err := SegmentClauses(input)
		assert.ErrorIs(t, err, ErrEmptyDocument)
	}
}

func TestDetectContractType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labor", "근로자의 임금과 근무시간, 휴가를 정한다", "근로계약서"},
		{"lease", "임대인과 임차인은 보증금과 월세를 정한다", "임대차계약서"},
		{"investment", "투자자는 투자금에 대해 우선주와 지분을 받는다", "투자계약서"},
		{"nda", "기밀 정보의 비밀유지 의무", "NDA"},
		{"default", "아무 신호 단어도 없는 문서", "일반계약서"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectContractType(tt.text))
		})
	}
}
