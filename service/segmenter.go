package service

import (
	"errors"
	"regexp"
	"strings"

	"contractpilot-backend/models"
)

var ErrEmptyDocument = errors.New("document text is empty or unusable")

// clauseMarkers are the heading patterns that open a new clause: Korean
// article markers (제N조, 제N항), arabic enumeration ("1. ") and lettered
// sub-items ("가. ", "A. "). Matched against the trimmed start of a line.
var clauseMarkers = []*regexp.Regexp{
	regexp.MustCompile(`^제\s*\d+\s*조`),
	regexp.MustCompile(`^제\s*\d+\s*항`),
	regexp.MustCompile(`^\d+\.\s+`),
	regexp.MustCompile(`^[A-Za-z가나다라마바사아자차카타파하]\.\s+`),
}

var paragraphBoundary = regexp.MustCompile(`\n\s*\n`)

// SegmentClauses splits extracted contract text into an ordered list of
// clauses. Numbers are assigned in document order starting at 1. Every
// non-whitespace character of the input lands in exactly one clause; text
// before the first marker becomes the first clause. When no marker is found
// the text falls back to paragraph-boundary splitting, and a document that
// yields a single segment is still valid.
func SegmentClauses(text string) ([]models.Clause, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	type segment struct {
		title string
		body  []string
	}

	var segments []segment
	var current segment
	sawMarker := false

	flush := func() {
		if strings.TrimSpace(strings.Join(current.body, "\n")) != "" {
			segments = append(segments, current)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if isClauseMarker(trimmed) {
			sawMarker = true
			flush()
			// marker line is both the title and the first content line
			current = segment{title: trimmed, body: []string{line}}
			continue
		}
		current.body = append(current.body, line)
	}
	flush()

	if !sawMarker {
		return paragraphClauses(text), nil
	}

	clauses := make([]models.Clause, 0, len(segments))
	for _, seg := range segments {
		clauses = append(clauses, models.Clause{
			Number:  len(clauses) + 1,
			Title:   seg.title,
			Content: strings.TrimSpace(strings.Join(seg.body, "\n")),
		})
	}
	return clauses, nil
}

func isClauseMarker(line string) bool {
	if line == "" {
		return false
	}
	for _, re := range clauseMarkers {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// paragraphClauses is the fallback for text with no recognizable numbering
func paragraphClauses(text string) []models.Clause {
	var clauses []models.Clause
	for _, para := range paragraphBoundary.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		clauses = append(clauses, models.Clause{
			Number:  len(clauses) + 1,
			Content: para,
		})
	}
	return clauses
}

// contractTypeKeywords maps contract categories to their signal words.
// Ordered so classification is deterministic on ties.
var contractTypeKeywords = []struct {
	name     string
	keywords []string
}{
	{"투자계약서", []string{"투자금", "지분", "우선주", "투자자", "배당"}},
	{"근로계약서", []string{"근로자", "임금", "근무시간", "휴가", "해고"}},
	{"임대차계약서", []string{"임대인", "임차인", "월세", "보증금", "계약기간"}},
	{"용역계약서", []string{"용역", "대금", "납품", "검수", "하자"}},
	{"NDA", []string{"기밀", "비밀유지", "정보", "공개금지"}},
}

const contractTypeDefault = "일반계약서"

// DetectContractType classifies the document by keyword frequency. The type
// is classified once per document, not re-derived per clause.
func DetectContractType(text string) string {
	best := contractTypeDefault
	bestScore := 0
	for _, ct := range contractTypeKeywords {
		score := 0
		for _, word := range ct.keywords {
			if strings.Contains(text, word) {
				score++
			}
		}
		if score > bestScore {
			best = ct.name
			bestScore = score
		}
	}
	return best
}
