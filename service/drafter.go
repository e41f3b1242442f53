package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"contractpilot-backend/models"
)

var ErrDraftingFailed = errors.New("failed to draft alternative clause")

const drafterSystemPrompt = `당신은 한국 계약법 전문가입니다.
문제가 있는 계약 조항을 양 당사자에게 공정하게 수정합니다.

주의사항:
- 조항의 법적 주제와 번호 체계를 유지하세요
- 지적된 문제점만 해소하고, 원문에 없는 새로운 의무는 공정성 조정 범위를 넘어 추가하지 마세요
- 수정된 조항만 출력하세요`

// AlternativeDrafter produces balanced replacement text for clauses the
// scorer already flagged at or above the remediation threshold. It never
// re-scores; callers gate invocation on the threshold.
type AlternativeDrafter struct {
	generator Generator
	policy    Policy
}

// NewAlternativeDrafter creates a drafter backed by the given generator
func NewAlternativeDrafter(generator Generator, policy Policy) *AlternativeDrafter {
	return &AlternativeDrafter{generator: generator, policy: policy}
}

// Draft returns replacement text for a flagged clause, or nil when the
// clause is below the remediation threshold. Absence is a nil pointer so it
// stays distinguishable from an empty replacement downstream.
func (d *AlternativeDrafter) Draft(
	ctx context.Context,
	clause models.Clause,
	analysis *models.ClauseAnalysis,
) (*string, error) {
	if d.generator == nil {
		return nil, errors.New("generator not set")
	}
	if analysis == nil || analysis.RiskScore < d.policy.RemediationThreshold {
		return nil, nil
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "원본 조항:\n%s\n\n문제점:\n", clause.Content)
	for _, issue := range analysis.Issues {
		prompt.WriteString(issue)
		prompt.WriteString("\n")
	}

	text, err := d.generator.Generate(ctx, GenerateRequest{
		System:      drafterSystemPrompt,
		Prompt:      prompt.String(),
		Temperature: 0.5,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDraftingFailed, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrDraftingFailed
	}
	return &text, nil
}
