package models

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel represents the document-level risk bucket
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// ClauseAnalysis holds the risk assessment for a single clause.
// It is produced once per clause per analysis run and never mutated.
type ClauseAnalysis struct {
	RiskScore int      `json:"risk_score"` // 0-10, 10 most dangerous
	Summary   string   `json:"summary"`
	Issues    []string `json:"issues"`
}

// CitedCase is a weak reference into the precedent corpus. The analysis
// quotes it but never owns it.
type CitedCase struct {
	CaseNumber string `json:"case_number"`
	Summary    string `json:"summary"`
	Relevance  string `json:"relevance"`
}

// AnnotatedClause combines a clause with its analysis, retrieved precedent
// and an optional balanced alternative. Alternative is a pointer so that
// absence stays distinguishable from an empty replacement.
// AnalysisUnavailable marks clauses whose scoring failed; such clauses carry
// no fabricated score and are excluded from document-level averages.
type AnnotatedClause struct {
	Clause
	Analysis            *ClauseAnalysis `json:"analysis,omitempty"`
	SimilarCases        []CitedCase     `json:"similar_cases"`
	Alternative         *string         `json:"alternative,omitempty"`
	AnalysisUnavailable bool            `json:"analysis_unavailable,omitempty"`
}

// AnalysisResult is the document-level analysis artifact. It is created
// atomically by the orchestrator once all clause pipelines finish and is
// read-only thereafter.
type AnalysisResult struct {
	ID                  uuid.UUID         `json:"id"`
	ContractType        string            `json:"contract_type"`
	TotalClauses        int               `json:"total_clauses"`
	HighRiskClauses     int               `json:"high_risk_clauses"`     // risk_score >= high-risk threshold (6)
	RemediationEligible int               `json:"remediation_eligible"`  // risk_score >= remediation threshold (7)
	AverageRiskScore    float64           `json:"average_risk_score"`    // mean over scored clauses, 1 decimal
	OverallRiskLevel    RiskLevel         `json:"overall_risk_level"`
	ClausesExcluded     int               `json:"clauses_excluded"` // clauses excluded from the average
	Clauses             []AnnotatedClause `json:"clauses"`
	Summary             string            `json:"summary"`
	CreatedAt           time.Time         `json:"created_at"`
}

// ContextClause is the bounded per-clause view injected into consultation
// prompts: title and summary only, never full clause text.
type ContextClause struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// ContractContext is the analysis-derived context attached to a
// consultation session, restricted to high-risk clauses.
type ContractContext struct {
	ContractType    string          `json:"contract_type"`
	Summary         string          `json:"summary"`
	HighRiskClauses []ContextClause `json:"high_risk_clauses"`
}
