package service

import (
	"os"
	"strconv"
	"time"
)

// Policy holds the tunable analysis and consultation thresholds. Values are
// read once at boot; the defaults are the product policy values.
type Policy struct {
	// HighRiskThreshold is the minimum risk score counted as high risk (6).
	HighRiskThreshold int
	// RemediationThreshold is the minimum risk score that gets an
	// alternative drafted (7).
	RemediationThreshold int
	// MaxFailureFraction is the fraction of clauses allowed to fail scoring
	// before the whole document analysis fails (0.20). At least one failure
	// is always tolerated.
	MaxFailureFraction float64
	// CitationLimit caps retrieved precedent per query (3).
	CitationLimit int
	// AnalysisConcurrency bounds concurrent per-clause pipelines.
	AnalysisConcurrency int
	// HistoryWindow is the number of prior turns included in a consultation
	// context window.
	HistoryWindow int
	// LLMTimeout bounds each external capability call independently.
	LLMTimeout time.Duration
}

// DefaultPolicy returns the production policy values
func DefaultPolicy() Policy {
	return Policy{
		HighRiskThreshold:    6,
		RemediationThreshold: 7,
		MaxFailureFraction:   0.20,
		CitationLimit:        3,
		AnalysisConcurrency:  4,
		HistoryWindow:        10,
		LLMTimeout:           60 * time.Second,
	}
}

// PolicyFromEnv returns DefaultPolicy with environment overrides applied
func PolicyFromEnv() Policy {
	p := DefaultPolicy()
	if v, ok := envInt("HIGH_RISK_THRESHOLD"); ok {
		p.HighRiskThreshold = v
	}
	if v, ok := envInt("REMEDIATION_THRESHOLD"); ok {
		p.RemediationThreshold = v
	}
	if v := os.Getenv("MAX_FAILURE_FRACTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			p.MaxFailureFraction = f
		}
	}
	if v, ok := envInt("CITATION_LIMIT"); ok {
		p.CitationLimit = v
	}
	if v, ok := envInt("ANALYSIS_CONCURRENCY"); ok {
		p.AnalysisConcurrency = v
	}
	if v, ok := envInt("LLM_TIMEOUT_SECONDS"); ok {
		p.LLMTimeout = time.Duration(v) * time.Second
	}
	return p
}

// MaxClauseFailures returns the number of clause failures tolerated for a
// document of n clauses: up to MaxFailureFraction of them, minimum 1.
func (p Policy) MaxClauseFailures(n int) int {
	allowed := int(p.MaxFailureFraction * float64(n))
	if allowed < 1 {
		allowed = 1
	}
	return allowed
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
