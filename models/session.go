package models

import (
	"time"

	"github.com/google/uuid"
)

// TurnRole identifies the author of a conversation turn
type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
)

// SessionVariant selects the consultation framing
type SessionVariant string

const (
	VariantContract SessionVariant = "contract"
	VariantLabor    SessionVariant = "labor"
)

// Turn is one message in a consultation session. Assistant turns carry the
// cases actually cited in the reply; NeedsExpert is set on the single turn
// where the escalation signal first surfaced.
type Turn struct {
	Role        TurnRole    `json:"role"`
	Content     string      `json:"content"`
	CitedCases  []CitedCase `json:"cited_cases,omitempty"`
	NeedsExpert bool        `json:"needs_expert,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ConsultationSession is a server-owned, stateful dialogue context. Turns
// are strictly ordered by arrival and appended, never rewritten. The
// optional analysis reference is read-only context, not owned state.
type ConsultationSession struct {
	ID               uuid.UUID      `json:"id"`
	Variant          SessionVariant `json:"variant"`
	Turns            []Turn         `json:"turns"`
	AnalysisResultID *uuid.UUID     `json:"analysis_result_id,omitempty"`
	ExpertSuggested  bool           `json:"expert_suggested"` // latched once the escalation signal surfaced
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
