package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Permission is the collaborator access level. Levels form a total order
// view < comment < edit < admin, so a required-level check is a single
// comparison.
type Permission int

const (
	PermissionView Permission = iota
	PermissionComment
	PermissionEdit
	PermissionAdmin
)

var permissionNames = map[Permission]string{
	PermissionView:    "view",
	PermissionComment: "comment",
	PermissionEdit:    "edit",
	PermissionAdmin:   "admin",
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("permission(%d)", int(p))
}

// ParsePermission converts a wire-level permission name
func ParsePermission(s string) (Permission, error) {
	for p, name := range permissionNames {
		if name == s {
			return p, nil
		}
	}
	return PermissionView, fmt.Errorf("unknown permission: %q", s)
}

// MarshalJSON serializes the permission as its name
func (p Permission) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON parses a permission name
func (p *Permission) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePermission(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// CommentType categorizes a clause comment
type CommentType string

const (
	CommentGeneral    CommentType = "general"
	CommentSuggestion CommentType = "suggestion"
	CommentQuestion   CommentType = "question"
	CommentApproval   CommentType = "approval"
	CommentRejection  CommentType = "rejection"
)

// ValidCommentType reports whether t is one of the known comment types
func ValidCommentType(t CommentType) bool {
	switch t {
	case CommentGeneral, CommentSuggestion, CommentQuestion, CommentApproval, CommentRejection:
		return true
	}
	return false
}

// Collaborator is a named identity with a permission on one share record
type Collaborator struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	Permission Permission `json:"permission"`
}

// Comment is a clause-anchored annotation on a shared analysis. The clause
// number must have existed in the referenced analysis at share time; stale
// references are tolerated, never auto-repaired.
type Comment struct {
	ID           uuid.UUID   `json:"id"`
	ClauseNumber int         `json:"clause_number"`
	AuthorName   string      `json:"author_name"`
	Content      string      `json:"content"`
	Type         CommentType `json:"comment_type"`
	CreatedAt    time.Time   `json:"created_at"`
	Resolved     bool        `json:"resolved"`
	ResolvedBy   string      `json:"resolved_by,omitempty"`
	ParentID     *uuid.UUID  `json:"parent_id,omitempty"`
}

// VersionSnapshot records one version of a shared analysis. Version numbers
// start at 1 and are monotonically increasing per share record, never
// reused even if a snapshot is later invalidated.
type VersionSnapshot struct {
	VersionNumber int       `json:"version_number"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
	Description   string    `json:"description"`
	Changes       []string  `json:"changes"`
}

// ShareRecord is the unit of collaboration: one shareable, permissioned,
// commentable, versioned view of an analysis result.
type ShareRecord struct {
	ID               uuid.UUID         `json:"id"`
	AnalysisResultID uuid.UUID         `json:"analysis_result_id"`
	Title            string            `json:"title"`
	CreatedAt        time.Time         `json:"created_at"`
	ExpiresAt        *time.Time        `json:"expires_at,omitempty"`
	Collaborators    []Collaborator    `json:"collaborators"`
	Comments         []Comment         `json:"comments"`
	Versions         []VersionSnapshot `json:"versions"`
}

// ShareLink is a token-bearing access link for a share record. The raw
// token is returned exactly once; only its hash is stored.
type ShareLink struct {
	URL        string     `json:"link"`
	Token      string     `json:"token"`
	Permission Permission `json:"permission"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}
