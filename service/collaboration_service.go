package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"contractpilot-backend/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrShareNotFound        = errors.New("share not found")
	ErrShareExpired         = errors.New("share has expired")
	ErrPermissionDenied     = errors.New("insufficient permission")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrCollaboratorNotFound = errors.New("collaborator not found")
	ErrUnknownClause        = errors.New("clause not present in shared document")
	ErrShareLinkInvalid     = errors.New("share link is invalid")
	ErrOwnerImmutable       = errors.New("owner permission cannot be changed")
)

type shareLink struct {
	id         uuid.UUID
	tokenHash  []byte
	permission models.Permission
	expiresAt  *time.Time
}

type shareState struct {
	mu            sync.Mutex
	record        models.ShareRecord
	ownerID       uuid.UUID
	clauseNumbers map[int]bool
	// clause text per snapshot, kept for diffing
	versionClauses map[int][]models.Clause
	nextVersion    int
	links          []*shareLink
}

// CollaborationService is the in-memory share store: collaborators with
// ordered permissions, clause-anchored comment threads, version snapshots
// and expiring share links.
type CollaborationService struct {
	mu      sync.Mutex
	shares  map[uuid.UUID]*shareState
	baseURL string
}

// CollaborationServiceOption is a functional option for CollaborationService
type CollaborationServiceOption func(*CollaborationService)

// CollaborationWithBaseURL sets the public base URL for share links
func CollaborationWithBaseURL(url string) CollaborationServiceOption {
	return func(s *CollaborationService) {
		s.baseURL = url
	}
}

// NewCollaborationService creates a new collaboration service
func NewCollaborationService(opts ...CollaborationServiceOption) *CollaborationService {
	s := &CollaborationService{
		shares:  make(map[uuid.UUID]*shareState),
		baseURL: "http://localhost:3000",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateShareRequest opens an analysis result for collaboration
type CreateShareRequest struct {
	Title     string
	OwnerName string
	Result    *models.AnalysisResult
	ExpiresAt *time.Time
}

// CreateShare creates a share over an analysis result. The creator becomes
// the admin collaborator and the document clauses are snapshotted as
// version 1.
func (s *CollaborationService) CreateShare(req CreateShareRequest) (*models.ShareRecord, error) {
	if req.Result == nil {
		return nil, errors.New("analysis result required")
	}

	now := time.Now().UTC()
	owner := models.Collaborator{
		ID:         uuid.New(),
		Name:       req.OwnerName,
		Permission: models.PermissionAdmin,
	}

	clauses := make([]models.Clause, 0, len(req.Result.Clauses))
	clauseNumbers := make(map[int]bool, len(req.Result.Clauses))
	for _, c := range req.Result.Clauses {
		clauses = append(clauses, c.Clause)
		clauseNumbers[c.Number] = true
	}

	st := &shareState{
		record: models.ShareRecord{
			ID:               uuid.New(),
			AnalysisResultID: req.Result.ID,
			Title:            req.Title,
			CreatedAt:        now,
			ExpiresAt:        req.ExpiresAt,
			Collaborators:    []models.Collaborator{owner},
			Comments:         []models.Comment{},
			Versions: []models.VersionSnapshot{{
				VersionNumber: 1,
				CreatedAt:     now,
				CreatedBy:     owner.Name,
				Description:   "최초 공유본",
				Changes:       []string{},
			}},
		},
		ownerID:        owner.ID,
		clauseNumbers:  clauseNumbers,
		versionClauses: map[int][]models.Clause{1: clauses},
		nextVersion:    2,
	}

	s.mu.Lock()
	s.shares[st.record.ID] = st
	s.mu.Unlock()

	return snapshotRecord(st), nil
}

// GetShare returns the current share state
func (s *CollaborationService) GetShare(shareID uuid.UUID) (*models.ShareRecord, error) {
	st, err := s.lookup(shareID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := checkExpiry(st); err != nil {
		return nil, err
	}
	return snapshotRecord(st), nil
}

// SharesFor lists the live shares a collaborator participates in, newest
// first. Expired shares are skipped rather than erroring, since listing is
// a discovery operation.
func (s *CollaborationService) SharesFor(collaboratorID uuid.UUID) []models.ShareRecord {
	s.mu.Lock()
	states := make([]*shareState, 0, len(s.shares))
	for _, st := range s.shares {
		states = append(states, st)
	}
	s.mu.Unlock()

	var out []models.ShareRecord
	for _, st := range states {
		st.mu.Lock()
		if checkExpiry(st) == nil {
			if _, err := collaboratorOf(st, collaboratorID); err == nil {
				out = append(out, *snapshotRecord(st))
			}
		}
		st.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// AddCollaboratorRequest adds a participant to a share
type AddCollaboratorRequest struct {
	ShareID    uuid.UUID
	ActorID    uuid.UUID
	Name       string
	Email      string
	Permission models.Permission
}

// AddCollaborator adds a collaborator; the actor must be an admin
func (s *CollaborationService) AddCollaborator(req AddCollaboratorRequest) (*models.Collaborator, error) {
	st, err := s.lookup(req.ShareID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := checkExpiry(st); err != nil {
		return nil, err
	}
	if err := requirePermission(st, req.ActorID, models.PermissionAdmin); err != nil {
		return nil, err
	}

	collaborator := models.Collaborator{
		ID:         uuid.New(),
		Name:       req.Name,
		Email:      req.Email,
		Permission: req.Permission,
	}
	st.record.Collaborators = append(st.record.Collaborators, collaborator)
	return &collaborator, nil
}

// UpdatePermission changes a collaborator's permission. Admin only; the
// share owner's admin permission is immutable.
func (s *CollaborationService) UpdatePermission(shareID, actorID, collaboratorID uuid.UUID, permission models.Permission) error {
	st, err := s.lookup(shareID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := checkExpiry(st); err != nil {
		return err
	}
	if err := requirePermission(st, actorID, models.PermissionAdmin); err != nil {
		return err
	}
	if collaboratorID == st.ownerID {
		return ErrOwnerImmutable
	}
	for i := range st.record.Collaborators {
		if st.record.Collaborators[i].ID == collaboratorID {
			st.record.Collaborators[i].Permission = permission
			return nil
		}
	}
	return ErrCollaboratorNotFound
}

// RemoveCollaborator removes a collaborator. Admin only; the owner cannot
// be removed.
func (s *CollaborationService) RemoveCollaborator(shareID, actorID, collaboratorID uuid.UUID) error {
	st, err := s.lookup(shareID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := checkExpiry(st); err != nil {
		return err
	}
	if err := requirePermission(st, actorID, models.PermissionAdmin); err != nil {
		return err
	}
	if collaboratorID == st.ownerID {
		return ErrOwnerImmutable
	}
	for i := range st.record.Collaborators {
		if st.record.Collaborators[i].ID == collaboratorID {
			st.record.Collaborators = append(st.record.Collaborators[:i], st.record.Collaborators[i+1:]...)
			return nil
		}
	}
	return ErrCollaboratorNotFound
}

// AddCommentRequest anchors a comment to a clause of the shared document
type AddCommentRequest struct {
	ShareID      uuid.UUID
	ActorID      uuid.UUID
	ClauseNumber int
	Content      string
	Type         models.CommentType
	ParentID     *uuid.UUID
}

// AddComment adds a comment. The actor needs comment permission and the
// clause number must exist in the document as it was when shared.
func (s *CollaborationService) AddComment(req AddCommentRequest) (*models.Comment, error) {
	st, err := s.lookup(req.ShareID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := checkExpiry(st); err != nil {
		return nil, err
	}
	actor, err := collaboratorOf(st, req.ActorID)
	if err != nil {
		return nil, err
	}
	if actor.Permission < models.PermissionComment {
		return nil, ErrPermissionDenied
	}
	if !st.clauseNumbers[req.ClauseNumber] {
		return nil, fmt.Errorf("%w: clause %d", ErrUnknownClause, req.ClauseNumber)
	}
	commentType := req.Type
	if commentType == "" {
		commentType = models.CommentGeneral
	}
	if !models.ValidCommentType(commentType) {
		return nil, fmt.Errorf("invalid comment type: %s", req.Type)
	}
	if req.ParentID != nil {
		if _, err := findComment(st, *req.ParentID); err != nil {
			return nil, err
		}
	}

	comment := models.Comment{
		ID:           uuid.New(),
		ClauseNumber: req.ClauseNumber,
		AuthorName:   actor.Name,
		Content:      req.Content,
		Type:         commentType,
		CreatedAt:    time.Now().UTC(),
		ParentID:     req.ParentID,
	}
	st.record.Comments = append(st.record.Comments, comment)
	return &comment, nil
}

// ResolveComment marks a comment resolved. Comment permission required.
func (s *CollaborationService) ResolveComment(shareID, actorID, commentID uuid.UUID) error {
	st, err := s.lookup(shareID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := checkExpiry(st); err != nil {
		return err
	}
	actor, err := collaboratorOf(st, actorID)
	if err != nil {
		return err
	}
	if actor.Permission < models.PermissionComment {
		return ErrPermissionDenied
	}
	comment, err := findComment(st, commentID)
	if err != nil {
		return err
	}
	comment.Resolved = true
	comment.ResolvedBy = actor.Name
	return nil
}

// CommentsByClause returns the comments anchored to one clause, in the
// order they were added
func (s *CollaborationService) CommentsByClause(shareID uuid.UUID, clauseNumber int) ([]models.Comment, error) {
	st, err := s.lookup(shareID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := checkExpiry(st); err != nil {
		return nil, err
	}
	var out []models.Comment
	for _, c := range st.record.Comments {
		if c.ClauseNumber == clauseNumber {
			out = append(out, c)
		}
	}
	return out, nil
}

// SnapshotVersionRequest records a new document version on a share
type SnapshotVersionRequest struct {
	ShareID     uuid.UUID
	ActorID     uuid.UUID
	Description string
	Clauses     []models.Clause
}

// SnapshotVersion records a new version. Edit permission required; version
// numbers are monotonic per share and the change list is derived against
// the previous snapshot.
func (s *CollaborationService) SnapshotVersion(req SnapshotVersionRequest) (*models.VersionSnapshot, error) {
	st, err := s.lookup(req.ShareID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := checkExpiry(st); err != nil {
		return nil, err
	}
	actor, err := collaboratorOf(st, req.ActorID)
	if err != nil {
		return nil, err
	}
	if actor.Permission < models.PermissionEdit {
		return nil, ErrPermissionDenied
	}

	number := st.nextVersion
	st.nextVersion++

	previous := st.versionClauses[number-1]
	snapshot := models.VersionSnapshot{
		VersionNumber: number,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     actor.Name,
		Description:   req.Description,
		Changes:       diffClauses(previous, req.Clauses),
	}
	st.record.Versions = append(st.record.Versions, snapshot)
	st.versionClauses[number] = append([]models.Clause(nil), req.Clauses...)
	for _, c := range req.Clauses {
		st.clauseNumbers[c.Number] = true
	}
	return &snapshot, nil
}

// VersionDiff lists the clause-level changes between two recorded versions
func (s *CollaborationService) VersionDiff(shareID uuid.UUID, from, to int) ([]string, error) {
	st, err := s.lookup(shareID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := checkExpiry(st); err != nil {
		return nil, err
	}
	before, ok := st.versionClauses[from]
	if !ok {
		return nil, fmt.Errorf("version %d not found", from)
	}
	after, ok := st.versionClauses[to]
	if !ok {
		return nil, fmt.Errorf("version %d not found", to)
	}
	return diffClauses(before, after), nil
}

// GenerateShareLink mints a link token for a share. Admin only. The raw
// token is returned exactly once; only its hash is stored.
func (s *CollaborationService) GenerateShareLink(shareID, actorID uuid.UUID, permission models.Permission, expiresAt *time.Time) (*models.ShareLink, error) {
	st, err := s.lookup(shareID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := checkExpiry(st); err != nil {
		return nil, err
	}
	if err := requirePermission(st, actorID, models.PermissionAdmin); err != nil {
		return nil, err
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate share token: %w", err)
	}
	token := hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash share token: %w", err)
	}

	st.links = append(st.links, &shareLink{
		id:         uuid.New(),
		tokenHash:  hash,
		permission: permission,
		expiresAt:  expiresAt,
	})

	return &models.ShareLink{
		URL:        fmt.Sprintf("%s/shared/%s?token=%s", s.baseURL, shareID, token),
		Token:      token,
		Permission: permission,
		ExpiresAt:  expiresAt,
	}, nil
}

// ValidateShareLink resolves a presented token to its granted permission
func (s *CollaborationService) ValidateShareLink(shareID uuid.UUID, token string) (models.Permission, error) {
	st, err := s.lookup(shareID)
	if err != nil {
		return 0, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := checkExpiry(st); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	for _, link := range st.links {
		if bcrypt.CompareHashAndPassword(link.tokenHash, []byte(token)) != nil {
			continue
		}
		if link.expiresAt != nil && now.After(*link.expiresAt) {
			return 0, ErrShareExpired
		}
		return link.permission, nil
	}
	return 0, ErrShareLinkInvalid
}

func (s *CollaborationService) lookup(shareID uuid.UUID) (*shareState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.shares[shareID]
	if !ok {
		return nil, ErrShareNotFound
	}
	return st, nil
}

func checkExpiry(st *shareState) error {
	if st.record.ExpiresAt != nil && time.Now().UTC().After(*st.record.ExpiresAt) {
		return ErrShareExpired
	}
	return nil
}

func collaboratorOf(st *shareState, actorID uuid.UUID) (*models.Collaborator, error) {
	for i := range st.record.Collaborators {
		if st.record.Collaborators[i].ID == actorID {
			return &st.record.Collaborators[i], nil
		}
	}
	return nil, ErrCollaboratorNotFound
}

func requirePermission(st *shareState, actorID uuid.UUID, minimum models.Permission) error {
	actor, err := collaboratorOf(st, actorID)
	if err != nil {
		return err
	}
	if actor.Permission < minimum {
		return ErrPermissionDenied
	}
	return nil
}

func findComment(st *shareState, id uuid.UUID) (*models.Comment, error) {
	for i := range st.record.Comments {
		if st.record.Comments[i].ID == id {
			return &st.record.Comments[i], nil
		}
	}
	return nil, ErrCommentNotFound
}

func snapshotRecord(st *shareState) *models.ShareRecord {
	copied := st.record
	copied.Collaborators = append([]models.Collaborator(nil), st.record.Collaborators...)
	copied.Comments = append([]models.Comment(nil), st.record.Comments...)
	copied.Versions = append([]models.VersionSnapshot(nil), st.record.Versions...)
	return &copied
}

// diffClauses describes clause-level changes between two snapshots
func diffClauses(before, after []models.Clause) []string {
	prev := make(map[int]models.Clause, len(before))
	for _, c := range before {
		prev[c.Number] = c
	}
	next := make(map[int]models.Clause, len(after))
	for _, c := range after {
		next[c.Number] = c
	}

	changes := []string{}
	for _, c := range after {
		old, ok := prev[c.Number]
		switch {
		case !ok:
			changes = append(changes, fmt.Sprintf("%d번 조항 추가", c.Number))
		case old.Content != c.Content || old.Title != c.Title:
			changes = append(changes, fmt.Sprintf("%d번 조항 수정", c.Number))
		}
	}
	for _, c := range before {
		if _, ok := next[c.Number]; !ok {
			changes = append(changes, fmt.Sprintf("%d번 조항 삭제", c.Number))
		}
	}
	return changes
}
