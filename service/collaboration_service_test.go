package service

import (
	"sync"
	"testing"
	"time"

	"contractpilot-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		ID:           uuid.New(),
		ContractType: "근로계약서",
		Clauses: []models.AnnotatedClause{
			{Clause: models.Clause{Number: 1, Title: "제1조", Content: "목적 조항"}},
			{Clause: models.Clause{Number: 2, Title: "제2조", Content: "해지 조항"}},
		},
	}
}

func newShare(t *testing.T, svc *CollaborationService) (*models.ShareRecord, uuid.UUID) {
	t.Helper()
	share, err := svc.CreateShare(CreateShareRequest{
		Title:     "검토 요청",
		OwnerName: "김변호사",
		Result:    sampleResult(),
	})
	require.NoError(t, err)
	return share, share.Collaborators[0].ID
}

func addCollaborator(t *testing.T, svc *CollaborationService, shareID, ownerID uuid.UUID, permission models.Permission) uuid.UUID {
	t.Helper()
	c, err := svc.AddCollaborator(AddCollaboratorRequest{
		ShareID:    shareID,
		ActorID:    ownerID,
		Name:       "참여자",
		Permission: permission,
	})
	require.NoError(t, err)
	return c.ID
}

func TestCreateShareInitialState(t *testing.T) {
	svc := NewCollaborationService()
	share, _ := newShare(t, svc)

	require.Len(t, share.Collaborators, 1)
	assert.Equal(t, models.PermissionAdmin, share.Collaborators[0].Permission)
	require.Len(t, share.Versions, 1)
	assert.Equal(t, 1, share.Versions[0].VersionNumber)
	assert.Empty(t, share.Comments)
}

func TestCommentPermissionGating(t *testing.T) {
	svc := NewCollaborationService()
	share, ownerID := newShare(t, svc)

	viewerID := addCollaborator(t, svc, share.ID, ownerID, models.PermissionView)
	commenterID := addCollaborator(t, svc, share.ID, ownerID, models.PermissionComment)

	_, err := svc.AddComment(AddCommentRequest{
		ShareID:      share.ID,
		ActorID:      viewerID,
		ClauseNumber: 1,
		Content:      "이 조항이 이상합니다",
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	comment, err := svc.AddComment(AddCommentRequest{
		ShareID:      share.ID,
		ActorID:      commenterID,
		ClauseNumber: 1,
		Content:      "이 조항이 이상합니다",
		Type:         models.CommentSuggestion,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, comment.ClauseNumber)
	assert.Equal(t, "참여자", comment.AuthorName)
}

func TestCommentUnknownClause(t *testing.T) {
	svc := NewCollaborationService()
	share, ownerID := newShare(t, svc)

	_, err := svc.AddComment(AddCommentRequest{
		ShareID:      share.ID,
		ActorID:      ownerID,
		ClauseNumber: 99,
		Content:      "존재하지 않는 조항",
	})
	assert.ErrorIs(t, err, ErrUnknownClause)
}

func TestConcurrentCommentsBothLand(t *testing.T) {
	svc := NewCollaborationService()
	share, ownerID := newShare(t, svc)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddComment(AddCommentRequest{
				ShareID:      share.ID,
				ActorID:      ownerID,
				ClauseNumber: 2,
				Content:      "동시 코멘트",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	comments, err := svc.CommentsByClause(share.ID, 2)
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}

func TestCommentThreadAndResolve(t *testing.T) {
	svc := NewCollaborationService()
	share, ownerID := newShare(t, svc)

	parent, err := svc.AddComment(AddCommentRequest{
		ShareID:      share.ID,
		ActorID:      ownerID,
		ClauseNumber: 1,
		Content:      "수정이 필요합니다",
	})
	require.NoError(t, err)

	reply, err := svc.AddComment(AddCommentRequest{
		ShareID:      share.ID,
		ActorID:      ownerID,
		ClauseNumber: 1,
		Content:      "동의합니다",
		ParentID:     &parent.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, parent.ID, *reply.ParentID)

	require.NoError(t, svc.ResolveComment(share.ID, ownerID, parent.ID))

	comments, err := svc.CommentsByClause(share.ID, 1)
	require.NoError(t, err)
	assert.True(t, comments[0].Resolved)
	assert.Equal(t, "김변호사", comments[0].ResolvedBy)
}

func TestShareExpiry(t *testing.T) {
	svc := NewCollaborationService()
	expired := time.Now().UTC().Add(-time.Hour)
	share, err := svc.CreateShare(CreateShareRequest{
		Title:     "만료된 공유",
		OwnerName: "김변호사",
		Result:    sampleResult(),
		ExpiresAt: &expired,
	})
	require.NoError(t, err)
	ownerID := share.Collaborators[0].ID

	_, err = svc.GetShare(share.ID)
	assert.ErrorIs(t, err, ErrShareExpired)

	_, err = svc.AddComment(AddCommentRequest{
		ShareID:      share.ID,
		ActorID:      ownerID,
		ClauseNumber: 1,
		Content:      "늦은 코멘트",
	})
	assert.ErrorIs(t, err, ErrShareExpired)
}

func TestVersionNumbersMonotonic(t *testing.T) {
	svc := NewCollaborationService()
	share, ownerID := newShare(t, svc)

	v2, err := svc.SnapshotVersion(SnapshotVersionRequest{
		ShareID:     share.ID,
		ActorID:     ownerID,
		Description: "해지 조항 수정",
		Clauses: []models.Clause{
			{Number: 1, Title: "제1조", Content: "목적 조항"},
			{Number: 2, Title: "제2조", Content: "수정된 해지 조항"},
			{Number: 3, Title: "제3조", Content: "신설 조항"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNumber)

	v3, err := svc.SnapshotVersion(SnapshotVersionRequest{
		ShareID: share.ID,
		ActorID: ownerID,
		Clauses: []models.Clause{
			{Number: 1, Title: "제1조", Content: "목적 조항"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, v3.VersionNumber)

	// version 2 recorded a modification and an addition
	assert.Contains(t, v2.Changes, "2번 조항 수정")
	assert.Contains(t, v2.Changes, "3번 조항 추가")

	diff, err := svc.VersionDiff(share.ID, 2, 3)
	require.NoError(t, err)
	assert.Contains(t, diff, "2번 조항 삭제")
	assert.Contains(t, diff, "3번 조항 삭제")
}

func TestVersionRequiresEditPermission(t *testing.T) {
	svc := NewCollaborationService()
	share, ownerID := newShare(t, svc)
	commenterID := addCollaborator(t, svc, share.ID, ownerID, models.PermissionComment)

	_, err := svc.SnapshotVersion(SnapshotVersionRequest{
		ShareID: share.ID,
		ActorID: commenterID,
		Clauses: []models.Clause{{Number: 1, Content: "변경"}},
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestOwnerPermissionImmutable(t *testing.T) {
	svc := NewCollaborationService()
	share, ownerID := newShare(t, svc)

	err := svc.UpdatePermission(share.ID, ownerID, ownerID, models.PermissionView)
	assert.ErrorIs(t, err, ErrOwnerImmutable)

	err = svc.RemoveCollaborator(share.ID, ownerID, ownerID)
	assert.ErrorIs(t, err, ErrOwnerImmutable)
}

func TestCollaboratorManagementRequiresAdmin(t *testing.T) {
	svc := NewCollaborationService()
	share, ownerID := newShare(t, svc)
	editorID := addCollaborator(t, svc, share.ID, ownerID, models.PermissionEdit)

	_, err := svc.AddCollaborator(AddCollaboratorRequest{
		ShareID:    share.ID,
		ActorID:    editorID,
		Name:       "무단 초대",
		Permission: models.PermissionView,
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestSharesForListsOnlyOwnShares(t *testing.T) {
	svc := NewCollaborationService()
	_, ownerID := newShare(t, svc)
	newShare(t, svc) // different owner, must not appear

	expired := time.Now().UTC().Add(-time.Hour)
	_, err := svc.CreateShare(CreateShareRequest{
		Title:     "만료된 공유",
		OwnerName: "김변호사",
		Result:    sampleResult(),
		ExpiresAt: &expired,
	})
	require.NoError(t, err)

	shares := svc.SharesFor(ownerID)
	require.Len(t, shares, 1)
	assert.Equal(t, "검토 요청", shares[0].Title)
}

func TestShareLinkRoundtrip(t *testing.T) {
	svc := NewCollaborationService(CollaborationWithBaseURL("https://contractpilot.example.com"))
	share, ownerID := newShare(t, svc)

	link, err := svc.GenerateShareLink(share.ID, ownerID, models.PermissionComment, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, link.Token)
	assert.Contains(t, link.URL, "https://contractpilot.example.com/shared/")
	assert.Nil(t, link.ExpiresAt)

	permission, err := svc.ValidateShareLink(share.ID, link.Token)
	require.NoError(t, err)
	assert.Equal(t, models.PermissionComment, permission)

	_, err = svc.ValidateShareLink(share.ID, "wrong-token")
	assert.ErrorIs(t, err, ErrShareLinkInvalid)
}

func TestShareLinkExpiry(t *testing.T) {
	svc := NewCollaborationService()
	share, ownerID := newShare(t, svc)

	expired := time.Now().UTC().Add(-time.Minute)
	link, err := svc.GenerateShareLink(share.ID, ownerID, models.PermissionView, &expired)
	require.NoError(t, err)
	require.NotNil(t, link.ExpiresAt)
	assert.True(t, link.ExpiresAt.Equal(expired))

	_, err = svc.ValidateShareLink(share.ID, link.Token)
	assert.ErrorIs(t, err, ErrShareExpired)
}
