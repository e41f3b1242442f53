package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"contractpilot-backend/models"
	"contractpilot-backend/storage"

	"github.com/google/uuid"
)

// DocumentService renders revised contract documents from analysis results
type DocumentService struct {
	storage storage.Storage
}

// DocumentServiceOption is a functional option for DocumentService
type DocumentServiceOption func(*DocumentService)

// DocumentWithStorage sets the artifact storage backend
func DocumentWithStorage(s storage.Storage) DocumentServiceOption {
	return func(svc *DocumentService) {
		svc.storage = s
	}
}

// NewDocumentService creates a new document service
func NewDocumentService(opts ...DocumentServiceOption) *DocumentService {
	svc := &DocumentService{}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// RenderSafeContractRequest asks for a contract rendering with drafted
// alternatives substituted in
type RenderSafeContractRequest struct {
	Result            *models.AnalysisResult
	ApplyAlternatives bool
}

// RenderSafeContractResult carries the rendered document
type RenderSafeContractResult struct {
	Filename    string
	Content     []byte
	StoragePath string
	Applied     int
}

// RenderSafeContract assembles the contract text clause by clause. When
// ApplyAlternatives is set, clauses with a drafted alternative use it in
// place of the original text; everything else is carried verbatim. The
// rendered document is persisted when a storage backend is configured.
func (svc *DocumentService) RenderSafeContract(ctx context.Context, req RenderSafeContractRequest) (*RenderSafeContractResult, error) {
	if req.Result == nil {
		return nil, errors.New("analysis result required")
	}
	if len(req.Result.Clauses) == 0 {
		return nil, ErrEmptyDocument
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (검토 완료본)\n", req.Result.ContractType)
	fmt.Fprintf(&b, "생성일: %s\n\n", time.Now().UTC().Format("2006-01-02"))

	applied := 0
	for _, clause := range req.Result.Clauses {
		text := clause.Content
		if req.ApplyAlternatives && clause.Alternative != nil {
			text = *clause.Alternative
			applied++
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	if applied > 0 {
		fmt.Fprintf(&b, "---\n본 문서는 원본 계약서의 %d개 조항을 수정 제안으로 대체한 것입니다. 최종 체결 전 법률 전문가의 검토를 권합니다.\n", applied)
	}

	result := &RenderSafeContractResult{
		Filename: fmt.Sprintf("safe_contract_%s.txt", req.Result.ID),
		Content:  []byte(b.String()),
		Applied:  applied,
	}

	if svc.storage != nil {
		path, err := svc.storage.Upload(ctx, storage.KindReport, req.Result.ID, result.Filename, strings.NewReader(b.String()))
		if err != nil {
			// the rendering itself succeeded; persistence is best-effort
			log.Printf("Warning: Failed to persist rendered contract %s: %v", req.Result.ID, err)
		} else {
			result.StoragePath = path
		}
	}

	return result, nil
}

// ArchiveUpload persists an uploaded contract document for later reference
func (svc *DocumentService) ArchiveUpload(ctx context.Context, filename string, data []byte) (uuid.UUID, string, error) {
	if svc.storage == nil {
		return uuid.Nil, "", errors.New("storage not configured")
	}
	id := uuid.New()
	path, err := svc.storage.Upload(ctx, storage.KindUpload, id, filename, bytes.NewReader(data))
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("failed to archive upload: %w", err)
	}
	return id, path, nil
}
