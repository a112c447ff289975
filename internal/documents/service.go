package documents

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	UploadDocument(ctx context.Context, req UploadRequest) (*Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	ListDocuments(ctx context.Context, orgID uuid.UUID, docType *DocumentType) ([]Document, error)
	DownloadDocument(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)

	ReuploadDocument(ctx context.Context, id uuid.UUID, req ReuploadRequest) (*Document, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, req MetadataUpdate) (*Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
}

type UploadRequest struct {
	OrgID       uuid.UUID
	Name        string
	Type        DocumentType
	FileSize    int64
	FileContent io.Reader
	IssuedAt    *time.Time
	ExpiryDate  *time.Time
}

type ReuploadRequest struct {
	Name        string
	FileSize    int64
	FileContent io.Reader
}

type MetadataUpdate struct {
	Name       *string
	IssuedAt   *time.Time
	ExpiryDate *time.Time
}

type documentService struct {
	repo    Repository
	storage *StorageProvider
	logger  *zap.Logger
}

func NewService(repo Repository, storage *StorageProvider, logger *zap.Logger) Service {
	return &documentService{
		repo:    repo,
		storage: storage,
		logger:  logger,
	}
}

func (s *documentService) UploadDocument(ctx context.Context, req UploadRequest) (*Document, error) {
	docID := uuid.New()
	key := s.storage.GenerateKey(req.OrgID.String(), req.Type, req.Name)

	if err := s.storage.Upload(ctx, key, req.FileContent); err != nil {
		return nil, fmt.Errorf("failed to store document file: %w", err)
	}

	doc := &Document{
		ID:         docID,
		OrgID:      req.OrgID,
		Name:       req.Name,
		Type:       req.Type,
		FileSize:   req.FileSize,
		S3Key:      key,
		S3Bucket:   s.storage.Bucket(),
		Status:     StatusUploaded,
		UploadedAt: time.Now(),
		IssuedAt:   req.IssuedAt,
		ExpiryDate: req.ExpiryDate,
	}

	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	s.logger.Info("Document uploaded",
		zap.String("document_id", doc.ID.String()),
		zap.String("org_id", doc.OrgID.String()),
		zap.String("document_type", string(doc.Type)))

	return doc, nil
}

func (s *documentService) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	return s.repo.GetDocumentByID(ctx, id)
}

func (s *documentService) ListDocuments(ctx context.Context, orgID uuid.UUID, docType *DocumentType) ([]Document, error) {
	return s.repo.ListDocuments(ctx, orgID, docType)
}

func (s *documentService) DownloadDocument(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	doc, err := s.repo.GetDocumentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document not found")
	}
	return s.storage.Download(ctx, doc.S3Key)
}

// ReuploadDocument replaces the file behind an existing document. The record
// keeps its identity; status resets to uploaded so review starts over.
func (s *documentService) ReuploadDocument(ctx context.Context, id uuid.UUID, req ReuploadRequest) (*Document, error) {
	doc, err := s.repo.GetDocumentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document not found")
	}

	name := doc.Name
	if req.Name != "" {
		name = req.Name
	}
	key := s.storage.GenerateKey(doc.OrgID.String(), doc.Type, name)
	if err := s.storage.Upload(ctx, key, req.FileContent); err != nil {
		return nil, fmt.Errorf("failed to store document file: %w", err)
	}

	doc.Name = name
	doc.S3Key = key
	doc.FileSize = req.FileSize
	doc.Status = StatusUploaded
	doc.UploadedAt = time.Now()

	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to update document record: %w", err)
	}

	s.logger.Info("Document re-uploaded",
		zap.String("document_id", doc.ID.String()),
		zap.String("org_id", doc.OrgID.String()))

	return doc, nil
}

func (s *documentService) UpdateMetadata(ctx context.Context, id uuid.UUID, req MetadataUpdate) (*Document, error) {
	doc, err := s.repo.GetDocumentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document not found")
	}

	if req.Name != nil {
		doc.Name = *req.Name
	}
	if req.IssuedAt != nil {
		doc.IssuedAt = req.IssuedAt
	}
	if req.ExpiryDate != nil {
		doc.ExpiryDate = req.ExpiryDate
	}

	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to update document record: %w", err)
	}
	return doc, nil
}

func (s *documentService) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	doc, err := s.repo.GetDocumentByID(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document not found")
	}
	// The file stays in S3 for audit purposes; only the record goes.
	return s.repo.DeleteDocument(ctx, id)
}
