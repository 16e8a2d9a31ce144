package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/blogem/audit-tracker/metrics"
	"github.com/blogem/audit-tracker/models"
	"github.com/blogem/audit-tracker/repositories"
)

// AttachmentService manages attachment metadata. Files themselves live in
// external storage; this service only tracks their records.
type AttachmentService interface {
	ListByFinding(ctx context.Context, findingID string) ([]models.Attachment, error)
	AddAttachment(ctx context.Context, findingID, fileName, filePath string, fileSize *int64, fileType string) (*models.Attachment, error)
	RemoveAttachment(ctx context.Context, id string) error
}

// attachmentService implements AttachmentService interface
type attachmentService struct {
	attachmentRepo repositories.AttachmentRepository
	metrics        *metrics.Metrics
}

// NewAttachmentService creates a new attachment service
func NewAttachmentService(attachmentRepo repositories.AttachmentRepository, m *metrics.Metrics) AttachmentService {
	return &attachmentService{
		attachmentRepo: attachmentRepo,
		metrics:        m,
	}
}

// ListByFinding retrieves a finding's attachment records, newest first
func (s *attachmentService) ListByFinding(ctx context.Context, findingID string) ([]models.Attachment, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	attachments, err := s.attachmentRepo.GetByFindingID(ctx, userID, findingID)
	s.metrics.RecordStoreOperation("attachments", "list", err)
	return attachments, err
}

// AddAttachment records attachment metadata for a finding
func (s *attachmentService) AddAttachment(ctx context.Context, findingID, fileName, filePath string, fileSize *int64, fileType string) (*models.Attachment, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	fileName = strings.TrimSpace(fileName)
	filePath = strings.TrimSpace(filePath)
	if fileName == "" {
		return nil, fmt.Errorf("file name is required")
	}
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	attachment := &models.Attachment{
		FindingID: findingID,
		FileName:  fileName,
		FilePath:  filePath,
		FileSize:  fileSize,
		FileType:  fileType,
		UserID:    userID,
	}

	err = s.attachmentRepo.Create(ctx, attachment)
	s.metrics.RecordStoreOperation("attachments", "create", err)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}

	return attachment, nil
}

// RemoveAttachment deletes an attachment metadata record
func (s *attachmentService) RemoveAttachment(ctx context.Context, id string) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}

	err = s.attachmentRepo.Delete(ctx, userID, id)
	s.metrics.RecordStoreOperation("attachments", "delete", err)
	return err
}
