package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blogem/audit-tracker/models"
)

// AttachmentRepository interface defines attachment metadata operations.
// Only the metadata rows live here; the files themselves are external.
type AttachmentRepository interface {
	GetByFindingID(ctx context.Context, userID, findingID string) ([]models.Attachment, error)
	GetByID(ctx context.Context, userID, id string) (*models.Attachment, error)
	Create(ctx context.Context, attachment *models.Attachment) error
	Delete(ctx context.Context, userID, id string) error
}

// attachmentRepository implements AttachmentRepository interface
type attachmentRepository struct {
	db *sql.DB
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db *sql.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

// GetByFindingID retrieves a finding's attachments, newest first
func (r *attachmentRepository) GetByFindingID(ctx context.Context, userID, findingID string) ([]models.Attachment, error) {
	query := `
		SELECT id, finding_id, file_name, file_path, file_size, file_type,
		       user_id, created_at
		FROM attachments
		WHERE finding_id = ? AND user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, findingID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachments: %w", err)
	}
	defer rows.Close()

	var attachments []models.Attachment
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, *attachment)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachments: %w", err)
	}

	return attachments, nil
}

// GetByID retrieves a single attachment owned by the user
func (r *attachmentRepository) GetByID(ctx context.Context, userID, id string) (*models.Attachment, error) {
	query := `
		SELECT id, finding_id, file_name, file_path, file_size, file_type,
		       user_id, created_at
		FROM attachments
		WHERE id = ? AND user_id = ?
	`

	attachment, err := scanAttachment(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}

	return attachment, nil
}

// Create persists a new attachment metadata record
func (r *attachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	query := `
		INSERT INTO attachments (id, finding_id, file_name, file_path, file_size,
		                         file_type, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	attachment.ID = uuid.New().String()
	attachment.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		attachment.ID,
		attachment.FindingID,
		attachment.FileName,
		attachment.FilePath,
		attachment.FileSize,
		nullString(attachment.FileType),
		attachment.UserID,
		attachment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}

	return nil
}

// Delete removes an attachment metadata record owned by the user
func (r *attachmentRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM attachments WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// scanAttachment reads one attachment row
func scanAttachment(s scanner) (*models.Attachment, error) {
	var attachment models.Attachment
	var fileSize sql.NullInt64
	var fileType sql.NullString

	err := s.Scan(
		&attachment.ID,
		&attachment.FindingID,
		&attachment.FileName,
		&attachment.FilePath,
		&fileSize,
		&fileType,
		&attachment.UserID,
		&attachment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if fileSize.Valid {
		size := fileSize.Int64
		attachment.FileSize = &size
	}
	attachment.FileType = fileType.String

	return &attachment, nil
}
