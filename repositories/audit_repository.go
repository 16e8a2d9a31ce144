package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blogem/audit-tracker/models"
)

// AuditRepository interface defines audit database operations
type AuditRepository interface {
	GetAll(ctx context.Context, userID string) ([]models.Audit, error)
	GetByID(ctx context.Context, userID, id string) (*models.Audit, error)
	Create(ctx context.Context, audit *models.Audit) error
	Update(ctx context.Context, audit *models.Audit) error
	Delete(ctx context.Context, userID, id string) error
	CountByStatus(ctx context.Context, userID string) (map[models.AuditStatus]int, error)
}

// auditRepository implements AuditRepository interface
type auditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

const auditColumns = `id, name, client_name, target, description, start_date, end_date,
	       status, user_id, created_at, updated_at`

// GetAll retrieves all audits owned by the user, newest first
func (r *auditRepository) GetAll(ctx context.Context, userID string) ([]models.Audit, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audits
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()

	var audits []models.Audit
	for rows.Next() {
		audit, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		audits = append(audits, *audit)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audits: %w", err)
	}

	return audits, nil
}

// GetByID retrieves a single audit owned by the user
func (r *auditRepository) GetByID(ctx context.Context, userID, id string) (*models.Audit, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audits
		WHERE id = ? AND user_id = ?
	`

	audit, err := scanAudit(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}

	return audit, nil
}

// Create persists a new audit and assigns its identifier and timestamps
func (r *auditRepository) Create(ctx context.Context, audit *models.Audit) error {
	query := `
		INSERT INTO audits (id, name, client_name, target, description, start_date,
		                    end_date, status, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if audit.Status == "" {
		audit.Status = models.AuditStatusPlanning
	}

	now := time.Now().UTC()
	audit.ID = uuid.New().String()
	audit.CreatedAt = now
	audit.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		audit.ID,
		audit.Name,
		audit.ClientName,
		nullString(audit.Target),
		nullString(audit.Description),
		nullString(audit.StartDate),
		nullString(audit.EndDate),
		string(audit.Status),
		audit.UserID,
		audit.CreatedAt,
		audit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit: %w", err)
	}

	return nil
}

// Update persists changes to an existing audit owned by the user
func (r *auditRepository) Update(ctx context.Context, audit *models.Audit) error {
	query := `
		UPDATE audits
		SET name = ?, client_name = ?, target = ?, description = ?,
		    start_date = ?, end_date = ?, status = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`

	now := time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		audit.Name,
		audit.ClientName,
		nullString(audit.Target),
		nullString(audit.Description),
		nullString(audit.StartDate),
		nullString(audit.EndDate),
		string(audit.Status),
		now,
		audit.ID,
		audit.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update audit: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	audit.UpdatedAt = now
	return nil
}

// Delete removes an audit owned by the user. The store cascades the delete
// to the audit's checklist items and findings.
func (r *auditRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM audits WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete audit: %w", err)
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

// CountByStatus returns the number of audits per status for the user
func (r *auditRepository) CountByStatus(ctx context.Context, userID string) (map[models.AuditStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM audits WHERE user_id = ? GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count audits: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.AuditStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan audit count: %w", err)
		}
		counts[models.AuditStatus(status)] = count
	}

	return counts, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanAudit reads one audit row, converting NULL columns to empty strings
func scanAudit(s scanner) (*models.Audit, error) {
	var audit models.Audit
	var target, description, startDate, endDate sql.NullString
	var status string

	err := s.Scan(
		&audit.ID,
		&audit.Name,
		&audit.ClientName,
		&target,
		&description,
		&startDate,
		&endDate,
		&status,
		&audit.UserID,
		&audit.CreatedAt,
		&audit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	audit.Target = target.String
	audit.Description = description.String
	audit.StartDate = startDate.String
	audit.EndDate = endDate.String
	audit.Status = models.AuditStatus(status)

	return &audit, nil
}
