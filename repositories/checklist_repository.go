package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blogem/audit-tracker/models"
)

// ChecklistRepository interface defines checklist item database operations.
// Checklist items carry no owner column: every query authorizes transitively
// through the parent audit's user_id.
type ChecklistRepository interface {
	GetByAuditID(ctx context.Context, userID, auditID string) ([]models.ChecklistItem, error)
	GetByID(ctx context.Context, userID, id string) (*models.ChecklistItem, error)
	CreateBatch(ctx context.Context, items []models.ChecklistItem) error
	Update(ctx context.Context, userID, id string, checked bool, notes string) (*models.ChecklistItem, error)
}

// checklistRepository implements ChecklistRepository interface
type checklistRepository struct {
	db *sql.DB
}

// NewChecklistRepository creates a new checklist repository
func NewChecklistRepository(db *sql.DB) ChecklistRepository {
	return &checklistRepository{db: db}
}

// GetByAuditID retrieves an audit's checklist items ordered by OWASP code
func (r *checklistRepository) GetByAuditID(ctx context.Context, userID, auditID string) ([]models.ChecklistItem, error) {
	query := `
		SELECT c.id, c.audit_id, c.owasp_code, c.owasp_category, c.title,
		       c.description, c.checked, c.notes, c.created_at, c.updated_at
		FROM checklist_items c
		JOIN audits a ON a.id = c.audit_id
		WHERE c.audit_id = ? AND a.user_id = ?
		ORDER BY c.owasp_code ASC
	`

	rows, err := r.db.QueryContext(ctx, query, auditID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query checklist items: %w", err)
	}
	defer rows.Close()

	var items []models.ChecklistItem
	for rows.Next() {
		item, err := scanChecklistItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checklist item: %w", err)
		}
		items = append(items, *item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checklist items: %w", err)
	}

	return items, nil
}

// GetByID retrieves a single checklist item visible to the user
func (r *checklistRepository) GetByID(ctx context.Context, userID, id string) (*models.ChecklistItem, error) {
	query := `
		SELECT c.id, c.audit_id, c.owasp_code, c.owasp_category, c.title,
		       c.description, c.checked, c.notes, c.created_at, c.updated_at
		FROM checklist_items c
		JOIN audits a ON a.id = c.audit_id
		WHERE c.id = ? AND a.user_id = ?
	`

	item, err := scanChecklistItem(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checklist item: %w", err)
	}

	return item, nil
}

// CreateBatch persists checklist items as a single atomic batch. All items
// are inserted or none are.
func (r *checklistRepository) CreateBatch(ctx context.Context, items []models.ChecklistItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO checklist_items (id, audit_id, owasp_code, owasp_category,
		                             title, description, checked, notes,
		                             created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare checklist insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range items {
		items[i].ID = uuid.New().String()
		items[i].CreatedAt = now
		items[i].UpdatedAt = now

		_, err := stmt.ExecContext(ctx,
			items[i].ID,
			items[i].AuditID,
			items[i].OwaspCode,
			items[i].OwaspCategory,
			items[i].Title,
			nullString(items[i].Description),
			items[i].Checked,
			nullString(items[i].Notes),
			items[i].CreatedAt,
			items[i].UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert checklist item %s: %w", items[i].OwaspCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checklist batch: %w", err)
	}

	return nil
}

// Update changes a checklist item's checked state and notes. These are the
// only mutable columns; the OWASP fields stay as seeded.
func (r *checklistRepository) Update(ctx context.Context, userID, id string, checked bool, notes string) (*models.ChecklistItem, error) {
	query := `
		UPDATE checklist_items
		SET checked = ?, notes = ?, updated_at = ?
		WHERE id = ? AND audit_id IN (SELECT id FROM audits WHERE user_id = ?)
	`

	now := time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query, checked, nullString(notes), now, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update checklist item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, userID, id)
}

// scanChecklistItem reads one checklist item row
func scanChecklistItem(s scanner) (*models.ChecklistItem, error) {
	var item models.ChecklistItem
	var description, notes sql.NullString

	err := s.Scan(
		&item.ID,
		&item.AuditID,
		&item.OwaspCode,
		&item.OwaspCategory,
		&item.Title,
		&description,
		&item.Checked,
		&notes,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Description = description.String
	item.Notes = notes.String

	return &item, nil
}
