package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blogem/audit-tracker/models"
)

// FindingRepository interface defines finding database operations
type FindingRepository interface {
	GetByAuditID(ctx context.Context, userID, auditID string) ([]models.Finding, error)
	GetByID(ctx context.Context, userID, id string) (*models.Finding, error)
	Create(ctx context.Context, finding *models.Finding) error
	Update(ctx context.Context, finding *models.Finding) error
	Delete(ctx context.Context, userID, id string) error
}

// findingRepository implements FindingRepository interface
type findingRepository struct {
	db *sql.DB
}

// NewFindingRepository creates a new finding repository
func NewFindingRepository(db *sql.DB) FindingRepository {
	return &findingRepository{db: db}
}

const findingColumns = `id, audit_id, checklist_item_id, title, description,
	       proof_of_concept, remediation, affected_url, severity, status,
	       cvss_score, user_id, created_at, updated_at`

// GetByAuditID retrieves an audit's findings, newest first
func (r *findingRepository) GetByAuditID(ctx context.Context, userID, auditID string) ([]models.Finding, error) {
	query := `
		SELECT ` + findingColumns + `
		FROM findings
		WHERE audit_id = ? AND user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, auditID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var findings []models.Finding
	for rows.Next() {
		finding, err := scanFinding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		findings = append(findings, *finding)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating findings: %w", err)
	}

	return findings, nil
}

// GetByID retrieves a single finding owned by the user
func (r *findingRepository) GetByID(ctx context.Context, userID, id string) (*models.Finding, error) {
	query := `
		SELECT ` + findingColumns + `
		FROM findings
		WHERE id = ? AND user_id = ?
	`

	finding, err := scanFinding(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get finding: %w", err)
	}

	return finding, nil
}

// Create persists a new finding and assigns its identifier and timestamps.
// Severity and status fall back to their defaults when omitted.
func (r *findingRepository) Create(ctx context.Context, finding *models.Finding) error {
	query := `
		INSERT INTO findings (id, audit_id, checklist_item_id, title, description,
		                      proof_of_concept, remediation, affected_url, severity,
		                      status, cvss_score, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if finding.Severity == "" {
		finding.Severity = models.SeverityMedium
	}
	if finding.Status == "" {
		finding.Status = models.FindingStatusOpen
	}

	now := time.Now().UTC()
	finding.ID = uuid.New().String()
	finding.CreatedAt = now
	finding.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		finding.ID,
		finding.AuditID,
		nullString(finding.ChecklistItemID),
		finding.Title,
		nullString(finding.Description),
		nullString(finding.ProofOfConcept),
		nullString(finding.Remediation),
		nullString(finding.AffectedURL),
		string(finding.Severity),
		string(finding.Status),
		finding.CVSSScore,
		finding.UserID,
		finding.CreatedAt,
		finding.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create finding: %w", err)
	}

	return nil
}

// Update persists changes to an existing finding owned by the user
func (r *findingRepository) Update(ctx context.Context, finding *models.Finding) error {
	query := `
		UPDATE findings
		SET checklist_item_id = ?, title = ?, description = ?, proof_of_concept = ?,
		    remediation = ?, affected_url = ?, severity = ?, status = ?,
		    cvss_score = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`

	now := time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		nullString(finding.ChecklistItemID),
		finding.Title,
		nullString(finding.Description),
		nullString(finding.ProofOfConcept),
		nullString(finding.Remediation),
		nullString(finding.AffectedURL),
		string(finding.Severity),
		string(finding.Status),
		finding.CVSSScore,
		now,
		finding.ID,
		finding.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update finding: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	finding.UpdatedAt = now
	return nil
}

// Delete removes a finding owned by the user
func (r *findingRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM findings WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete finding: %w", err)
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

// scanFinding reads one finding row, converting NULL columns
func scanFinding(s scanner) (*models.Finding, error) {
	var finding models.Finding
	var checklistItemID, description, proofOfConcept, remediation, affectedURL sql.NullString
	var severity, status string
	var cvssScore sql.NullFloat64

	err := s.Scan(
		&finding.ID,
		&finding.AuditID,
		&checklistItemID,
		&finding.Title,
		&description,
		&proofOfConcept,
		&remediation,
		&affectedURL,
		&severity,
		&status,
		&cvssScore,
		&finding.UserID,
		&finding.CreatedAt,
		&finding.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	finding.ChecklistItemID = checklistItemID.String
	finding.Description = description.String
	finding.ProofOfConcept = proofOfConcept.String
	finding.Remediation = remediation.String
	finding.AffectedURL = affectedURL.String
	finding.Severity = models.Severity(severity)
	finding.Status = models.FindingStatus(status)
	if cvssScore.Valid {
		score := cvssScore.Float64
		finding.CVSSScore = &score
	}

	return &finding, nil
}
