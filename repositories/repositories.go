package repositories

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a requested record does not exist or is not
// visible to the current user.
var ErrNotFound = errors.New("record not found")

// Repositories struct holds all repository interfaces
type Repositories struct {
	Audits     AuditRepository
	Checklist  ChecklistRepository
	Findings   FindingRepository
	Attachment AttachmentRepository
}

// NewRepositories creates and initializes all repositories
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Audits:     NewAuditRepository(db),
		Checklist:  NewChecklistRepository(db),
		Findings:   NewFindingRepository(db),
		Attachment: NewAttachmentRepository(db),
	}
}

// nullString maps "" to NULL so optional text columns stay null in the store
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
