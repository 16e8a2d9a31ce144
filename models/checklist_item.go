package models

import "time"

// ChecklistItem represents one OWASP Top 10 category's assessment record
// within an audit. The OWASP fields are copied from the reference table at
// creation time and never altered afterwards; only Checked and Notes are
// user-editable.
type ChecklistItem struct {
	ID            string    `json:"id" db:"id"`
	AuditID       string    `json:"audit_id" db:"audit_id"`
	OwaspCode     string    `json:"owasp_code" db:"owasp_code"`
	OwaspCategory string    `json:"owasp_category" db:"owasp_category"`
	Title         string    `json:"title" db:"title"`
	Description   string    `json:"description,omitempty" db:"description"`
	Checked       bool      `json:"checked" db:"checked"`
	Notes         string    `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ChecklistItemForm represents the editable fields of a checklist item
type ChecklistItemForm struct {
	Checked bool   `json:"checked"`
	Notes   string `json:"notes"`
}

// Validate validates the checklist item form data
func (f *ChecklistItemForm) Validate() ValidationErrors {
	var errors ValidationErrors

	if len(f.Notes) > 2000 {
		errors.Add("notes", "Notes must be at most 2000 characters")
	}

	return errors
}
