package models

import (
	"strings"
	"time"
)

// AuditStatus is the lifecycle state of an audit engagement
type AuditStatus string

const (
	AuditStatusPlanning   AuditStatus = "planning"
	AuditStatusInProgress AuditStatus = "in_progress"
	AuditStatusCompleted  AuditStatus = "completed"
	AuditStatusOnHold     AuditStatus = "on_hold"
)

// AuditStatuses lists all valid audit statuses in display order
var AuditStatuses = []AuditStatus{
	AuditStatusPlanning,
	AuditStatusInProgress,
	AuditStatusCompleted,
	AuditStatusOnHold,
}

// IsValid reports whether s is one of the known audit statuses
func (s AuditStatus) IsValid() bool {
	switch s {
	case AuditStatusPlanning, AuditStatusInProgress, AuditStatusCompleted, AuditStatusOnHold:
		return true
	}
	return false
}

// Audit represents a security-assessment engagement
type Audit struct {
	ID          string      `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	ClientName  string      `json:"client_name" db:"client_name"`
	Target      string      `json:"target,omitempty" db:"target"`
	Description string      `json:"description,omitempty" db:"description"`
	StartDate   string      `json:"start_date,omitempty" db:"start_date"`
	EndDate     string      `json:"end_date,omitempty" db:"end_date"`
	Status      AuditStatus `json:"status" db:"status"`
	UserID      string      `json:"user_id" db:"user_id"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// AuditForm represents form data for creating/updating audits
type AuditForm struct {
	Name        string `json:"name"`
	ClientName  string `json:"client_name"`
	Target      string `json:"target"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Status      string `json:"status"`
}

// Validate validates the audit form data
func (f *AuditForm) Validate() ValidationErrors {
	var errors ValidationErrors

	name := strings.TrimSpace(f.Name)
	if len(name) < 2 {
		errors.Add("name", "Name must be at least 2 characters")
	}
	if len(name) > 100 {
		errors.Add("name", "Name must be at most 100 characters")
	}

	clientName := strings.TrimSpace(f.ClientName)
	if len(clientName) < 2 {
		errors.Add("client_name", "Client name must be at least 2 characters")
	}
	if len(clientName) > 100 {
		errors.Add("client_name", "Client name must be at most 100 characters")
	}

	if len(f.Target) > 255 {
		errors.Add("target", "Target must be at most 255 characters")
	}

	if len(f.Description) > 1000 {
		errors.Add("description", "Description must be at most 1000 characters")
	}

	if f.Status != "" && !AuditStatus(f.Status).IsValid() {
		errors.Add("status", "Status is not a valid audit status")
	}

	if f.StartDate != "" {
		if _, err := ParseDate(f.StartDate); err != nil {
			errors.Add("start_date", "Start date must be in YYYY-MM-DD format")
		}
	}

	if f.EndDate != "" {
		if _, err := ParseDate(f.EndDate); err != nil {
			errors.Add("end_date", "End date must be in YYYY-MM-DD format")
		}
	}

	return errors
}
