package models

import (
	"strings"
	"time"
)

// Severity classifies a finding's impact
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists all valid severities in descending order of impact
var Severities = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
}

// IsValid reports whether s is one of the known severities
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// FindingStatus is the remediation state of a finding
type FindingStatus string

const (
	FindingStatusOpen          FindingStatus = "open"
	FindingStatusFixed         FindingStatus = "fixed"
	FindingStatusAcceptedRisk  FindingStatus = "accepted_risk"
	FindingStatusFalsePositive FindingStatus = "false_positive"
)

// FindingStatuses lists all valid finding statuses in display order
var FindingStatuses = []FindingStatus{
	FindingStatusOpen,
	FindingStatusFixed,
	FindingStatusAcceptedRisk,
	FindingStatusFalsePositive,
}

// IsValid reports whether s is one of the known finding statuses
func (s FindingStatus) IsValid() bool {
	switch s {
	case FindingStatusOpen, FindingStatusFixed, FindingStatusAcceptedRisk, FindingStatusFalsePositive:
		return true
	}
	return false
}

// Finding represents a documented vulnerability within an audit
type Finding struct {
	ID              string        `json:"id" db:"id"`
	AuditID         string        `json:"audit_id" db:"audit_id"`
	ChecklistItemID string        `json:"checklist_item_id,omitempty" db:"checklist_item_id"`
	Title           string        `json:"title" db:"title"`
	Description     string        `json:"description,omitempty" db:"description"`
	ProofOfConcept  string        `json:"proof_of_concept,omitempty" db:"proof_of_concept"`
	Remediation     string        `json:"remediation,omitempty" db:"remediation"`
	AffectedURL     string        `json:"affected_url,omitempty" db:"affected_url"`
	Severity        Severity      `json:"severity" db:"severity"`
	Status          FindingStatus `json:"status" db:"status"`
	CVSSScore       *float64      `json:"cvss_score,omitempty" db:"cvss_score"`
	UserID          string        `json:"user_id" db:"user_id"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// FindingForm represents form data for creating/updating findings
type FindingForm struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	ProofOfConcept  string   `json:"proof_of_concept"`
	Remediation     string   `json:"remediation"`
	AffectedURL     string   `json:"affected_url"`
	Severity        string   `json:"severity"`
	Status          string   `json:"status"`
	CVSSScore       *float64 `json:"cvss_score"`
	ChecklistItemID string   `json:"checklist_item_id"`
}

// Validate validates the finding form data
func (f *FindingForm) Validate() ValidationErrors {
	var errors ValidationErrors

	title := strings.TrimSpace(f.Title)
	if len(title) < 2 {
		errors.Add("title", "Title must be at least 2 characters")
	}
	if len(title) > 200 {
		errors.Add("title", "Title must be at most 200 characters")
	}

	if len(f.Description) > 2000 {
		errors.Add("description", "Description must be at most 2000 characters")
	}

	if len(f.ProofOfConcept) > 5000 {
		errors.Add("proof_of_concept", "Proof of concept must be at most 5000 characters")
	}

	if len(f.Remediation) > 2000 {
		errors.Add("remediation", "Remediation must be at most 2000 characters")
	}

	if len(f.AffectedURL) > 500 {
		errors.Add("affected_url", "Affected URL must be at most 500 characters")
	}

	if f.Severity != "" && !Severity(f.Severity).IsValid() {
		errors.Add("severity", "Severity is not a valid value")
	}

	if f.Status != "" && !FindingStatus(f.Status).IsValid() {
		errors.Add("status", "Status is not a valid value")
	}

	if f.CVSSScore != nil && (*f.CVSSScore < 0 || *f.CVSSScore > 10) {
		errors.Add("cvss_score", "CVSS score must be between 0 and 10")
	}

	return errors
}
