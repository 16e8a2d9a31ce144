package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/blogem/audit-tracker/cache"
	"github.com/blogem/audit-tracker/metrics"
	"github.com/blogem/audit-tracker/models"
	"github.com/blogem/audit-tracker/repositories"
)

// FindingService interface defines finding management business logic
type FindingService interface {
	ListFindings(ctx context.Context, auditID string) ([]models.Finding, error)
	GetFinding(ctx context.Context, id string) (*models.Finding, error)
	CreateFinding(ctx context.Context, auditID string, form *models.FindingForm) (*models.Finding, error)
	UpdateFinding(ctx context.Context, id string, form *models.FindingForm) (*models.Finding, error)
	DeleteFinding(ctx context.Context, id string) error
}

// findingService implements FindingService interface
type findingService struct {
	findingRepo repositories.FindingRepository
	auditRepo   repositories.AuditRepository
	cache       cache.Store
	metrics     *metrics.Metrics
}

// NewFindingService creates a new finding service
func NewFindingService(findingRepo repositories.FindingRepository, auditRepo repositories.AuditRepository, store cache.Store, m *metrics.Metrics) FindingService {
	return &findingService{
		findingRepo: findingRepo,
		auditRepo:   auditRepo,
		cache:       store,
		metrics:     m,
	}
}

// ListFindings retrieves an audit's findings, newest first, through the cache
func (s *findingService) ListFindings(ctx context.Context, auditID string) ([]models.Finding, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	key := cache.FindingsKey(userID, auditID)
	if data, ok := s.cache.Get(ctx, key); ok {
		var findings []models.Finding
		if err := json.Unmarshal(data, &findings); err == nil {
			s.metrics.RecordCacheHit("findings")
			return findings, nil
		}
	}
	s.metrics.RecordCacheMiss("findings")

	findings, err := s.findingRepo.GetByAuditID(ctx, userID, auditID)
	s.metrics.RecordStoreOperation("findings", "list", err)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(findings); err == nil {
		s.cache.Set(ctx, key, data)
	}

	return findings, nil
}

// GetFinding retrieves a single finding owned by the user
func (s *findingService) GetFinding(ctx context.Context, id string) (*models.Finding, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	finding, err := s.findingRepo.GetByID(ctx, userID, id)
	s.metrics.RecordStoreOperation("findings", "get", err)
	if err != nil {
		return nil, err
	}

	return finding, nil
}

// CreateFinding validates the form and persists a new finding. Severity and
// status default to medium/open when the form leaves them empty.
func (s *findingService) CreateFinding(ctx context.Context, auditID string, form *models.FindingForm) (*models.Finding, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if errs := form.Validate(); errs.HasErrors() {
		return nil, fmt.Errorf("validation failed: %s", strings.Join(errs.GetMessages(), ", "))
	}

	// The parent audit must belong to the user; the FK alone only checks
	// that the audit exists.
	if _, err := s.auditRepo.GetByID(ctx, userID, auditID); err != nil {
		return nil, err
	}

	finding := &models.Finding{
		AuditID:         auditID,
		ChecklistItemID: form.ChecklistItemID,
		Title:           strings.TrimSpace(form.Title),
		Description:     strings.TrimSpace(form.Description),
		ProofOfConcept:  form.ProofOfConcept,
		Remediation:     strings.TrimSpace(form.Remediation),
		AffectedURL:     strings.TrimSpace(form.AffectedURL),
		Severity:        models.Severity(form.Severity),
		Status:          models.FindingStatus(form.Status),
		CVSSScore:       form.CVSSScore,
		UserID:          userID,
	}

	err = s.findingRepo.Create(ctx, finding)
	s.metrics.RecordStoreOperation("findings", "create", err)
	if err != nil {
		return nil, fmt.Errorf("failed to create finding: %w", err)
	}

	s.cache.Invalidate(ctx, cache.FindingsKey(userID, auditID))

	return finding, nil
}

// UpdateFinding applies form changes to an existing finding
func (s *findingService) UpdateFinding(ctx context.Context, id string, form *models.FindingForm) (*models.Finding, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if errs := form.Validate(); errs.HasErrors() {
		return nil, fmt.Errorf("validation failed: %s", strings.Join(errs.GetMessages(), ", "))
	}

	finding, err := s.findingRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	// An empty checklist_item_id means the field was not supplied; the
	// existing link survives edits that don't mention it.
	if form.ChecklistItemID != "" {
		finding.ChecklistItemID = form.ChecklistItemID
	}
	finding.Title = strings.TrimSpace(form.Title)
	finding.Description = strings.TrimSpace(form.Description)
	finding.ProofOfConcept = form.ProofOfConcept
	finding.Remediation = strings.TrimSpace(form.Remediation)
	finding.AffectedURL = strings.TrimSpace(form.AffectedURL)
	if form.Severity != "" {
		finding.Severity = models.Severity(form.Severity)
	}
	if form.Status != "" {
		finding.Status = models.FindingStatus(form.Status)
	}
	finding.CVSSScore = form.CVSSScore

	err = s.findingRepo.Update(ctx, finding)
	s.metrics.RecordStoreOperation("findings", "update", err)
	if err != nil {
		return nil, fmt.Errorf("failed to update finding: %w", err)
	}

	s.cache.Invalidate(ctx, cache.FindingsKey(userID, finding.AuditID))

	return finding, nil
}

// DeleteFinding removes a finding owned by the user
func (s *findingService) DeleteFinding(ctx context.Context, id string) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}

	// Need the parent audit to invalidate the right list entry
	finding, err := s.findingRepo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	err = s.findingRepo.Delete(ctx, userID, id)
	s.metrics.RecordStoreOperation("findings", "delete", err)
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cache.FindingsKey(userID, finding.AuditID))

	return nil
}
