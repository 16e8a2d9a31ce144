package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/blogem/audit-tracker/cache"
	"github.com/blogem/audit-tracker/metrics"
	"github.com/blogem/audit-tracker/models"
	"github.com/blogem/audit-tracker/owasp"
	"github.com/blogem/audit-tracker/repositories"
)

// DashboardStats summarizes the user's audits for the dashboard page
type DashboardStats struct {
	Total      int
	Planning   int
	InProgress int
	Completed  int
	OnHold     int
	Recent     []models.Audit
}

// AuditService interface defines audit management business logic
type AuditService interface {
	ListAudits(ctx context.Context) ([]models.Audit, error)
	GetAudit(ctx context.Context, id string) (*models.Audit, error)
	CreateAudit(ctx context.Context, form *models.AuditForm) (*models.Audit, error)
	UpdateAudit(ctx context.Context, id string, form *models.AuditForm) (*models.Audit, error)
	DeleteAudit(ctx context.Context, id string) error
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

// auditService implements AuditService interface
type auditService struct {
	auditRepo     repositories.AuditRepository
	checklistRepo repositories.ChecklistRepository
	cache         cache.Store
	metrics       *metrics.Metrics
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo repositories.AuditRepository, checklistRepo repositories.ChecklistRepository, store cache.Store, m *metrics.Metrics) AuditService {
	return &auditService{
		auditRepo:     auditRepo,
		checklistRepo: checklistRepo,
		cache:         store,
		metrics:       m,
	}
}

// ListAudits retrieves the user's audits, newest first, through the cache
func (s *auditService) ListAudits(ctx context.Context) ([]models.Audit, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	key := cache.AuditsKey(userID)
	if data, ok := s.cache.Get(ctx, key); ok {
		var audits []models.Audit
		if err := json.Unmarshal(data, &audits); err == nil {
			s.metrics.RecordCacheHit("audits")
			return audits, nil
		}
	}
	s.metrics.RecordCacheMiss("audits")

	audits, err := s.auditRepo.GetAll(ctx, userID)
	s.metrics.RecordStoreOperation("audits", "list", err)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(audits); err == nil {
		s.cache.Set(ctx, key, data)
	}

	return audits, nil
}

// GetAudit retrieves a single audit through the cache
func (s *auditService) GetAudit(ctx context.Context, id string) (*models.Audit, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	key := cache.AuditKey(id)
	if data, ok := s.cache.Get(ctx, key); ok {
		var audit models.Audit
		if err := json.Unmarshal(data, &audit); err == nil && audit.UserID == userID {
			s.metrics.RecordCacheHit("audit")
			return &audit, nil
		}
	}
	s.metrics.RecordCacheMiss("audit")

	audit, err := s.auditRepo.GetByID(ctx, userID, id)
	s.metrics.RecordStoreOperation("audits", "get", err)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(audit); err == nil {
		s.cache.Set(ctx, key, data)
	}

	return audit, nil
}

// CreateAudit validates the form, persists the audit, then seeds its OWASP
// checklist as one atomic batch. The two inserts are a sequence, not a single
// transaction: if the checklist batch fails the audit row remains and the
// error is surfaced to the caller.
func (s *auditService) CreateAudit(ctx context.Context, form *models.AuditForm) (*models.Audit, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if errs := form.Validate(); errs.HasErrors() {
		return nil, fmt.Errorf("validation failed: %s", strings.Join(errs.GetMessages(), ", "))
	}

	audit := &models.Audit{
		Name:        strings.TrimSpace(form.Name),
		ClientName:  strings.TrimSpace(form.ClientName),
		Target:      strings.TrimSpace(form.Target),
		Description: strings.TrimSpace(form.Description),
		StartDate:   form.StartDate,
		EndDate:     form.EndDate,
		Status:      models.AuditStatus(form.Status),
		UserID:      userID,
	}

	err = s.auditRepo.Create(ctx, audit)
	s.metrics.RecordStoreOperation("audits", "create", err)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit: %w", err)
	}

	s.cache.Invalidate(ctx, cache.AuditsKey(userID))

	items := owasp.SeedChecklist(audit.ID)
	err = s.checklistRepo.CreateBatch(ctx, items)
	s.metrics.RecordStoreOperation("checklist_items", "create_batch", err)
	if err != nil {
		return nil, fmt.Errorf("audit created but checklist seeding failed: %w", err)
	}

	return audit, nil
}

// UpdateAudit applies form changes to an existing audit
func (s *auditService) UpdateAudit(ctx context.Context, id string, form *models.AuditForm) (*models.Audit, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if errs := form.Validate(); errs.HasErrors() {
		return nil, fmt.Errorf("validation failed: %s", strings.Join(errs.GetMessages(), ", "))
	}

	audit, err := s.auditRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	audit.Name = strings.TrimSpace(form.Name)
	audit.ClientName = strings.TrimSpace(form.ClientName)
	audit.Target = strings.TrimSpace(form.Target)
	audit.Description = strings.TrimSpace(form.Description)
	audit.StartDate = form.StartDate
	audit.EndDate = form.EndDate
	if form.Status != "" {
		audit.Status = models.AuditStatus(form.Status)
	}

	err = s.auditRepo.Update(ctx, audit)
	s.metrics.RecordStoreOperation("audits", "update", err)
	if err != nil {
		return nil, fmt.Errorf("failed to update audit: %w", err)
	}

	s.cache.Invalidate(ctx, cache.AuditsKey(userID), cache.AuditKey(id))

	return audit, nil
}

// DeleteAudit removes an audit; the store cascades to its children
func (s *auditService) DeleteAudit(ctx context.Context, id string) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}

	err = s.auditRepo.Delete(ctx, userID, id)
	s.metrics.RecordStoreOperation("audits", "delete", err)
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx,
		cache.AuditsKey(userID),
		cache.AuditKey(id),
		cache.ChecklistKey(userID, id),
		cache.FindingsKey(userID, id),
	)

	return nil
}

// GetDashboardStats summarizes the user's audits
func (s *auditService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := s.auditRepo.CountByStatus(ctx, userID)
	s.metrics.RecordStoreOperation("audits", "count", err)
	if err != nil {
		return nil, err
	}

	audits, err := s.ListAudits(ctx)
	if err != nil {
		return nil, err
	}

	recent := audits
	if len(recent) > 5 {
		recent = recent[:5]
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	return &DashboardStats{
		Total:      total,
		Planning:   counts[models.AuditStatusPlanning],
		InProgress: counts[models.AuditStatusInProgress],
		Completed:  counts[models.AuditStatusCompleted],
		OnHold:     counts[models.AuditStatusOnHold],
		Recent:     recent,
	}, nil
}
