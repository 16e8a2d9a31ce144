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

// ChecklistService interface defines checklist business logic
type ChecklistService interface {
	GetChecklist(ctx context.Context, auditID string) ([]models.ChecklistItem, error)
	UpdateItem(ctx context.Context, id string, form *models.ChecklistItemForm) (*models.ChecklistItem, error)
}

// checklistService implements ChecklistService interface
type checklistService struct {
	checklistRepo repositories.ChecklistRepository
	cache         cache.Store
	metrics       *metrics.Metrics
}

// NewChecklistService creates a new checklist service
func NewChecklistService(checklistRepo repositories.ChecklistRepository, store cache.Store, m *metrics.Metrics) ChecklistService {
	return &checklistService{
		checklistRepo: checklistRepo,
		cache:         store,
		metrics:       m,
	}
}

// GetChecklist retrieves an audit's checklist, ordered by OWASP code,
// through the cache
func (s *checklistService) GetChecklist(ctx context.Context, auditID string) ([]models.ChecklistItem, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	key := cache.ChecklistKey(userID, auditID)
	if data, ok := s.cache.Get(ctx, key); ok {
		var items []models.ChecklistItem
		if err := json.Unmarshal(data, &items); err == nil {
			s.metrics.RecordCacheHit("checklist_items")
			return items, nil
		}
	}
	s.metrics.RecordCacheMiss("checklist_items")

	items, err := s.checklistRepo.GetByAuditID(ctx, userID, auditID)
	s.metrics.RecordStoreOperation("checklist_items", "list", err)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(items); err == nil {
		s.cache.Set(ctx, key, data)
	}

	return items, nil
}

// UpdateItem changes a checklist item's checked state and notes. No other
// fields are editable after seeding.
func (s *checklistService) UpdateItem(ctx context.Context, id string, form *models.ChecklistItemForm) (*models.ChecklistItem, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if errs := form.Validate(); errs.HasErrors() {
		return nil, fmt.Errorf("validation failed: %s", strings.Join(errs.GetMessages(), ", "))
	}

	item, err := s.checklistRepo.Update(ctx, userID, id, form.Checked, strings.TrimSpace(form.Notes))
	s.metrics.RecordStoreOperation("checklist_items", "update", err)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.ChecklistKey(userID, item.AuditID))

	return item, nil
}
