package services

import (
	"context"
	"errors"

	"github.com/blogem/audit-tracker/cache"
	"github.com/blogem/audit-tracker/metrics"
	"github.com/blogem/audit-tracker/repositories"
	"github.com/blogem/audit-tracker/userctx"
)

// ErrNotAuthenticated is returned when an operation runs without a signed-in
// user in the context. Every data access operation is gated on user presence.
var ErrNotAuthenticated = errors.New("not authenticated")

// Services holds all service instances
type Services struct {
	Audits      AuditService
	Checklist   ChecklistService
	Findings    FindingService
	Attachments AttachmentService
}

// NewServices creates and initializes all service instances
func NewServices(repos *repositories.Repositories, store cache.Store, m *metrics.Metrics) *Services {
	return &Services{
		Audits:      NewAuditService(repos.Audits, repos.Checklist, store, m),
		Checklist:   NewChecklistService(repos.Checklist, store, m),
		Findings:    NewFindingService(repos.Findings, repos.Audits, store, m),
		Attachments: NewAttachmentService(repos.Attachment, m),
	}
}

// currentUser returns the authenticated user's ID from the context, or
// ErrNotAuthenticated when no user is present.
func currentUser(ctx context.Context) (string, error) {
	userID := userctx.GetUserID(ctx)
	if userID == "" {
		return "", ErrNotAuthenticated
	}
	return userID, nil
}
