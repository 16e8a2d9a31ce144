package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/blogem/audit-tracker/cache"
	"github.com/blogem/audit-tracker/database"
	"github.com/blogem/audit-tracker/models"
	"github.com/blogem/audit-tracker/repositories"
	"github.com/blogem/audit-tracker/services"
	"github.com/blogem/audit-tracker/userctx"
)

// setupControllerTest wires controllers over a real database. Templates are
// parsed relative to the repository root, so the test runs from there.
func setupControllerTest(t *testing.T) (*Controllers, *services.Services, context.Context) {
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(".."); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Fatalf("Failed to restore working directory: %v", err)
		}
	})

	dbPath := "test_" + time.Now().Format("20060102150405.000000000") + ".db"
	if err := database.InitializeDatabase(dbPath); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() {
		database.CloseDB()
		os.Remove(dbPath)
	})

	repos := repositories.NewRepositories(database.GetDB())
	srvs := services.NewServices(repos, cache.NewMemoryStore(time.Minute), nil)
	ctrl := NewControllers(srvs)
	ctx := userctx.SetUserID(context.Background(), "auth0|tester")

	return ctrl, srvs, ctx
}

func TestChecklistUpdateValidationRendersFieldError(t *testing.T) {
	ctrl, srvs, ctx := setupControllerTest(t)

	audit, err := srvs.Audits.CreateAudit(ctx, &models.AuditForm{
		Name:       "Q1 Pentest",
		ClientName: "Acme",
		Status:     "planning",
	})
	if err != nil {
		t.Fatalf("Failed to create audit: %v", err)
	}
	items, err := srvs.Checklist.GetChecklist(ctx, audit.ID)
	if err != nil {
		t.Fatalf("Failed to get checklist: %v", err)
	}

	form := url.Values{
		"checked": {"off", "on"},
		"notes":   {strings.Repeat("x", 2001)},
	}
	req := httptest.NewRequest(http.MethodPost, "/audits/"+audit.ID+"/checklist/"+items[0].ID, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(userctx.SetUserID(req.Context(), "auth0|tester"))

	router := chi.NewRouter()
	router.Post("/audits/{id}/checklist/{itemID}", ctrl.Checklist.Update)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "" {
		t.Errorf("Expected a re-rendered detail page, got redirect to %s", loc)
	}

	// The notes error shows next to the failing row's field, with the
	// submitted value preserved
	body := rec.Body.String()
	if !strings.Contains(body, "Notes must be at most 2000 characters") {
		t.Error("Expected the notes validation message in the rendered page")
	}
	if !strings.Contains(body, `class="field-error"`) {
		t.Error("Expected a field-scoped error element in the rendered page")
	}
	if !strings.Contains(body, strings.Repeat("x", 2001)) {
		t.Error("Expected the submitted notes value to be preserved for retry")
	}

	// The store was never touched
	items, err = srvs.Checklist.GetChecklist(ctx, audit.ID)
	if err != nil {
		t.Fatalf("Failed to re-fetch checklist: %v", err)
	}
	if items[0].Checked || items[0].Notes != "" {
		t.Errorf("Expected item to be unchanged after rejected update, got checked=%v notes=%q", items[0].Checked, items[0].Notes)
	}
}

func TestChecklistUpdateValidSubmissionRedirects(t *testing.T) {
	ctrl, srvs, ctx := setupControllerTest(t)

	audit, err := srvs.Audits.CreateAudit(ctx, &models.AuditForm{
		Name:       "Q1 Pentest",
		ClientName: "Acme",
		Status:     "planning",
	})
	if err != nil {
		t.Fatalf("Failed to create audit: %v", err)
	}
	items, err := srvs.Checklist.GetChecklist(ctx, audit.ID)
	if err != nil {
		t.Fatalf("Failed to get checklist: %v", err)
	}

	form := url.Values{
		"checked": {"off", "on"},
		"notes":   {"reviewed"},
	}
	req := httptest.NewRequest(http.MethodPost, "/audits/"+audit.ID+"/checklist/"+items[0].ID, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(userctx.SetUserID(req.Context(), "auth0|tester"))

	router := chi.NewRouter()
	router.Post("/audits/{id}/checklist/{itemID}", ctrl.Checklist.Update)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Expected status 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/audits/"+audit.ID {
		t.Errorf("Expected redirect back to the audit, got %s", loc)
	}

	items, err = srvs.Checklist.GetChecklist(ctx, audit.ID)
	if err != nil {
		t.Fatalf("Failed to re-fetch checklist: %v", err)
	}
	if !items[0].Checked || items[0].Notes != "reviewed" {
		t.Errorf("Expected item to be updated, got checked=%v notes=%q", items[0].Checked, items[0].Notes)
	}
}
