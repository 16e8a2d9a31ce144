package controllers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/blogem/audit-tracker/models"
	"github.com/blogem/audit-tracker/repositories"
	"github.com/blogem/audit-tracker/services"
)

// ChecklistController handles checklist item updates
type ChecklistController struct {
	services *services.Services
}

// NewChecklistController creates a new checklist controller
func NewChecklistController(services *services.Services) *ChecklistController {
	return &ChecklistController{
		services: services,
	}
}

// Update handles POST /audits/{id}/checklist/{itemID}. Only the checked flag
// and notes are editable.
func (c *ChecklistController) Update(w http.ResponseWriter, r *http.Request) {
	auditID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Get the last value for 'checked' (checkbox overrides the hidden field when set)
	checkedValues := r.Form["checked"]
	checked := len(checkedValues) > 0 && checkedValues[len(checkedValues)-1] == "on"

	form := &models.ChecklistItemForm{
		Checked: checked,
		Notes:   r.FormValue("notes"),
	}

	if errs := form.Validate(); errs.HasErrors() {
		c.renderDetailWithNotesError(w, r, auditID, itemID, form, errs)
		return
	}

	_, err := c.services.Checklist.UpdateItem(r.Context(), itemID, form)
	if errors.Is(err, repositories.ErrNotFound) {
		http.Error(w, "Checklist item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Redirect(w, r, "/audits/"+auditID+"?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/audits/"+auditID, http.StatusSeeOther)
}

// renderDetailWithNotesError reloads the audit detail page with the failing
// row's submitted values and its field error next to the notes input
func (c *ChecklistController) renderDetailWithNotesError(w http.ResponseWriter, r *http.Request, auditID, itemID string, form *models.ChecklistItemForm, errs models.ValidationErrors) {
	audit, err := c.services.Audits.GetAudit(r.Context(), auditID)
	if errors.Is(err, repositories.ErrNotFound) {
		http.Error(w, "Audit not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load audit: "+err.Error(), http.StatusInternalServerError)
		return
	}

	checklist, err := c.services.Checklist.GetChecklist(r.Context(), auditID)
	if err != nil {
		http.Error(w, "Failed to load checklist: "+err.Error(), http.StatusInternalServerError)
		return
	}

	findings, err := c.services.Findings.ListFindings(r.Context(), auditID)
	if err != nil {
		http.Error(w, "Failed to load findings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	checkedCount := 0
	for _, item := range checklist {
		if item.Checked {
			checkedCount++
		}
	}

	templateData := auditDetailData{
		Title:              audit.Name,
		CurrentPage:        "audits",
		Audit:              audit,
		Checklist:          checklist,
		CheckedCount:       checkedCount,
		Findings:           findings,
		FindingForm:        &models.FindingForm{},
		ChecklistErrorItem: itemID,
		ChecklistForm:      form,
		ChecklistErrors:    errs,
		Severities:         models.Severities,
		Statuses:           models.FindingStatuses,
	}

	renderTemplateWithStatus(w, http.StatusBadRequest, "audit_detail_error", "templates/audit_detail.html", templateData)
}
