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

// AuditController handles audit management requests
type AuditController struct {
	services *services.Services
}

// NewAuditController creates a new audit controller
func NewAuditController(services *services.Services) *AuditController {
	return &AuditController{
		services: services,
	}
}

// auditFormFromRequest builds an AuditForm from submitted form values
func auditFormFromRequest(r *http.Request) *models.AuditForm {
	return &models.AuditForm{
		Name:        r.FormValue("name"),
		ClientName:  r.FormValue("client_name"),
		Target:      r.FormValue("target"),
		Description: r.FormValue("description"),
		StartDate:   r.FormValue("start_date"),
		EndDate:     r.FormValue("end_date"),
		Status:      r.FormValue("status"),
	}
}

// Index handles GET /audits
func (c *AuditController) Index(w http.ResponseWriter, r *http.Request) {
	audits, err := c.services.Audits.ListAudits(r.Context())
	if err != nil {
		http.Error(w, "Failed to load audits: "+err.Error(), http.StatusInternalServerError)
		return
	}

	templateData := struct {
		Title       string
		CurrentPage string
		Error       string
		Audits      []models.Audit
	}{
		Title:       "Audits",
		CurrentPage: "audits",
		Error:       r.URL.Query().Get("error"),
		Audits:      audits,
	}

	renderTemplate(w, "audits", "templates/audits.html", templateData)
}

// New handles GET /audits/new
func (c *AuditController) New(w http.ResponseWriter, r *http.Request) {
	templateData := struct {
		Title       string
		CurrentPage string
		Error       string
		Form        *models.AuditForm
		Errors      models.ValidationErrors
		Statuses    []models.AuditStatus
	}{
		Title:       "New Audit",
		CurrentPage: "audits",
		Form:        &models.AuditForm{Status: string(models.AuditStatusPlanning)},
		Statuses:    models.AuditStatuses,
	}

	renderTemplate(w, "audit_new", "templates/audit_new.html", templateData)
}

// Create handles POST /audits
func (c *AuditController) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	form := auditFormFromRequest(r)

	// Field-scoped validation happens here; nothing is sent to the store
	// until the form passes.
	if errs := form.Validate(); errs.HasErrors() {
		templateData := struct {
			Title       string
			CurrentPage string
			Error       string
			Form        *models.AuditForm
			Errors      models.ValidationErrors
			Statuses    []models.AuditStatus
		}{
			Title:       "New Audit",
			CurrentPage: "audits",
			Form:        form,
			Errors:      errs,
			Statuses:    models.AuditStatuses,
		}
		renderTemplateWithStatus(w, http.StatusBadRequest, "audit_new_error", "templates/audit_new.html", templateData)
		return
	}

	audit, err := c.services.Audits.CreateAudit(r.Context(), form)
	if err != nil {
		templateData := struct {
			Title       string
			CurrentPage string
			Error       string
			Form        *models.AuditForm
			Errors      models.ValidationErrors
			Statuses    []models.AuditStatus
		}{
			Title:       "New Audit",
			CurrentPage: "audits",
			Error:       err.Error(),
			Form:        form,
			Statuses:    models.AuditStatuses,
		}
		renderTemplateWithStatus(w, http.StatusInternalServerError, "audit_create_error", "templates/audit_new.html", templateData)
		return
	}

	http.Redirect(w, r, "/audits/"+audit.ID, http.StatusSeeOther)
}

// Show handles GET /audits/{id}: the audit with its checklist and findings
func (c *AuditController) Show(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	audit, err := c.services.Audits.GetAudit(r.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		http.Error(w, "Audit not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load audit: "+err.Error(), http.StatusInternalServerError)
		return
	}

	checklist, err := c.services.Checklist.GetChecklist(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to load checklist: "+err.Error(), http.StatusInternalServerError)
		return
	}

	findings, err := c.services.Findings.ListFindings(r.Context(), id)
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
		Title:        audit.Name,
		CurrentPage:  "audits",
		Error:        r.URL.Query().Get("error"),
		Audit:        audit,
		Checklist:    checklist,
		CheckedCount: checkedCount,
		Findings:     findings,
		FindingForm:  &models.FindingForm{},
		Severities:   models.Severities,
		Statuses:     models.FindingStatuses,
	}

	renderTemplate(w, "audit_detail", "templates/audit_detail.html", templateData)
}

// Edit handles GET /audits/{id}/edit
func (c *AuditController) Edit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	audit, err := c.services.Audits.GetAudit(r.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		http.Error(w, "Audit not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load audit: "+err.Error(), http.StatusInternalServerError)
		return
	}

	form := &models.AuditForm{
		Name:        audit.Name,
		ClientName:  audit.ClientName,
		Target:      audit.Target,
		Description: audit.Description,
		StartDate:   audit.StartDate,
		EndDate:     audit.EndDate,
		Status:      string(audit.Status),
	}

	templateData := auditEditData{
		Title:       "Edit Audit",
		CurrentPage: "audits",
		Audit:       audit,
		Form:        form,
		Statuses:    models.AuditStatuses,
	}

	renderTemplate(w, "audit_edit", "templates/audit_edit.html", templateData)
}

// Update handles POST /audits/{id}
func (c *AuditController) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	form := auditFormFromRequest(r)

	if errs := form.Validate(); errs.HasErrors() {
		audit, loadErr := c.services.Audits.GetAudit(r.Context(), id)
		if loadErr != nil {
			http.Error(w, "Audit not found: "+loadErr.Error(), http.StatusNotFound)
			return
		}

		templateData := auditEditData{
			Title:       "Edit Audit",
			CurrentPage: "audits",
			Audit:       audit,
			Form:        form,
			Errors:      errs,
			Statuses:    models.AuditStatuses,
		}
		renderTemplateWithStatus(w, http.StatusBadRequest, "audit_update_error", "templates/audit_edit.html", templateData)
		return
	}

	_, err := c.services.Audits.UpdateAudit(r.Context(), id, form)
	if errors.Is(err, repositories.ErrNotFound) {
		http.Error(w, "Audit not found", http.StatusNotFound)
		return
	}
	if err != nil {
		audit, loadErr := c.services.Audits.GetAudit(r.Context(), id)
		if loadErr != nil {
			http.Error(w, "Audit not found: "+loadErr.Error(), http.StatusNotFound)
			return
		}

		templateData := auditEditData{
			Title:       "Edit Audit",
			CurrentPage: "audits",
			Error:       err.Error(),
			Audit:       audit,
			Form:        form,
			Statuses:    models.AuditStatuses,
		}
		renderTemplateWithStatus(w, http.StatusInternalServerError, "audit_update_error", "templates/audit_edit.html", templateData)
		return
	}

	http.Redirect(w, r, "/audits/"+id, http.StatusSeeOther)
}

// Delete handles POST /audits/{id}/delete
func (c *AuditController) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := c.services.Audits.DeleteAudit(r.Context(), id); err != nil {
		http.Redirect(w, r, "/audits?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/audits", http.StatusSeeOther)
}

// auditDetailData is the template payload for the audit detail page
type auditDetailData struct {
	Title         string
	CurrentPage   string
	Error         string
	Audit         *models.Audit
	Checklist     []models.ChecklistItem
	CheckedCount  int
	Findings      []models.Finding
	FindingForm   *models.FindingForm
	FindingErrors models.ValidationErrors
	// ChecklistErrorItem marks the checklist row whose save failed
	// validation; ChecklistForm holds its submitted values.
	ChecklistErrorItem string
	ChecklistForm      *models.ChecklistItemForm
	ChecklistErrors    models.ValidationErrors
	Severities         []models.Severity
	Statuses           []models.FindingStatus
}

// auditEditData is the template payload for the audit edit page
type auditEditData struct {
	Title       string
	CurrentPage string
	Error       string
	Audit       *models.Audit
	Form        *models.AuditForm
	Errors      models.ValidationErrors
	Statuses    []models.AuditStatus
}
