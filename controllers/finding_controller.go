package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/blogem/audit-tracker/models"
	"github.com/blogem/audit-tracker/repositories"
	"github.com/blogem/audit-tracker/services"
)

// FindingController handles finding management requests
type FindingController struct {
	services *services.Services
}

// NewFindingController creates a new finding controller
func NewFindingController(services *services.Services) *FindingController {
	return &FindingController{
		services: services,
	}
}

// findingFormFromRequest builds a FindingForm from submitted form values.
// A malformed CVSS score is reported as a field error rather than dropped.
func findingFormFromRequest(r *http.Request) (*models.FindingForm, models.ValidationErrors) {
	form := &models.FindingForm{
		Title:           r.FormValue("title"),
		Description:     r.FormValue("description"),
		ProofOfConcept:  r.FormValue("proof_of_concept"),
		Remediation:     r.FormValue("remediation"),
		AffectedURL:     r.FormValue("affected_url"),
		Severity:        r.FormValue("severity"),
		Status:          r.FormValue("status"),
		ChecklistItemID: r.FormValue("checklist_item_id"),
	}

	var errs models.ValidationErrors
	if raw := r.FormValue("cvss_score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs.Add("cvss_score", "CVSS score must be a number")
		} else {
			form.CVSSScore = &score
		}
	}

	return form, errs
}

// Create handles POST /audits/{id}/findings
func (c *FindingController) Create(w http.ResponseWriter, r *http.Request) {
	auditID := chi.URLParam(r, "id")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	form, errs := findingFormFromRequest(r)
	for _, e := range form.Validate() {
		errs.Add(e.Field, e.Message)
	}

	if errs.HasErrors() {
		c.renderDetailWithFindingErrors(w, r, auditID, form, errs, "", http.StatusBadRequest)
		return
	}

	_, err := c.services.Findings.CreateFinding(r.Context(), auditID, form)
	if err != nil {
		c.renderDetailWithFindingErrors(w, r, auditID, form, nil, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/audits/"+auditID, http.StatusSeeOther)
}

// Edit handles GET /audits/{id}/findings/{findingID}/edit
func (c *FindingController) Edit(w http.ResponseWriter, r *http.Request) {
	auditID := chi.URLParam(r, "id")
	findingID := chi.URLParam(r, "findingID")

	finding, err := c.services.Findings.GetFinding(r.Context(), findingID)
	if errors.Is(err, repositories.ErrNotFound) {
		http.Error(w, "Finding not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load finding: "+err.Error(), http.StatusInternalServerError)
		return
	}

	attachments, err := c.services.Attachments.ListByFinding(r.Context(), findingID)
	if err != nil {
		http.Error(w, "Failed to load attachments: "+err.Error(), http.StatusInternalServerError)
		return
	}

	form := &models.FindingForm{
		Title:           finding.Title,
		Description:     finding.Description,
		ProofOfConcept:  finding.ProofOfConcept,
		Remediation:     finding.Remediation,
		AffectedURL:     finding.AffectedURL,
		Severity:        string(finding.Severity),
		Status:          string(finding.Status),
		CVSSScore:       finding.CVSSScore,
		ChecklistItemID: finding.ChecklistItemID,
	}

	templateData := findingEditData{
		Title:       "Edit Finding",
		CurrentPage: "audits",
		AuditID:     auditID,
		Finding:     finding,
		Form:        form,
		Attachments: attachments,
		Severities:  models.Severities,
		Statuses:    models.FindingStatuses,
	}

	renderTemplate(w, "finding_edit", "templates/finding_edit.html", templateData)
}

// Update handles POST /findings/{id}
func (c *FindingController) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	finding, err := c.services.Findings.GetFinding(r.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		http.Error(w, "Finding not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load finding: "+err.Error(), http.StatusInternalServerError)
		return
	}

	form, errs := findingFormFromRequest(r)
	for _, e := range form.Validate() {
		errs.Add(e.Field, e.Message)
	}

	if errs.HasErrors() {
		templateData := findingEditData{
			Title:       "Edit Finding",
			CurrentPage: "audits",
			AuditID:     finding.AuditID,
			Finding:     finding,
			Form:        form,
			Errors:      errs,
			Severities:  models.Severities,
			Statuses:    models.FindingStatuses,
		}
		renderTemplateWithStatus(w, http.StatusBadRequest, "finding_update_error", "templates/finding_edit.html", templateData)
		return
	}

	if _, err := c.services.Findings.UpdateFinding(r.Context(), id, form); err != nil {
		templateData := findingEditData{
			Title:       "Edit Finding",
			CurrentPage: "audits",
			Error:       err.Error(),
			AuditID:     finding.AuditID,
			Finding:     finding,
			Form:        form,
			Severities:  models.Severities,
			Statuses:    models.FindingStatuses,
		}
		renderTemplateWithStatus(w, http.StatusInternalServerError, "finding_update_error", "templates/finding_edit.html", templateData)
		return
	}

	http.Redirect(w, r, "/audits/"+finding.AuditID, http.StatusSeeOther)
}

// Delete handles POST /findings/{id}/delete
func (c *FindingController) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	finding, err := c.services.Findings.GetFinding(r.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		http.Error(w, "Finding not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load finding: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := c.services.Findings.DeleteFinding(r.Context(), id); err != nil {
		http.Redirect(w, r, "/audits/"+finding.AuditID+"?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/audits/"+finding.AuditID, http.StatusSeeOther)
}

// renderDetailWithFindingErrors reloads the audit detail page keeping the
// finding form visible for manual retry
func (c *FindingController) renderDetailWithFindingErrors(w http.ResponseWriter, r *http.Request, auditID string, form *models.FindingForm, errs models.ValidationErrors, errMsg string, status int) {
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
		Title:         audit.Name,
		CurrentPage:   "audits",
		Error:         errMsg,
		Audit:         audit,
		Checklist:     checklist,
		CheckedCount:  checkedCount,
		Findings:      findings,
		FindingForm:   form,
		FindingErrors: errs,
		Severities:    models.Severities,
		Statuses:      models.FindingStatuses,
	}

	renderTemplateWithStatus(w, status, "audit_detail_error", "templates/audit_detail.html", templateData)
}

// findingEditData is the template payload for the finding edit page
type findingEditData struct {
	Title       string
	CurrentPage string
	Error       string
	AuditID     string
	Finding     *models.Finding
	Form        *models.FindingForm
	Errors      models.ValidationErrors
	Attachments []models.Attachment
	Severities  []models.Severity
	Statuses    []models.FindingStatus
}
