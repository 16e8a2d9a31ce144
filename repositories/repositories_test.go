package repositories

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/blogem/audit-tracker/database"
	"github.com/blogem/audit-tracker/models"
	"github.com/blogem/audit-tracker/owasp"
)

const testUser = "auth0|user-1"
const otherUser = "auth0|user-2"

func setupTestDB(t *testing.T) *sql.DB {
	// Create a temporary database for testing
	dbPath := "test_" + time.Now().Format("20060102150405.000000000") + ".db"

	t.Cleanup(func() {
		database.CloseDB()
		os.Remove(dbPath)
	})

	// Initialize test database using the actual migration system
	if err := database.InitializeDatabase(dbPath); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	return database.GetDB()
}

func createTestAudit(t *testing.T, repo AuditRepository, userID, name string) *models.Audit {
	audit := &models.Audit{
		Name:       name,
		ClientName: "Acme",
		UserID:     userID,
	}
	if err := repo.Create(context.Background(), audit); err != nil {
		t.Fatalf("Failed to create audit: %v", err)
	}
	return audit
}

func TestAuditRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	// Test Create
	audit := &models.Audit{
		Name:       "Q1 Pentest",
		ClientName: "Acme",
		Target:     "https://acme.example",
		UserID:     testUser,
	}
	if err := repo.Create(ctx, audit); err != nil {
		t.Fatalf("Failed to create audit: %v", err)
	}

	if audit.ID == "" {
		t.Error("Expected audit ID to be set after creation")
	}
	if audit.Status != models.AuditStatusPlanning {
		t.Errorf("Expected default status planning, got %s", audit.Status)
	}
	if audit.CreatedAt.IsZero() || audit.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set after creation")
	}

	// Test GetByID
	retrieved, err := repo.GetByID(ctx, testUser, audit.ID)
	if err != nil {
		t.Fatalf("Failed to get audit by ID: %v", err)
	}
	if retrieved.Name != audit.Name {
		t.Errorf("Expected name %s, got %s", audit.Name, retrieved.Name)
	}
	if retrieved.Target != audit.Target {
		t.Errorf("Expected target %s, got %s", audit.Target, retrieved.Target)
	}

	// GetByID for a missing row returns ErrNotFound
	_, err = repo.GetByID(ctx, testUser, "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	// Test GetAll ordering: newest first
	time.Sleep(10 * time.Millisecond)
	second := createTestAudit(t, repo, testUser, "Q2 Pentest")

	audits, err := repo.GetAll(ctx, testUser)
	if err != nil {
		t.Fatalf("Failed to get all audits: %v", err)
	}
	if len(audits) != 2 {
		t.Fatalf("Expected 2 audits, got %d", len(audits))
	}
	if audits[0].ID != second.ID {
		t.Errorf("Expected the newest audit first, got %s", audits[0].Name)
	}

	// Test Update
	audit.Name = "Q1 Pentest (extended)"
	audit.Status = models.AuditStatusInProgress
	if err := repo.Update(ctx, audit); err != nil {
		t.Fatalf("Failed to update audit: %v", err)
	}

	updated, err := repo.GetByID(ctx, testUser, audit.ID)
	if err != nil {
		t.Fatalf("Failed to get updated audit: %v", err)
	}
	if updated.Name != "Q1 Pentest (extended)" {
		t.Errorf("Expected updated name, got %s", updated.Name)
	}
	if updated.Status != models.AuditStatusInProgress {
		t.Errorf("Expected status in_progress, got %s", updated.Status)
	}

	// Test CountByStatus
	counts, err := repo.CountByStatus(ctx, testUser)
	if err != nil {
		t.Fatalf("Failed to count audits: %v", err)
	}
	if counts[models.AuditStatusInProgress] != 1 || counts[models.AuditStatusPlanning] != 1 {
		t.Errorf("Unexpected status counts: %v", counts)
	}

	// Test Delete
	if err := repo.Delete(ctx, testUser, audit.ID); err != nil {
		t.Fatalf("Failed to delete audit: %v", err)
	}
	_, err = repo.GetByID(ctx, testUser, audit.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after deletion, got %v", err)
	}
}

func TestAuditRepositoryUserScoping(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	audit := createTestAudit(t, repo, testUser, "Private Audit")

	// Another user cannot see, update or delete the audit
	_, err := repo.GetByID(ctx, otherUser, audit.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for another user's audit, got %v", err)
	}

	audits, err := repo.GetAll(ctx, otherUser)
	if err != nil {
		t.Fatalf("Failed to list audits: %v", err)
	}
	if len(audits) != 0 {
		t.Errorf("Expected empty list for another user, got %d audits", len(audits))
	}

	stolen := *audit
	stolen.Name = "Hijacked"
	stolen.UserID = otherUser
	if err := repo.Update(ctx, &stolen); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound updating another user's audit, got %v", err)
	}

	if err := repo.Delete(ctx, otherUser, audit.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting another user's audit, got %v", err)
	}
}

func TestChecklistRepository(t *testing.T) {
	db := setupTestDB(t)
	auditRepo := NewAuditRepository(db)
	repo := NewChecklistRepository(db)
	ctx := context.Background()

	audit := createTestAudit(t, auditRepo, testUser, "Checklist Audit")

	// Insert the seeded items in reverse order; listing must still sort by code
	items := owasp.SeedChecklist(audit.ID)
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	if err := repo.CreateBatch(ctx, items); err != nil {
		t.Fatalf("Failed to create checklist batch: %v", err)
	}

	list, err := repo.GetByAuditID(ctx, testUser, audit.ID)
	if err != nil {
		t.Fatalf("Failed to get checklist: %v", err)
	}
	if len(list) != 10 {
		t.Fatalf("Expected 10 checklist items, got %d", len(list))
	}
	for i, item := range list {
		if item.OwaspCode != owasp.Top10[i].Code {
			t.Errorf("Position %d: expected %s, got %s", i, owasp.Top10[i].Code, item.OwaspCode)
		}
		if item.Checked {
			t.Errorf("Item %s: expected unchecked after seeding", item.OwaspCode)
		}
	}

	// Test Update: checked and notes only
	target := list[2] // A03
	updated, err := repo.Update(ctx, testUser, target.ID, true, "injection verified")
	if err != nil {
		t.Fatalf("Failed to update checklist item: %v", err)
	}
	if !updated.Checked {
		t.Error("Expected item to be checked after update")
	}
	if updated.Notes != "injection verified" {
		t.Errorf("Expected updated notes, got %q", updated.Notes)
	}
	if updated.OwaspCode != target.OwaspCode || updated.Title != target.Title {
		t.Error("Expected OWASP fields to stay as seeded")
	}

	// Other items unaffected
	list, err = repo.GetByAuditID(ctx, testUser, audit.ID)
	if err != nil {
		t.Fatalf("Failed to re-fetch checklist: %v", err)
	}
	checked := 0
	for _, item := range list {
		if item.Checked {
			checked++
			if item.OwaspCode != "A03" {
				t.Errorf("Expected only A03 to be checked, found %s", item.OwaspCode)
			}
		}
	}
	if checked != 1 {
		t.Errorf("Expected exactly 1 checked item, got %d", checked)
	}

	// Authorization is transitive via the parent audit
	_, err = repo.GetByID(ctx, otherUser, target.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for another user's checklist item, got %v", err)
	}
	if _, err := repo.Update(ctx, otherUser, target.ID, false, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound updating another user's checklist item, got %v", err)
	}

	otherList, err := repo.GetByAuditID(ctx, otherUser, audit.ID)
	if err != nil {
		t.Fatalf("Failed to list checklist for another user: %v", err)
	}
	if len(otherList) != 0 {
		t.Errorf("Expected empty checklist for another user, got %d items", len(otherList))
	}
}

func TestChecklistBatchIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	auditRepo := NewAuditRepository(db)
	repo := NewChecklistRepository(db)
	ctx := context.Background()

	audit := createTestAudit(t, auditRepo, testUser, "Atomic Audit")

	// A duplicate code violates the unique constraint partway through; the
	// whole batch must roll back.
	items := owasp.SeedChecklist(audit.ID)
	items[7].OwaspCode = items[2].OwaspCode

	if err := repo.CreateBatch(ctx, items); err == nil {
		t.Fatal("Expected batch insert with duplicate code to fail")
	}

	list, err := repo.GetByAuditID(ctx, testUser, audit.ID)
	if err != nil {
		t.Fatalf("Failed to list checklist: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected no items after failed batch, got %d", len(list))
	}
}

func TestFindingRepository(t *testing.T) {
	db := setupTestDB(t)
	auditRepo := NewAuditRepository(db)
	repo := NewFindingRepository(db)
	ctx := context.Background()

	audit := createTestAudit(t, auditRepo, testUser, "Finding Audit")

	// Round-trip: defaults applied when severity/status omitted
	finding := &models.Finding{
		AuditID: audit.ID,
		Title:   "Reflected XSS in search",
		UserID:  testUser,
	}
	if err := repo.Create(ctx, finding); err != nil {
		t.Fatalf("Failed to create finding: %v", err)
	}
	if finding.ID == "" {
		t.Error("Expected finding ID to be set after creation")
	}

	retrieved, err := repo.GetByID(ctx, testUser, finding.ID)
	if err != nil {
		t.Fatalf("Failed to get finding by ID: %v", err)
	}
	if retrieved.Title != finding.Title {
		t.Errorf("Expected title %s, got %s", finding.Title, retrieved.Title)
	}
	if retrieved.Severity != models.SeverityMedium {
		t.Errorf("Expected default severity medium, got %s", retrieved.Severity)
	}
	if retrieved.Status != models.FindingStatusOpen {
		t.Errorf("Expected default status open, got %s", retrieved.Status)
	}
	if retrieved.CVSSScore != nil {
		t.Errorf("Expected nil CVSS score, got %v", *retrieved.CVSSScore)
	}
	if retrieved.CreatedAt.IsZero() || retrieved.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be populated")
	}

	// Test explicit fields survive the round trip
	time.Sleep(10 * time.Millisecond)
	score := 7.5
	full := &models.Finding{
		AuditID:        audit.ID,
		Title:          "SQL injection in login",
		Description:    "Parameter 'user' is concatenated into the query",
		ProofOfConcept: "' OR '1'='1",
		Remediation:    "Use parameterized queries",
		AffectedURL:    "https://acme.example/login",
		Severity:       models.SeverityCritical,
		Status:         models.FindingStatusOpen,
		CVSSScore:      &score,
		UserID:         testUser,
	}
	if err := repo.Create(ctx, full); err != nil {
		t.Fatalf("Failed to create full finding: %v", err)
	}

	retrieved, err = repo.GetByID(ctx, testUser, full.ID)
	if err != nil {
		t.Fatalf("Failed to get full finding: %v", err)
	}
	if retrieved.Severity != models.SeverityCritical {
		t.Errorf("Expected severity critical, got %s", retrieved.Severity)
	}
	if retrieved.CVSSScore == nil || *retrieved.CVSSScore != 7.5 {
		t.Errorf("Expected CVSS score 7.5, got %v", retrieved.CVSSScore)
	}
	if retrieved.ProofOfConcept != full.ProofOfConcept {
		t.Errorf("Expected proof of concept to round-trip, got %q", retrieved.ProofOfConcept)
	}

	// Listing: newest first
	findings, err := repo.GetByAuditID(ctx, testUser, audit.ID)
	if err != nil {
		t.Fatalf("Failed to list findings: %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("Expected 2 findings, got %d", len(findings))
	}
	if findings[0].ID != full.ID {
		t.Errorf("Expected the newest finding first, got %s", findings[0].Title)
	}

	// Test Update
	full.Status = models.FindingStatusFixed
	full.Remediation = "Fixed in release 1.4.2"
	if err := repo.Update(ctx, full); err != nil {
		t.Fatalf("Failed to update finding: %v", err)
	}
	retrieved, err = repo.GetByID(ctx, testUser, full.ID)
	if err != nil {
		t.Fatalf("Failed to get updated finding: %v", err)
	}
	if retrieved.Status != models.FindingStatusFixed {
		t.Errorf("Expected status fixed, got %s", retrieved.Status)
	}

	// Test Delete
	if err := repo.Delete(ctx, testUser, finding.ID); err != nil {
		t.Fatalf("Failed to delete finding: %v", err)
	}
	if _, err := repo.GetByID(ctx, testUser, finding.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after deletion, got %v", err)
	}
}

func TestAttachmentRepository(t *testing.T) {
	db := setupTestDB(t)
	auditRepo := NewAuditRepository(db)
	findingRepo := NewFindingRepository(db)
	repo := NewAttachmentRepository(db)
	ctx := context.Background()

	audit := createTestAudit(t, auditRepo, testUser, "Attachment Audit")
	finding := &models.Finding{AuditID: audit.ID, Title: "Weak TLS configuration", UserID: testUser}
	if err := findingRepo.Create(ctx, finding); err != nil {
		t.Fatalf("Failed to create finding: %v", err)
	}

	size := int64(2048)
	attachment := &models.Attachment{
		FindingID: finding.ID,
		FileName:  "scan-output.txt",
		FilePath:  "attachments/scan-output.txt",
		FileSize:  &size,
		FileType:  "text/plain",
		UserID:    testUser,
	}
	if err := repo.Create(ctx, attachment); err != nil {
		t.Fatalf("Failed to create attachment: %v", err)
	}
	if attachment.ID == "" {
		t.Error("Expected attachment ID to be set after creation")
	}

	list, err := repo.GetByFindingID(ctx, testUser, finding.ID)
	if err != nil {
		t.Fatalf("Failed to list attachments: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 attachment, got %d", len(list))
	}
	if list[0].FileSize == nil || *list[0].FileSize != 2048 {
		t.Errorf("Expected file size 2048, got %v", list[0].FileSize)
	}

	if err := repo.Delete(ctx, testUser, attachment.ID); err != nil {
		t.Fatalf("Failed to delete attachment: %v", err)
	}
	if _, err := repo.GetByID(ctx, testUser, attachment.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after deletion, got %v", err)
	}
}

func TestAuditDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	auditRepo := NewAuditRepository(db)
	checklistRepo := NewChecklistRepository(db)
	findingRepo := NewFindingRepository(db)
	ctx := context.Background()

	audit := createTestAudit(t, auditRepo, testUser, "Cascade Audit")
	if err := checklistRepo.CreateBatch(ctx, owasp.SeedChecklist(audit.ID)); err != nil {
		t.Fatalf("Failed to seed checklist: %v", err)
	}
	finding := &models.Finding{AuditID: audit.ID, Title: "Open redirect", UserID: testUser}
	if err := findingRepo.Create(ctx, finding); err != nil {
		t.Fatalf("Failed to create finding: %v", err)
	}

	if err := auditRepo.Delete(ctx, testUser, audit.ID); err != nil {
		t.Fatalf("Failed to delete audit: %v", err)
	}

	// The store cascades: checklist items and findings are gone
	items, err := checklistRepo.GetByAuditID(ctx, testUser, audit.ID)
	if err != nil {
		t.Fatalf("Failed to list checklist after cascade: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no checklist items after audit deletion, got %d", len(items))
	}

	findings, err := findingRepo.GetByAuditID(ctx, testUser, audit.ID)
	if err != nil {
		t.Fatalf("Failed to list findings after cascade: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("Expected no findings after audit deletion, got %d", len(findings))
	}
}
