// Package owasp holds the OWASP Top 10 (2021) reference table and the
// checklist seeder that turns it into per-audit checklist items.
package owasp

import "github.com/blogem/audit-tracker/models"

// Item is one OWASP Top 10 category definition
type Item struct {
	Code        string
	Category    string
	Title       string
	Description string
}

// Top10 is the OWASP Top 10 (2021) reference table, ordered A01 through A10.
// It is constant data; checklist items copy these values at creation time.
var Top10 = []Item{
	{
		Code:        "A01",
		Category:    "Broken Access Control",
		Title:       "Broken Access Control",
		Description: "Restrictions on authenticated users are not properly enforced. Attackers can exploit these flaws to access unauthorized functionality and/or data.",
	},
	{
		Code:        "A02",
		Category:    "Cryptographic Failures",
		Title:       "Cryptographic Failures",
		Description: "Failures related to cryptography which often lead to exposure of sensitive data. This includes weak encryption, improper key management, and transmission of data in clear text.",
	},
	{
		Code:        "A03",
		Category:    "Injection",
		Title:       "Injection",
		Description: "Injection flaws such as SQL, NoSQL, OS, and LDAP injection occur when untrusted data is sent to an interpreter as part of a command or query.",
	},
	{
		Code:        "A04",
		Category:    "Insecure Design",
		Title:       "Insecure Design",
		Description: "Missing or ineffective control design. This includes threat modeling, secure design patterns, and reference architectures.",
	},
	{
		Code:        "A05",
		Category:    "Security Misconfiguration",
		Title:       "Security Misconfiguration",
		Description: "Missing appropriate security hardening or improperly configured permissions on cloud services. Includes default configurations and incomplete configurations.",
	},
	{
		Code:        "A06",
		Category:    "Vulnerable Components",
		Title:       "Vulnerable and Outdated Components",
		Description: "Using components with known vulnerabilities. This includes libraries, frameworks, and other software modules running with the same privileges as the application.",
	},
	{
		Code:        "A07",
		Category:    "Authentication Failures",
		Title:       "Identification and Authentication Failures",
		Description: "Weak authentication mechanisms, session management flaws, and credential stuffing. Includes improper validation of sessions and credentials.",
	},
	{
		Code:        "A08",
		Category:    "Data Integrity Failures",
		Title:       "Software and Data Integrity Failures",
		Description: "Code and infrastructure that does not protect against integrity violations. Includes insecure deserialization and using software without integrity verification.",
	},
	{
		Code:        "A09",
		Category:    "Logging Failures",
		Title:       "Security Logging and Monitoring Failures",
		Description: "Insufficient logging, detection, monitoring, and active response. Without proper logging and monitoring, attacks may go unnoticed.",
	},
	{
		Code:        "A10",
		Category:    "SSRF",
		Title:       "Server-Side Request Forgery (SSRF)",
		Description: "SSRF flaws occur when a web application fetches a remote resource without validating the user-supplied URL. Attackers can coerce the application to send requests to unexpected destinations.",
	},
}

// SeedChecklist returns the ten checklist item payloads for a new audit, in
// table order, one per OWASP category. Identifiers and timestamps are left
// for the persistence layer to assign.
func SeedChecklist(auditID string) []models.ChecklistItem {
	items := make([]models.ChecklistItem, 0, len(Top10))
	for _, item := range Top10 {
		items = append(items, models.ChecklistItem{
			AuditID:       auditID,
			OwaspCode:     item.Code,
			OwaspCategory: item.Category,
			Title:         item.Title,
			Description:   item.Description,
			Checked:       false,
			Notes:         "",
		})
	}
	return items
}
