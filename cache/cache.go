// Package cache provides the query cache: a key-value store holding the
// results of list and single-record queries, keyed by resource and scope.
// Entries are invalidated, never patched, after each successful mutation, so
// readers always observe a full re-fetch.
package cache

import (
	"context"
	"fmt"
)

// Store is the query cache backend
type Store interface {
	// Get returns the cached value for key, or ok=false on a miss
	Get(ctx context.Context, key string) (value []byte, ok bool)
	// Set stores value under key
	Set(ctx context.Context, key string, value []byte)
	// Invalidate drops the entries for the given keys
	Invalidate(ctx context.Context, keys ...string)
}

// Cache keys, one per resource+scope.

// AuditsKey scopes the audit list to a user
func AuditsKey(userID string) string {
	return fmt.Sprintf("audits:%s", userID)
}

// AuditKey scopes a single audit entry
func AuditKey(id string) string {
	return fmt.Sprintf("audit:%s", id)
}

// ChecklistKey scopes a checklist list to a user and audit. The audit ID
// alone is not enough: repository reads are user-scoped, so cache hits must
// be too.
func ChecklistKey(userID, auditID string) string {
	return fmt.Sprintf("checklist:%s:%s", userID, auditID)
}

// FindingsKey scopes a finding list to a user and audit
func FindingsKey(userID, auditID string) string {
	return fmt.Sprintf("findings:%s:%s", userID, auditID)
}
