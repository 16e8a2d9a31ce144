package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreGetSet(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	if _, ok := store.Get(ctx, "missing"); ok {
		t.Error("Expected a miss for an unset key")
	}

	store.Set(ctx, "greeting", []byte("hello"))
	value, ok := store.Get(ctx, "greeting")
	if !ok {
		t.Fatal("Expected a hit after Set")
	}
	if string(value) != "hello" {
		t.Errorf("Expected value hello, got %s", value)
	}

	// Overwrite replaces the stored value
	store.Set(ctx, "greeting", []byte("goodbye"))
	value, _ = store.Get(ctx, "greeting")
	if string(value) != "goodbye" {
		t.Errorf("Expected overwritten value, got %s", value)
	}
}

func TestMemoryStoreInvalidate(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	store.Set(ctx, "a", []byte("1"))
	store.Set(ctx, "b", []byte("2"))
	store.Set(ctx, "c", []byte("3"))

	store.Invalidate(ctx, "a", "b")

	if _, ok := store.Get(ctx, "a"); ok {
		t.Error("Expected key a to be invalidated")
	}
	if _, ok := store.Get(ctx, "b"); ok {
		t.Error("Expected key b to be invalidated")
	}
	if _, ok := store.Get(ctx, "c"); !ok {
		t.Error("Expected key c to survive")
	}

	// Invalidating a missing key is a no-op
	store.Invalidate(ctx, "missing")
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(20 * time.Millisecond)
	ctx := context.Background()

	store.Set(ctx, "ephemeral", []byte("soon gone"))
	if _, ok := store.Get(ctx, "ephemeral"); !ok {
		t.Fatal("Expected a hit before expiry")
	}

	time.Sleep(30 * time.Millisecond)
	if _, ok := store.Get(ctx, "ephemeral"); ok {
		t.Error("Expected a miss after the TTL elapsed")
	}
}

func TestMemoryStoreNoExpiry(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	store.Set(ctx, "durable", []byte("stays"))
	time.Sleep(10 * time.Millisecond)
	if _, ok := store.Get(ctx, "durable"); !ok {
		t.Error("Expected entries to persist when expiry is disabled")
	}
}

func TestKeyHelpers(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"audits list", AuditsKey("auth0|u1"), "audits:auth0|u1"},
		{"single audit", AuditKey("abc-123"), "audit:abc-123"},
		{"checklist", ChecklistKey("auth0|u1", "abc-123"), "checklist:auth0|u1:abc-123"},
		{"findings", FindingsKey("auth0|u1", "abc-123"), "findings:auth0|u1:abc-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, tt.got)
			}
		})
	}
}
