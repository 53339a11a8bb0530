package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, ok, err := s.Get(ctx, "absent"); err != nil || ok {
		t.Fatalf("absent key: ok=%v err=%v, want miss without error", ok, err)
	}

	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	raw, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || string(raw) != "v" {
		t.Fatalf("Get = (%q, %v, %v), want (v, true, nil)", raw, ok, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("Get after Delete should miss")
	}
	// Deleting again is idempotent.
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestMemoryStoreLazyExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	if err := s.Set(ctx, "k", []byte("v"), time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); !ok {
		t.Fatal("entry should be live before TTL")
	}

	now = now.Add(1500 * time.Millisecond)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("entry should expire after TTL")
	}
	if s.Len() != 0 {
		t.Fatalf("expired entry should be dropped on read, len=%d", s.Len())
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	buf := []byte("original")
	if err := s.Set(ctx, "k", buf, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	buf[0] = 'X'

	raw, _, _ := s.Get(ctx, "k")
	if string(raw) != "original" {
		t.Fatalf("store aliased caller buffer: %q", raw)
	}
}
