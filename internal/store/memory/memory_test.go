package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"spendlog/internal/store"
)

func TestMemoryStoreSetAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Get(ctx, store.KeyBudget); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	val := []byte("42")
	if err := s.Set(ctx, store.KeyBudget, val); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	val[0] = '9' // caller mutation must not leak into the store

	got, err := s.Get(ctx, store.KeyBudget)
	if err != nil || string(got) != "42" {
		t.Fatalf("unexpected get: %q err=%v", got, err)
	}

	if err := s.Set(ctx, store.KeyBudget, []byte("7")); err != nil {
		t.Fatalf("unexpected overwrite error: %v", err)
	}
	got, _ = s.Get(ctx, store.KeyBudget)
	if string(got) != "7" {
		t.Fatalf("expected full overwrite, got %q", got)
	}
	if !s.Has(store.KeyBudget) || s.Has(store.KeyExpenses) {
		t.Fatalf("unexpected Has results, keys=%v", s.Keys())
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	// No files -> empty store
	s := NewFromFiles(dir)
	if len(s.Keys()) != 0 {
		t.Fatalf("expected empty store when files missing, got %v", s.Keys())
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("expenses.json", `[{"amount":10,"category":"Food","note":"","date":"2024-01-01"}]`+"\n")
	mustWrite("budget.json", "  \n")

	s = NewFromFiles(dir)
	keys := s.Keys()
	if len(keys) != 1 || keys[0] != store.KeyExpenses {
		t.Fatalf("unexpected keys: %v", keys)
	}
}
