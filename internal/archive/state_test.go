package archive

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFileStateStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}

	_, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if ok {
		t.Fatalf("expected no state before first save")
	}

	if err := store.Save(ctx, 42); err != nil {
		t.Fatalf("save: %v", err)
	}

	block, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok || block != 42 {
		t.Fatalf("state mismatch: ok=%v block=%d", ok, block)
	}
}

func TestFileStateStoreUnconfigured(t *testing.T) {
	ctx := context.Background()
	var store *FileStateStore

	if err := store.Save(ctx, 1); err != nil {
		t.Fatalf("nil store save: %v", err)
	}
	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("nil store load: ok=%v err=%v", ok, err)
	}
}
