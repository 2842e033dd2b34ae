package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
	"github.com/cognicore/emodetect/pkg/emodetect/registry/sqlite"
)

func TestResolveBundle(t *testing.T) {
	ctx := context.Background()

	path, err := resolveBundle(ctx, "models/bundle.json", "", "emotion_detection", "champion")
	if err != nil || path != "models/bundle.json" {
		t.Fatalf("without registry: %q, %v", path, err)
	}

	db := filepath.Join(t.TempDir(), "registry.db")
	st, err := sqlite.OpenSQLite(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.RegisterModel(ctx, "emotion_detection", "", "models/runs/a/bundle.json"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.RegisterModel(ctx, "emotion_detection", "", "models/runs/b/bundle.json"); err != nil {
		t.Fatal(err)
	}
	if err := st.SetAlias(ctx, "emotion_detection", "champion", 1); err != nil {
		t.Fatal(err)
	}
	st.Close()

	path, err = resolveBundle(ctx, "models/bundle.json", db, "emotion_detection", "champion")
	if err != nil {
		t.Fatalf("resolveBundle: %v", err)
	}
	if path != "models/runs/a/bundle.json" {
		t.Errorf("path = %q, want the champion's source", path)
	}
	if _, err := os.Stat(db + "-wal"); !os.IsNotExist(err) {
		t.Errorf("registry left open: %v", err)
	}

	if _, err := resolveBundle(ctx, "", db, "emotion_detection", "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("unknown alias: expected ErrNotFound, got %v", err)
	}
}
