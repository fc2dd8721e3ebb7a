package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MrEthical07/aura/storage"
	"github.com/pressly/goose/v3"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aura.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStoreUpsertAndDelete(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "aura_user"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Set(ctx, "aura_user", []byte("first")); err != nil {
		t.Fatalf("set first: %v", err)
	}
	if err := store.Set(ctx, "aura_user", []byte("second")); err != nil {
		t.Fatalf("set second: %v", err)
	}
	got, err := store.Get(ctx, "aura_user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("expected upserted value, got %q", got)
	}
	if err := store.Delete(ctx, "aura_user"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "aura_user"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := store.Get(ctx, "aura_user"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "aura_user", []byte("persisted")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "aura_user")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(got) != "persisted" {
		t.Fatalf("expected persisted value, got %q", got)
	}
}

func TestOpenMigrationFailure(t *testing.T) {
	orig := gooseUpContext
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	if _, err := Open(context.Background(), filepath.Join(t.TempDir(), "aura.db")); err == nil {
		t.Fatal("expected migration failure to surface")
	}
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	store, _ := openTestStore(t)
	_ = store.Close()

	if err := store.Set(context.Background(), "k", []byte("v")); !errors.Is(err, storage.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
