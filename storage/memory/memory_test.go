package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/aura/storage"
)

func TestStoreSetGetDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Get(ctx, "k"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("expected v1, got %q", got)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d keys", s.Len())
	}
}

func TestStoreCopiesValues(t *testing.T) {
	s := New()
	ctx := context.Background()

	in := []byte("abc")
	if err := s.Set(ctx, "k", in); err != nil {
		t.Fatalf("set: %v", err)
	}
	in[0] = 'x'

	out, _ := s.Get(ctx, "k")
	if string(out) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %q", out)
	}
	out[1] = 'y'
	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("returned value aliased stored buffer: %q", again)
	}
}

func TestStoreClosedIsUnavailable(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.Close()

	if err := s.Set(ctx, "k", []byte("v")); !errors.Is(err, storage.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from Set, got %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, storage.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from Get, got %v", err)
	}
	if err := storage.Ping(ctx, s); !errors.Is(err, storage.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from Ping, got %v", err)
	}
}
