package aura

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/aura/storage"
	"github.com/MrEthical07/aura/storage/memory"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Session.LoginDelay = 0
	cfg.Session.RestoreTimeout = time.Second
	cfg.Session.WriteTimeout = time.Second
	return cfg
}

func newTestEngine(t *testing.T, mutate func(*Config)) (*Engine, *memory.Store) {
	t.Helper()
	kv := memory.New()
	return newTestEngineWithKV(t, kv, mutate), kv
}

func newTestEngineWithKV(t *testing.T, kv storage.KV, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	engine, err := New().WithConfig(cfg).WithStorage(kv).Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

// faultyKV wraps a store and fails selected operations.
type faultyKV struct {
	inner storage.KV

	mu      sync.Mutex
	failGet error
	failSet error
	// lateSet is returned after the write has been applied.
	lateSet  error
	failDel  error
	getDelay time.Duration
	setCalls int
	delCalls int
}

func (f *faultyKV) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	err, delay := f.failGet, f.getDelay
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return f.inner.Get(ctx, key)
}

func (f *faultyKV) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	f.setCalls++
	err, late := f.failSet, f.lateSet
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if err := f.inner.Set(ctx, key, value); err != nil {
		return err
	}
	return late
}

func (f *faultyKV) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	f.delCalls++
	err := f.failDel
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.inner.Delete(ctx, key)
}
