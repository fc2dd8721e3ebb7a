package aura

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/aura/storage/memory"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Contains(s string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Contains(b.buf.String(), s)
}

func buildAuditTestEngine(t *testing.T, sink AuditSink) *Engine {
	t.Helper()

	cfg := testConfig()
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 32}

	engine, err := New().
		WithConfig(cfg).
		WithStorage(memory.New()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func nextEvent(t *testing.T, ch <-chan AuditEvent) AuditEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
	}
	return AuditEvent{}
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	engine, err := New().WithConfig(testConfig()).WithStorage(memory.New()).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	engine.Initialize(context.Background())
	engine.Login(context.Background(), "a@b.edu", "x")
	time.Sleep(30 * time.Millisecond)

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
}

func TestAuditSessionLifecycleEvents(t *testing.T) {
	sink := NewChannelSink(16)
	engine := buildAuditTestEngine(t, sink)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithClientIP(ctx, "203.0.113.7")
	ctx = WithUserAgent(ctx, "test-agent")

	engine.Initialize(ctx)
	restore := nextEvent(t, sink.Events())
	if restore.EventType != auditEventSessionRestore || !restore.Success || restore.Metadata["outcome"] != "empty" {
		t.Fatalf("unexpected restore event %+v", restore)
	}

	engine.Login(ctx, "a@b.edu", "x")
	login := nextEvent(t, sink.Events())
	if login.EventType != auditEventLoginSuccess || !login.Success {
		t.Fatalf("unexpected login event %+v", login)
	}
	if login.UserID != "1" || login.Email != "a@b.edu" {
		t.Fatalf("expected identity on login event, got %+v", login)
	}
	if login.RequestID != "req-1" || login.IP != "203.0.113.7" || login.UserAgent != "test-agent" {
		t.Fatalf("expected request metadata on login event, got %+v", login)
	}
	if len(login.ID) != 26 {
		t.Fatalf("expected ULID event id, got %q", login.ID)
	}

	engine.Login(ctx, "", "x")
	failed := nextEvent(t, sink.Events())
	if failed.EventType != auditEventLoginFailure || failed.Success || failed.Error != string(auditErrInvalidCredentials) {
		t.Fatalf("unexpected failure event %+v", failed)
	}

	engine.Logout(ctx)
	logout := nextEvent(t, sink.Events())
	if logout.EventType != auditEventLogout || !logout.Success || logout.Metadata["was_authenticated"] != "true" {
		t.Fatalf("unexpected logout event %+v", logout)
	}
	if logout.ID == login.ID {
		t.Fatalf("expected distinct event ids, got %q twice", login.ID)
	}
}

func TestAuditNoSecretsInEvents(t *testing.T) {
	var buf syncBuffer
	engine := buildAuditTestEngine(t, NewJSONWriterSink(&buf))

	engine.Initialize(context.Background())
	engine.Login(context.Background(), "a@b.edu", "super-secret-password")
	engine.Close()

	if buf.Contains("super-secret-password") {
		t.Fatal("audit output must never contain the password")
	}
	if !buf.Contains(auditEventLoginSuccess) {
		t.Fatal("expected login event to be written")
	}
}

func TestAuditBufferFullDropIfFullTrueDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	start := time.Now()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
	if got := dispatcher.DroppedByEvent()[auditEventOther]; got != dispatcher.Dropped() {
		t.Fatalf("expected unknown event types under %q, got %d of %d", auditEventOther, got, dispatcher.Dropped())
	}
}

func TestAuditDropsCountedPerEventType(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	// The worker holds the first event at the gate and the second fills the queue.
	dispatcher.Emit(context.Background(), AuditEvent{EventType: auditEventSessionRestore})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: auditEventSessionRestore})
	time.Sleep(20 * time.Millisecond)
	dispatcher.Emit(context.Background(), AuditEvent{EventType: auditEventSessionRestore})

	dispatcher.Emit(context.Background(), AuditEvent{EventType: auditEventLoginFailure})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: auditEventLoginFailure})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: auditEventLogout})

	got := dispatcher.DroppedByEvent()
	if got[auditEventLoginFailure] != 2 || got[auditEventLogout] != 1 {
		t.Fatalf("unexpected per-event drops %v", got)
	}
	if _, ok := got[auditEventLoginSuccess]; !ok {
		t.Fatalf("expected every lifecycle event present, got %v", got)
	}
	if _, ok := got[auditEventOther]; ok {
		t.Fatalf("expected no %q entry without unknown events, got %v", auditEventOther, got)
	}
	var sum uint64
	for _, n := range got {
		sum += n
	}
	if sum != dispatcher.Dropped() {
		t.Fatalf("expected total %d to match breakdown %v", dispatcher.Dropped(), got)
	}
}

func TestAuditBlockingEmitCountsCancelledEvent(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: auditEventLoginSuccess})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: auditEventLoginSuccess})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	dispatcher.Emit(ctx, AuditEvent{EventType: auditEventLogout})

	if got := dispatcher.DroppedByEvent()[auditEventLogout]; got != 1 {
		t.Fatalf("expected cancelled logout event counted as dropped, got %d", got)
	}
}

func TestMetricsSnapshotCarriesAuditDrops(t *testing.T) {
	engine := buildAuditTestEngine(t, &countingSink{})
	snap := engine.MetricsSnapshot()
	if snap.AuditDropped == nil {
		t.Fatal("expected audit drop breakdown when audit is enabled")
	}
	if _, ok := snap.AuditDropped[auditEventLogout]; !ok {
		t.Fatalf("expected logout entry, got %v", snap.AuditDropped)
	}

	plain, _ := newTestEngine(t, nil)
	if got := plain.MetricsSnapshot().AuditDropped; got != nil {
		t.Fatalf("expected nil breakdown with audit disabled, got %v", got)
	}
}

func TestAuditBufferFullDropIfFullFalseBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestAuditDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, &countingSink{})

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Close()
	dispatcher.Close()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})
}

func TestAuditSlogSinkWritesStructuredRecord(t *testing.T) {
	var buf syncBuffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sink := NewSlogSink(logger)

	sink.Emit(context.Background(), AuditEvent{
		ID:        "01J0000000000000000000000A",
		EventType: auditEventLoginFailure,
		Success:   false,
		Error:     string(auditErrPersistFailed),
		Metadata:  map[string]string{"outcome": "x"},
	})

	for _, want := range []string{`"msg":"audit"`, `"level":"WARN"`, `"event":"login_failure"`, `"error":"persist_failed"`, `"meta.outcome":"x"`} {
		if !buf.Contains(want) {
			t.Fatalf("expected slog output to contain %s", want)
		}
	}
}
