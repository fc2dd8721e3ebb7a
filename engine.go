package aura

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/aura/session"
	"github.com/MrEthical07/aura/storage"
)

// Engine is the session store of one console process.
//
// It owns the signed-in identity and the loading flag. Reads return copies and
// never block on storage. Initialize, the commit half of Login, and Logout are
// serialized so the persisted record and the in-memory identity always change
// together.
type Engine struct {
	config  Config
	kv      storage.KV
	records *session.Store
	logger  *slog.Logger
	audit   *auditDispatcher
	metrics *Metrics

	// mutate serializes slot writes with state assignment.
	mutate sync.Mutex

	mu      sync.RWMutex
	user    *Identity
	loading bool

	initOnce sync.Once
	restore  RestoreResult
	ready    chan struct{}

	watchMu   sync.Mutex
	watchers  map[uint64]chan State
	nextWatch uint64
	closed    bool
}

func (e *Engine) mustProvisioned() {
	if e == nil || e.ready == nil {
		panic(ErrSessionNotProvisioned)
	}
}

// Close stops the audit dispatcher and closes every Watch channel.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeWatchers()
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns counters, histograms, per-event audit drops and the
// current session gauges.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	s := e.metrics.Snapshot()
	s.AuditDropped = e.audit.DroppedByEvent()
	if e.ready != nil {
		st := e.State()
		s.SessionAuthenticated = st.IsAuthenticated()
		s.SessionLoading = st.Loading
	}
	return s
}

// Metrics exposes the Engine's metric set so collaborators (the route guard) can
// count their own events.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

// StorageKey returns the key the session record is stored under.
func (e *Engine) StorageKey() string {
	e.mustProvisioned()
	return e.records.Key()
}

// Ping checks the storage backend when it supports liveness checks.
func (e *Engine) Ping(ctx context.Context) error {
	e.mustProvisioned()
	return storage.Ping(ctx, e.kv)
}

/*
====================================
READS
====================================
*/

// State returns a copy of the current authentication state.
func (e *Engine) State() State {
	e.mustProvisioned()
	e.mu.RLock()
	defer e.mu.RUnlock()
	return State{User: cloneIdentity(e.user), Loading: e.loading}
}

// User returns a copy of the signed-in identity.
func (e *Engine) User() (Identity, bool) {
	e.mustProvisioned()
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.user == nil {
		return Identity{}, false
	}
	return *e.user, true
}

// IsAuthenticated reports whether someone is signed in. It is derived from the
// identity on every call.
func (e *Engine) IsAuthenticated() bool {
	e.mustProvisioned()
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.user != nil
}

// Loading reports whether Initialize has not yet completed.
func (e *Engine) Loading() bool {
	e.mustProvisioned()
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loading
}

// Ready is closed once Initialize completes.
func (e *Engine) Ready() <-chan struct{} {
	e.mustProvisioned()
	return e.ready
}

// RestoreResult returns the outcome of Initialize, or ErrEngineNotReady before
// it has completed.
func (e *Engine) RestoreResult() (RestoreResult, error) {
	e.mustProvisioned()
	select {
	case <-e.ready:
		return e.restore, nil
	default:
		return RestoreResult{}, ErrEngineNotReady
	}
}

// setUser replaces the identity and publishes the new state. Callers hold mutate.
func (e *Engine) setUser(user *Identity) *Identity {
	e.mu.Lock()
	prev := e.user
	e.user = user
	st := State{User: cloneIdentity(e.user), Loading: e.loading}
	e.mu.Unlock()

	e.publish(st)
	return prev
}

/*
====================================
INITIALIZE
====================================
*/

// Initialize restores the persisted identity. It runs once per Engine; later and
// concurrent calls wait for and return the first result.
//
// Absent, malformed, unreadable or slow records all leave the Engine signed out.
// A malformed record is erased on a best-effort basis. Loading becomes false in
// every case.
func (e *Engine) Initialize(ctx context.Context) RestoreResult {
	e.mustProvisioned()
	e.initOnce.Do(func() {
		e.runRestore(ctx)
	})
	return e.restore
}

func (e *Engine) runRestore(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	e.mutate.Lock()

	readCtx, cancel := context.WithTimeout(ctx, e.config.Session.RestoreTimeout)
	rec, err := e.records.Load(readCtx)
	cancel()

	var result RestoreResult
	switch {
	case err == nil:
		id := identityFromRecord(rec)
		result = RestoreResult{Outcome: RestoreRestored, User: cloneIdentity(&id)}
		e.mu.Lock()
		e.user = &id
		e.mu.Unlock()
	case errors.Is(err, session.ErrRecordNotFound):
		result = RestoreResult{Outcome: RestoreEmpty}
	case errors.Is(err, session.ErrRecordMalformed):
		result = RestoreResult{Outcome: RestoreDiscarded, Err: err}
		e.discardRecord(ctx)
	default:
		result = RestoreResult{Outcome: RestoreUnavailable, Err: err}
	}
	result.Duration = time.Since(start)

	e.mu.Lock()
	e.loading = false
	st := State{User: cloneIdentity(e.user), Loading: false}
	e.mu.Unlock()
	e.restore = result
	close(e.ready)
	e.publish(st)
	e.mutate.Unlock()

	e.metricObserve(MetricRestoreLatency, result.Duration)
	switch result.Outcome {
	case RestoreRestored:
		e.metricInc(MetricRestoreRestored)
	case RestoreEmpty:
		e.metricInc(MetricRestoreEmpty)
	case RestoreDiscarded:
		e.metricInc(MetricRestoreDiscarded)
	case RestoreUnavailable:
		e.metricInc(MetricRestoreUnavailable)
	}

	attrs := []any{
		slog.String("outcome", result.Outcome.String()),
		slog.String("key", e.records.Key()),
		slog.Duration("duration", result.Duration),
	}
	if result.Err != nil {
		attrs = append(attrs, slog.String("error", result.Err.Error()))
		e.logger.WarnContext(ctx, "session.restore", attrs...)
	} else {
		e.logger.InfoContext(ctx, "session.restore", attrs...)
	}

	e.emitAudit(ctx, auditEventSessionRestore, result.Outcome != RestoreUnavailable, result.User, result.Err, func() map[string]string {
		return map[string]string{"outcome": result.Outcome.String()}
	})
}

func (e *Engine) discardRecord(ctx context.Context) {
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.config.Session.WriteTimeout)
	defer cancel()
	if err := e.records.Delete(delCtx); err != nil {
		e.logger.DebugContext(ctx, "session.discard_fail", slog.String("error", err.Error()))
	}
}

/*
====================================
LOGIN / LOGOUT
====================================
*/

// Login signs an operator in. Any non-empty email and password are accepted.
//
// After the configured delay the identity is built from email and the mock
// profile, persisted, and only then assigned. If persisting fails nothing changes
// and the slot is rewritten to match the identity still held in memory.
// Failures are reported through the result, never as panics. Cancelling ctx does
// not abort a login that has started.
func (e *Engine) Login(ctx context.Context, email, password string) LoginResult {
	e.mustProvisioned()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	defer func() {
		e.metricObserve(MetricLoginLatency, time.Since(start))
	}()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		e.metricInc(MetricLoginInvalidCredentials)
		return e.loginFailed(ctx, ErrInvalidCredentials)
	}

	waitDelay(e.config.Session.LoginDelay)

	profile := e.config.MockProfile
	identity := Identity{
		ID:          profile.ID,
		Name:        profile.Name,
		Email:       email,
		Role:        profile.Role,
		Institution: profile.Institution,
	}

	e.mutate.Lock()
	writeCtx, cancel := context.WithTimeout(ctx, e.config.Session.WriteTimeout)
	err := e.records.Save(writeCtx, identity.record())
	cancel()
	if err != nil {
		e.restoreSlot(ctx)
		e.mutate.Unlock()
		e.metricInc(MetricLoginPersistFailure)
		return e.loginFailed(ctx, fmt.Errorf("%w: %w", ErrPersistFailed, err))
	}
	e.setUser(cloneIdentity(&identity))
	e.mutate.Unlock()

	e.metricInc(MetricLoginSuccess)
	e.logger.InfoContext(ctx, "login.success",
		slog.String("user_id", identity.ID),
		slog.String("request_id", RequestIDFromContext(ctx)),
	)
	e.emitAudit(ctx, auditEventLoginSuccess, true, &identity, nil, nil)

	return LoginResult{Success: true, User: cloneIdentity(&identity)}
}

// restoreSlot puts the slot back to the current in-memory identity after a
// failed save, since the backend may have applied the write before erroring.
// Callers hold mutate.
func (e *Engine) restoreSlot(ctx context.Context) {
	e.mu.RLock()
	prev := cloneIdentity(e.user)
	e.mu.RUnlock()

	writeCtx, cancel := context.WithTimeout(ctx, e.config.Session.WriteTimeout)
	defer cancel()
	var err error
	if prev != nil {
		err = e.records.Save(writeCtx, prev.record())
	} else {
		err = e.records.Delete(writeCtx)
	}
	if err != nil {
		e.logger.WarnContext(ctx, "login.slot_restore_fail",
			slog.String("error", err.Error()),
			slog.Bool("had_user", prev != nil),
			slog.String("request_id", RequestIDFromContext(ctx)),
		)
	}
}

func (e *Engine) loginFailed(ctx context.Context, err error) LoginResult {
	e.metricInc(MetricLoginFailure)
	e.logger.WarnContext(ctx, "login.fail",
		slog.String("error", err.Error()),
		slog.String("request_id", RequestIDFromContext(ctx)),
	)
	e.emitAudit(ctx, auditEventLoginFailure, false, nil, err, nil)
	return LoginResult{Err: err}
}

func waitDelay(d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	<-t.C
}

// Logout clears the identity and erases the persisted record. It is idempotent.
//
// The identity is cleared even when erasing fails; the failure is reported in
// the result.
func (e *Engine) Logout(ctx context.Context) LogoutResult {
	e.mustProvisioned()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithoutCancel(ctx)

	e.mutate.Lock()
	prev := e.setUser(nil)
	eraseCtx, cancel := context.WithTimeout(ctx, e.config.Session.WriteTimeout)
	err := e.records.Delete(eraseCtx)
	cancel()
	e.mutate.Unlock()

	result := LogoutResult{WasAuthenticated: prev != nil, Erased: err == nil}
	e.metricInc(MetricLogout)
	if err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrEraseFailed, err)
		e.metricInc(MetricLogoutEraseFailure)
		e.logger.WarnContext(ctx, "logout.erase_fail",
			slog.String("error", err.Error()),
			slog.String("request_id", RequestIDFromContext(ctx)),
		)
	} else {
		e.logger.InfoContext(ctx, "logout",
			slog.Bool("was_authenticated", result.WasAuthenticated),
			slog.String("request_id", RequestIDFromContext(ctx)),
		)
	}
	e.emitAudit(ctx, auditEventLogout, err == nil, prev, result.Err, func() map[string]string {
		if result.WasAuthenticated {
			return map[string]string{"was_authenticated": "true"}
		}
		return map[string]string{"was_authenticated": "false"}
	})

	return result
}
