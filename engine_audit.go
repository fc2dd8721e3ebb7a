package aura

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/MrEthical07/aura/session"
	"github.com/oklog/ulid/v2"
)

const (
	auditEventSessionRestore = "session_restore"
	auditEventLoginSuccess   = "login_success"
	auditEventLoginFailure   = "login_failure"
	auditEventLogout         = "logout"
)

// AuditErrorCode is the stable error label carried by failed audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrPersistFailed      AuditErrorCode = "persist_failed"
	auditErrEraseFailed        AuditErrorCode = "erase_failed"
	auditErrRecordMalformed    AuditErrorCode = "record_malformed"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	user *Identity,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	now := time.Now().UTC()
	event := AuditEvent{
		ID:        newAuditID(now),
		Timestamp: now,
		EventType: eventType,
		RequestID: RequestIDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if user != nil {
		event.UserID = user.ID
		event.Email = user.Email
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

// newAuditID returns a ULID for now, or "" if the entropy source fails.
func newAuditID(now time.Time) string {
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return ""
	}
	return id.String()
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrPersistFailed):
		return auditErrPersistFailed
	case errors.Is(err, ErrEraseFailed):
		return auditErrEraseFailed
	case errors.Is(err, session.ErrRecordMalformed):
		return auditErrRecordMalformed
	case errors.Is(err, session.ErrStorageUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
