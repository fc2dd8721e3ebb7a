package aura

import "errors"

var (
	// ErrInvalidCredentials is returned when login receives an empty email or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPersistFailed is returned when the session record could not be written.
	ErrPersistFailed = errors.New("session persist failed")
	// ErrEraseFailed is returned when the session record could not be removed.
	ErrEraseFailed = errors.New("session erase failed")
	// ErrEngineNotReady is returned when a restore result is requested before Initialize ran.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrSessionNotProvisioned is the panic value when the session core is used without
	// a built Engine.
	ErrSessionNotProvisioned = errors.New("session not provisioned")
)
