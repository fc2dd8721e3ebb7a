// Package storage defines the durable key-value abstraction the session slot is
// written to, plus the sentinel errors every backend reports through.
//
// # Backends
//
// Concrete implementations live in sub-packages: memory (process local), redis
// (go-redis), sqlite (modernc.org/sqlite + goose migrations) and postgres (pgx +
// goose migrations). All of them store opaque bytes under string keys.
//
// # What this package must NOT do
//
//   - Import aura, session, or any backend sub-package.
//   - Interpret stored values; encoding belongs to the session codecs.
package storage
