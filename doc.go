// Package aura provides the session core of the Aura administration console: a
// single-operator [Engine] that holds who is signed in, restores that identity from
// durable storage at boot, and persists or erases it on login and logout.
//
// The Engine is safe to call from multiple goroutines after [Builder.Build]. Reads
// ([Engine.State], [Engine.User], [Engine.IsAuthenticated]) take a read lock and never
// wait on storage I/O; mutations are serialized so the persisted record and the
// in-memory identity change together.
//
// # Architecture boundaries
//
// aura is the public surface. It exposes [Engine], [Builder], [Config] and value types
// ([Identity], [State], [LoginResult], ...). Record encoding lives in session/, storage
// backends in storage/, and the per-request gate in middleware/.
//
// # What this package must NOT do
//
//   - Expose storage clients, codecs or record bytes in its public API.
//   - Perform I/O outside Engine methods (construction via Builder is allocation-only
//     until Build).
//   - Import any sub-package that re-imports aura (no import cycles).
//   - Verify credentials; login accepts any non-empty email and password.
package aura
