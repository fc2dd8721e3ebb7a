// Package jwt signs and verifies the persisted session record when the signed codec
// is selected. The record's identity fields travel as private claims; issuer,
// audience, kid and iat are checked on every parse.
//
// # What this package must NOT do
//
//   - Import aura, session, or storage (no upward imports).
//   - Add expiry semantics; a record is valid until it is erased.
package jwt
