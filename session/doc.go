// Package session owns the persisted form of the signed-in identity: the [Record]
// model, the codecs that turn it into bytes, and the slot [Store] that keeps exactly
// one record under one key of a storage.KV.
//
// # Record formats
//
// [JSONCodec] writes a flat JSON object with the five identity fields and rejects
// anything else on read (missing, extra or mistyped fields, trailing data).
// [SignedCodec] wraps the record in a JWT produced by the jwt package so tampered
// records are discarded at restore time.
//
// # Architecture boundaries
//
// This package does NOT hold the in-memory authentication state or decide whether a
// caller is signed in; that belongs to the Engine. It only reads, writes and erases
// the slot and classifies what it finds there.
//
// # What this package must NOT do
//
//   - Import aura or middleware (no upward imports).
//   - Retry storage failures; callers decide how to degrade.
package session
