// Package middleware gates HTTP handlers on the aura session state.
//
// # Guards
//
//   - [Guard] wraps the protected tree. While the session is still restoring it serves
//     a neutral placeholder, without a user it redirects to the login path, and with a
//     user it admits the request and injects the identity into the request context.
//   - [RequireGuest] wraps the login entry point and can send an already signed-in
//     operator back to the home path.
//
// The guard reads the state on every request through [StateSource] and keeps no
// state of its own. Handlers inside the guarded tree read the operator with
// [IdentityFromContext] or [MustIdentity].
package middleware
