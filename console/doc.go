// Package console serves the AURA administration console over HTTP.
//
// The login entry point, health probes, metrics and the live session feed are
// public. Every other page sits behind [middleware.Guard], so it renders only for a
// signed-in operator and shows a loading placeholder while the session restores.
// Pages are rendered with templ components; routing uses gorilla/mux.
package console
