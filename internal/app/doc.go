// Package app wires the aura console process: environment config, logging, the
// session storage backend, the Engine and the HTTP server.
package app
