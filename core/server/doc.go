// Package server holds the HTTP server configuration.
//
// The start command owns the Fiber app; this package only defines the
// listen port, the API key guarding the reconciliation endpoints and the
// graceful shutdown bound.
package server
