// Package middleware groups the Fiber middleware mounted in front of the
// reconciliation API.
//
//   - rayid: tags every request with an id (X-Ray-ID header and Locals) so
//     handler logs can be joined with the run logs.
//   - auth: rejects requests without the configured X-API-Key. An empty key
//     disables the check.
package middleware
