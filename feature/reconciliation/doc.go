// Package reconciliation exposes two-way reconciliation runs over HTTP and
// on a cron schedule.
//
// The Service starts runs in the background and tracks them by id. A
// trigger identical to a run that is still active returns the existing
// handle. Feeds and reports may live on the local disk or in object
// storage (s3://bucket/key).
//
// Endpoints:
//   - POST   /reconciliation/runs
//   - GET    /reconciliation/runs
//   - GET    /reconciliation/runs/:id
//   - DELETE /reconciliation/runs/:id
//   - POST   /reconciliation/runs/:id/render
//   - GET    /reconciliation/reports
package reconciliation
