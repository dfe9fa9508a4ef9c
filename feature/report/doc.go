// Package report renders reconciliation reports.
//
// FileSink picks the output format from the report path extension: an xlsx
// workbook with Summary, Forward Discrepancies, Backward Discrepancies and
// Transaction Details sheets, a flat csv, or json and yaml documents.
// UploadSink wraps a FileSink and copies the artifact to object storage.
package report
