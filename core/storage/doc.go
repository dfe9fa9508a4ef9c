// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client. Reconciliation uses it in two places: feeds
// addressed as s3://bucket/key are downloaded before a run, and rendered
// reports are uploaded to the configured bucket afterwards.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	err = storage.EnsureBucket(ctx, client, "reports", "")
package storage
