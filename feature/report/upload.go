package report

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"ledger-recon/core/reconcile"
	"ledger-recon/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// UploadSink renders through a FileSink and then uploads the artifact to
// object storage.
type UploadSink struct {
	file   *FileSink
	client storage.Client
	bucket string
	region string
	prefix string
	key    string
	logger *zap.Logger
}

// NewUploadSink uploads every rendered report under prefix/<run id>/ in bucket.
func NewUploadSink(file *FileSink, client storage.Client, cfg storage.Config, logger *zap.Logger) *UploadSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadSink{
		file:   file,
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		prefix: cfg.ReportPrefix,
		logger: logger,
	}
}

// WithObject pins the destination bucket and object name.
func (s *UploadSink) WithObject(bucket, key string) *UploadSink {
	s.bucket = bucket
	s.key = key
	return s
}

// Target implements reconcile.Target.
func (s *UploadSink) Target() string {
	return s.file.Target()
}

// ObjectName returns the object the report of run is uploaded to.
func (s *UploadSink) ObjectName(runID string) string {
	if s.key != "" {
		return s.key
	}
	return path.Join(s.prefix, runID, filepath.Base(s.file.Target()))
}

// Render implements reconcile.Sink.
func (s *UploadSink) Render(ctx context.Context, r *reconcile.Report) error {
	if err := s.file.Render(ctx, r); err != nil {
		return err
	}

	key := s.ObjectName(r.RunID)
	uri := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	if err := s.upload(ctx, key); err != nil {
		return &reconcile.ReportGenerationError{Path: uri, Err: err}
	}

	s.logger.Info("Report uploaded", zap.String("run_id", r.RunID), zap.String("object", uri))
	return nil
}

func (s *UploadSink) upload(ctx context.Context, key string) error {
	if err := storage.EnsureBucket(ctx, s.client, s.bucket, s.region); err != nil {
		return err
	}

	fh, err := os.Open(s.file.Target())
	if err != nil {
		return err
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, fh, info.Size(), minio.PutObjectOptions{
		ContentType: ContentType(key),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// ForPath builds the sink for a report location. An "s3://bucket/key"
// location is rendered under tmpDir and uploaded to that object. A local
// path is uploaded as well when cfg names a bucket and client is set.
func ForPath(reportPath string, client storage.Client, cfg storage.Config, tmpDir string, logger *zap.Logger) (reconcile.Sink, error) {
	if bucket, key, ok := storage.ParseURI(reportPath); ok {
		if client == nil {
			return nil, &reconcile.ConfigurationError{Option: "report_path", Message: "object storage is not configured"}
		}
		local := NewFileSink(filepath.Join(tmpDir, filepath.Base(key)), logger)
		return NewUploadSink(local, client, cfg, logger).WithObject(bucket, key), nil
	}

	local := NewFileSink(reportPath, logger)
	if client != nil && cfg.Enabled() {
		return NewUploadSink(local, client, cfg, logger), nil
	}
	return local, nil
}

// Object describes one uploaded report.
type Object struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}

// List returns the reports stored under prefix.
func List(ctx context.Context, client storage.Client, bucket, prefix string) ([]Object, error) {
	// Stops the listing goroutine when we return before draining it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out []Object
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", bucket, prefix, obj.Err)
		}
		out = append(out, Object{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return out, nil
}
