// Package mocks provides testify mocks for the storage client.
package mocks

import (
	"bytes"
	"context"
	"io"
	"sync"

	"ledger-recon/core/storage"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"
)

var _ storage.Client = (*Client)(nil)

// Client is a mock storage.Client. PutObject keeps the uploaded payloads so
// tests can read back a rendered report.
type Client struct {
	mock.Mock

	mu      sync.Mutex
	uploads map[string][]byte
}

// Uploaded returns the payload last uploaded to bucket/key.
func (m *Client) Uploaded(bucket, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.uploads[bucket+"/"+key]
	return data, ok
}

func (m *Client) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *Client) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucketName, opts).Error(0)
}

func (m *Client) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	var buf bytes.Buffer
	if reader != nil {
		if _, err := io.Copy(&buf, reader); err != nil {
			return minio.UploadInfo{}, err
		}
	}

	args := m.Called(ctx, bucketName, objectName, bytes.NewReader(buf.Bytes()), objectSize, opts)
	if args.Error(1) == nil {
		m.mu.Lock()
		if m.uploads == nil {
			m.uploads = make(map[string][]byte)
		}
		m.uploads[bucketName+"/"+objectName] = buf.Bytes()
		m.mu.Unlock()
	}
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *Client) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	if obj, ok := args.Get(0).(io.ReadCloser); ok {
		return obj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	args := m.Called(ctx, bucketName, opts)
	if ch, ok := args.Get(0).(<-chan minio.ObjectInfo); ok {
		return ch
	}
	return Objects()
}

// Objects returns a closed listing channel holding infos, for ListObjects returns.
func Objects(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}
