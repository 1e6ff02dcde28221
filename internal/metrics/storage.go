package metrics

import (
	"context"
	"io"
	"time"

	"github.com/vileikis/glowbooth/internal/storage"
)

// InstrumentedStorage wraps a Storage with operation counters and latency
// histograms. Methods not overridden pass straight through.
type InstrumentedStorage struct {
	storage.Storage
}

func NewInstrumentedStorage(s storage.Storage) *InstrumentedStorage {
	return &InstrumentedStorage{Storage: s}
}

func observe(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	StorageOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (s *InstrumentedStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) error {
	start := time.Now()
	err := s.Storage.Upload(ctx, key, reader, contentType, size)
	observe("upload", start, err)
	if err == nil {
		StorageBytesTotal.WithLabelValues("upload").Add(float64(size))
	}
	return err
}

func (s *InstrumentedStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	reader, err := s.Storage.Download(ctx, key)
	observe("download", start, err)
	if err != nil {
		return nil, err
	}
	return &instrumentedReadCloser{ReadCloser: reader}, nil
}

func (s *InstrumentedStorage) DownloadToFile(ctx context.Context, key, localPath string) (int64, error) {
	start := time.Now()
	n, err := s.Storage.DownloadToFile(ctx, key, localPath)
	observe("download_file", start, err)
	if err == nil {
		StorageBytesTotal.WithLabelValues("download").Add(float64(n))
	}
	return n, err
}

func (s *InstrumentedStorage) UploadFile(ctx context.Context, localPath, key, contentType string) (*storage.UploadResult, error) {
	start := time.Now()
	result, err := s.Storage.UploadFile(ctx, localPath, key, contentType)
	observe("upload_file", start, err)
	return result, err
}

func (s *InstrumentedStorage) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.Storage.Delete(ctx, key)
	observe("delete", start, err)
	return err
}

func (s *InstrumentedStorage) DeletePrefix(ctx context.Context, prefix string) error {
	start := time.Now()
	err := s.Storage.DeletePrefix(ctx, prefix)
	observe("delete_prefix", start, err)
	return err
}

func (s *InstrumentedStorage) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	exists, err := s.Storage.Exists(ctx, key)
	observe("exists", start, err)
	return exists, err
}

type instrumentedReadCloser struct {
	io.ReadCloser
	bytesRead int64
}

func (r *instrumentedReadCloser) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	r.bytesRead += int64(n)
	return n, err
}

func (r *instrumentedReadCloser) Close() error {
	StorageBytesTotal.WithLabelValues("download").Add(float64(r.bytesRead))
	return r.ReadCloser.Close()
}
