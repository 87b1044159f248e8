// Package archive copies finished campaign artifacts to Google Cloud Storage.
// Uploads run after every report file is closed and never affect the
// campaign's outcome.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"expharness/internal/logging"
)

// Uploader stores one object.
type Uploader interface {
	Upload(ctx context.Context, object string, r io.Reader) error
}

// GCSUploader writes objects into a single bucket.
type GCSUploader struct {
	client *storage.Client
	bucket string
}

// NewGCSUploader creates a client with application default credentials.
func NewGCSUploader(ctx context.Context, bucket string) (*GCSUploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	client, err := storage.NewClient(ctx, option.WithUserAgent("expharness"))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

// Upload streams r into the object.
func (u *GCSUploader) Upload(ctx context.Context, object string, r io.Reader) error {
	w := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType(object)
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("write error: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close error: %w", err)
	}
	return nil
}

// Close releases the client.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}

// URL returns the gs:// location of object.
func (u *GCSUploader) URL(object string) string {
	return "gs://" + u.bucket + "/" + object
}

func contentType(object string) string {
	if path.Ext(object) == ".csv" {
		return "text/csv; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Result is the outcome of one file.
type Result struct {
	Path   string
	Object string
	Err    error
}

// Files uploads each path to <prefix>/<base name> with at most concurrency
// uploads in flight. Every file is attempted; the returned error is the first
// failure, and Results reports each file.
func Files(ctx context.Context, up Uploader, prefix string, paths []string, concurrency int) ([]Result, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]Result, len(paths))

	var (
		mu       sync.Mutex
		firstErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, p := range paths {
		i, p := i, p
		object := path.Join(prefix, filepath.Base(p))
		results[i] = Result{Path: p, Object: object}
		g.Go(func() error {
			err := uploadFile(gctx, up, object, p)
			if err != nil {
				logging.ArchiveWarn("Upload of %s failed: %v", p, err)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			} else {
				logging.Archive("Uploaded %s -> %s", p, object)
			}
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()
	return results, firstErr
}

func uploadFile(ctx context.Context, up Uploader, object, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	return up.Upload(ctx, object, f)
}
