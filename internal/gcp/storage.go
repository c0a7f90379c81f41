package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// Bucket uploads and deletes objects of one GCS bucket.
type Bucket struct {
	handle     *storage.BucketHandle
	name       string
	maxRetries int
	backoff    time.Duration
}

func NewBucket(client *storage.Client, name string) *Bucket {
	return &Bucket{handle: client.Bucket(name), name: name, maxRetries: 4, backoff: time.Second}
}

func (b *Bucket) Name() string { return b.name }

// Upload writes data to object, retrying transient failures with exponential backoff.
func (b *Bucket) Upload(ctx context.Context, object string, data []byte) error {
	return withRetry(ctx, b.maxRetries, b.backoff, object, func() error {
		writeCtx, cancel := context.WithTimeout(ctx, time.Second*50)
		defer cancel()

		w := b.handle.Object(object).NewWriter(writeCtx)
		w.ContentType = "application/pdf"
		if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
			_ = w.Close()
			return fmt.Errorf("io.Copy to GCS failed: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to close GCS writer (finalize upload): %w", err)
		}
		return nil
	})
}

// Delete removes object. A missing object is not an error.
func (b *Bucket) Delete(ctx context.Context, object string) error {
	err := b.handle.Object(object).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete gs://%s/%s: %w", b.name, object, err)
	}
	return nil
}

// withRetry runs op up to maxRetries times, doubling the wait after each failure.
// Client errors other than timeouts and throttling are not retried.
func withRetry(ctx context.Context, maxRetries int, backoff time.Duration, object string, op func() error) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			slog.Error("Upload failed with a non-retryable error.", "gcsObject", object, "error", err)
			return fmt.Errorf("upload for %s failed: %w", object, err)
		}
		slog.Warn(
			"Upload failed, will retry.",
			"gcsObject", object,
			"attempt", i+1,
			"maxRetries", maxRetries,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "gcsObject", object, "error", ctx.Err())
			return ctx.Err()
		}
	}
	slog.Error("Upload failed after all retries.", "gcsObject", object, "error", lastErr)
	return fmt.Errorf("upload for %s failed after all retries: %w", object, lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusRequestTimeout, gerr.Code == http.StatusTooManyRequests:
			return true
		case gerr.Code >= 400 && gerr.Code < 500:
			return false
		}
	}
	return true
}
