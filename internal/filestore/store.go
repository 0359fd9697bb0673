// Package filestore defines the interface dumps are uploaded through.
//
// All providers (MinIO, S3, …) implement the Store interface.
// Callers depend only on this package, never on a specific provider package.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("backups", "dsql/public.sql")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	info, err := filestore.Upload(ctx, store, cfg.Bucket, cfg.Key, func(w io.Writer) error {
//	    return dumper.Run(ctx, w, opts)
//	})
package filestore

import (
	"context"
	"errors"
	"io"

	"github.com/koustreak/dsqldump/internal/errs"
)

// Store is the single interface all file storage providers must implement.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources (connections, goroutines, etc.).
	Close() error

	// PutObject stores everything read from r at key inside bucket. A size
	// of -1 means unknown; the provider then uploads in parts.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (*ObjectInfo, error)

	// StatObject returns metadata for the object at key inside bucket
	// without downloading its content. Upload uses it to confirm what was
	// stored.
	StatObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)
}

// Upload runs write with the writing end of a pipe whose reading end is
// streamed into s.PutObject, so the object is never held in memory.
//
// When write fails the upload is aborted and write's error is returned.
// When the upload fails first, write sees a closed pipe and the upload
// error is returned. A completed upload is checked with s.StatObject; an
// object whose size differs from what write produced is an error.
func Upload(ctx context.Context, s Store, bucket, key string, write func(w io.Writer) error) (*ObjectInfo, error) {
	pr, pw := io.Pipe()
	counted := &countingWriter{w: pw}

	done := make(chan error, 1)
	go func() {
		err := write(counted)
		pw.CloseWithError(err)
		done <- err
	}()

	_, putErr := s.PutObject(ctx, bucket, key, pr, -1, ContentTypeSQL)
	pr.CloseWithError(putErr)
	writeErr := <-done

	switch {
	case putErr != nil && (writeErr == nil || errors.Is(writeErr, putErr)):
		return nil, putErr
	case writeErr != nil:
		return nil, writeErr
	}

	info, err := s.StatObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if info.Size != counted.n {
		return nil, errs.Newf(errs.ErrKindStream,
			"uploaded object %s/%s is %d bytes, dump was %d bytes", bucket, key, info.Size, counted.n)
	}
	return info, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
