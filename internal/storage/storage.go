// Package storage keeps club logos and other write-once objects in a
// bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrObjectNotFound is returned when a key does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// ImmutableCacheControl is stored on every object. Keys are never reused
// for different content, so clients may cache objects indefinitely.
const ImmutableCacheControl = "public, max-age=31536000, immutable"

// Object is an upload.
type Object struct {
	Key          string
	Body         io.Reader
	Size         int64
	ContentType  string
	CacheControl string
}

// Backend is implemented by each supported object store.
type Backend interface {
	EnsureBucket(ctx context.Context) error
	Upload(ctx context.Context, obj Object) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
	Bucket() string
}

// Storage validates keys and applies object defaults before calling the
// backend.
type Storage struct {
	backend Backend
}

func NewStorage(backend Backend) *Storage {
	return &Storage{backend: backend}
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads a new object under key.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if size < 0 {
		return fmt.Errorf("object %s: size is required", key)
	}
	return s.backend.Upload(ctx, Object{
		Key:          key,
		Body:         r,
		Size:         size,
		ContentType:  contentType,
		CacheControl: ImmutableCacheControl,
	})
}

// Get opens the object under key. It returns ErrObjectNotFound when the
// key does not exist.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return s.backend.Open(ctx, key)
}

// Delete removes the object under key. Deleting a missing key succeeds.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := s.backend.Remove(ctx, key); err != nil && !errors.Is(err, ErrObjectNotFound) {
		return err
	}
	return nil
}

func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// Close releases the backend client when it holds one.
func (s *Storage) Close() error {
	if closer, ok := s.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}
