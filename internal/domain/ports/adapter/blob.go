package adapter

import (
	"context"
	"io"
)

// BlobStore keeps uploaded receipts.
type BlobStore interface {
	// Put stores body under key and returns the opaque reference to persist.
	Put(ctx context.Context, key, contentType string, body io.Reader) (ref string, err error)
	// URL returns a location the admin UI can fetch ref from.
	URL(ctx context.Context, ref string) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}
