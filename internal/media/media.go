package media

import (
	"context"
	"io"
)

// Object identifies a stored media asset.
type Object struct {
	URL string
	Key string
}

// UploadOptions carry optional metadata for an upload.
type UploadOptions struct {
	ContentType string
}

// Store is the media collaborator consumed by the photo layer. Upload places
// the stream under a scope-derived key and returns the public reference;
// Destroy removes a previously uploaded asset.
type Store interface {
	Upload(ctx context.Context, scope string, r io.Reader, opts UploadOptions) (Object, error)
	Destroy(ctx context.Context, key string) error
}
