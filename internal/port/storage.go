package port

import (
	"context"
	"io"
)

// UploadInput is one rendered output headed for object storage.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
	Metadata    map[string]string // stored as user-defined object metadata
}

// UploadOutput contains the result of a successful upload.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage receives batch outputs addressed as s3://bucket/key.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
}
