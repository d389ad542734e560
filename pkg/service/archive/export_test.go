package archive

import "context"

// NewWithWriter builds a GCS archiver whose uploads go to put
func NewWithWriter(bucket, prefix string, put func(ctx context.Context, object, contentType string, data []byte) error) *GCS {
	return &GCS{bucket: bucket, prefix: prefix, put: put}
}
