package storage

import (
	"context"
	"fmt"
	"os"

	gcs "cloud.google.com/go/storage"

	"github.com/oksasatya/user-account-api/pkg/helpers"
)

// GCSUploader writes objects to a Google Cloud Storage bucket with public read.
type GCSUploader struct {
	client *gcs.Client
	bucket string
}

func NewGCSUploader(client *gcs.Client, bucket string) (*GCSUploader, error) {
	if client == nil || bucket == "" {
		return nil, ErrNotConfigured
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	f, err := os.Open(in.LocalPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	objectPath := in.ObjectPath()
	url, err := helpers.UploadObject(ctx, u.client, u.bucket, objectPath, in.ContentType, f)
	if err != nil {
		return nil, fmt.Errorf("gcs: upload %s: %w", objectPath, err)
	}
	return &UploadResult{PublicID: objectPath, SecureURL: url}, nil
}
