package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryUploader uploads to Cloudinary; the returned URL is served by its CDN.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryUploader(cloudName, apiKey, apiSecret string) (*CloudinaryUploader, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, ErrNotConfigured
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	cld.Config.URL.Secure = true
	return &CloudinaryUploader{cld: cld}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	res, err := u.cld.Upload.Upload(ctx, in.LocalPath, uploader.UploadParams{
		PublicID:  in.PublicID,
		Folder:    in.Folder,
		Overwrite: api.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary: upload %s: %w", in.ObjectPath(), err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary: upload %s: %w", in.ObjectPath(), errors.New(res.Error.Message))
	}
	return &UploadResult{PublicID: res.PublicID, SecureURL: res.SecureURL}, nil
}
