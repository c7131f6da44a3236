package storage

import (
	"context"
	"errors"
	"path"
)

var ErrNotConfigured = errors.New("storage: provider not configured")

// UploadInput describes a local file to push to object storage.
type UploadInput struct {
	LocalPath   string
	Folder      string
	PublicID    string
	ContentType string
	Extension   string // with leading dot, may be empty
}

// ObjectPath is Folder/PublicID+Extension.
func (in UploadInput) ObjectPath() string {
	return path.Join(in.Folder, in.PublicID+in.Extension)
}

// UploadResult identifies the stored object and its public URL.
type UploadResult struct {
	PublicID  string
	SecureURL string
}

// Uploader stores files with an external provider.
type Uploader interface {
	Upload(ctx context.Context, in UploadInput) (*UploadResult, error)
}

// ProfileImageFolder is the per-user folder for profile images.
func ProfileImageFolder(userID string) string {
	return path.Join("profile-images", userID)
}

// Disabled rejects every upload. It stands in when no provider credentials
// are configured outside production.
type Disabled struct{}

func (Disabled) Upload(context.Context, UploadInput) (*UploadResult, error) {
	return nil, ErrNotConfigured
}
