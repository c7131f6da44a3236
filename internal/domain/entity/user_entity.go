package entity

import (
	"time"
)

// DefaultProfileImageURL is shown until the user uploads their own image.
const DefaultProfileImageURL = "https://static.vecteezy.com/system/resources/thumbnails/009/292/244/small/default-avatar-icon-of-social-media-user-vector.jpg"

// ProfileImage points at an object in external storage. PublicID is nil until
// the first upload.
type ProfileImage struct {
	PublicID  *string
	SecureURL string
}

// DefaultProfileImage returns the placeholder image.
func DefaultProfileImage() ProfileImage {
	return ProfileImage{SecureURL: DefaultProfileImageURL}
}

// User is the aggregate root for user domain
// Passwords are stored as bcrypt hashes in Password field
type User struct {
	ID           string
	Name         string
	Email        string
	Password     string
	ProfileImage ProfileImage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
