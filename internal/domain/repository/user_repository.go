package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/user-account-api/internal/domain/entity"
)

// ErrDuplicateEmail is returned by Create when the email is already taken.
var ErrDuplicateEmail = errors.New("email already exists")

// UserRepository defines the interface for user persistence.
//
// Lookups return (nil, nil) when no user matches; absence is not an error.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	// Create fills in ID, timestamps and the default profile image.
	Create(ctx context.Context, u *entity.User) error
	UpdateProfileImage(ctx context.Context, id, publicID, secureURL string) (*entity.User, error)
	CountAll(ctx context.Context) (int64, error)
	// ListPage returns users without their password hash.
	ListPage(ctx context.Context, skip, limit int64) ([]entity.User, error)
}
