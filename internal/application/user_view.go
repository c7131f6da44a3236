package application

import (
	"time"

	"github.com/oksasatya/user-account-api/internal/domain/entity"
)

type ProfileImageView struct {
	PublicID  *string `json:"public_id"`
	SecureURL string  `json:"secure_url"`
}

// UserView is the public projection of a user. It is what gets cached and
// returned to clients, so it has no password field.
type UserView struct {
	ID           string           `json:"_id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	ProfileImage ProfileImageView `json:"profileImage"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func NewUserView(u *entity.User) UserView {
	return UserView{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		ProfileImage: ProfileImageView{
			PublicID:  u.ProfileImage.PublicID,
			SecureURL: u.ProfileImage.SecureURL,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func NewUserViews(users []entity.User) []UserView {
	out := make([]UserView, 0, len(users))
	for i := range users {
		out = append(out, NewUserView(&users[i]))
	}
	return out
}

// UserPage is one page of the user listing.
type UserPage struct {
	Users       []UserView `json:"users"`
	TotalUsers  int64      `json:"totalUsers"`
	TotalPages  int64      `json:"totalPages"`
	HasNextPage bool       `json:"hasNextPage"`
	HasPrevPage bool       `json:"hasPrevPage"`
}
