package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-account-api/internal/domain/entity"
	repo "github.com/oksasatya/user-account-api/internal/domain/repository"
	"github.com/oksasatya/user-account-api/pkg/apperror"
)

// Hasher is the one-way password transform.
type Hasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) bool
}

// TokenIssuer signs an auth token for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// UserIndex is the optional search index. A nil UserIndex disables search.
type UserIndex interface {
	Index(ctx context.Context, u *entity.User) error
	Search(ctx context.Context, q string, size int) ([]entity.User, error)
}

type Service struct {
	Repo   repo.UserRepository
	Hasher Hasher
	Tokens TokenIssuer
	Index  UserIndex
	Logger *logrus.Logger
}

func NewService(repo repo.UserRepository, hasher Hasher, tokens TokenIssuer, index UserIndex, logger *logrus.Logger) *Service {
	return &Service{
		Repo:   repo,
		Hasher: hasher,
		Tokens: tokens,
		Index:  index,
		Logger: logger,
	}
}

// Register creates a user and returns a token for it. The email pre-check is
// an early exit only; the store's unique index is what guarantees uniqueness.
func (s *Service) Register(ctx context.Context, name, email, password string) (string, error) {
	existing, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return "", apperror.Internal(MsgCreateUserFailed, err)
	}
	if existing != nil {
		return "", apperror.Conflict(MsgUserExists)
	}

	hashed, err := s.Hasher.Hash(password)
	if err != nil {
		return "", apperror.Internal(MsgCreateUserFailed, err)
	}

	u := &entity.User{Name: name, Email: email, Password: hashed}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return "", apperror.Conflict(MsgUserExists)
		}
		return "", apperror.Internal(MsgCreateUserFailed, err)
	}
	s.indexUser(ctx, u)

	return s.issue(u.ID)
}

// Login checks credentials and returns a token. An unknown email and a wrong
// password produce different errors.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return "", apperror.Internal(MsgLookupFailed, err)
	}
	if u == nil {
		return "", apperror.NotFound(MsgUserNotFound)
	}
	if !s.Hasher.Compare(u.Password, password) {
		return "", apperror.BadCredentials(MsgIncorrectCreds)
	}
	return s.issue(u.ID)
}

func (s *Service) UpdateProfileImage(ctx context.Context, userID, publicID, secureURL string) (*entity.User, error) {
	u, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(MsgProfileUpdateError, err)
	}
	if u == nil {
		return nil, apperror.NotFound(MsgUserNotFound)
	}

	updated, err := s.Repo.UpdateProfileImage(ctx, userID, publicID, secureURL)
	if err != nil {
		return nil, apperror.Internal(MsgProfileUpdateError, err)
	}
	if updated == nil {
		return nil, apperror.Internal(MsgProfileUpdateFailed, nil)
	}
	s.indexUser(ctx, updated)
	return updated, nil
}

func (s *Service) FindUserByID(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(MsgLookupFailed, err)
	}
	if u == nil {
		return nil, apperror.NotFound(MsgUserNotFound)
	}
	return u, nil
}

// ListUsers pages through all users. page and limit are not range-checked
// here; a non-positive limit yields an empty page with zero pages, since
// stores disagree on what a zero limit means.
func (s *Service) ListUsers(ctx context.Context, page, limit int64) (*UserPage, error) {
	users := []entity.User{}
	if limit > 0 {
		var err error
		users, err = s.Repo.ListPage(ctx, (page-1)*limit, limit)
		if err != nil {
			return nil, apperror.Internal(MsgListUsersFailed, err)
		}
	}
	total, err := s.Repo.CountAll(ctx)
	if err != nil {
		return nil, apperror.Internal(MsgListUsersFailed, err)
	}

	var totalPages int64
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &UserPage{
		Users:       NewUserViews(users),
		TotalUsers:  total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}, nil
}

// SearchUsers matches q against name and email. Without an index it returns
// no results.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]UserView, error) {
	q = strings.TrimSpace(q)
	if s.Index == nil || q == "" {
		return []UserView{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	users, err := s.Index.Search(ctx, q, size)
	if err != nil {
		return nil, apperror.Internal(MsgSearchFailed, err)
	}
	return NewUserViews(users), nil
}

func (s *Service) issue(userID string) (string, error) {
	token, err := s.Tokens.Issue(userID)
	if err != nil {
		return "", apperror.Internal(MsgIssueTokenFailed, err)
	}
	return token, nil
}

// indexUser is best effort; the store stays the source of truth.
func (s *Service) indexUser(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, u); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("search index update failed")
	}
}
