package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-account-api/internal/domain/entity"
	repo "github.com/oksasatya/user-account-api/internal/domain/repository"
	"github.com/oksasatya/user-account-api/pkg/apperror"
	"github.com/oksasatya/user-account-api/pkg/helpers"
)

type memRepo struct {
	users       []*entity.User
	nextID      int
	failAll     error
	dupOnCreate bool
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) Create(_ context.Context, u *entity.User) error {
	if r.failAll != nil {
		return r.failAll
	}
	if r.dupOnCreate {
		return repo.ErrDuplicateEmail
	}
	r.nextID++
	now := time.Now().UTC()
	u.ID = fmt.Sprintf("u%03d", r.nextID)
	u.ProfileImage = entity.DefaultProfileImage()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	r.users = append(r.users, &cp)
	return nil
}

func (r *memRepo) UpdateProfileImage(_ context.Context, id, publicID, secureURL string) (*entity.User, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	for _, u := range r.users {
		if u.ID == id {
			u.ProfileImage = entity.ProfileImage{PublicID: &publicID, SecureURL: secureURL}
			u.UpdatedAt = time.Now().UTC()
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) CountAll(context.Context) (int64, error) {
	if r.failAll != nil {
		return 0, r.failAll
	}
	return int64(len(r.users)), nil
}

func (r *memRepo) ListPage(_ context.Context, skip, limit int64) ([]entity.User, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	out := []entity.User{}
	for i := skip; i < int64(len(r.users)) && i < skip+limit; i++ {
		cp := *r.users[i]
		cp.Password = ""
		out = append(out, cp)
	}
	return out, nil
}

type fakeIndex struct {
	indexed []string
	hits    []entity.User
	err     error
}

func (f *fakeIndex) Index(_ context.Context, u *entity.User) error {
	f.indexed = append(f.indexed, u.ID)
	return f.err
}

func (f *fakeIndex) Search(context.Context, string, int) ([]entity.User, error) {
	return f.hits, f.err
}

const testSecret = "service-test-secret-0123456789"

func newTestService(r *memRepo) (*Service, *helpers.JWTManager) {
	jm := helpers.NewJWTManager(testSecret)
	return NewService(r, helpers.NewPasswordHasher(4), jm, nil, helpers.NewNopLogger()), jm
}

func TestRegister_IssuesTokenForNewUser(t *testing.T) {
	r := &memRepo{}
	svc, jm := newTestService(r)

	token, err := svc.Register(context.Background(), "A", "a@x.io", "pass123")
	require.NoError(t, err)

	claims, err := jm.ParseToken(token)
	require.NoError(t, err)
	require.Len(t, r.users, 1)
	assert.Equal(t, r.users[0].ID, claims.UserID())
	assert.NotEqual(t, "pass123", r.users[0].Password)
	assert.True(t, strings.HasPrefix(r.users[0].Password, "$2"))
	assert.Equal(t, entity.DefaultProfileImageURL, r.users[0].ProfileImage.SecureURL)
	assert.Nil(t, r.users[0].ProfileImage.PublicID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	r := &memRepo{}
	svc, _ := newTestService(r)
	_, err := svc.Register(context.Background(), "A", "a@x.io", "pass123")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "B", "a@x.io", "other")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, MsgUserExists, ae.Message)
	assert.Equal(t, 400, ae.Status())
	assert.Len(t, r.users, 1)
}

func TestRegister_StoreRaceMapsToConflict(t *testing.T) {
	svc, _ := newTestService(&memRepo{dupOnCreate: true})

	_, err := svc.Register(context.Background(), "A", "a@x.io", "pass123")
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestRegister_StoreFailure(t *testing.T) {
	svc, _ := newTestService(&memRepo{failAll: errors.New("connection reset")})

	_, err := svc.Register(context.Background(), "A", "a@x.io", "pass123")
	assert.ErrorIs(t, err, apperror.ErrInternal)
	ae, _ := apperror.As(err)
	assert.Equal(t, MsgCreateUserFailed, ae.Message)
}

func TestRegister_IndexesUserBestEffort(t *testing.T) {
	idx := &fakeIndex{err: errors.New("es down")}
	svc, _ := newTestService(&memRepo{})
	svc.Index = idx

	_, err := svc.Register(context.Background(), "A", "a@x.io", "pass123")
	require.NoError(t, err)
	assert.Equal(t, []string{"u001"}, idx.indexed)
}

func TestLogin(t *testing.T) {
	r := &memRepo{}
	svc, jm := newTestService(r)
	_, err := svc.Register(context.Background(), "A", "a@x.io", "pass123")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		token, err := svc.Login(context.Background(), "a@x.io", "pass123")
		require.NoError(t, err)
		claims, err := jm.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, r.users[0].ID, claims.UserID())
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "nobody@x.io", "pass123")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
		ae, _ := apperror.As(err)
		assert.Equal(t, MsgUserNotFound, ae.Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "a@x.io", "wrong")
		assert.ErrorIs(t, err, apperror.ErrBadCredentials)
		ae, _ := apperror.As(err)
		assert.Equal(t, MsgIncorrectCreds, ae.Message)
		assert.Equal(t, 400, ae.Status())
	})
}

func TestUpdateProfileImage(t *testing.T) {
	r := &memRepo{}
	svc, _ := newTestService(r)
	_, err := svc.Register(context.Background(), "A", "a@x.io", "pass123")
	require.NoError(t, err)
	id := r.users[0].ID

	u, err := svc.UpdateProfileImage(context.Background(), id, "pid-1", "https://cdn/x.png")
	require.NoError(t, err)
	require.NotNil(t, u.ProfileImage.PublicID)
	assert.Equal(t, "pid-1", *u.ProfileImage.PublicID)
	assert.Equal(t, "https://cdn/x.png", u.ProfileImage.SecureURL)

	u, err = svc.UpdateProfileImage(context.Background(), id, "pid-2", "https://cdn/y.png")
	require.NoError(t, err)
	assert.Equal(t, "pid-2", *u.ProfileImage.PublicID)

	_, err = svc.UpdateProfileImage(context.Background(), "missing", "p", "s")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateProfileImage_StoreFailure(t *testing.T) {
	svc, _ := newTestService(&memRepo{failAll: errors.New("boom")})

	_, err := svc.UpdateProfileImage(context.Background(), "u001", "p", "s")
	assert.ErrorIs(t, err, apperror.ErrInternal)
	ae, _ := apperror.As(err)
	assert.Equal(t, MsgProfileUpdateError, ae.Message)
}

func TestFindUserByID(t *testing.T) {
	r := &memRepo{}
	svc, _ := newTestService(r)
	_, err := svc.Register(context.Background(), "A", "a@x.io", "pass123")
	require.NoError(t, err)

	u, err := svc.FindUserByID(context.Background(), r.users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", u.Email)

	_, err = svc.FindUserByID(context.Background(), "nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	svc.Repo = &memRepo{failAll: errors.New("boom")}
	_, err = svc.FindUserByID(context.Background(), "u001")
	assert.ErrorIs(t, err, apperror.ErrInternal)
}

func seedUsers(t *testing.T, svc *Service, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := svc.Register(context.Background(), fmt.Sprintf("U%d", i), fmt.Sprintf("u%d@x.io", i), "pass123")
		require.NoError(t, err)
	}
}

func TestListUsers_Pagination(t *testing.T) {
	svc, _ := newTestService(&memRepo{})
	seedUsers(t, svc, 43)

	cases := []struct {
		page, limit int64
		wantLen     int
		wantPages   int64
		next, prev  bool
	}{
		{page: 1, limit: 10, wantLen: 10, wantPages: 5, next: true, prev: false},
		{page: 2, limit: 10, wantLen: 10, wantPages: 5, next: true, prev: true},
		{page: 5, limit: 10, wantLen: 3, wantPages: 5, next: false, prev: true},
		{page: 9, limit: 10, wantLen: 0, wantPages: 5, next: false, prev: true},
		{page: 1, limit: 100, wantLen: 43, wantPages: 1, next: false, prev: false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("page=%d,limit=%d", tc.page, tc.limit), func(t *testing.T) {
			p, err := svc.ListUsers(context.Background(), tc.page, tc.limit)
			require.NoError(t, err)
			assert.Len(t, p.Users, tc.wantLen)
			assert.EqualValues(t, 43, p.TotalUsers)
			assert.Equal(t, tc.wantPages, p.TotalPages)
			assert.Equal(t, tc.next, p.HasNextPage)
			assert.Equal(t, tc.prev, p.HasPrevPage)
		})
	}
}

func TestListUsers_ZeroLimitHasNoPages(t *testing.T) {
	svc, _ := newTestService(&memRepo{})
	seedUsers(t, svc, 3)

	p, err := svc.ListUsers(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, p.Users)
	assert.Zero(t, p.TotalPages)
	assert.False(t, p.HasNextPage)
}

func TestListUsers_EmptyStore(t *testing.T) {
	svc, _ := newTestService(&memRepo{})

	p, err := svc.ListUsers(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, p.Users)
	assert.Empty(t, p.Users)
	assert.Zero(t, p.TotalPages)
}

func TestListUsers_StoreFailure(t *testing.T) {
	svc, _ := newTestService(&memRepo{failAll: errors.New("boom")})

	_, err := svc.ListUsers(context.Background(), 1, 10)
	assert.ErrorIs(t, err, apperror.ErrInternal)
}

func TestSearchUsers(t *testing.T) {
	svc, _ := newTestService(&memRepo{})

	res, err := svc.SearchUsers(context.Background(), "ann", 10)
	require.NoError(t, err)
	assert.Empty(t, res)

	svc.Index = &fakeIndex{hits: []entity.User{{ID: "u1", Name: "Ann", Email: "ann@x.io"}}}
	res, err = svc.SearchUsers(context.Background(), "  ann ", 0)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Ann", res[0].Name)

	res, err = svc.SearchUsers(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, res)

	svc.Index = &fakeIndex{err: errors.New("es down")}
	_, err = svc.SearchUsers(context.Background(), "ann", 10)
	assert.ErrorIs(t, err, apperror.ErrInternal)
}
