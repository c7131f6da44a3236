package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-account-api/config"
	"github.com/oksasatya/user-account-api/internal/application"
	"github.com/oksasatya/user-account-api/internal/container"
	"github.com/oksasatya/user-account-api/internal/domain/entity"
	"github.com/oksasatya/user-account-api/internal/infrastructure/storage"
	"github.com/oksasatya/user-account-api/pkg/cache"
	"github.com/oksasatya/user-account-api/pkg/helpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRepo struct {
	mu    sync.Mutex
	users []entity.User
}

func (r *stubRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].Email == email {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = "id-" + u.Email
	u.ProfileImage = entity.DefaultProfileImage()
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	r.users = append(r.users, *u)
	return nil
}

func (r *stubRepo) UpdateProfileImage(context.Context, string, string, string) (*entity.User, error) {
	return nil, nil
}

func (r *stubRepo) CountAll(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *stubRepo) ListPage(context.Context, int64, int64) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.User(nil), r.users...), nil
}

func newTestContainer(t *testing.T, mutate func(*config.Config)) (*container.Container, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Env:             "development",
		ClientURL:       "http://localhost:5173",
		DBDriver:        config.DriverMongo,
		StorageProvider: config.StorageCloudinary,
	}
	if mutate != nil {
		mutate(cfg)
	}

	logger := helpers.NewNopLogger()
	jm := helpers.NewJWTManager("router-test-secret-0123456789")
	repo := &stubRepo{}
	return &container.Container{
		Config:      cfg,
		Logger:      logger,
		Redis:       rdb,
		JWT:         jm,
		Cookies:     helpers.NewCookie("", false),
		Cache:       cache.New(rdb),
		Users:       repo,
		Uploader:    storage.Disabled{},
		UserService: application.NewService(repo, helpers.NewPasswordHasher(4), jm, nil, logger),
	}, mr
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

func TestNoRoute(t *testing.T) {
	c, _ := newTestContainer(t, nil)
	r := New(c)

	for _, path := range []string{"/nope", "/api/v1/users/nope"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Route "+path+" not found", message(t, w))
	}
}

func TestRootRoute(t *testing.T) {
	c, _ := newTestContainer(t, nil)
	w := serve(New(c), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, message(t, w))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRegisterLoginMe(t *testing.T) {
	c, _ := newTestContainer(t, nil)
	r := New(c)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", strings.NewReader(`{"name":"A","email":"a@x.io","password":"pass123"}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "300", w.Header().Get("X-RateLimit-Limit"))

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(`{"email":"a@x.io","password":"pass123"}`))
	req.Header.Set("Content-Type", "application/json")
	w = serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Login successful", message(t, w))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		User application.UserView `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "id-a@x.io", body.User.ID)
	assert.Equal(t, entity.DefaultProfileImageURL, body.User.ProfileImage.SecureURL)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authorization token is required", message(t, w))
}

func TestUploadWithoutStorageFails(t *testing.T) {
	c, _ := newTestContainer(t, nil)
	r := New(c)
	_, err := c.UserService.Register(context.Background(), "A", "a@x.io", "pass123")
	require.NoError(t, err)
	token, err := c.JWT.Issue("id-a@x.io")
	require.NoError(t, err)

	body := "--b\r\nContent-Disposition: form-data; name=\"profileImage\"; filename=\"a.png\"\r\nContent-Type: image/png\r\n\r\n\x89PNG\r\n\x1a\n\r\n--b--\r\n"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/update-profile-image", strings.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")
	req.AddCookie(&http.Cookie{Name: helpers.TokenCookieName, Value: token})
	w := serve(r, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to update profile image", message(t, w))
}

func TestRateLimitAppliesToAPI(t *testing.T) {
	c, mr := newTestContainer(t, nil)
	r := New(c)
	require.NoError(t, mr.Set("rl:ip:192.0.2.1", "300"))
	mr.SetTTL("rl:ip:192.0.2.1", time.Minute)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests, please try again later.", message(t, w))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitCoversUnmatchedAPIPaths(t *testing.T) {
	c, mr := newTestContainer(t, nil)
	r := New(c)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/nothing-here", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "300", w.Header().Get("X-RateLimit-Limit"))
	count, err := mr.Get("rl:ip:192.0.2.1")
	require.NoError(t, err)
	assert.Equal(t, "1", count)

	require.NoError(t, mr.Set("rl:ip:192.0.2.1", "300"))
	mr.SetTTL("rl:ip:192.0.2.1", time.Minute)
	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/nothing-here", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/apiary", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestCORS(t *testing.T) {
	c, _ := newTestContainer(t, func(cfg *config.Config) {
		cfg.ClientURL = "https://app.example, http://localhost:5173"
	})
	r := New(c)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users/login", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/users/login", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestDebugModule(t *testing.T) {
	c, _ := newTestContainer(t, nil)
	w := serve(New(c), httptest.NewRequest(http.MethodGet, "/api/debug/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, _ = newTestContainer(t, func(cfg *config.Config) { cfg.DebugMetricsEnabled = true })
	r := New(c)
	serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/debug/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/debug/vars", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "memstats")
}
