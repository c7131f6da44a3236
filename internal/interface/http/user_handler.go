package handlers

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/user-account-api/internal/application"
	"github.com/oksasatya/user-account-api/internal/infrastructure/storage"
	"github.com/oksasatya/user-account-api/internal/interface/middleware"
	"github.com/oksasatya/user-account-api/pkg/apperror"
	"github.com/oksasatya/user-account-api/pkg/cache"
	"github.com/oksasatya/user-account-api/pkg/helpers"
	"github.com/oksasatya/user-account-api/pkg/response"
	"github.com/oksasatya/user-account-api/pkg/validation"
)

const (
	ProfileImageField = "profileImage"

	MsgFieldsRequired      = "All fields are required"
	MsgImageRequired       = "Profile image is required"
	MsgImageUpdateFailed   = "Failed to update profile image"
	MsgInvalidQuery        = "Invalid query parameters"
	MsgSearchQueryRequired = "Search query is required"
	MsgLoginSuccessful     = "Login successful"
	MsgLogoutSuccessful    = "Logout successful"
	MsgImageUpdated        = "Profile image updated successfully"
	MsgUserDetailsFetched  = "User details fetched successfully"
	MsgUsersFetched        = "Users fetched successfully"
)

const (
	defaultPage  int64 = 1
	defaultLimit int64 = 10
)

type UserHandler struct {
	Svc      *userapp.Service
	Cache    *cache.Cache
	Uploader storage.Uploader
	Cookies  *helpers.Manager
	Logger   *logrus.Logger
	// TmpDir stages uploads before they go to storage. Empty means os.TempDir.
	TmpDir string
}

func NewUserHandler(svc *userapp.Service, c *cache.Cache, uploader storage.Uploader, cookies *helpers.Manager, logger *logrus.Logger, tmpDir string) *UserHandler {
	return &UserHandler{Svc: svc, Cache: c, Uploader: uploader, Cookies: cookies, Logger: logger, TmpDir: tmpDir}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type listUsersQuery struct {
	Page  int64 `form:"page" binding:"page"`
	Limit int64 `form:"limit" binding:"pagesize"`
}

type searchUsersQuery struct {
	Q    string `form:"q" binding:"required"`
	Size int    `form:"size" binding:"omitempty,min=1,max=50"`
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err, MsgFieldsRequired)
		return
	}

	token, err := h.Svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

func (h *UserHandler) LoginUser(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err, MsgFieldsRequired)
		return
	}

	token, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Cookies.SetToken(c, token, time.Now().Add(helpers.TokenTTL))
	response.Success(c, http.StatusOK, MsgLoginSuccessful, nil)
}

func (h *UserHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, MsgLogoutSuccessful, nil)
}

// UpdateProfileImage stages the uploaded file on disk, pushes it to storage
// under the user's folder and records the new image. The staged file is
// removed on every path.
func (h *UserHandler) UpdateProfileImage(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		h.fail(c, apperror.Unauthorized(middleware.MsgTokenRequired))
		return
	}

	fh, err := c.FormFile(ProfileImageField)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.fail(c, err)
			return
		}
		h.fail(c, apperror.Validation(MsgImageRequired))
		return
	}

	// A token can outlive its user; nothing goes to storage for an identity
	// the store no longer knows.
	if _, err := h.Svc.FindUserByID(c.Request.Context(), id.UserID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			h.fail(c, apperror.Unauthorized(middleware.MsgTokenInvalid))
			return
		}
		h.fail(c, apperror.Internal(MsgImageUpdateFailed, err))
		return
	}

	tmp, err := os.CreateTemp(h.TmpDir, "upload-*")
	if err != nil {
		h.fail(c, apperror.Internal(MsgImageUpdateFailed, err))
		return
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer h.removeTemp(tmpPath)

	if err := c.SaveUploadedFile(fh, tmpPath); err != nil {
		h.fail(c, apperror.Internal(MsgImageUpdateFailed, err))
		return
	}

	contentType, ext := detectType(fh.Header.Get("Content-Type"), tmpPath)
	in := storage.UploadInput{
		LocalPath:   tmpPath,
		Folder:      storage.ProfileImageFolder(id.UserID),
		PublicID:    uuid.NewString(),
		ContentType: contentType,
		Extension:   ext,
	}
	res, err := h.Uploader.Upload(c.Request.Context(), in)
	if err != nil {
		h.fail(c, apperror.Internal(MsgImageUpdateFailed, err))
		return
	}

	u, err := h.Svc.UpdateProfileImage(c.Request.Context(), id.UserID, res.PublicID, res.SecureURL)
	if err != nil {
		h.fail(c, apperror.Internal(MsgImageUpdateFailed, err))
		return
	}

	if err := h.Cache.Delete(c.Request.Context(), cache.UserKey(id.UserID)); err != nil {
		h.Logger.WithError(err).WithField("user_id", id.UserID).Warn("cache invalidation failed")
	}

	view := userapp.NewUserView(u)
	response.Success(c, http.StatusOK, MsgImageUpdated, gin.H{"profileImage": view.ProfileImage})
}

// MyDetails serves the caller's profile from cache, falling back to the store
// and populating the cache on a miss. Cache errors never fail the request.
func (h *UserHandler) MyDetails(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		h.fail(c, apperror.Unauthorized(middleware.MsgTokenRequired))
		return
	}
	ctx := c.Request.Context()
	key := cache.UserKey(id.UserID)

	var view userapp.UserView
	hit, err := h.Cache.Get(ctx, key, &view)
	if err != nil {
		h.Logger.WithError(err).WithField("key", key).Warn("cache read failed")
	}
	if hit {
		response.Success(c, http.StatusOK, MsgUserDetailsFetched, gin.H{"user": view})
		return
	}

	u, err := h.Svc.FindUserByID(ctx, id.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	view = userapp.NewUserView(u)
	if err := h.Cache.Set(ctx, key, view, cache.UserDetailsTTL); err != nil {
		h.Logger.WithError(err).WithField("key", key).Warn("cache write failed")
	}
	response.Success(c, http.StatusOK, MsgUserDetailsFetched, gin.H{"user": view})
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.bindFailed(c, err, MsgInvalidQuery)
		return
	}
	if q.Page == 0 {
		q.Page = defaultPage
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}

	page, err := h.Svc.ListUsers(c.Request.Context(), q.Page, q.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, MsgUsersFetched, gin.H{
		"users":       page.Users,
		"totalUsers":  page.TotalUsers,
		"totalPages":  page.TotalPages,
		"hasNextPage": page.HasNextPage,
		"hasPrevPage": page.HasPrevPage,
	})
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	var q searchUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.bindFailed(c, err, MsgSearchQueryRequired)
		return
	}

	users, err := h.Svc.SearchUsers(c.Request.Context(), q.Q, q.Size)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, MsgUsersFetched, gin.H{"users": users})
}

func (h *UserHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bindFailed reports an oversized body as-is and anything else as a
// validation error with message.
func (h *UserHandler) bindFailed(c *gin.Context, err error, message string) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		h.fail(c, err)
		return
	}
	h.Logger.WithField("details", validation.ToDetails(err)).Debug("request rejected")
	h.fail(c, apperror.Validation(message))
}

func (h *UserHandler) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		h.Logger.WithError(err).WithField("path", path).Warn("failed to remove temp upload")
	}
}

// detectType resolves the MIME type and extension, preferring the declared
// type and sniffing the file when it is missing or unknown.
func detectType(declared, path string) (string, string) {
	if declared != "" {
		if m := mimetype.Lookup(declared); m != nil && m.Extension() != "" {
			return m.String(), m.Extension()
		}
	}
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "application/octet-stream", ""
	}
	return m.String(), m.Extension()
}
