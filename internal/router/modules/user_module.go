package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/user-account-api/internal/interface/http"
	"github.com/oksasatya/user-account-api/internal/interface/middleware"
)

// UserModule wires the user HTTP handlers under /v1/users.
// Public: POST /register, POST /login, POST /logout
// Protected: POST /update-profile-image, GET /me, GET /, GET /search
type UserModule struct {
	Handler *handlers.UserHandler
	Tokens  middleware.TokenParser
}

func NewUserModule(h *handlers.UserHandler, tokens middleware.TokenParser) *UserModule {
	return &UserModule{Handler: h, Tokens: tokens}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/v1/users")
	users.POST("/register", m.Handler.CreateUser)
	users.POST("/login", m.Handler.LoginUser)
	users.POST("/logout", m.Handler.Logout)

	auth := users.Group("")
	auth.Use(middleware.Auth(m.Tokens))
	{
		auth.POST("/update-profile-image", m.Handler.UpdateProfileImage)
		auth.GET("/me", m.Handler.MyDetails)
		auth.GET("/", m.Handler.ListUsers)
		auth.GET("/search", m.Handler.SearchUsers)
	}
}
