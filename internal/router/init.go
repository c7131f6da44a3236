package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-account-api/internal/container"
	handlers "github.com/oksasatya/user-account-api/internal/interface/http"
	"github.com/oksasatya/user-account-api/internal/interface/middleware"
	"github.com/oksasatya/user-account-api/internal/router/modules"
	"github.com/oksasatya/user-account-api/pkg/apperror"
	"github.com/oksasatya/user-account-api/pkg/response"
	"github.com/oksasatya/user-account-api/pkg/validation"
)

// New builds the Gin engine: global middleware, the /api modules and the
// catch-all 404.
func New(c *container.Container) *gin.Engine {
	cfg := c.Config
	validation.Init()

	r := gin.New()
	_ = r.SetTrustedProxies(cfg.TrustedProxyList())

	r.Use(
		middleware.Recovery(c.Logger),
		middleware.RequestID(),
		middleware.RealIP(),
	)
	if cfg.HTTPLogEnabled {
		r.Use(gin.LoggerWithWriter(c.Logger.Writer()))
	}
	r.Use(
		middleware.Metrics(),
		middleware.SecurityHeaders(cfg.IsProduction()),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins(),
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.ErrorHandler(c.Logger),
		middleware.BodyLimit(middleware.DefaultJSONBodyLimit, middleware.DefaultMultipartBodyLimit),
	)

	r.GET("/", func(ctx *gin.Context) {
		response.Success(ctx, http.StatusOK, "User account API is running", nil)
	})

	limiter := middleware.RateLimit(c.Redis, middleware.DefaultRateLimit, middleware.DefaultRateWindow, middleware.KeyByIP())
	r.NoRoute(middleware.ForPrefix(APIPrefix, limiter), func(ctx *gin.Context) {
		_ = ctx.Error(apperror.NotFound("Route " + ctx.Request.URL.Path + " not found"))
		ctx.Abort()
	})

	reg := NewRegistry(r)
	reg.Use(limiter)
	InitModules(reg, c)
	reg.RegisterAll()
	return r
}

// InitModules builds the feature modules from the container and adds them to
// the registry.
func InitModules(r *Registry, c *container.Container) {
	userHandler := handlers.NewUserHandler(
		c.UserService,
		c.Cache,
		c.Uploader,
		c.Cookies,
		c.Logger,
		c.Config.UploadTmpDir,
	)
	r.Add(modules.NewUserModule(userHandler, c.JWT))

	if c.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
