package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-account-api/pkg/apperror"
	"github.com/oksasatya/user-account-api/pkg/helpers"
)

const (
	identityKey = "identity"

	MsgTokenRequired = "Authorization token is required"
	MsgTokenInvalid  = "Invalid or expired token"
)

// Identity is the authenticated caller, attached to the Gin context by Auth.
type Identity struct {
	UserID string
}

// TokenParser validates a raw token and returns its claims.
type TokenParser interface {
	ParseToken(token string) (*helpers.Claims, error)
}

// Auth reads the token cookie, validates it, and attaches the caller's Identity.
func Auth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(helpers.TokenCookieName)
		if err != nil || token == "" {
			_ = c.Error(apperror.Unauthorized(MsgTokenRequired))
			c.Abort()
			return
		}
		claims, err := tokens.ParseToken(token)
		if err != nil {
			_ = c.Error(apperror.Unauthorized(MsgTokenInvalid))
			c.Abort()
			return
		}
		c.Set(identityKey, Identity{UserID: claims.UserID()})
		c.Next()
	}
}

// IdentityFrom returns the Identity set by Auth. ok is false on routes that
// are not behind Auth.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok && id.UserID != ""
}
