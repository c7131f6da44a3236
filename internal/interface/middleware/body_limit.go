package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-account-api/pkg/apperror"
)

const (
	DefaultJSONBodyLimit      int64 = 10 << 10
	DefaultMultipartBodyLimit int64 = 30 << 20

	MsgBodyTooLarge = "Request body too large"
)

// BodyLimit caps request bodies: multipart uploads at multipartMax, everything
// else at jsonMax. A declared Content-Length over the cap is rejected up front;
// otherwise the reader fails once the cap is crossed.
func BodyLimit(jsonMax, multipartMax int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		limit := jsonMax
		if isMultipart(c.Request) {
			limit = multipartMax
		}
		if c.Request.ContentLength > limit {
			_ = c.Error(apperror.TooLarge(MsgBodyTooLarge))
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/")
}
