package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-account-api/pkg/apperror"
	"github.com/oksasatya/user-account-api/pkg/helpers"
	"github.com/oksasatya/user-account-api/pkg/response"
)

const MsgInternal = "Internal Server Error"

// ErrorHandler turns the last error attached with c.Error into the JSON error
// body. Typed errors keep their status and message; anything else becomes a
// 500 with a generic message and is logged with the request id.
func ErrorHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		status, message := http.StatusInternalServerError, MsgInternal
		var mbe *http.MaxBytesError
		if ae, ok := apperror.As(err); ok {
			status, message = ae.Status(), ae.Message
		} else if errors.As(err, &mbe) {
			status, message = http.StatusRequestEntityTooLarge, MsgBodyTooLarge
		}

		if status >= http.StatusInternalServerError {
			helpers.LogError(logger, "request failed", err, requestFields(c))
		} else {
			logger.WithFields(requestFields(c)).WithField("status", status).Debug(message)
		}
		response.Error(c, status, message)
	}
}

// Recovery converts a panic into the same 500 body ErrorHandler writes.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		fields := requestFields(c)
		fields["panic"] = rec
		helpers.LogError(logger, "panic recovered", nil, fields)
		response.AbortWithError(c, http.StatusInternalServerError, MsgInternal)
	})
}

func requestFields(c *gin.Context) logrus.Fields {
	return logrus.Fields{
		"request_id": requestIDFrom(c),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"ip":         ipFromCtx(c),
	}
}
