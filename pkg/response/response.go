package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
}

// Success writes {"message": message} merged with fields.
func Success(c *gin.Context, status int, message string, fields gin.H) {
	if status == 0 {
		status = http.StatusOK
	}
	body := gin.H{}
	for k, v := range fields {
		body[k] = v
	}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// Error writes {"message": message} with status, defaulting to 400.
func Error(c *gin.Context, status int, message string) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, ErrorBody{Message: message})
}

// AbortWithError is Error followed by c.Abort.
func AbortWithError(c *gin.Context, status int, message string) {
	Error(c, status, message)
	c.Abort()
}
