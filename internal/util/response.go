package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope every endpoint returns. Ok reports whether the
// request took effect; Data and Message accompany successes, Error carries
// the reason for failures.
type Response struct {
	Ok      bool        `json:"ok"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func Success(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Response{Ok: true, Data: data, Message: message})
}

// Fail rejects a request with a caller-supplied reason.
func Fail(c *gin.Context, code int, reason string) {
	zap.S().Warnf("request rejected (%d): %s", code, reason)
	c.JSON(code, Response{Error: reason})
}

// Error rejects a request because of an underlying error value.
func Error(c *gin.Context, code int, err error) {
	Fail(c, code, err.Error())
}
