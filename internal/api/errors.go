package api

import (
	"errors"
	"net/http"

	"github.com/strafehub/jumptimer/internal/timer"
	"github.com/strafehub/jumptimer/internal/util"

	"github.com/gin-gonic/gin"
)

// EngineError maps the ranking engine's error taxonomy onto HTTP statuses:
// rejected input is the client's fault, a missing map or player is a 404,
// anything else is a storage failure.
func EngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, timer.ErrInvalidInput):
		util.Error(c, http.StatusBadRequest, err)
	case errors.Is(err, timer.ErrNotFound):
		util.Error(c, http.StatusNotFound, err)
	default:
		util.Error(c, http.StatusInternalServerError, err)
	}
}
