package game

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/strafehub/jumptimer/internal/auth"
	"github.com/strafehub/jumptimer/internal/database"
	"github.com/strafehub/jumptimer/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	user, err := database.GetUserByUsername(h.db, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, http.StatusUnauthorized, "invalid username or password")
		} else {
			util.Fail(c, http.StatusInternalServerError, "database error")
		}
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		util.Fail(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := auth.GenerateJWT(fmt.Sprint(user.ID), h.cfg.Auth.JWT.Secret, h.cfg.Auth.JWT.ExpireHours)
	if err != nil {
		util.Fail(c, http.StatusInternalServerError, "failed to generate JWT")
		return
	}

	zap.S().Infof("user %s logged in", user.Username)
	util.Success(c, gin.H{"token": token}, "Login successful")
}

// logout revokes the presented token's jti; the auth middleware rejects it
// from now on.
func (h *Handler) logout(c *gin.Context) {
	jti := c.GetString("jti")
	if jti == "" {
		util.Fail(c, http.StatusBadRequest, "token has no id to revoke")
		return
	}
	if err := database.RevokeToken(h.db, jti); err != nil {
		util.Fail(c, http.StatusInternalServerError, "failed to revoke token")
		return
	}
	util.Success(c, nil, "Logged out")
}
