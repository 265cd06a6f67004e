package admin

import (
	"errors"
	"net/http"

	"github.com/strafehub/jumptimer/internal/auth"
	"github.com/strafehub/jumptimer/internal/database"
	"github.com/strafehub/jumptimer/internal/database/models"
	"github.com/strafehub/jumptimer/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (h *Handler) createUser(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	_, err := database.GetUserByUsername(h.db, req.Username)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		if err == nil {
			util.Fail(c, http.StatusConflict, "username already exists")
		} else {
			util.Fail(c, http.StatusInternalServerError, "database error")
		}
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		util.Fail(c, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: hashedPassword,
	}
	if err := database.CreateUser(h.db, &user); err != nil {
		util.Fail(c, http.StatusInternalServerError, "failed to create user")
		return
	}

	zap.S().Infof("api user created: %s", user.Username)
	util.Success(c, gin.H{"id": user.ID, "username": user.Username}, "User created")
}

func (h *Handler) resetUserPassword(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	user, err := database.GetUserByID(h.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, http.StatusNotFound, "user not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		util.Fail(c, http.StatusInternalServerError, "failed to hash password")
		return
	}
	user.PasswordHash = hashedPassword
	if err := database.UpdateUser(h.db, user); err != nil {
		util.Fail(c, http.StatusInternalServerError, "failed to update user")
		return
	}

	util.Success(c, nil, "Password reset")
}
