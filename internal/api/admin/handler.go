package admin

import (
	"github.com/strafehub/jumptimer/internal/config"
	"github.com/strafehub/jumptimer/internal/timer"
	"gorm.io/gorm"
)

// Handler holds all dependencies for the admin API handlers.
type Handler struct {
	cfg    *config.Config
	db     *gorm.DB
	engine *timer.Engine
}

// NewHandler creates a new admin handler with its dependencies.
func NewHandler(cfg *config.Config, db *gorm.DB, engine *timer.Engine) *Handler {
	return &Handler{
		cfg:    cfg,
		db:     db,
		engine: engine,
	}
}
