package game

import (
	"github.com/strafehub/jumptimer/internal/config"
	"github.com/strafehub/jumptimer/internal/pubsub"
	"github.com/strafehub/jumptimer/internal/timer"
	"gorm.io/gorm"
)

// Handler holds all dependencies for the game/public API handlers.
type Handler struct {
	cfg    *config.Config
	db     *gorm.DB
	engine *timer.Engine
	broker *pubsub.Broker
}

// NewHandler creates a new game handler with its dependencies.
func NewHandler(
	cfg *config.Config,
	db *gorm.DB,
	engine *timer.Engine,
	broker *pubsub.Broker,
) *Handler {
	return &Handler{
		cfg:    cfg,
		db:     db,
		engine: engine,
		broker: broker,
	}
}
