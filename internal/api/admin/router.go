package admin

import (
	"github.com/strafehub/jumptimer/internal/api"
	"github.com/strafehub/jumptimer/internal/config"
	"github.com/strafehub/jumptimer/internal/timer"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NewAdminRouter creates and configures the admin Gin engine. Every route
// requires authentication; the admin surface listens on its own address.
func NewAdminRouter(cfg *config.Config, db *gorm.DB, engine *timer.Engine) *gin.Engine {
	r := gin.Default()

	r.Use(api.CORSMiddleware(cfg.CORS))

	h := NewHandler(cfg, db, engine)

	v1 := r.Group("/api/v1")
	v1.Use(api.AuthMiddleware(db, cfg.Auth.JWT.Secret))
	{
		// Zone management
		zones := v1.Group("/zones")
		{
			zones.POST("", h.createZone)
			zones.GET("/:id", h.getZone)
			zones.PATCH("/:id", h.updateZone)
			zones.DELETE("/:id", h.deleteZone)
		}

		// Map management
		maps := v1.Group("/maps")
		{
			maps.POST("", h.createMap)
			maps.PATCH("/:id", h.updateMap)
			maps.DELETE("/:id", h.deleteMap)
			maps.POST("/:id/recompute", h.recomputeMap)
			maps.POST("/:id/checkpoints", h.createCheckpoint)
			maps.DELETE("/:id/checkpoints/:cpID", h.deleteCheckpoint)
			maps.POST("/:id/courses", h.createCourse)
			maps.PATCH("/:id/courses/:courseID", h.updateCourse)
			maps.DELETE("/:id/courses/:courseID", h.deleteCourse)
			maps.POST("/:id/bonuses", h.createBonus)
			maps.PATCH("/:id/bonuses/:bonusID", h.updateBonus)
			maps.DELETE("/:id/bonuses/:bonusID", h.deleteBonus)
			maps.POST("/:id/authors", h.createAuthor)
			maps.DELETE("/:id/authors/:authorID", h.deleteAuthor)
		}

		// API user management
		users := v1.Group("/users")
		{
			users.POST("", h.createUser)
			users.POST("/:id/reset-password", h.resetUserPassword)
		}
	}

	return r
}
