package game

import (
	"github.com/strafehub/jumptimer/internal/api"
	"github.com/strafehub/jumptimer/internal/config"
	"github.com/strafehub/jumptimer/internal/pubsub"
	"github.com/strafehub/jumptimer/internal/timer"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NewGameRouter creates and configures the game/public Gin engine.
func NewGameRouter(
	cfg *config.Config,
	db *gorm.DB,
	engine *timer.Engine,
	broker *pubsub.Broker) *gin.Engine {

	r := gin.Default()

	r.Use(api.CORSMiddleware(cfg.CORS))

	h := NewHandler(cfg, db, engine, broker)

	v1 := r.Group("/api/v1")
	{
		// Auth
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", h.login)
		}

		// Live world-record feed
		v1.GET("/ws/records", h.handleRecordsWs)

		// Publicly accessible info
		v1.GET("/maps", h.getAllMaps)
		v1.GET("/maps/:id", h.getMap)
		v1.GET("/maps/:id/leaderboard", h.getLeaderboard)
		v1.GET("/maps/:id/records", h.getRecords)
		v1.GET("/maps/:id/checkpoints", h.getCheckpoints)
		v1.GET("/maps/:id/courses", h.getCourses)
		v1.GET("/maps/:id/bonuses", h.getBonuses)
		v1.GET("/maps/:id/authors", h.getAuthors)
		v1.GET("/players/:id", h.getPlayer)
		v1.GET("/players/steam/:steamid", h.getPlayerBySteamID)
		v1.GET("/ranks", h.getPlayerRanking)
		v1.GET("/search", h.search)

		// Authenticated routes (game servers)
		authed := v1.Group("/")
		authed.Use(api.AuthMiddleware(db, cfg.Auth.JWT.Secret))
		{
			authed.POST("/auth/logout", h.logout)
			authed.POST("/players", h.upsertPlayer)
			authed.POST("/maps/:id/times", h.submitTime)
		}
	}

	return r
}
