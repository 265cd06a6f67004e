package api

import (
	"net/http"
	"strings"

	"github.com/strafehub/jumptimer/internal/auth"
	"github.com/strafehub/jumptimer/internal/config"
	"github.com/strafehub/jumptimer/internal/database"
	"github.com/strafehub/jumptimer/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CORSMiddleware grants cross-origin access to the configured origins. The
// origin set is resolved once at router construction, not per request.
func CORSMiddleware(cfg config.CORS) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		header := c.Writer.Header()

		granted := ""
		switch {
		case origin == "" || len(allowed) == 0:
		case allowAll:
			granted = "*"
		default:
			if _, ok := allowed[origin]; ok {
				granted = origin
				header.Set("Vary", "Origin")
			}
		}
		if granted != "" {
			header.Set("Access-Control-Allow-Origin", granted)
			header.Set("Access-Control-Allow-Credentials", "true")
			header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept, Origin")
			header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// AuthMiddleware validates the bearer token and rejects tokens whose jti has
// been revoked by a logout.
func AuthMiddleware(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			util.Fail(c, http.StatusUnauthorized, "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			util.Fail(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			c.Abort()
			return
		}

		claims, err := auth.ValidateJWT(parts[1], secret)
		if err != nil {
			util.Error(c, http.StatusUnauthorized, err)
			c.Abort()
			return
		}

		revoked, err := database.IsTokenRevoked(db, claims.ID)
		if err != nil {
			util.Fail(c, http.StatusInternalServerError, "failed to check token revocation")
			c.Abort()
			return
		}
		if revoked {
			util.Fail(c, http.StatusUnauthorized, "token has been revoked")
			c.Abort()
			return
		}

		c.Set("userID", claims.Subject)
		c.Set("jti", claims.ID)
		c.Next()
	}
}
