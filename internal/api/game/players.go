package game

import (
	"errors"
	"net/http"

	"github.com/strafehub/jumptimer/internal/database"
	"github.com/strafehub/jumptimer/internal/database/models"
	"github.com/strafehub/jumptimer/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (h *Handler) getPlayer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	player, err := database.GetPlayerByID(h.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, http.StatusNotFound, "player not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}
	util.Success(c, database.NewPlayerView(player), "ok")
}

func (h *Handler) getPlayerBySteamID(c *gin.Context) {
	player, err := database.GetPlayerBySteamID(h.db, c.Param("steamid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, http.StatusNotFound, "player not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}
	util.Success(c, database.NewPlayerView(player), "ok")
}

// getPlayerRanking serves one page of the global standings for a class.
// Players with zero points are unranked and never appear here.
func (h *Handler) getPlayerRanking(c *gin.Context) {
	class, ok := parseClass(c)
	if !ok {
		return
	}
	limit, offset := parsePage(c)

	players, err := database.GetPlayerRanking(h.db, class, limit, offset)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	views := make([]*database.PlayerView, 0, len(players))
	for i := range players {
		views = append(views, database.NewPlayerView(&players[i]))
	}
	util.Success(c, views, "ok")
}

func (h *Handler) search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		util.Fail(c, http.StatusBadRequest, "query parameter q is required")
		return
	}

	maps, err := database.SearchMapsByName(h.db, query)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	players, err := database.SearchPlayersByName(h.db, query)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	mapViews := make([]*database.MapView, 0, len(maps))
	for i := range maps {
		mapViews = append(mapViews, database.NewMapView(&maps[i]))
	}
	playerViews := make([]*database.PlayerView, 0, len(players))
	for i := range players {
		playerViews = append(playerViews, database.NewPlayerView(&players[i]))
	}

	util.Success(c, gin.H{"maps": mapViews, "players": playerViews}, "ok")
}

// upsertPlayer registers a player on first contact with a game server.
// Idempotent by steam id.
func (h *Handler) upsertPlayer(c *gin.Context) {
	var req struct {
		SteamID string `json:"steam_id" binding:"required"`
		Name    string `json:"name" binding:"required"`
		Country string `json:"country"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	player := models.Player{
		SteamID:  req.SteamID,
		Username: req.Name,
		Country:  req.Country,
	}
	if err := database.UpsertPlayer(h.db, &player); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	// Re-read to pick up the existing row's id and standings on conflict.
	stored, err := database.GetPlayerBySteamID(h.db, req.SteamID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, database.NewPlayerView(stored), "ok")
}
