package game

import (
	"errors"
	"net/http"

	"github.com/strafehub/jumptimer/internal/api"
	"github.com/strafehub/jumptimer/internal/database"
	"github.com/strafehub/jumptimer/internal/database/models"
	"github.com/strafehub/jumptimer/internal/timer"
	"github.com/strafehub/jumptimer/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// submitTime accepts a finished run from a game server and feeds it to the
// submission engine. The player may be referenced by internal id or steam id.
func (h *Handler) submitTime(c *gin.Context) {
	mapID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		PlayerID  uint              `json:"player_id"`
		SteamID   string            `json:"steam_id"`
		Class     *int              `json:"class"`
		StartTime float64           `json:"start_time"`
		EndTime   float64           `json:"end_time"`
		Splits    []timer.SplitTime `json:"checkpoints"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	if req.Class == nil {
		util.Fail(c, http.StatusBadRequest, "class is required")
		return
	}

	playerID := req.PlayerID
	if playerID == 0 {
		if req.SteamID == "" {
			util.Fail(c, http.StatusBadRequest, "player_id or steam_id is required")
			return
		}
		player, err := database.GetPlayerBySteamID(h.db, req.SteamID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.Fail(c, http.StatusNotFound, "player not found")
			} else {
				util.Error(c, http.StatusInternalServerError, err)
			}
			return
		}
		playerID = player.ID
	}

	outcome, err := h.engine.Submit(timer.SubmitRequest{
		MapID:     mapID,
		PlayerID:  playerID,
		Class:     models.Class(*req.Class),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Splits:    req.Splits,
	})
	if err != nil {
		api.EngineError(c, err)
		return
	}

	zap.S().Infof("run on map %d by player %d: %s (%.3fs)", mapID, playerID, outcome.Result, outcome.Duration)
	util.Success(c, outcome, "ok")
}
