package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/strafehub/jumptimer/internal/database"
	"github.com/strafehub/jumptimer/internal/database/models"
	"github.com/strafehub/jumptimer/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		util.Fail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

type zoneRequest struct {
	P1          [3]int `json:"p1" binding:"required"`
	P2          [3]int `json:"p2" binding:"required"`
	Orientation int    `json:"orientation"`
}

func (r *zoneRequest) apply(zone *models.Zone) {
	zone.X1, zone.Y1, zone.Z1 = r.P1[0], r.P1[1], r.P1[2]
	zone.X2, zone.Y2, zone.Z2 = r.P2[0], r.P2[1], r.P2[2]
	zone.Orientation = r.Orientation
}

func (h *Handler) createZone(c *gin.Context) {
	var req zoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	var zone models.Zone
	req.apply(&zone)
	if err := database.CreateZone(h.db, &zone); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, zone, "Zone created")
}

func (h *Handler) getZone(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	zone, err := database.GetZoneByID(h.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, http.StatusNotFound, "zone not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}
	util.Success(c, zone, "ok")
}

func (h *Handler) updateZone(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	zone, err := database.GetZoneByID(h.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, http.StatusNotFound, "zone not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}

	var req zoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	req.apply(zone)
	if err := database.UpdateZone(h.db, zone); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, zone, "Zone updated")
}

func (h *Handler) deleteZone(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := database.DeleteZone(h.db, id); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, nil, "Zone deleted")
}
