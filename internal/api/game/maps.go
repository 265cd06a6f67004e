package game

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

const defaultPageSize = 50

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		util.Fail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func parseClass(c *gin.Context) (models.Class, bool) {
	raw := c.DefaultQuery("class", strconv.Itoa(int(models.ClassSoldier)))
	value, err := strconv.Atoi(raw)
	if err != nil || !models.Class(value).Valid() {
		util.Fail(c, http.StatusBadRequest, "invalid class")
		return 0, false
	}
	return models.Class(value), true
}

func parsePage(c *gin.Context) (limit, offset int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit < 1 || limit > 200 {
		limit = defaultPageSize
	}
	return limit, (page - 1) * limit
}

func (h *Handler) getAllMaps(c *gin.Context) {
	maps, err := database.GetAllMaps(h.db)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	views := make([]*database.MapView, 0, len(maps))
	for i := range maps {
		views = append(views, database.NewMapView(&maps[i]))
	}
	util.Success(c, views, "ok")
}

func (h *Handler) getMap(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	m, err := database.GetMapByID(h.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, http.StatusNotFound, "map not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}
	util.Success(c, database.NewMapView(m), "ok")
}

func (h *Handler) getLeaderboard(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	class, ok := parseClass(c)
	if !ok {
		return
	}
	limit, offset := parsePage(c)

	runs, err := database.GetLeaderboardPage(h.db, id, class, limit, offset)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	views := make([]*database.RunView, 0, len(runs))
	for i := range runs {
		view, err := database.GetRunView(h.db, &runs[i])
		if err != nil {
			util.Error(c, http.StatusInternalServerError, err)
			return
		}
		views = append(views, view)
	}
	util.Success(c, views, "ok")
}

func (h *Handler) getRecords(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	records, err := database.GetWorldRecords(h.db, id)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, records, "ok")
}

func (h *Handler) getCheckpoints(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cps, err := database.GetCheckpointsByMapID(h.db, id)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, cps, "ok")
}

func (h *Handler) getAuthors(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	authors, err := database.GetAuthorsByMapID(h.db, id)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	views := make([]*database.AuthorView, 0, len(authors))
	for i := range authors {
		views = append(views, database.NewAuthorView(&authors[i]))
	}
	util.Success(c, views, "ok")
}

func (h *Handler) getCourses(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	courses, err := database.GetCoursesByMapID(h.db, id)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, courses, "ok")
}

func (h *Handler) getBonuses(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	bonuses, err := database.GetBonusesByMapID(h.db, id)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, bonuses, "ok")
}
