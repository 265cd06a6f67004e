package admin

import (
	"errors"
	"net/http"

	"github.com/strafehub/jumptimer/internal/database"
	"github.com/strafehub/jumptimer/internal/database/models"
	"github.com/strafehub/jumptimer/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mapRequest struct {
	Name        string `json:"name"`
	STier       *int   `json:"soldier_tier"`
	DTier       *int   `json:"demoman_tier"`
	StartZoneID *uint  `json:"start_zone_id"`
	EndZoneID   *uint  `json:"end_zone_id"`
}

// routeUpdateRequest patches the fields a course and a bonus share. Only
// fields present in the body change.
type routeUpdateRequest struct {
	STier        *int  `json:"soldier_tier"`
	DTier        *int  `json:"demoman_tier"`
	SCompletions *int  `json:"soldier_completions"`
	DCompletions *int  `json:"demoman_completions"`
	StartZoneID  *uint `json:"start_zone_id"`
	EndZoneID    *uint `json:"end_zone_id"`
}

func (r *routeUpdateRequest) apply(sTier, dTier, sCompletions, dCompletions *int, startZone, endZone **uint) {
	if r.STier != nil {
		*sTier = *r.STier
	}
	if r.DTier != nil {
		*dTier = *r.DTier
	}
	if r.SCompletions != nil {
		*sCompletions = *r.SCompletions
	}
	if r.DCompletions != nil {
		*dCompletions = *r.DCompletions
	}
	if r.StartZoneID != nil {
		*startZone = r.StartZoneID
	}
	if r.EndZoneID != nil {
		*endZone = r.EndZoneID
	}
}

func (h *Handler) createMap(c *gin.Context) {
	var req mapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		util.Fail(c, http.StatusBadRequest, "name is required")
		return
	}

	m := models.Map{
		Name:        req.Name,
		StartZoneID: req.StartZoneID,
		EndZoneID:   req.EndZoneID,
	}
	if req.STier != nil {
		m.STier = *req.STier
	}
	if req.DTier != nil {
		m.DTier = *req.DTier
	}

	if err := database.CreateMap(h.db, &m); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	zap.S().Infof("map %s created", m.Name)
	util.Success(c, database.NewMapView(&m), "Map created")
}

func (h *Handler) updateMap(c *gin.Context) {
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

	var req mapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	if req.Name != "" {
		m.Name = req.Name
	}
	if req.STier != nil {
		m.STier = *req.STier
	}
	if req.DTier != nil {
		m.DTier = *req.DTier
	}
	if req.StartZoneID != nil {
		m.StartZoneID = req.StartZoneID
	}
	if req.EndZoneID != nil {
		m.EndZoneID = req.EndZoneID
	}

	if err := database.UpdateMap(h.db, m); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, database.NewMapView(m), "Map updated")
}

// deleteMap cascades: runs (split rows first), checkpoints, courses, bonuses
// and author credits all go with the map, then the global standings are
// rebuilt since the deleted runs' points no longer count.
func (h *Handler) deleteMap(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := database.DeleteMapCascade(h.db, id); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	if err := h.engine.RecomputeAllPlayers(); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, nil, "Map deleted")
}

// recomputeMap rebuilds both leaderboards and the completions counters of a
// map. Repair tool for when points formula or data was changed out of band.
func (h *Handler) recomputeMap(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := database.GetMapByID(h.db, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, http.StatusNotFound, "map not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}

	completions, err := h.engine.RecomputeMap(id)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, gin.H{"completions": completions}, "Map recomputed")
}

func (h *Handler) createCheckpoint(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	// cp_index 0 is a legal first checkpoint, so no required binding here.
	var req struct {
		ZoneID  uint `json:"zone_id" binding:"required"`
		CPIndex *int `json:"cp_index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	if req.CPIndex == nil {
		util.Fail(c, http.StatusBadRequest, "cp_index is required")
		return
	}

	cp := models.Checkpoint{MapID: id, ZoneID: req.ZoneID, CPIndex: *req.CPIndex}
	if err := database.CreateCheckpoint(h.db, &cp); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, cp, "Checkpoint created")
}

func (h *Handler) deleteCheckpoint(c *gin.Context) {
	cpID, ok := parseID(c, "cpID")
	if !ok {
		return
	}
	if err := database.DeleteCheckpoint(h.db, cpID); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, nil, "Checkpoint deleted")
}

func (h *Handler) createCourse(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		CourseIndex *int  `json:"course_index"`
		StartZoneID *uint `json:"start_zone_id"`
		EndZoneID   *uint `json:"end_zone_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	if req.CourseIndex == nil {
		util.Fail(c, http.StatusBadRequest, "course_index is required")
		return
	}

	course := models.Course{
		MapID:       id,
		CourseIndex: *req.CourseIndex,
		StartZoneID: req.StartZoneID,
		EndZoneID:   req.EndZoneID,
	}
	if err := database.CreateCourse(h.db, &course); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, course, "Course created")
}

func (h *Handler) updateCourse(c *gin.Context) {
	courseID, ok := parseID(c, "courseID")
	if !ok {
		return
	}
	course, err := database.GetCourseByID(h.db, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, http.StatusNotFound, "course not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}

	var req routeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	req.apply(&course.STier, &course.DTier, &course.SCompletions, &course.DCompletions, &course.StartZoneID, &course.EndZoneID)
	if err := database.UpdateCourse(h.db, course); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, course, "Course updated")
}

func (h *Handler) deleteCourse(c *gin.Context) {
	courseID, ok := parseID(c, "courseID")
	if !ok {
		return
	}
	if err := database.DeleteCourse(h.db, courseID); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, nil, "Course deleted")
}

func (h *Handler) createBonus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		BonusIndex  *int  `json:"bonus_index"`
		StartZoneID *uint `json:"start_zone_id"`
		EndZoneID   *uint `json:"end_zone_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	if req.BonusIndex == nil {
		util.Fail(c, http.StatusBadRequest, "bonus_index is required")
		return
	}

	bonus := models.Bonus{
		MapID:       id,
		BonusIndex:  *req.BonusIndex,
		StartZoneID: req.StartZoneID,
		EndZoneID:   req.EndZoneID,
	}
	if err := database.CreateBonus(h.db, &bonus); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, bonus, "Bonus created")
}

func (h *Handler) updateBonus(c *gin.Context) {
	bonusID, ok := parseID(c, "bonusID")
	if !ok {
		return
	}
	bonus, err := database.GetBonusByID(h.db, bonusID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, http.StatusNotFound, "bonus not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}

	var req routeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	req.apply(&bonus.STier, &bonus.DTier, &bonus.SCompletions, &bonus.DCompletions, &bonus.StartZoneID, &bonus.EndZoneID)
	if err := database.UpdateBonus(h.db, bonus); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, bonus, "Bonus updated")
}

func (h *Handler) deleteBonus(c *gin.Context) {
	bonusID, ok := parseID(c, "bonusID")
	if !ok {
		return
	}
	if err := database.DeleteBonus(h.db, bonusID); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, nil, "Bonus deleted")
}

// createAuthor credits a map to a mapper. The name stands on its own so maps
// by people who never registered stay creditable; player_id links the credit
// to a profile when one exists.
func (h *Handler) createAuthor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name     string `json:"name" binding:"required"`
		PlayerID *uint  `json:"player_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	author := models.Author{MapID: id, Name: req.Name, PlayerID: req.PlayerID}
	if err := database.CreateAuthor(h.db, &author); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, author, "Author added")
}

func (h *Handler) deleteAuthor(c *gin.Context) {
	authorID, ok := parseID(c, "authorID")
	if !ok {
		return
	}
	if err := database.DeleteAuthor(h.db, authorID); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, nil, "Author removed")
}
