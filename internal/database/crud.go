package database

import (
	"errors"

	"github.com/strafehub/jumptimer/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Zone CRUD
func CreateZone(db *gorm.DB, zone *models.Zone) error {
	return db.Create(zone).Error
}

func GetZoneByID(db *gorm.DB, id uint) (*models.Zone, error) {
	var zone models.Zone
	if err := db.Where("id = ?", id).First(&zone).Error; err != nil {
		return nil, err
	}
	return &zone, nil
}

func UpdateZone(db *gorm.DB, zone *models.Zone) error {
	return db.Save(zone).Error
}

func DeleteZone(db *gorm.DB, id uint) error {
	return db.Delete(&models.Zone{}, "id = ?", id).Error
}

// Map CRUD
func CreateMap(db *gorm.DB, m *models.Map) error {
	return db.Create(m).Error
}

func GetMapByID(db *gorm.DB, id uint) (*models.Map, error) {
	var m models.Map
	if err := db.Preload("StartZone").Preload("EndZone").Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func GetMapByName(db *gorm.DB, name string) (*models.Map, error) {
	var m models.Map
	if err := db.Where("name = ?", name).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func GetAllMaps(db *gorm.DB) ([]models.Map, error) {
	var maps []models.Map
	if err := db.Order("name asc").Find(&maps).Error; err != nil {
		return nil, err
	}
	return maps, nil
}

func SearchMapsByName(db *gorm.DB, query string) ([]models.Map, error) {
	var maps []models.Map
	if err := db.Where("name LIKE ?", "%"+query+"%").Order("name asc").Find(&maps).Error; err != nil {
		return nil, err
	}
	return maps, nil
}

func UpdateMap(db *gorm.DB, m *models.Map) error {
	return db.Save(m).Error
}

func DeleteMap(db *gorm.DB, id uint) error {
	return db.Delete(&models.Map{}, "id = ?", id).Error
}

// DeleteMapCascade removes a map together with everything hanging off it:
// split rows first, then their runs, then the map's checkpoints, courses,
// bonuses and author credits, and finally the map row. Every step keeps the
// foreign keys satisfied, so the whole cascade commits as one transaction.
// Player aggregates reference the deleted runs' points and must be recomputed
// by the caller afterwards.
func DeleteMapCascade(db *gorm.DB, mapID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		runIDs := tx.Model(&models.Run{}).Select("id").Where("map_id = ?", mapID)
		if err := tx.Where("run_id IN (?)", runIDs).Delete(&models.Split{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Run{}, "map_id = ?", mapID).Error; err != nil {
			return err
		}
		for _, owned := range []interface{}{
			&models.Checkpoint{},
			&models.Course{},
			&models.Bonus{},
			&models.Author{},
		} {
			if err := tx.Delete(owned, "map_id = ?", mapID).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Map{}, "id = ?", mapID).Error
	})
}

// UpdateMapCompletions writes the denormalized run counter for one class.
func UpdateMapCompletions(db *gorm.DB, mapID uint, class models.Class, count int) error {
	column := "s_completions"
	if class == models.ClassDemoman {
		column = "d_completions"
	}
	return db.Model(&models.Map{}).Where("id = ?", mapID).Update(column, count).Error
}

// Course / Bonus CRUD
func CreateCourse(db *gorm.DB, course *models.Course) error {
	return db.Create(course).Error
}

func GetCoursesByMapID(db *gorm.DB, mapID uint) ([]models.Course, error) {
	var courses []models.Course
	if err := db.Where("map_id = ?", mapID).Order("course_index asc").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func GetCourseByID(db *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	if err := db.Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func UpdateCourse(db *gorm.DB, course *models.Course) error {
	return db.Save(course).Error
}

func DeleteCourse(db *gorm.DB, id uint) error {
	return db.Delete(&models.Course{}, "id = ?", id).Error
}

func CreateBonus(db *gorm.DB, bonus *models.Bonus) error {
	return db.Create(bonus).Error
}

func GetBonusesByMapID(db *gorm.DB, mapID uint) ([]models.Bonus, error) {
	var bonuses []models.Bonus
	if err := db.Where("map_id = ?", mapID).Order("bonus_index asc").Find(&bonuses).Error; err != nil {
		return nil, err
	}
	return bonuses, nil
}

func GetBonusByID(db *gorm.DB, id uint) (*models.Bonus, error) {
	var bonus models.Bonus
	if err := db.Where("id = ?", id).First(&bonus).Error; err != nil {
		return nil, err
	}
	return &bonus, nil
}

func UpdateBonus(db *gorm.DB, bonus *models.Bonus) error {
	return db.Save(bonus).Error
}

func DeleteBonus(db *gorm.DB, id uint) error {
	return db.Delete(&models.Bonus{}, "id = ?", id).Error
}

// Author CRUD
func CreateAuthor(db *gorm.DB, author *models.Author) error {
	return db.Create(author).Error
}

func GetAuthorsByMapID(db *gorm.DB, mapID uint) ([]models.Author, error) {
	var authors []models.Author
	if err := db.Preload("Player").Where("map_id = ?", mapID).Find(&authors).Error; err != nil {
		return nil, err
	}
	return authors, nil
}

func DeleteAuthor(db *gorm.DB, id uint) error {
	return db.Delete(&models.Author{}, "id = ?", id).Error
}

// Checkpoint CRUD
func CreateCheckpoint(db *gorm.DB, cp *models.Checkpoint) error {
	return db.Create(cp).Error
}

func GetCheckpointsByMapID(db *gorm.DB, mapID uint) ([]models.Checkpoint, error) {
	var cps []models.Checkpoint
	if err := db.Preload("Zone").Where("map_id = ?", mapID).Order("cp_index asc").Find(&cps).Error; err != nil {
		return nil, err
	}
	return cps, nil
}

// GetCheckpointByIndex resolves a game-server checkpoint index to the
// checkpoint definition on a map, if one exists.
func GetCheckpointByIndex(db *gorm.DB, mapID uint, cpIndex int) (*models.Checkpoint, error) {
	var cp models.Checkpoint
	if err := db.Where("map_id = ? AND cp_index = ?", mapID, cpIndex).First(&cp).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

func DeleteCheckpoint(db *gorm.DB, id uint) error {
	return db.Delete(&models.Checkpoint{}, "id = ?", id).Error
}

// Player CRUD
func CreatePlayer(db *gorm.DB, player *models.Player) error {
	return db.Create(player).Error
}

func GetPlayerByID(db *gorm.DB, id uint) (*models.Player, error) {
	var player models.Player
	if err := db.Where("id = ?", id).First(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

func GetPlayerBySteamID(db *gorm.DB, steamID string) (*models.Player, error) {
	var player models.Player
	if err := db.Where("steam_id = ?", steamID).First(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

// UpsertPlayer registers a player on first contact and refreshes the mutable
// profile fields afterwards. Idempotent by steam id.
func UpsertPlayer(db *gorm.DB, player *models.Player) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "steam_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "country", "updated_at"}),
	}).Create(player).Error
}

func SearchPlayersByName(db *gorm.DB, query string) ([]models.Player, error) {
	var players []models.Player
	if err := db.Where("username LIKE ?", "%"+query+"%").Order("username asc").Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

// GetPlayerRanking returns one page of the global standings for a class,
// ranked players only, best first.
func GetPlayerRanking(db *gorm.DB, class models.Class, limit, offset int) ([]models.Player, error) {
	var players []models.Player
	err := db.Where(class.RankColumn()+" > 0").
		Order(class.RankColumn() + " asc").
		Limit(limit).Offset(offset).
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	return players, nil
}

// Run / Split queries

// GetPersonalBest returns the single run a player holds on a (map, class)
// leaderboard, or gorm.ErrRecordNotFound.
func GetPersonalBest(db *gorm.DB, mapID, playerID uint, class models.Class) (*models.Run, error) {
	var run models.Run
	err := db.Where("map_id = ? AND player_id = ? AND class = ?", mapID, playerID, class).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func GetRunByID(db *gorm.DB, id uint) (*models.Run, error) {
	var run models.Run
	if err := db.Where("id = ?", id).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// GetLeaderboardRuns returns every run on a (map, class) leaderboard, fastest
// first. Id is the explicit tie-break so equal durations order stably instead
// of however the storage layer feels like.
func GetLeaderboardRuns(db *gorm.DB, mapID uint, class models.Class) ([]models.Run, error) {
	var runs []models.Run
	err := db.Where("map_id = ? AND class = ?", mapID, class).
		Order("duration asc, id asc").
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// GetLeaderboardPage returns one page of a leaderboard with players preloaded
// for display.
func GetLeaderboardPage(db *gorm.DB, mapID uint, class models.Class, limit, offset int) ([]models.Run, error) {
	var runs []models.Run
	err := db.Preload("Player").
		Where("map_id = ? AND class = ?", mapID, class).
		Order("duration asc, id asc").
		Limit(limit).Offset(offset).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func CountRuns(db *gorm.DB, mapID uint, class models.Class) (int64, error) {
	var count int64
	err := db.Model(&models.Run{}).
		Where("map_id = ? AND class = ?", mapID, class).
		Count(&count).Error
	return count, err
}

func CreateRun(db *gorm.DB, run *models.Run) error {
	return db.Create(run).Error
}

func CreateSplit(db *gorm.DB, split *models.Split) error {
	return db.Create(split).Error
}

func GetSplitsByRunID(db *gorm.DB, runID uint) ([]models.Split, error) {
	var splits []models.Split
	if err := db.Preload("Checkpoint").Where("run_id = ?", runID).Find(&splits).Error; err != nil {
		return nil, err
	}
	return splits, nil
}

// DeleteSplitsByRunID removes every split owned by a run. Callers must commit
// this before deleting the run row itself or the foreign key will object.
func DeleteSplitsByRunID(db *gorm.DB, runID uint) error {
	return db.Delete(&models.Split{}, "run_id = ?", runID).Error
}

func DeleteRunByID(db *gorm.DB, id uint) error {
	return db.Delete(&models.Run{}, "id = ?", id).Error
}

// PlayerClassPoints is one row of the per-class points aggregation over all
// runs.
type PlayerClassPoints struct {
	PlayerID uint
	Points   int
}

// SumPointsByPlayer aggregates run points per player for one class across all
// maps, keeping only positive sums, best first.
func SumPointsByPlayer(db *gorm.DB, class models.Class) ([]PlayerClassPoints, error) {
	var rows []PlayerClassPoints
	err := db.Model(&models.Run{}).
		Select("player_id, SUM(points) as points").
		Where("class = ? AND points IS NOT NULL", class).
		Group("player_id").
		Having("SUM(points) > 0").
		Order("points desc, player_id asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// User CRUD
func CreateUser(db *gorm.DB, user *models.User) error {
	return db.Create(user).Error
}

func GetUserByID(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByUsername(db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func UpdateUser(db *gorm.DB, user *models.User) error {
	return db.Save(user).Error
}

// Token revocation
func RevokeToken(db *gorm.DB, jti string) error {
	return db.Create(&models.RevokedToken{JTI: jti}).Error
}

func IsTokenRevoked(db *gorm.DB, jti string) (bool, error) {
	var count int64
	err := db.Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error
	return count > 0, err
}

// JSON views

// RankInfo is the aggregate standings block embedded in player payloads.
type RankInfo struct {
	SoldierPoints int `json:"soldier_points"`
	DemoPoints    int `json:"demo_points"`
	SoldierRank   int `json:"soldier_rank"`
	DemomanRank   int `json:"demoman_rank"`
}

// PlayerView is the public JSON shape of a player.
type PlayerView struct {
	ID       uint     `json:"id"`
	SteamID  string   `json:"steam_id"`
	Name     string   `json:"name"`
	Country  string   `json:"country"`
	RankInfo RankInfo `json:"rank_info"`
}

func NewPlayerView(p *models.Player) *PlayerView {
	return &PlayerView{
		ID:      p.ID,
		SteamID: p.SteamID,
		Name:    p.Username,
		Country: p.Country,
		RankInfo: RankInfo{
			SoldierPoints: p.SPoints,
			DemoPoints:    p.DPoints,
			SoldierRank:   p.SRank,
			DemomanRank:   p.DRank,
		},
	}
}

// AuthorView is the public JSON shape of a map credit. A credit linked to a
// registered player carries that player's profile fields, but the displayed
// name is always the credit's own.
type AuthorView struct {
	ID      uint   `json:"id,omitempty"`
	SteamID string `json:"steam_id,omitempty"`
	Country string `json:"country,omitempty"`
	Name    string `json:"name"`
}

func NewAuthorView(a *models.Author) *AuthorView {
	view := &AuthorView{Name: a.Name}
	if a.Player != nil {
		view.ID = a.Player.ID
		view.SteamID = a.Player.SteamID
		view.Country = a.Player.Country
	}
	return view
}

// SplitView reports a checkpoint crossing relative to the run's start time.
type SplitView struct {
	ID      uint    `json:"id"`
	CPIndex int     `json:"cp_index"`
	Time    float64 `json:"time"`
}

// RunView is the public JSON shape of a run, used in leaderboards, record
// snapshots and submission outcomes.
type RunView struct {
	ID          uint         `json:"id"`
	MapID       uint         `json:"map_id"`
	Player      *PlayerView  `json:"player"`
	Class       models.Class `json:"class"`
	Time        float64      `json:"time"`
	Rank        *int         `json:"rank"`
	Checkpoints []SplitView  `json:"checkpoints"`
}

// GetRunView assembles the full view of a run: owning player plus splits,
// with split times converted from absolute stamps to offsets into the run.
func GetRunView(db *gorm.DB, run *models.Run) (*RunView, error) {
	view := &RunView{
		ID:          run.ID,
		MapID:       run.MapID,
		Class:       run.Class,
		Time:        run.EndTime - run.StartTime,
		Rank:        run.Rank,
		Checkpoints: make([]SplitView, 0),
	}

	player, err := GetPlayerByID(db, run.PlayerID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if player != nil {
		view.Player = NewPlayerView(player)
	}

	splits, err := GetSplitsByRunID(db, run.ID)
	if err != nil {
		return nil, err
	}
	for _, split := range splits {
		view.Checkpoints = append(view.Checkpoints, SplitView{
			ID:      split.CheckpointID,
			CPIndex: split.Checkpoint.CPIndex,
			Time:    split.Time - run.StartTime,
		})
	}

	return view, nil
}

// RecordSet is the per-class world record snapshot for a map. A nil entry
// means no run exists for that class yet.
type RecordSet struct {
	Soldier *RunView `json:"soldier"`
	Demoman *RunView `json:"demoman"`
}

// Get returns the record view for a class.
func (r *RecordSet) Get(class models.Class) *RunView {
	if class == models.ClassDemoman {
		return r.Demoman
	}
	return r.Soldier
}

// WithRecord returns a copy of the set with one class's record swapped out,
// used to diff a new world record against the pre-mutation snapshot.
func (r *RecordSet) WithRecord(class models.Class, view *RunView) *RecordSet {
	diffed := *r
	if class == models.ClassDemoman {
		diffed.Demoman = view
	} else {
		diffed.Soldier = view
	}
	return &diffed
}

// GetWorldRecords fetches the fastest run per class on a map. It is a pure
// read: the submission engine calls it before mutating anything so the
// response can show the record that was being chased.
func GetWorldRecords(db *gorm.DB, mapID uint) (*RecordSet, error) {
	records := &RecordSet{}
	for _, class := range models.Classes() {
		var run models.Run
		err := db.Where("map_id = ? AND class = ?", mapID, class).
			Order("duration asc, id asc").
			First(&run).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		view, err := GetRunView(db, &run)
		if err != nil {
			return nil, err
		}
		if class == models.ClassDemoman {
			records.Demoman = view
		} else {
			records.Soldier = view
		}
	}
	return records, nil
}

// MapView is the public JSON shape of a map.
type MapView struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Tiers       map[string]int `json:"tiers"`
	Completions map[string]int `json:"completions"`
}

func NewMapView(m *models.Map) *MapView {
	return &MapView{
		ID:   m.ID,
		Name: m.Name,
		Tiers: map[string]int{
			models.ClassSoldier.Key(): m.STier,
			models.ClassDemoman.Key(): m.DTier,
		},
		Completions: map[string]int{
			models.ClassSoldier.Key(): m.SCompletions,
			models.ClassDemoman.Key(): m.DCompletions,
		},
	}
}
