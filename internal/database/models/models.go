package models

import (
	"time"
)

// Class is the player class a run was set with. The numeric values match the
// TF2 class enumeration game servers use on the wire.
type Class int

const (
	ClassSoldier Class = 2
	ClassDemoman Class = 4
)

// Classes lists every class the service tracks leaderboards for.
func Classes() []Class {
	return []Class{ClassSoldier, ClassDemoman}
}

func (c Class) Valid() bool {
	return c == ClassSoldier || c == ClassDemoman
}

// Key returns the JSON key used for per-class payloads ("soldier", "demoman").
func (c Class) Key() string {
	switch c {
	case ClassSoldier:
		return "soldier"
	case ClassDemoman:
		return "demoman"
	default:
		return "unknown"
	}
}

// PointsColumn names the denormalized per-class points column on the players
// table.
func (c Class) PointsColumn() string {
	if c == ClassDemoman {
		return "d_points"
	}
	return "s_points"
}

// RankColumn names the denormalized per-class rank column on the players
// table.
func (c Class) RankColumn() string {
	if c == ClassDemoman {
		return "d_rank"
	}
	return "s_rank"
}

// Zone is an axis-aligned box in map coordinates. Start, end and checkpoint
// zones all reference this table.
type Zone struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	X1          int  `gorm:"not null" json:"-"`
	Y1          int  `gorm:"not null" json:"-"`
	Z1          int  `gorm:"not null" json:"-"`
	X2          int  `gorm:"not null" json:"-"`
	Y2          int  `gorm:"not null" json:"-"`
	Z2          int  `gorm:"not null" json:"-"`
	Orientation int  `gorm:"default:0" json:"orientation"`
}

type Map struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name  string `gorm:"uniqueIndex;size:128;not null" json:"name"`
	STier int    `gorm:"default:0;not null" json:"-"`
	DTier int    `gorm:"default:0;not null" json:"-"`

	// Denormalized run counts per class, kept in step with the runs table by
	// the leaderboard recompute.
	SCompletions int `gorm:"default:0;not null" json:"-"`
	DCompletions int `gorm:"default:0;not null" json:"-"`

	StartZoneID *uint `json:"-"`
	EndZoneID   *uint `json:"-"`
	StartZone   *Zone `gorm:"foreignKey:StartZoneID" json:"-"`
	EndZone     *Zone `gorm:"foreignKey:EndZoneID" json:"-"`
}

// Course is a numbered sub-section of a map with its own timed route.
type Course struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	MapID        uint `gorm:"index;not null" json:"map_id"`
	CourseIndex  int  `gorm:"not null" json:"course_index"`
	STier        int  `gorm:"default:0;not null" json:"soldier_tier"`
	DTier        int  `gorm:"default:0;not null" json:"demoman_tier"`
	SCompletions int  `gorm:"default:0;not null" json:"soldier_completions"`
	DCompletions int  `gorm:"default:0;not null" json:"demoman_completions"`
	StartZoneID  *uint `json:"-"`
	EndZoneID    *uint `json:"-"`
}

// Bonus is a short optional route on a map, tracked like a course.
type Bonus struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	MapID        uint `gorm:"index;not null" json:"map_id"`
	BonusIndex   int  `gorm:"not null" json:"bonus_index"`
	STier        int  `gorm:"default:0;not null" json:"soldier_tier"`
	DTier        int  `gorm:"default:0;not null" json:"demoman_tier"`
	SCompletions int  `gorm:"default:0;not null" json:"soldier_completions"`
	DCompletions int  `gorm:"default:0;not null" json:"demoman_completions"`
	StartZoneID  *uint `json:"-"`
	EndZoneID    *uint `json:"-"`
}

// Author credits a map to a player. The name stands on its own so maps can
// credit mappers who never registered; PlayerID links the credit to a profile
// when one exists.
type Author struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	MapID    uint    `gorm:"index;not null" json:"map_id"`
	PlayerID *uint   `json:"player_id,omitempty"`
	Player   *Player `gorm:"foreignKey:PlayerID" json:"-"`
	Name     string  `gorm:"size:32;not null" json:"name"`
}

// Checkpoint is an intermediate timing zone on a map. CPIndex is the index
// game servers reference when reporting split times.
type Checkpoint struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	MapID   uint `gorm:"index;not null" json:"map_id"`
	ZoneID  uint `gorm:"not null" json:"-"`
	Zone    Zone `gorm:"foreignKey:ZoneID" json:"zone"`
	CPIndex int  `gorm:"not null" json:"cp_index"`
}

type Player struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time

	SteamID  string `gorm:"uniqueIndex;size:20;not null" json:"steam_id"`
	Username string `gorm:"size:32;not null" json:"name"`
	Country  string `gorm:"size:2;not null" json:"country"`

	// Aggregate standings, overwritten wholesale by the player aggregate
	// recompute. Rank 0 means unranked (no positive points in that class).
	SPoints int `gorm:"default:0;not null" json:"-"`
	DPoints int `gorm:"default:0;not null" json:"-"`
	SRank   int `gorm:"default:0;not null" json:"-"`
	DRank   int `gorm:"default:0;not null" json:"-"`
}

// Points reads the denormalized aggregate points for a class.
func (p *Player) Points(c Class) int {
	if c == ClassDemoman {
		return p.DPoints
	}
	return p.SPoints
}

// Rank reads the denormalized aggregate rank for a class.
func (p *Player) Rank(c Class) int {
	if c == ClassDemoman {
		return p.DRank
	}
	return p.SRank
}

// Run is a player's current personal best on a (map, class) leaderboard.
// At most one row exists per (map, player, class); a faster submission
// replaces the row rather than updating it, so every best-time event keeps
// its own id. Rank and Points are nil until the first recompute and are the
// only fields ever mutated in place.
type Run struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time

	MapID    uint   `gorm:"index;not null" json:"map_id"`
	PlayerID uint   `gorm:"index;not null" json:"-"`
	Player   Player `gorm:"foreignKey:PlayerID" json:"-"`

	Class     Class   `gorm:"index;not null" json:"class"`
	StartTime float64 `gorm:"not null" json:"-"`
	EndTime   float64 `gorm:"not null" json:"-"`
	// Duration duplicates EndTime-StartTime as the leaderboard sort key.
	Duration float64 `gorm:"index;not null" json:"duration"`

	Rank   *int `json:"rank"`
	Points *int `json:"points"`
}

// Split records the absolute timestamp at which a run crossed a checkpoint.
// Splits live and die with their owning run and are never mutated. The
// foreign key to runs is why split rows must be gone before their run row is
// deleted.
type Split struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CheckpointID uint       `gorm:"not null" json:"checkpoint_id"`
	Checkpoint   Checkpoint `gorm:"foreignKey:CheckpointID" json:"-"`
	RunID        uint       `gorm:"index;not null" json:"run_id"`
	Run          Run        `gorm:"foreignKey:RunID" json:"-"`
	Time         float64    `gorm:"not null" json:"time"`
}

// User is an authenticated API client (admin or game server).
type User struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Username     string `gorm:"uniqueIndex;size:64;not null" json:"username"`
	PasswordHash string `gorm:"size:256;not null" json:"-"`
}

// RevokedToken blacklists a JWT by its jti claim. The auth middleware checks
// it on every authenticated request.
type RevokedToken struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	JTI       string `gorm:"uniqueIndex;size:120;not null"`
}
