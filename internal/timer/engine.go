package timer

import (
	"errors"
	"sync"

	"github.com/strafehub/jumptimer/internal/database"
	"github.com/strafehub/jumptimer/internal/database/models"
	"github.com/strafehub/jumptimer/internal/pubsub"
	"gorm.io/gorm"
)

var (
	// ErrInvalidInput rejects a submission before any read: negative
	// duration or a class the service does not track.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound means the referenced map or player does not exist; nothing
	// was mutated.
	ErrNotFound = errors.New("not found")
)

type lbKey struct {
	mapID uint
	class models.Class
}

// Engine owns all mutation of runs, splits and player standings. Submissions
// to the same (map, class) leaderboard are serialized through a per-key
// mutex; the recompute reads the whole leaderboard and writes every rank
// back, so two interleaved recomputes over the same key would overwrite each
// other's rows with stale values. Unrelated leaderboards proceed in parallel.
type Engine struct {
	db     *gorm.DB
	points PointsFunc
	broker *pubsub.Broker

	mu    sync.Mutex
	locks map[lbKey]*sync.Mutex

	// aggMu serializes the global player aggregate recompute, which is a
	// full-table scan and bulk overwrite.
	aggMu sync.Mutex
}

// NewEngine creates an engine on top of an initialized database. points may
// be nil, in which case DefaultPoints is used. broker may be nil to disable
// world-record announcements.
func NewEngine(db *gorm.DB, points PointsFunc, broker *pubsub.Broker) *Engine {
	if points == nil {
		points = DefaultPoints
	}
	return &Engine{
		db:     db,
		points: points,
		broker: broker,
		locks:  make(map[lbKey]*sync.Mutex),
	}
}

// lockLeaderboard takes the mutex for one (map, class) pair, creating it on
// first use, and returns the unlock.
func (e *Engine) lockLeaderboard(mapID uint, class models.Class) func() {
	e.mu.Lock()
	key := lbKey{mapID: mapID, class: class}
	lock, ok := e.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[key] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// deleteRun removes a run in two separately committed steps: splits first,
// then the run row. A crash between the two leaves a run with no splits,
// which is harmless and cleaned up by retrying; the reverse order would leave
// splits pointing at a dead run, which the foreign key forbids.
func (e *Engine) deleteRun(runID uint) error {
	if err := database.DeleteSplitsByRunID(e.db, runID); err != nil {
		return err
	}
	return database.DeleteRunByID(e.db, runID)
}
