package timer

import (
	"github.com/strafehub/jumptimer/internal/database"
	"github.com/strafehub/jumptimer/internal/database/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// recomputeLeaderboard re-ranks and re-scores every run on one (map, class)
// leaderboard and returns the participant count. Ranks are 1-based positions
// in (duration asc, id asc) order; points come from the injected points
// function fed with the fastest duration and the field size. The write is a
// single transaction, followed by the global player aggregate recompute.
//
// Callers must hold the leaderboard lock for the key.
func (e *Engine) recomputeLeaderboard(mapID uint, class models.Class) (int, error) {
	runs, err := database.GetLeaderboardRuns(e.db, mapID, class)
	if err != nil {
		return 0, err
	}
	if len(runs) == 0 {
		// Cannot happen through Submit, which never leaves a leaderboard
		// empty, but an admin recompute over a bare map lands here.
		return 0, nil
	}

	fastest := runs[0].Duration
	count := len(runs)

	err = e.db.Transaction(func(tx *gorm.DB) error {
		for i := range runs {
			rank := i + 1
			points := e.points(fastest, runs[i].Duration, count)
			err := tx.Model(&models.Run{}).
				Where("id = ?", runs[i].ID).
				Updates(map[string]interface{}{"rank": rank, "points": points}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := e.RecomputeAllPlayers(); err != nil {
		return 0, err
	}

	return count, nil
}

// RecomputeMap rebuilds both class leaderboards of a map and the completions
// counters, then returns the per-class counts. This is the admin repair
// entry point; normal submissions recompute only the affected class.
func (e *Engine) RecomputeMap(mapID uint) (*Completions, error) {
	completions := &Completions{}
	for _, class := range models.Classes() {
		unlock := e.lockLeaderboard(mapID, class)
		count, err := e.recomputeLeaderboard(mapID, class)
		if err != nil {
			unlock()
			return nil, err
		}
		if err := database.UpdateMapCompletions(e.db, mapID, class, count); err != nil {
			unlock()
			return nil, err
		}
		unlock()

		if class == models.ClassDemoman {
			completions.Demoman = count
		} else {
			completions.Soldier = count
		}
	}
	zap.S().Infof("recomputed map %d: %d soldier, %d demoman runs", mapID, completions.Soldier, completions.Demoman)
	return completions, nil
}
