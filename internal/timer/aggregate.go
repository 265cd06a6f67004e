package timer

import (
	"github.com/strafehub/jumptimer/internal/database"
	"github.com/strafehub/jumptimer/internal/database/models"
	"gorm.io/gorm"
)

// RecomputeAllPlayers rebuilds the global standings for every class from
// scratch: all per-class points and ranks are reset to zero, then each
// player's run points are summed across all maps, players with a positive
// sum are ordered best-first and given dense ranks 1..N. Resetting first
// means a player whose last run in a class was replaced away drops to
// unranked immediately instead of keeping a stale total, and makes the whole
// operation idempotent.
//
// The recompute is global and serialized against itself; it runs after every
// leaderboard recompute rather than patching standings incrementally.
func (e *Engine) RecomputeAllPlayers() error {
	e.aggMu.Lock()
	defer e.aggMu.Unlock()

	return e.db.Transaction(func(tx *gorm.DB) error {
		for _, class := range models.Classes() {
			err := tx.Model(&models.Player{}).
				Where("1 = 1").
				Updates(map[string]interface{}{
					class.PointsColumn(): 0,
					class.RankColumn():   0,
				}).Error
			if err != nil {
				return err
			}

			rows, err := database.SumPointsByPlayer(tx, class)
			if err != nil {
				return err
			}
			for i, row := range rows {
				err := tx.Model(&models.Player{}).
					Where("id = ?", row.PlayerID).
					Updates(map[string]interface{}{
						class.PointsColumn(): row.Points,
						class.RankColumn():   i + 1,
					}).Error
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}
