package timer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/strafehub/jumptimer/internal/database"
	"github.com/strafehub/jumptimer/internal/database/models"
	"github.com/strafehub/jumptimer/internal/pubsub"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Result tells the caller which branch of the submission state machine ran.
type Result string

const (
	ResultAdded    Result = "added"
	ResultUpdated  Result = "updated"
	ResultRejected Result = "rejected"
)

// SplitTime is one reported checkpoint crossing, referenced by the
// checkpoint index defined for the map. Indices with no matching checkpoint
// definition are dropped silently.
type SplitTime struct {
	CPIndex int     `json:"cp_index"`
	Time    float64 `json:"time"`
}

// SubmitRequest is a candidate run.
type SubmitRequest struct {
	MapID     uint
	PlayerID  uint
	Class     models.Class
	StartTime float64
	EndTime   float64
	Splits    []SplitTime
}

// Completions is the map's denormalized run count per class after the
// submission settled.
type Completions struct {
	Soldier int `json:"soldier"`
	Demoman int `json:"demoman"`
}

// Outcome is the result of a submission. Records always holds the
// pre-mutation world records ("the record you were chasing"); OldRecords is
// only set when the submission itself took a world record, in which case
// Records is the snapshot diffed with the new run. Points is present on every
// Added outcome, zero scores included, which is why it is a pointer rather
// than an omitempty int.
type Outcome struct {
	Result       Result              `json:"result"`
	Rank         int                 `json:"rank,omitempty"`
	Points       *int                `json:"points,omitempty"`
	PointsGained *int                `json:"points_gained,omitempty"`
	Improvement  float64             `json:"improvement,omitempty"`
	OldTime      float64             `json:"old_time,omitempty"`
	Duration     float64             `json:"duration"`
	Completions  *Completions        `json:"completions,omitempty"`
	Records      *database.RecordSet `json:"records"`
	OldRecords   *database.RecordSet `json:"old_records,omitempty"`
}

// Submit runs the accept/replace/reject state machine for a candidate run.
//
// A player with no run on the (map, class) leaderboard gets an ADD. An
// existing slower run gets replaced: the new run and its splits are
// persisted, then the old run is removed split-rows-first. A submission that
// does not beat the stored time is rejected without touching anything. Both
// mutating branches re-rank the whole leaderboard, since a changed fastest
// duration or participant count moves every other run's points too.
func (e *Engine) Submit(req SubmitRequest) (*Outcome, error) {
	if !req.Class.Valid() {
		return nil, fmt.Errorf("%w: unknown class %d", ErrInvalidInput, req.Class)
	}
	if req.EndTime < req.StartTime {
		return nil, fmt.Errorf("%w: end time precedes start time", ErrInvalidInput)
	}

	if _, err := database.GetMapByID(e.db, req.MapID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: map %d", ErrNotFound, req.MapID)
		}
		return nil, err
	}
	if _, err := database.GetPlayerByID(e.db, req.PlayerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: player %d", ErrNotFound, req.PlayerID)
		}
		return nil, err
	}

	unlock := e.lockLeaderboard(req.MapID, req.Class)
	defer unlock()

	// Snapshot the world records before any mutation.
	records, err := database.GetWorldRecords(e.db, req.MapID)
	if err != nil {
		return nil, err
	}

	duration := req.EndTime - req.StartTime

	existing, err := database.GetPersonalBest(e.db, req.MapID, req.PlayerID, req.Class)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if existing != nil && duration >= existing.Duration {
		// REJECT: the candidate run and its splits are discarded entirely.
		return &Outcome{
			Result:   ResultRejected,
			Duration: duration,
			OldTime:  existing.Duration,
			Records:  records,
		}, nil
	}

	run := &models.Run{
		MapID:     req.MapID,
		PlayerID:  req.PlayerID,
		Class:     req.Class,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Duration:  duration,
	}
	err = e.db.Transaction(func(tx *gorm.DB) error {
		if err := database.CreateRun(tx, run); err != nil {
			return err
		}
		for _, split := range req.Splits {
			cp, err := database.GetCheckpointByIndex(tx, req.MapID, split.CPIndex)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			s := models.Split{CheckpointID: cp.ID, RunID: run.ID, Time: split.Time}
			if err := database.CreateSplit(tx, &s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	oldPoints := 0
	if existing != nil {
		if existing.Points != nil {
			oldPoints = *existing.Points
		}
		if err := e.deleteRun(existing.ID); err != nil {
			return nil, err
		}
	}

	count, err := e.recomputeLeaderboard(req.MapID, req.Class)
	if err != nil {
		return nil, err
	}

	completions, err := e.refreshCompletions(req.MapID, req.Class, count)
	if err != nil {
		return nil, err
	}

	// Reload for the rank and points the recompute assigned.
	fresh, err := database.GetRunByID(e.db, run.ID)
	if err != nil {
		return nil, err
	}
	rank, points := 0, 0
	if fresh.Rank != nil {
		rank = *fresh.Rank
	}
	if fresh.Points != nil {
		points = *fresh.Points
	}

	if existing == nil {
		if rank == 1 {
			e.announceRecord(fresh)
		}
		return &Outcome{
			Result:      ResultAdded,
			Rank:        rank,
			Points:      &points,
			Duration:    duration,
			Completions: completions,
			Records:     records,
		}, nil
	}

	gained := points - oldPoints
	outcome := &Outcome{
		Result:       ResultUpdated,
		Rank:         rank,
		PointsGained: &gained,
		Improvement:  existing.Duration - duration,
		Duration:     duration,
		Completions:  completions,
		Records:      records,
	}
	if rank == 1 {
		// New world record: diff the snapshot with the run's own view and
		// keep the original snapshot alongside.
		view, err := database.GetRunView(e.db, fresh)
		if err != nil {
			return nil, err
		}
		outcome.Records = records.WithRecord(req.Class, view)
		outcome.OldRecords = records
		e.announceRecord(fresh)
	}
	return outcome, nil
}

// refreshCompletions writes the recomputed count for the affected class and
// re-counts the other class so the pair on the map row always matches the
// runs table.
func (e *Engine) refreshCompletions(mapID uint, class models.Class, count int) (*Completions, error) {
	if err := database.UpdateMapCompletions(e.db, mapID, class, count); err != nil {
		return nil, err
	}

	completions := &Completions{}
	for _, c := range models.Classes() {
		n := int64(count)
		if c != class {
			var err error
			n, err = database.CountRuns(e.db, mapID, c)
			if err != nil {
				return nil, err
			}
			if err := database.UpdateMapCompletions(e.db, mapID, c, int(n)); err != nil {
				return nil, err
			}
		}
		if c == models.ClassDemoman {
			completions.Demoman = int(n)
		} else {
			completions.Soldier = int(n)
		}
	}
	return completions, nil
}

// RecordMessage is the payload published on the records pubsub topic when a
// run takes a world record.
type RecordMessage struct {
	MapID  uint              `json:"map_id"`
	Class  models.Class      `json:"class"`
	Record *database.RunView `json:"record"`
}

func (e *Engine) announceRecord(run *models.Run) {
	if e.broker == nil {
		return
	}
	view, err := database.GetRunView(e.db, run)
	if err != nil {
		zap.S().Warnf("failed to build record view for announcement: %v", err)
		return
	}
	payload, err := json.Marshal(RecordMessage{MapID: run.MapID, Class: run.Class, Record: view})
	if err != nil {
		zap.S().Warnf("failed to marshal record announcement: %v", err)
		return
	}
	e.broker.Publish(pubsub.TopicRecords, payload)
	e.broker.Publish(pubsub.MapTopic(run.MapID), payload)
}
