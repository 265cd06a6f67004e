package timer_test

import (
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/strafehub/jumptimer/internal/database"
	"github.com/strafehub/jumptimer/internal/database/models"
	"github.com/strafehub/jumptimer/internal/timer"

	. "github.com/smartystreets/goconvey/convey"
	"gorm.io/gorm"
)

// testPoints scores runs purely by the record-to-duration ratio so a run's
// points shrink when someone takes the record, independent of field size.
func testPoints(fastest, duration float64, completions int) int {
	if duration <= 0 {
		return 0
	}
	return int(math.Round(fastest / duration * 100))
}

func newTestEngine(t *testing.T) (*timer.Engine, *gorm.DB) {
	t.Helper()
	db, err := database.Init(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	return timer.NewEngine(db, testPoints, nil), db
}

func seedMap(t *testing.T, db *gorm.DB, name string) *models.Map {
	t.Helper()
	m := &models.Map{Name: name}
	if err := database.CreateMap(db, m); err != nil {
		t.Fatalf("failed to seed map: %v", err)
	}
	return m
}

func seedPlayer(t *testing.T, db *gorm.DB, steamID, name string) *models.Player {
	t.Helper()
	p := &models.Player{SteamID: steamID, Username: name, Country: "FI"}
	if err := database.CreatePlayer(db, p); err != nil {
		t.Fatalf("failed to seed player: %v", err)
	}
	return p
}

func seedCheckpoint(t *testing.T, db *gorm.DB, mapID uint, cpIndex int) *models.Checkpoint {
	t.Helper()
	zone := &models.Zone{X1: 0, Y1: 0, Z1: 0, X2: 64, Y2: 64, Z2: 64}
	if err := database.CreateZone(db, zone); err != nil {
		t.Fatalf("failed to seed zone: %v", err)
	}
	cp := &models.Checkpoint{MapID: mapID, ZoneID: zone.ID, CPIndex: cpIndex}
	if err := database.CreateCheckpoint(db, cp); err != nil {
		t.Fatalf("failed to seed checkpoint: %v", err)
	}
	return cp
}

func submit(e *timer.Engine, mapID, playerID uint, class models.Class, duration float64, splits ...timer.SplitTime) (*timer.Outcome, error) {
	return e.Submit(timer.SubmitRequest{
		MapID:     mapID,
		PlayerID:  playerID,
		Class:     class,
		StartTime: 100.0,
		EndTime:   100.0 + duration,
		Splits:    splits,
	})
}

func TestSubmitValidation(t *testing.T) {
	Convey("Given an engine with one map and one player", t, func() {
		e, db := newTestEngine(t)
		m := seedMap(t, db, "jump_apex")
		p := seedPlayer(t, db, "STEAM_0:1:11111", "mario")

		Convey("An unknown class is invalid input", func() {
			_, err := e.Submit(timer.SubmitRequest{MapID: m.ID, PlayerID: p.ID, Class: 3, StartTime: 0, EndTime: 1})
			So(errors.Is(err, timer.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("A negative duration is invalid input", func() {
			_, err := e.Submit(timer.SubmitRequest{MapID: m.ID, PlayerID: p.ID, Class: models.ClassSoldier, StartTime: 10, EndTime: 5})
			So(errors.Is(err, timer.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("An unknown map is not found", func() {
			_, err := submit(e, m.ID+999, p.ID, models.ClassSoldier, 10.0)
			So(errors.Is(err, timer.ErrNotFound), ShouldBeTrue)
		})

		Convey("An unknown player is not found and nothing is written", func() {
			_, err := submit(e, m.ID, p.ID+999, models.ClassSoldier, 10.0)
			So(errors.Is(err, timer.ErrNotFound), ShouldBeTrue)

			count, err := database.CountRuns(db, m.ID, models.ClassSoldier)
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 0)
		})
	})
}

func TestSubmitStateMachine(t *testing.T) {
	Convey("Given an empty soldier leaderboard", t, func() {
		e, db := newTestEngine(t)
		m := seedMap(t, db, "jump_apex")
		p1 := seedPlayer(t, db, "STEAM_0:1:11111", "mario")
		p2 := seedPlayer(t, db, "STEAM_0:1:22222", "luigi")

		Convey("The first submission is added at rank 1", func() {
			outcome, err := submit(e, m.ID, p1.ID, models.ClassSoldier, 10.0)
			So(err, ShouldBeNil)
			So(outcome.Result, ShouldEqual, timer.ResultAdded)
			So(outcome.Rank, ShouldEqual, 1)
			So(outcome.Points, ShouldNotBeNil)
			So(*outcome.Points, ShouldEqual, 100)
			So(outcome.Completions.Soldier, ShouldEqual, 1)
			So(outcome.Completions.Demoman, ShouldEqual, 0)
			So(outcome.Records.Soldier, ShouldBeNil)

			Convey("A faster second player takes rank 1 and demotes the first", func() {
				outcome2, err := submit(e, m.ID, p2.ID, models.ClassSoldier, 8.0)
				So(err, ShouldBeNil)
				So(outcome2.Result, ShouldEqual, timer.ResultAdded)
				So(outcome2.Rank, ShouldEqual, 1)
				So(outcome2.Completions.Soldier, ShouldEqual, 2)
				// The record being chased was P1's 10.0.
				So(outcome2.Records.Soldier, ShouldNotBeNil)
				So(outcome2.Records.Soldier.Time, ShouldAlmostEqual, 10.0, 1e-9)

				run1, err := database.GetPersonalBest(db, m.ID, p1.ID, models.ClassSoldier)
				So(err, ShouldBeNil)
				So(*run1.Rank, ShouldEqual, 2)
				So(*run1.Points, ShouldEqual, 80) // down from 100

				Convey("A slower resubmission is rejected without any mutation", func() {
					outcome3, err := submit(e, m.ID, p1.ID, models.ClassSoldier, 12.0)
					So(err, ShouldBeNil)
					So(outcome3.Result, ShouldEqual, timer.ResultRejected)
					So(outcome3.OldTime, ShouldAlmostEqual, 10.0, 1e-9)
					So(outcome3.Completions, ShouldBeNil)

					count, err := database.CountRuns(db, m.ID, models.ClassSoldier)
					So(err, ShouldBeNil)
					So(count, ShouldEqual, 2)

					unchanged, err := database.GetPersonalBest(db, m.ID, p1.ID, models.ClassSoldier)
					So(err, ShouldBeNil)
					So(unchanged.ID, ShouldEqual, run1.ID)
					So(*unchanged.Rank, ShouldEqual, 2)
				})

				Convey("A faster resubmission replaces the run and takes the record", func() {
					outcome4, err := submit(e, m.ID, p1.ID, models.ClassSoldier, 5.0)
					So(err, ShouldBeNil)
					So(outcome4.Result, ShouldEqual, timer.ResultUpdated)
					So(outcome4.Rank, ShouldEqual, 1)
					So(outcome4.Improvement, ShouldAlmostEqual, 5.0, 1e-9)
					So(outcome4.PointsGained, ShouldNotBeNil)
					So(*outcome4.PointsGained, ShouldEqual, 100-80)

					// Diffed snapshot shows the new run, old snapshot the 8.0.
					So(outcome4.Records.Soldier, ShouldNotBeNil)
					So(outcome4.Records.Soldier.Time, ShouldAlmostEqual, 5.0, 1e-9)
					So(outcome4.OldRecords, ShouldNotBeNil)
					So(outcome4.OldRecords.Soldier.Time, ShouldAlmostEqual, 8.0, 1e-9)

					// Still exactly one run per (map, player, class).
					count, err := database.CountRuns(db, m.ID, models.ClassSoldier)
					So(err, ShouldBeNil)
					So(count, ShouldEqual, 2)
					best, err := database.GetPersonalBest(db, m.ID, p1.ID, models.ClassSoldier)
					So(err, ShouldBeNil)
					So(best.ID, ShouldNotEqual, run1.ID)
					So(best.Duration, ShouldAlmostEqual, 5.0, 1e-9)
				})

				Convey("An improvement that stays off the record reports the unchanged snapshot", func() {
					outcome5, err := submit(e, m.ID, p1.ID, models.ClassSoldier, 9.0)
					So(err, ShouldBeNil)
					So(outcome5.Result, ShouldEqual, timer.ResultUpdated)
					So(outcome5.Rank, ShouldEqual, 2)
					So(outcome5.OldRecords, ShouldBeNil)
					So(outcome5.Records.Soldier.Time, ShouldAlmostEqual, 8.0, 1e-9)
				})
			})
		})

		Convey("An added run scoring zero still reports its points", func() {
			// Duration 0 makes the scorer return 0.
			outcome, err := submit(e, m.ID, p1.ID, models.ClassSoldier, 0.0)
			So(err, ShouldBeNil)
			So(outcome.Result, ShouldEqual, timer.ResultAdded)
			So(outcome.Points, ShouldNotBeNil)
			So(*outcome.Points, ShouldEqual, 0)

			payload, err := json.Marshal(outcome)
			So(err, ShouldBeNil)
			So(string(payload), ShouldContainSubstring, `"points":0`)
		})

		Convey("Classes are tracked independently", func() {
			_, err := submit(e, m.ID, p1.ID, models.ClassSoldier, 10.0)
			So(err, ShouldBeNil)
			outcome, err := submit(e, m.ID, p1.ID, models.ClassDemoman, 20.0)
			So(err, ShouldBeNil)
			So(outcome.Result, ShouldEqual, timer.ResultAdded)
			So(outcome.Rank, ShouldEqual, 1)
			So(outcome.Completions.Soldier, ShouldEqual, 1)
			So(outcome.Completions.Demoman, ShouldEqual, 1)
		})
	})
}

func TestSplitLifecycle(t *testing.T) {
	Convey("Given a map with two checkpoints", t, func() {
		e, db := newTestEngine(t)
		m := seedMap(t, db, "jump_verge")
		p := seedPlayer(t, db, "STEAM_0:1:33333", "peach")
		seedCheckpoint(t, db, m.ID, 1)
		seedCheckpoint(t, db, m.ID, 2)

		Convey("Splits are stored with the run and reported relative to its start", func() {
			outcome, err := submit(e, m.ID, p.ID, models.ClassSoldier, 10.0,
				timer.SplitTime{CPIndex: 1, Time: 103.0},
				timer.SplitTime{CPIndex: 2, Time: 107.5},
			)
			So(err, ShouldBeNil)
			So(outcome.Result, ShouldEqual, timer.ResultAdded)

			run, err := database.GetPersonalBest(db, m.ID, p.ID, models.ClassSoldier)
			So(err, ShouldBeNil)
			view, err := database.GetRunView(db, run)
			So(err, ShouldBeNil)
			So(len(view.Checkpoints), ShouldEqual, 2)
			So(view.Checkpoints[0].Time, ShouldAlmostEqual, 3.0, 1e-9)
			So(view.Checkpoints[1].Time, ShouldAlmostEqual, 7.5, 1e-9)
		})

		Convey("Split indices with no checkpoint definition are dropped silently", func() {
			_, err := submit(e, m.ID, p.ID, models.ClassSoldier, 10.0,
				timer.SplitTime{CPIndex: 1, Time: 103.0},
				timer.SplitTime{CPIndex: 99, Time: 104.0},
			)
			So(err, ShouldBeNil)

			run, err := database.GetPersonalBest(db, m.ID, p.ID, models.ClassSoldier)
			So(err, ShouldBeNil)
			splits, err := database.GetSplitsByRunID(db, run.ID)
			So(err, ShouldBeNil)
			So(len(splits), ShouldEqual, 1)
		})

		Convey("Replacing a run leaves no orphaned splits behind", func() {
			_, err := submit(e, m.ID, p.ID, models.ClassSoldier, 10.0,
				timer.SplitTime{CPIndex: 1, Time: 103.0},
				timer.SplitTime{CPIndex: 2, Time: 107.5},
			)
			So(err, ShouldBeNil)
			old, err := database.GetPersonalBest(db, m.ID, p.ID, models.ClassSoldier)
			So(err, ShouldBeNil)

			_, err = submit(e, m.ID, p.ID, models.ClassSoldier, 8.0,
				timer.SplitTime{CPIndex: 1, Time: 102.5},
			)
			So(err, ShouldBeNil)

			orphans, err := database.GetSplitsByRunID(db, old.ID)
			So(err, ShouldBeNil)
			So(len(orphans), ShouldEqual, 0)

			fresh, err := database.GetPersonalBest(db, m.ID, p.ID, models.ClassSoldier)
			So(err, ShouldBeNil)
			splits, err := database.GetSplitsByRunID(db, fresh.ID)
			So(err, ShouldBeNil)
			So(len(splits), ShouldEqual, 1)
		})
	})
}

func TestLeaderboardRecompute(t *testing.T) {
	Convey("Given a leaderboard with several runs", t, func() {
		e, db := newTestEngine(t)
		m := seedMap(t, db, "jump_cascade")
		durations := []float64{14.0, 9.5, 11.0, 9.5, 20.0}
		for i, d := range durations {
			p := seedPlayer(t, db, "STEAM_0:1:4000"+string(rune('0'+i)), "runner")
			_, err := submit(e, m.ID, p.ID, models.ClassSoldier, d)
			So(err, ShouldBeNil)
		}

		Convey("Ranks are a contiguous 1..N, non-decreasing in duration", func() {
			runs, err := database.GetLeaderboardRuns(db, m.ID, models.ClassSoldier)
			So(err, ShouldBeNil)
			So(len(runs), ShouldEqual, len(durations))
			for i, run := range runs {
				So(*run.Rank, ShouldEqual, i+1)
				if i > 0 {
					So(run.Duration, ShouldBeGreaterThanOrEqualTo, runs[i-1].Duration)
				}
			}
		})

		Convey("Equal durations keep insertion order as the tie-break", func() {
			runs, err := database.GetLeaderboardRuns(db, m.ID, models.ClassSoldier)
			So(err, ShouldBeNil)
			So(runs[0].Duration, ShouldAlmostEqual, 9.5, 1e-9)
			So(runs[1].Duration, ShouldAlmostEqual, 9.5, 1e-9)
			So(runs[0].ID, ShouldBeLessThan, runs[1].ID)
		})

		Convey("Recomputing twice without submissions changes nothing", func() {
			before, err := database.GetLeaderboardRuns(db, m.ID, models.ClassSoldier)
			So(err, ShouldBeNil)

			_, err = e.RecomputeMap(m.ID)
			So(err, ShouldBeNil)
			_, err = e.RecomputeMap(m.ID)
			So(err, ShouldBeNil)

			after, err := database.GetLeaderboardRuns(db, m.ID, models.ClassSoldier)
			So(err, ShouldBeNil)
			for i := range before {
				So(after[i].ID, ShouldEqual, before[i].ID)
				So(*after[i].Rank, ShouldEqual, *before[i].Rank)
				So(*after[i].Points, ShouldEqual, *before[i].Points)
			}
		})

		Convey("The map's completion counters match the run count", func() {
			fresh, err := database.GetMapByID(db, m.ID)
			So(err, ShouldBeNil)
			So(fresh.SCompletions, ShouldEqual, len(durations))
			So(fresh.DCompletions, ShouldEqual, 0)
		})

		Convey("Recomputing an empty leaderboard writes nothing and reports zero", func() {
			empty := seedMap(t, db, "jump_void")
			completions, err := e.RecomputeMap(empty.ID)
			So(err, ShouldBeNil)
			So(completions.Soldier, ShouldEqual, 0)
			So(completions.Demoman, ShouldEqual, 0)
		})
	})
}
