package database_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/strafehub/jumptimer/internal/database"
	"github.com/strafehub/jumptimer/internal/database/models"

	. "github.com/smartystreets/goconvey/convey"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Init(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	return db
}

func TestUpsertPlayer(t *testing.T) {
	Convey("Given a registered player", t, func() {
		db := newTestDB(t)
		first := models.Player{SteamID: "STEAM_0:1:11111", Username: "mario", Country: "FI"}
		So(database.UpsertPlayer(db, &first), ShouldBeNil)

		Convey("Upserting the same steam id refreshes the profile in place", func() {
			again := models.Player{SteamID: "STEAM_0:1:11111", Username: "mario64", Country: "SE"}
			So(database.UpsertPlayer(db, &again), ShouldBeNil)

			stored, err := database.GetPlayerBySteamID(db, "STEAM_0:1:11111")
			So(err, ShouldBeNil)
			So(stored.ID, ShouldEqual, first.ID)
			So(stored.Username, ShouldEqual, "mario64")
			So(stored.Country, ShouldEqual, "SE")

			var count int64
			So(db.Model(&models.Player{}).Count(&count).Error, ShouldBeNil)
			So(count, ShouldEqual, 1)
		})

		Convey("Aggregate standings survive a profile upsert", func() {
			err := db.Model(&models.Player{}).Where("id = ?", first.ID).
				Updates(map[string]interface{}{"s_points": 120, "s_rank": 3}).Error
			So(err, ShouldBeNil)

			again := models.Player{SteamID: "STEAM_0:1:11111", Username: "mario64", Country: "SE"}
			So(database.UpsertPlayer(db, &again), ShouldBeNil)

			stored, err := database.GetPlayerBySteamID(db, "STEAM_0:1:11111")
			So(err, ShouldBeNil)
			So(stored.SPoints, ShouldEqual, 120)
			So(stored.SRank, ShouldEqual, 3)
		})
	})
}

func TestTokenRevocation(t *testing.T) {
	Convey("Given a fresh database", t, func() {
		db := newTestDB(t)

		Convey("Unknown jtis are not revoked", func() {
			revoked, err := database.IsTokenRevoked(db, "some-jti")
			So(err, ShouldBeNil)
			So(revoked, ShouldBeFalse)
		})

		Convey("A revoked jti stays revoked", func() {
			So(database.RevokeToken(db, "some-jti"), ShouldBeNil)
			revoked, err := database.IsTokenRevoked(db, "some-jti")
			So(err, ShouldBeNil)
			So(revoked, ShouldBeTrue)
		})
	})
}

func TestMapAuthors(t *testing.T) {
	Convey("Given a map credited to two mappers", t, func() {
		db := newTestDB(t)
		m := models.Map{Name: "jump_apex"}
		So(database.CreateMap(db, &m), ShouldBeNil)
		p := models.Player{SteamID: "STEAM_0:1:11111", Username: "mario", Country: "FI"}
		So(database.CreatePlayer(db, &p), ShouldBeNil)

		linked := models.Author{MapID: m.ID, PlayerID: &p.ID, Name: "Mario"}
		So(database.CreateAuthor(db, &linked), ShouldBeNil)
		unlinked := models.Author{MapID: m.ID, Name: "some_mapper"}
		So(database.CreateAuthor(db, &unlinked), ShouldBeNil)

		Convey("A linked credit carries the player profile, the name stays the credit's own", func() {
			authors, err := database.GetAuthorsByMapID(db, m.ID)
			So(err, ShouldBeNil)
			So(len(authors), ShouldEqual, 2)

			views := make(map[string]*database.AuthorView)
			for i := range authors {
				view := database.NewAuthorView(&authors[i])
				views[view.Name] = view
			}
			So(views["Mario"].SteamID, ShouldEqual, p.SteamID)
			So(views["Mario"].Country, ShouldEqual, "FI")
			So(views["some_mapper"].SteamID, ShouldBeEmpty)
		})

		Convey("Removing a credit leaves the player untouched", func() {
			So(database.DeleteAuthor(db, linked.ID), ShouldBeNil)
			authors, err := database.GetAuthorsByMapID(db, m.ID)
			So(err, ShouldBeNil)
			So(len(authors), ShouldEqual, 1)

			_, err = database.GetPlayerByID(db, p.ID)
			So(err, ShouldBeNil)
		})
	})
}

func TestDeleteMapCascade(t *testing.T) {
	Convey("Given a map with runs, splits, checkpoints, courses, bonuses and authors", t, func() {
		db := newTestDB(t)
		m := models.Map{Name: "jump_apex"}
		So(database.CreateMap(db, &m), ShouldBeNil)
		other := models.Map{Name: "jump_verge"}
		So(database.CreateMap(db, &other), ShouldBeNil)
		p := models.Player{SteamID: "STEAM_0:1:11111", Username: "mario", Country: "FI"}
		So(database.CreatePlayer(db, &p), ShouldBeNil)

		zone := models.Zone{X2: 64, Y2: 64, Z2: 64}
		So(database.CreateZone(db, &zone), ShouldBeNil)
		cp := models.Checkpoint{MapID: m.ID, ZoneID: zone.ID, CPIndex: 0}
		So(database.CreateCheckpoint(db, &cp), ShouldBeNil)

		run := models.Run{MapID: m.ID, PlayerID: p.ID, Class: models.ClassSoldier, StartTime: 0, EndTime: 10, Duration: 10}
		So(database.CreateRun(db, &run), ShouldBeNil)
		split := models.Split{CheckpointID: cp.ID, RunID: run.ID, Time: 4.5}
		So(database.CreateSplit(db, &split), ShouldBeNil)

		So(database.CreateCourse(db, &models.Course{MapID: m.ID, CourseIndex: 0}), ShouldBeNil)
		So(database.CreateBonus(db, &models.Bonus{MapID: m.ID, BonusIndex: 0}), ShouldBeNil)
		So(database.CreateAuthor(db, &models.Author{MapID: m.ID, Name: "some_mapper"}), ShouldBeNil)

		keeper := models.Run{MapID: other.ID, PlayerID: p.ID, Class: models.ClassSoldier, StartTime: 0, EndTime: 9, Duration: 9}
		So(database.CreateRun(db, &keeper), ShouldBeNil)

		Convey("The cascade removes the map and everything hanging off it", func() {
			So(database.DeleteMapCascade(db, m.ID), ShouldBeNil)

			_, err := database.GetMapByID(db, m.ID)
			So(errors.Is(err, gorm.ErrRecordNotFound), ShouldBeTrue)

			count, err := database.CountRuns(db, m.ID, models.ClassSoldier)
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 0)

			splits, err := database.GetSplitsByRunID(db, run.ID)
			So(err, ShouldBeNil)
			So(len(splits), ShouldEqual, 0)

			cps, err := database.GetCheckpointsByMapID(db, m.ID)
			So(err, ShouldBeNil)
			So(len(cps), ShouldEqual, 0)

			courses, err := database.GetCoursesByMapID(db, m.ID)
			So(err, ShouldBeNil)
			So(len(courses), ShouldEqual, 0)

			bonuses, err := database.GetBonusesByMapID(db, m.ID)
			So(err, ShouldBeNil)
			So(len(bonuses), ShouldEqual, 0)

			authors, err := database.GetAuthorsByMapID(db, m.ID)
			So(err, ShouldBeNil)
			So(len(authors), ShouldEqual, 0)
		})

		Convey("Other maps and their runs survive", func() {
			So(database.DeleteMapCascade(db, m.ID), ShouldBeNil)

			_, err := database.GetMapByID(db, other.ID)
			So(err, ShouldBeNil)
			count, err := database.CountRuns(db, other.ID, models.ClassSoldier)
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 1)
		})
	})
}

func TestWorldRecords(t *testing.T) {
	Convey("Given a map with runs in one class", t, func() {
		db := newTestDB(t)
		m := models.Map{Name: "jump_apex"}
		So(database.CreateMap(db, &m), ShouldBeNil)
		p := models.Player{SteamID: "STEAM_0:1:11111", Username: "mario", Country: "FI"}
		So(database.CreatePlayer(db, &p), ShouldBeNil)

		slow := models.Run{MapID: m.ID, PlayerID: p.ID, Class: models.ClassSoldier, StartTime: 0, EndTime: 12, Duration: 12}
		So(database.CreateRun(db, &slow), ShouldBeNil)
		p2 := models.Player{SteamID: "STEAM_0:1:22222", Username: "luigi", Country: "FI"}
		So(database.CreatePlayer(db, &p2), ShouldBeNil)
		fast := models.Run{MapID: m.ID, PlayerID: p2.ID, Class: models.ClassSoldier, StartTime: 0, EndTime: 9, Duration: 9}
		So(database.CreateRun(db, &fast), ShouldBeNil)

		Convey("The fastest run per class is reported, absent classes are nil", func() {
			records, err := database.GetWorldRecords(db, m.ID)
			So(err, ShouldBeNil)
			So(records.Soldier, ShouldNotBeNil)
			So(records.Soldier.ID, ShouldEqual, fast.ID)
			So(records.Demoman, ShouldBeNil)
		})

		Convey("Diffing a record snapshot replaces only the requested class", func() {
			records, err := database.GetWorldRecords(db, m.ID)
			So(err, ShouldBeNil)

			view, err := database.GetRunView(db, &slow)
			So(err, ShouldBeNil)
			diffed := records.WithRecord(models.ClassSoldier, view)

			So(diffed.Soldier.ID, ShouldEqual, slow.ID)
			So(diffed.Demoman, ShouldBeNil)
			// The original snapshot is untouched.
			So(records.Soldier.ID, ShouldEqual, fast.ID)
		})

		Convey("Deleting split rows must precede deleting their run", func() {
			zone := models.Zone{X2: 64, Y2: 64, Z2: 64}
			So(database.CreateZone(db, &zone), ShouldBeNil)
			cp := models.Checkpoint{MapID: m.ID, ZoneID: zone.ID, CPIndex: 1}
			So(database.CreateCheckpoint(db, &cp), ShouldBeNil)
			split := models.Split{CheckpointID: cp.ID, RunID: fast.ID, Time: 4.5}
			So(database.CreateSplit(db, &split), ShouldBeNil)

			So(database.DeleteSplitsByRunID(db, fast.ID), ShouldBeNil)
			So(database.DeleteRunByID(db, fast.ID), ShouldBeNil)

			records, err := database.GetWorldRecords(db, m.ID)
			So(err, ShouldBeNil)
			So(records.Soldier.ID, ShouldEqual, slow.ID)
		})
	})
}
