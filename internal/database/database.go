package database

import (
	"os"
	"path/filepath"

	"github.com/strafehub/jumptimer/internal/database/models"
	"go.uber.org/zap"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func Init(dsn string) (*gorm.DB, error) {
	if _, err := os.Stat(dsn); os.IsNotExist(err) {
		zap.S().Infof("database file not found at '%s', creating directory for it.", dsn)
		dbDir := filepath.Dir(dsn)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// SQLite ships with foreign keys off; the split->run constraint is what
	// makes the two-phase run deletion observable, so turn them on.
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}

	// Auto migrate schema
	err = db.AutoMigrate(
		&models.Zone{},
		&models.Map{},
		&models.Course{},
		&models.Bonus{},
		&models.Author{},
		&models.Checkpoint{},
		&models.Player{},
		&models.Run{},
		&models.Split{},
		&models.User{},
		&models.RevokedToken{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
