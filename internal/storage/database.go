package storage

import (
	"github.com/willemhelmet/prompt-pugalists/internal/game"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenAndMigrate opens the sqlite database at the given path and keeps the
// character schema updated via AutoMigrate. Rooms and battles are in-memory
// only; characters are the persisted surface.
func OpenAndMigrate(dataSourceName string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&game.Character{}); err != nil {
		return nil, err
	}
	return db, nil
}
