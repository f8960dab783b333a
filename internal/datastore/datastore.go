package datastore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adirahman/ceritakita-go/internal/datastore/entities"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

// ErrUnsupportedEnvironment indicates the local database cannot be used
// in this runtime (e.g. the database directory is not writable).
var ErrUnsupportedEnvironment = errors.New("local storage unavailable in this environment")

// Open opens (creating if needed) the local sqlite database at path and
// migrates the story and push subscription tables.
func Open(path string) (*gorm.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: cannot create %s: %v", ErrUnsupportedEnvironment, dir, err)
	}

	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=ON"), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open %s: %v", ErrUnsupportedEnvironment, path, err)
	}

	if err := db.AutoMigrate(&entities.Story{}, &entities.PushSubscription{}); err != nil {
		return nil, fmt.Errorf("failed to migrate local database: %w", err)
	}
	return db, nil
}

// Close releases the underlying sql.DB connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to resolve sql.DB: %w", err)
	}
	return sqlDB.Close()
}
