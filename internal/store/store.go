package store

import (
	"errors"
	"fmt"

	"github.com/analyticsPapy/trainlytics-app/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the single persistence boundary for the service. All
// cross-replica coordination (connection uniqueness, one open sync per
// connection, single-use OAuth states) is expressed as database
// constraints, never as in-process state.
type Store struct {
	db *gorm.DB
}

func New(driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.ProviderConnection{},
		&models.Activity{},
		&models.Workout{},
		&models.SyncHistory{},
		&models.OAuthState{},
	); err != nil {
		return nil, err
	}

	// AutoMigrate cannot express partial indexes. Both sqlite and
	// postgres support them, so create the "one open sync per
	// connection" guard by hand.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sync_history_open
		 ON sync_history (connection_id) WHERE sync_completed_at IS NULL`,
	).Error; err != nil {
		return nil, fmt.Errorf("failed to create open-sync index: %w", err)
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying handle for callers that need raw access,
// e.g. test fixtures.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Health checks database connectivity
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// translateNotFound converts gorm's sentinel into the store's own
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}
