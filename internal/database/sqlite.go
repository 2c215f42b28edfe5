package database

import (
	"fmt"

	"github.com/StudyVaultLab/studyvault/backend/internal/discussions"
	"github.com/StudyVaultLab/studyvault/backend/internal/notes"
	"github.com/StudyVaultLab/studyvault/backend/internal/social"
	"github.com/StudyVaultLab/studyvault/backend/internal/users"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
// A path of ":memory:" gives the process-lifetime in-memory store; the single
// connection below both keeps that store alive and serializes transactions.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&users.User{},
		&notes.Note{},
		&notes.Comment{},
		&notes.Download{},
		&notes.Like{},
		&social.Follow{},
		&discussions.Discussion{},
		&discussions.Reply{},
		&migrationRecord{},
	); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}
