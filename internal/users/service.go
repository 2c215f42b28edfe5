package users

import (
	"context"
	"errors"
	"time"

	"github.com/StudyVaultLab/studyvault/backend/internal/apperr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opServiceNew = "users.service.new"
	opRegister   = "users.register"
	opGetByID    = "users.get_by_id"
	opGetByLogin = "users.get_by_username"
)

var errMissingDatabase = errors.New("database handle is required")

// ServiceConfig describes the dependencies required for account management.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service owns User records: registration with uniqueness enforcement and lookups.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the user service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, apperr.Wrap(apperr.KindInternal, opServiceNew, "missing_database", errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Register creates a new account with zero coins. Username and email are unique
// case-insensitively; the password hash is opaque to this service.
func (s *Service) Register(ctx context.Context, username, email, passwordHash string) (User, error) {
	username = normalize(username)
	email = normalize(email)
	if username == "" {
		return User{}, apperr.New(apperr.KindValidation, opRegister, "username_required")
	}
	if email == "" {
		return User{}, apperr.New(apperr.KindValidation, opRegister, "email_required")
	}
	if passwordHash == "" {
		return User{}, apperr.New(apperr.KindValidation, opRegister, "credential_required")
	}

	created := User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Coins:        0,
		CreatedAt:    s.clock().UTC(),
	}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&User{}).
			Where("username = ? COLLATE NOCASE", username).
			Count(&taken).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opRegister, "username_lookup_failed", err)
		}
		if taken > 0 {
			return apperr.New(apperr.KindValidation, opRegister, "username_taken")
		}
		if err := tx.Model(&User{}).
			Where("email = ? COLLATE NOCASE", email).
			Count(&taken).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opRegister, "email_lookup_failed", err)
		}
		if taken > 0 {
			return apperr.New(apperr.KindValidation, opRegister, "email_taken")
		}
		if err := tx.Create(&created).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opRegister, "insert_failed", err)
		}
		return nil
	})
	if txErr != nil {
		s.logger.Warn("user registration rejected",
			zap.String("username", username),
			zap.Error(txErr))
		return User{}, txErr
	}

	s.logger.Info("user registered",
		zap.Uint("user_id", created.ID),
		zap.String("username", created.Username))
	return created, nil
}

// GetByID returns the account for the identifier.
func (s *Service) GetByID(ctx context.Context, userID uint) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, apperr.New(apperr.KindNotFound, opGetByID, "user_missing")
	}
	if err != nil {
		return User{}, apperr.Wrap(apperr.KindInternal, opGetByID, "query_failed", err)
	}
	return user, nil
}

// GetByUsername resolves an account case-insensitively, for the login adapter.
func (s *Service) GetByUsername(ctx context.Context, username string) (User, error) {
	username = normalize(username)
	if username == "" {
		return User{}, apperr.New(apperr.KindValidation, opGetByLogin, "username_required")
	}
	var user User
	err := s.db.WithContext(ctx).
		Where("username = ? COLLATE NOCASE", username).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, apperr.New(apperr.KindNotFound, opGetByLogin, "user_missing")
	}
	if err != nil {
		return User{}, apperr.Wrap(apperr.KindInternal, opGetByLogin, "query_failed", err)
	}
	return user, nil
}
