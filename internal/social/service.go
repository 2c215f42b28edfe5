package social

import (
	"context"
	"errors"
	"time"

	"github.com/StudyVaultLab/studyvault/backend/internal/apperr"
	"github.com/StudyVaultLab/studyvault/backend/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opServiceNew   = "social.service.new"
	opToggleFollow = "social.toggle_follow"
	opFollowers    = "social.followers"
	opFollowing    = "social.following"
)

var errMissingDatabase = errors.New("database handle is required")

// ServiceConfig describes the dependencies of the follow graph.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service manages the directed follow graph between users.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the social graph service.
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

// ToggleFollow flips the follow edge from follower to followed and returns the
// new state. Self-follows are rejected unconditionally. The existence check and
// the write share one transaction, matching the like-toggle semantics.
func (s *Service) ToggleFollow(ctx context.Context, followerID, followedID uint) (bool, error) {
	if followerID == followedID {
		return false, apperr.New(apperr.KindInvalidOperation, opToggleFollow, "self_follow")
	}

	following := false
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&users.User{}).
			Where("id IN ?", []uint{followerID, followedID}).
			Count(&count).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opToggleFollow, "user_lookup_failed", err)
		}
		if count != 2 {
			return apperr.New(apperr.KindNotFound, opToggleFollow, "user_missing")
		}

		var existing Follow
		err := tx.Where("follower_id = ? AND followed_id = ?", followerID, followedID).
			Take(&existing).Error
		if err == nil {
			if err := tx.Delete(&Follow{}, existing.ID).Error; err != nil {
				return apperr.Wrap(apperr.KindInternal, opToggleFollow, "delete_failed", err)
			}
			following = false
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Wrap(apperr.KindInternal, opToggleFollow, "edge_lookup_failed", err)
		}

		created := Follow{FollowerID: followerID, FollowedID: followedID, CreatedAt: s.clock().UTC()}
		if err := tx.Create(&created).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opToggleFollow, "insert_failed", err)
		}
		following = true
		return nil
	})
	if txErr != nil {
		s.logger.Warn("follow toggle rejected",
			zap.Uint("follower_id", followerID),
			zap.Uint("followed_id", followedID),
			zap.Error(txErr))
		return false, txErr
	}
	return following, nil
}

// Followers lists the users following the given user, ordered by the follow
// edge id so the sequence is stable for a fixed edge set.
func (s *Service) Followers(ctx context.Context, userID uint) ([]users.User, error) {
	var result []users.User
	if err := s.db.WithContext(ctx).
		Model(&users.User{}).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", userID).
		Order("follows.id ASC").
		Find(&result).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, opFollowers, "query_failed", err)
	}
	return result, nil
}

// Following lists the users the given user follows, in stable edge order.
func (s *Service) Following(ctx context.Context, userID uint) ([]users.User, error) {
	var result []users.User
	if err := s.db.WithContext(ctx).
		Model(&users.User{}).
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.id ASC").
		Find(&result).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, opFollowing, "query_failed", err)
	}
	return result, nil
}
