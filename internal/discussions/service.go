package discussions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/StudyVaultLab/studyvault/backend/internal/apperr"
	"github.com/StudyVaultLab/studyvault/backend/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opServiceNew = "discussions.service.new"
	opCreate     = "discussions.create"
	opView       = "discussions.view"
	opList       = "discussions.list"
	opReply      = "discussions.reply"
	opReplies    = "discussions.replies_for"
	opLike       = "discussions.like"
	opLikeReply  = "discussions.like_reply"
)

var errMissingDatabase = errors.New("database handle is required")

// ServiceConfig describes the dependencies of the discussion model.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service owns Discussion and Reply records: thread creation, the view counter,
// flat parent-pointer replies and the monotonic like counters.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the discussion service.
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

// Create opens a new discussion with zeroed counters and no pin.
func (s *Service) Create(ctx context.Context, userID uint, title, content, category string) (Discussion, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return Discussion{}, apperr.New(apperr.KindValidation, opCreate, "title_required")
	}
	if content == "" {
		return Discussion{}, apperr.New(apperr.KindValidation, opCreate, "content_required")
	}

	now := s.clock().UTC()
	discussion := Discussion{
		UserID:    userID,
		Title:     title,
		Content:   content,
		Category:  strings.TrimSpace(category),
		Likes:     0,
		Views:     0,
		IsPinned:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var authors int64
		if err := tx.Model(&users.User{}).Where("id = ?", userID).Count(&authors).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opCreate, "author_lookup_failed", err)
		}
		if authors == 0 {
			return apperr.New(apperr.KindNotFound, opCreate, "author_missing")
		}
		if err := tx.Create(&discussion).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opCreate, "insert_failed", err)
		}
		return nil
	})
	if txErr != nil {
		return Discussion{}, txErr
	}
	s.logger.Info("discussion created",
		zap.Uint("discussion_id", discussion.ID),
		zap.Uint("author_id", userID))
	return discussion, nil
}

// View returns the discussion after bumping its view counter. Every fetch
// counts, including repeated fetches by the same caller.
func (s *Service) View(ctx context.Context, discussionID uint) (Discussion, error) {
	var discussion Discussion
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Discussion{}).
			Where("id = ?", discussionID).
			Update("views", gorm.Expr("views + 1"))
		if result.Error != nil {
			return apperr.Wrap(apperr.KindInternal, opView, "view_bump_failed", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.New(apperr.KindNotFound, opView, "discussion_missing")
		}
		if err := tx.Where("id = ?", discussionID).Take(&discussion).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opView, "select_failed", err)
		}
		return nil
	})
	if txErr != nil {
		return Discussion{}, txErr
	}
	return discussion, nil
}

// List returns discussions for browsing: pinned threads first, newest next.
// Listing does not count as viewing.
func (s *Service) List(ctx context.Context, limit int) ([]Discussion, error) {
	query := s.db.WithContext(ctx).
		Order("is_pinned DESC, created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var result []Discussion
	if err := query.Find(&result).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, opList, "query_failed", err)
	}
	return result, nil
}

// ReplyInput bundles the fields for a new reply.
type ReplyInput struct {
	DiscussionID   uint
	UserID         uint
	Content        string
	ParentReplyID  *uint
	AttachmentURL  string
	AttachmentType string
}

// Reply appends a reply to a discussion. A parent reply, when given, must exist
// and belong to the same discussion.
func (s *Service) Reply(ctx context.Context, input ReplyInput) (Reply, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return Reply{}, apperr.New(apperr.KindValidation, opReply, "content_required")
	}

	now := s.clock().UTC()
	reply := Reply{
		DiscussionID:   input.DiscussionID,
		UserID:         input.UserID,
		Content:        content,
		ParentReplyID:  input.ParentReplyID,
		AttachmentURL:  strings.TrimSpace(input.AttachmentURL),
		AttachmentType: strings.TrimSpace(input.AttachmentType),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Discussion{}).Where("id = ?", input.DiscussionID).Count(&count).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opReply, "discussion_lookup_failed", err)
		}
		if count == 0 {
			return apperr.New(apperr.KindNotFound, opReply, "discussion_missing")
		}

		if input.ParentReplyID != nil {
			var parent Reply
			err := tx.Where("id = ?", *input.ParentReplyID).Take(&parent).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.KindInvalidOperation, opReply, "parent_missing")
			}
			if err != nil {
				return apperr.Wrap(apperr.KindInternal, opReply, "parent_lookup_failed", err)
			}
			if parent.DiscussionID != input.DiscussionID {
				return apperr.New(apperr.KindInvalidOperation, opReply, "parent_in_other_discussion")
			}
		}

		if err := tx.Create(&reply).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opReply, "insert_failed", err)
		}
		return nil
	})
	if txErr != nil {
		s.logger.Warn("reply rejected",
			zap.Uint("discussion_id", input.DiscussionID),
			zap.Uint("user_id", input.UserID),
			zap.Error(txErr))
		return Reply{}, txErr
	}
	return reply, nil
}

// RepliesFor lists a discussion's replies oldest first for stable thread
// rendering.
func (s *Service) RepliesFor(ctx context.Context, discussionID uint) ([]Reply, error) {
	var replies []Reply
	if err := s.db.WithContext(ctx).
		Where("discussion_id = ?", discussionID).
		Order("created_at ASC, id ASC").
		Find(&replies).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, opReplies, "query_failed", err)
	}
	return replies, nil
}

// Like bumps a discussion's like counter by one.
func (s *Service) Like(ctx context.Context, discussionID uint) (int64, error) {
	return s.bumpLikes(ctx, &Discussion{}, discussionID, opLike)
}

// LikeReply bumps a reply's like counter by one.
func (s *Service) LikeReply(ctx context.Context, replyID uint) (int64, error) {
	return s.bumpLikes(ctx, &Reply{}, replyID, opLikeReply)
}

func (s *Service) bumpLikes(ctx context.Context, model interface{}, id uint, operation string) (int64, error) {
	likes := int64(0)
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(model).
			Where("id = ?", id).
			Update("likes", gorm.Expr("likes + 1"))
		if result.Error != nil {
			return apperr.Wrap(apperr.KindInternal, operation, "like_bump_failed", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.New(apperr.KindNotFound, operation, "record_missing")
		}
		row := tx.Model(model).Where("id = ?", id).Select("likes").Row()
		if err := row.Scan(&likes); err != nil {
			return apperr.Wrap(apperr.KindInternal, operation, "select_failed", err)
		}
		return nil
	})
	if txErr != nil {
		return 0, txErr
	}
	return likes, nil
}
