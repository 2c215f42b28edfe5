package notes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/StudyVaultLab/studyvault/backend/internal/apperr"
	"github.com/StudyVaultLab/studyvault/backend/internal/economy"
	"github.com/StudyVaultLab/studyvault/backend/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opServiceNew  = "notes.service.new"
	opCreate      = "notes.create"
	opGet         = "notes.get"
	opDownload    = "notes.download"
	opToggleLike  = "notes.toggle_like"
	opAddComment  = "notes.add_comment"
	opCommentsFor = "notes.comments_for"
)

// Correlated subqueries deriving the engagement counters on every read.
const countersSelect = "notes.*, " +
	"(SELECT COUNT(*) FROM downloads WHERE downloads.note_id = notes.id) AS download_count, " +
	"(SELECT COUNT(*) FROM likes WHERE likes.note_id = notes.id) AS like_count"

var (
	errMissingDatabase = errors.New("database handle is required")
	errMissingEconomy  = errors.New("economy service is required")
)

// ServiceConfig describes the dependencies of the note service.
type ServiceConfig struct {
	Database *gorm.DB
	Economy  *economy.Service
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service owns Note, Comment, Download and Like records: creation with the
// upload bonus, download settlement, like toggling and the derived query views.
type Service struct {
	db      *gorm.DB
	economy *economy.Service
	clock   func() time.Time
	logger  *zap.Logger
}

// NewService constructs the note service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, apperr.Wrap(apperr.KindInternal, opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.Economy == nil {
		return nil, apperr.Wrap(apperr.KindInternal, opServiceNew, "missing_economy", errMissingEconomy)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, economy: cfg.Economy, clock: clock, logger: logger}, nil
}

// FileDescriptor carries the validated upload metadata. The upload collaborator
// has already checked the extension allow-list; this service stores it as-is.
type FileDescriptor struct {
	Name string
	URL  string
	Size int64
	Type string
}

// CreateNoteInput bundles the fields for a new listing.
type CreateNoteInput struct {
	OwnerID     uint
	Title       string
	Description string
	Category    string
	File        FileDescriptor
	IsPremium   bool
	CoinPrice   int64
	Tags        []string
}

// Create stores a new note and credits the uploader with the upload bonus in
// the same transaction.
func (s *Service) Create(ctx context.Context, input CreateNoteInput) (NoteView, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return NoteView{}, apperr.New(apperr.KindValidation, opCreate, "title_required")
	}
	if strings.TrimSpace(input.File.Name) == "" || strings.TrimSpace(input.File.URL) == "" {
		return NoteView{}, apperr.New(apperr.KindValidation, opCreate, "file_descriptor_required")
	}
	if input.CoinPrice < 0 {
		return NoteView{}, apperr.New(apperr.KindValidation, opCreate, "negative_coin_price")
	}
	price := input.CoinPrice
	if !input.IsPremium {
		price = 0
	}

	note := Note{
		UserID:      input.OwnerID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		FileName:    strings.TrimSpace(input.File.Name),
		FileURL:     strings.TrimSpace(input.File.URL),
		FileSize:    input.File.Size,
		FileType:    strings.TrimSpace(input.File.Type),
		IsPremium:   input.IsPremium,
		CoinPrice:   price,
		TagsJSON:    encodeTags(input.Tags),
		CreatedAt:   s.clock().UTC(),
	}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owners int64
		if err := tx.Model(&users.User{}).Where("id = ?", input.OwnerID).Count(&owners).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opCreate, "owner_lookup_failed", err)
		}
		if owners == 0 {
			return apperr.New(apperr.KindNotFound, opCreate, "owner_missing")
		}
		if err := tx.Create(&note).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opCreate, "insert_failed", err)
		}
		if _, err := s.economy.AwardUploadBonusTx(ctx, tx, input.OwnerID, input.IsPremium); err != nil {
			return err
		}
		return nil
	})
	if txErr != nil {
		s.logError(opCreate, txErr, zap.Uint("owner_id", input.OwnerID))
		return NoteView{}, txErr
	}

	s.logger.Info("note created",
		zap.Uint("note_id", note.ID),
		zap.Uint("owner_id", note.UserID),
		zap.Bool("premium", note.IsPremium))
	return s.Get(ctx, note.ID)
}

// Get returns the note with its derived counters.
func (s *Service) Get(ctx context.Context, noteID uint) (NoteView, error) {
	var view NoteView
	err := s.db.WithContext(ctx).
		Model(&Note{}).
		Select(countersSelect).
		Where("notes.id = ?", noteID).
		Take(&view).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NoteView{}, apperr.New(apperr.KindNotFound, opGet, "note_missing")
	}
	if err != nil {
		return NoteView{}, apperr.Wrap(apperr.KindInternal, opGet, "query_failed", err)
	}
	view.Tags = decodeTags(view.TagsJSON)
	return view, nil
}

// Download settles payment for premium notes and records the download event as
// one transaction. Re-downloading deliberately re-charges and re-records: there
// is no entitlement ledger in this marketplace.
func (s *Service) Download(ctx context.Context, noteID, userID uint) (NoteView, error) {
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note Note
		err := tx.Where("id = ?", noteID).Take(&note).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, opDownload, "note_missing")
		}
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, opDownload, "note_select_failed", err)
		}

		if note.IsPremium {
			if err := s.economy.ChargeForPremiumDownloadTx(ctx, tx, userID, note.UserID, note.CoinPrice); err != nil {
				return err
			}
		}

		event := Download{NoteID: noteID, UserID: userID, CreatedAt: s.clock().UTC()}
		if err := tx.Create(&event).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opDownload, "event_insert_failed", err)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opDownload, txErr, zap.Uint("note_id", noteID), zap.Uint("user_id", userID))
		return NoteView{}, txErr
	}
	return s.Get(ctx, noteID)
}

// ToggleLike flips the liked state for the (note, user) pair and returns the
// new state. The existence check and the write share one transaction, so two
// concurrent toggles for the same pair cannot both observe "absent".
func (s *Service) ToggleLike(ctx context.Context, noteID, userID uint) (bool, error) {
	liked := false
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Note{}).Where("id = ?", noteID).Count(&count).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opToggleLike, "note_lookup_failed", err)
		}
		if count == 0 {
			return apperr.New(apperr.KindNotFound, opToggleLike, "note_missing")
		}

		var existing Like
		err := tx.Where("note_id = ? AND user_id = ?", noteID, userID).Take(&existing).Error
		if err == nil {
			if err := tx.Delete(&Like{}, existing.ID).Error; err != nil {
				return apperr.Wrap(apperr.KindInternal, opToggleLike, "delete_failed", err)
			}
			liked = false
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Wrap(apperr.KindInternal, opToggleLike, "like_lookup_failed", err)
		}

		created := Like{NoteID: noteID, UserID: userID, CreatedAt: s.clock().UTC()}
		if err := tx.Create(&created).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opToggleLike, "insert_failed", err)
		}
		liked = true
		return nil
	})
	if txErr != nil {
		s.logError(opToggleLike, txErr, zap.Uint("note_id", noteID), zap.Uint("user_id", userID))
		return false, txErr
	}
	return liked, nil
}

// AddComment attaches a comment to an existing note.
func (s *Service) AddComment(ctx context.Context, noteID, userID uint, content string) (Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Comment{}, apperr.New(apperr.KindValidation, opAddComment, "content_required")
	}
	comment := Comment{NoteID: noteID, UserID: userID, Content: content, CreatedAt: s.clock().UTC()}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Note{}).Where("id = ?", noteID).Count(&count).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opAddComment, "note_lookup_failed", err)
		}
		if count == 0 {
			return apperr.New(apperr.KindNotFound, opAddComment, "note_missing")
		}
		if err := tx.Create(&comment).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, opAddComment, "insert_failed", err)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opAddComment, txErr, zap.Uint("note_id", noteID), zap.Uint("user_id", userID))
		return Comment{}, txErr
	}
	return comment, nil
}

// CommentsFor lists a note's comments oldest first.
func (s *Service) CommentsFor(ctx context.Context, noteID uint) ([]Comment, error) {
	var comments []Comment
	if err := s.db.WithContext(ctx).
		Where("note_id = ?", noteID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, opCommentsFor, "query_failed", err)
	}
	return comments, nil
}

func (s *Service) logError(operation string, err error, fields ...zap.Field) {
	attrs := append([]zap.Field{zap.String("operation", operation), zap.Error(err)}, fields...)
	s.logger.Warn("notes service error", attrs...)
}
