package notes

import (
	"context"
	"strings"

	"github.com/StudyVaultLab/studyvault/backend/internal/apperr"
	"github.com/StudyVaultLab/studyvault/backend/internal/users"
)

const (
	opTrending        = "notes.trending"
	opRecent          = "notes.recent"
	opByCategory      = "notes.by_category"
	opSearch          = "notes.search"
	opCategories      = "notes.categories"
	opTopContributors = "notes.top_contributors"
)

const defaultRankingLimit = 10

// CategoryCount pairs a distinct category with its note count.
type CategoryCount struct {
	Category string `gorm:"column:category" json:"category"`
	Count    int64  `gorm:"column:note_count" json:"count"`
}

// Contributor is a user ranked by the number of notes they own.
type Contributor struct {
	users.User
	NoteCount int64 `gorm:"column:note_count" json:"note_count"`
}

// Trending returns notes ordered by downloads plus likes, most engaged first.
// Ties break by note id ascending so repeated calls over unchanged data return
// a stable order.
func (s *Service) Trending(ctx context.Context, limit int) ([]NoteView, error) {
	if limit <= 0 {
		limit = defaultRankingLimit
	}
	var views []NoteView
	if err := s.db.WithContext(ctx).
		Model(&Note{}).
		Select(countersSelect).
		Order("(download_count + like_count) DESC, notes.id ASC").
		Limit(limit).
		Find(&views).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, opTrending, "query_failed", err)
	}
	hydrateTags(views)
	return views, nil
}

// Recent returns the newest notes first; ties break by id descending.
func (s *Service) Recent(ctx context.Context, limit int) ([]NoteView, error) {
	if limit <= 0 {
		limit = defaultRankingLimit
	}
	var views []NoteView
	if err := s.db.WithContext(ctx).
		Model(&Note{}).
		Select(countersSelect).
		Order("notes.created_at DESC, notes.id DESC").
		Limit(limit).
		Find(&views).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, opRecent, "query_failed", err)
	}
	hydrateTags(views)
	return views, nil
}

// ByCategory returns notes whose category matches exactly, ignoring case.
func (s *Service) ByCategory(ctx context.Context, category string) ([]NoteView, error) {
	var views []NoteView
	if err := s.db.WithContext(ctx).
		Model(&Note{}).
		Select(countersSelect).
		Where("notes.category = ? COLLATE NOCASE", strings.TrimSpace(category)).
		Order("notes.created_at DESC, notes.id DESC").
		Find(&views).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, opByCategory, "query_failed", err)
	}
	hydrateTags(views)
	return views, nil
}

// Search matches the query as a case-insensitive substring of the title,
// description or any tag. Rejecting empty queries is the caller's concern.
func (s *Service) Search(ctx context.Context, query string) ([]NoteView, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var views []NoteView
	if err := s.db.WithContext(ctx).
		Model(&Note{}).
		Select(countersSelect).
		Where("LOWER(notes.title) LIKE ? OR LOWER(notes.description) LIKE ? OR LOWER(notes.tags) LIKE ?",
			pattern, pattern, pattern).
		Order("notes.created_at DESC, notes.id DESC").
		Find(&views).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, opSearch, "query_failed", err)
	}
	hydrateTags(views)
	return views, nil
}

// Categories lists the distinct categories in use with their note counts,
// computed fresh on every call.
func (s *Service) Categories(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	if err := s.db.WithContext(ctx).
		Model(&Note{}).
		Select("notes.category AS category, COUNT(*) AS note_count").
		Where("notes.category <> ''").
		Group("notes.category").
		Order("note_count DESC, notes.category ASC").
		Find(&counts).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, opCategories, "query_failed", err)
	}
	return counts, nil
}

// TopContributors ranks users by the number of notes they own, most prolific
// first; ties break by user id ascending.
func (s *Service) TopContributors(ctx context.Context, limit int) ([]Contributor, error) {
	if limit <= 0 {
		limit = defaultRankingLimit
	}
	var contributors []Contributor
	if err := s.db.WithContext(ctx).
		Model(&users.User{}).
		Select("users.*, (SELECT COUNT(*) FROM notes WHERE notes.user_id = users.id) AS note_count").
		Order("note_count DESC, users.id ASC").
		Limit(limit).
		Find(&contributors).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, opTopContributors, "query_failed", err)
	}
	return contributors, nil
}

func hydrateTags(views []NoteView) {
	for i := range views {
		views[i].Tags = decodeTags(views[i].TagsJSON)
	}
}
