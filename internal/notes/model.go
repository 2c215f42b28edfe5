package notes

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Note models an uploaded document listing. The downloads and likes counters are
// not stored on this record: they are derived from the Download and Like event
// tables on every read, so they can never drift from the underlying events.
type Note struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"column:user_id;not null;index" json:"user_id"`
	Title       string    `gorm:"column:title;size:320;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Category    string    `gorm:"column:category;size:120;index" json:"category"`
	FileName    string    `gorm:"column:file_name;size:320;not null" json:"file_name"`
	FileURL     string    `gorm:"column:file_url;size:512;not null" json:"file_url"`
	FileSize    int64     `gorm:"column:file_size;not null" json:"file_size"`
	FileType    string    `gorm:"column:file_type;size:64" json:"file_type"`
	IsPremium   bool      `gorm:"column:is_premium;not null;default:false" json:"is_premium"`
	CoinPrice   int64     `gorm:"column:coin_price;not null;default:0" json:"coin_price"`
	TagsJSON    string    `gorm:"column:tags;type:text;not null;default:''" json:"-"`
	Tags        []string  `gorm:"-" json:"tags"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Note) TableName() string {
	return "notes"
}

// NoteView is a Note joined with its derived engagement counters.
type NoteView struct {
	Note
	DownloadCount int64 `gorm:"column:download_count" json:"downloads"`
	LikeCount     int64 `gorm:"column:like_count" json:"likes"`
}

// Comment is a flat remark attached to a note.
type Comment struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	NoteID    uint      `gorm:"column:note_id;not null;index" json:"note_id"`
	UserID    uint      `gorm:"column:user_id;not null" json:"user_id"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Comment) TableName() string {
	return "comments"
}

// Download records one completed download event. Duplicates are allowed: a
// re-download is a fresh event and, for premium notes, a fresh charge.
type Download struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	NoteID    uint      `gorm:"column:note_id;not null;index" json:"note_id"`
	UserID    uint      `gorm:"column:user_id;not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Download) TableName() string {
	return "downloads"
}

// Like marks a note as liked by a user. At most one row exists per
// (user_id, note_id) pair; presence is the liked state.
type Like struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	NoteID    uint      `gorm:"column:note_id;not null;uniqueIndex:uk_likes_note_user,priority:1" json:"note_id"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:uk_likes_note_user,priority:2" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Like) TableName() string {
	return "likes"
}

func encodeTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, trimmed)
	}
	sort.Strings(cleaned)
	if len(cleaned) == 0 {
		return ""
	}
	encoded, err := json.Marshal(cleaned)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func decodeTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return tags
}
