package discussions

import "time"

// Discussion is a top-level community thread. Likes and Views are stored
// monotonic counters: there is no per-user like record for discussions, so a
// like here only ever increments.
type Discussion struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"column:user_id;not null;index" json:"user_id"`
	Title     string    `gorm:"column:title;size:320;not null" json:"title"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	Category  string    `gorm:"column:category;size:120;index" json:"category"`
	Likes     int64     `gorm:"column:likes;not null;default:0" json:"likes"`
	Views     int64     `gorm:"column:views;not null;default:0" json:"views"`
	IsPinned  bool      `gorm:"column:is_pinned;not null;default:false" json:"is_pinned"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName provides the explicit table binding for GORM.
func (Discussion) TableName() string {
	return "discussions"
}

// Reply belongs to one discussion. ParentReplyID, when set, points at another
// reply of the same discussion; consumers rebuild the thread from these flat
// pointers rather than a stored tree.
type Reply struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	DiscussionID   uint      `gorm:"column:discussion_id;not null;index" json:"discussion_id"`
	UserID         uint      `gorm:"column:user_id;not null" json:"user_id"`
	Content        string    `gorm:"column:content;type:text;not null" json:"content"`
	ParentReplyID  *uint     `gorm:"column:parent_reply_id" json:"parent_reply_id,omitempty"`
	AttachmentURL  string    `gorm:"column:attachment_url;size:512" json:"attachment_url,omitempty"`
	AttachmentType string    `gorm:"column:attachment_type;size:64" json:"attachment_type,omitempty"`
	Likes          int64     `gorm:"column:likes;not null;default:0" json:"likes"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName provides the explicit table binding for GORM.
func (Reply) TableName() string {
	return "discussion_replies"
}
