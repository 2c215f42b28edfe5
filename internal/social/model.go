package social

import "time"

// Follow is the single directed edge between two users. At most one row exists
// per (follower_id, followed_id) pair; presence is the following state.
type Follow struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FollowerID uint      `gorm:"column:follower_id;not null;uniqueIndex:uk_follows_pair,priority:1" json:"follower_id"`
	FollowedID uint      `gorm:"column:followed_id;not null;uniqueIndex:uk_follows_pair,priority:2;index" json:"followed_id"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Follow) TableName() string {
	return "follows"
}
