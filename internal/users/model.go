package users

import (
	"strings"
	"time"
)

// User is the stored account record. Coins is the internal credit balance and
// must never be observed negative.
type User struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"column:username;size:190;not null" json:"username"`
	Email        string    `gorm:"column:email;size:320;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;size:190;not null" json:"-"`
	Coins        int64     `gorm:"column:coins;not null;default:0" json:"coins"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}
