package notes

import (
	"context"
	"testing"
	"time"

	"github.com/StudyVaultLab/studyvault/backend/internal/economy"
	"github.com/StudyVaultLab/studyvault/backend/internal/users"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *testClock) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&users.User{}, &Note{}, &Comment{}, &Download{}, &Like{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	coins, err := economy.NewService(economy.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create economy service: %v", err)
	}
	clock := &testClock{now: time.Unix(1700000000, 0).UTC()}
	service, err := NewService(ServiceConfig{
		Database: db,
		Economy:  coins,
		Clock:    clock.Now,
	})
	if err != nil {
		t.Fatalf("failed to create notes service: %v", err)
	}
	return service, db, clock
}

func seedUser(t *testing.T, db *gorm.DB, username string, coins int64) users.User {
	t.Helper()
	user := users.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Coins:        coins,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func balanceOf(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var user users.User
	if err := db.Where("id = ?", userID).Take(&user).Error; err != nil {
		t.Fatalf("failed to load user %d: %v", userID, err)
	}
	return user.Coins
}

func mustCreateNote(t *testing.T, service *Service, input CreateNoteInput) NoteView {
	t.Helper()
	if input.File.Name == "" {
		input.File = FileDescriptor{Name: "paper.pdf", URL: "/files/paper.pdf", Size: 1024, Type: "pdf"}
	}
	view, err := service.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	return view
}
