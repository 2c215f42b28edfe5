package notes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/StudyVaultLab/studyvault/backend/internal/apperr"
)

func TestCreateAwardsUploadBonus(t *testing.T) {
	service, db, _ := newTestService(t)
	uploader := seedUser(t, db, "alice", 0)

	free := mustCreateNote(t, service, CreateNoteInput{
		OwnerID: uploader.ID,
		Title:   "Calculus summary",
	})
	if free.IsPremium {
		t.Fatalf("expected free note")
	}
	if got := balanceOf(t, db, uploader.ID); got != 5 {
		t.Fatalf("expected 5 coins after free upload, got %d", got)
	}

	premium := mustCreateNote(t, service, CreateNoteInput{
		OwnerID:   uploader.ID,
		Title:     "Linear algebra deep dive",
		IsPremium: true,
		CoinPrice: 5,
	})
	if !premium.IsPremium || premium.CoinPrice != 5 {
		t.Fatalf("unexpected premium fields %+v", premium)
	}
	if got := balanceOf(t, db, uploader.ID); got != 15 {
		t.Fatalf("expected 15 coins after premium upload, got %d", got)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	service, db, _ := newTestService(t)
	uploader := seedUser(t, db, "alice", 0)

	cases := []struct {
		name  string
		input CreateNoteInput
		kind  apperr.Kind
	}{
		{
			name:  "blank title",
			input: CreateNoteInput{OwnerID: uploader.ID, Title: "  ", File: FileDescriptor{Name: "a.pdf", URL: "/a.pdf"}},
			kind:  apperr.KindValidation,
		},
		{
			name:  "missing file descriptor",
			input: CreateNoteInput{OwnerID: uploader.ID, Title: "notes"},
			kind:  apperr.KindValidation,
		},
		{
			name:  "negative price",
			input: CreateNoteInput{OwnerID: uploader.ID, Title: "notes", File: FileDescriptor{Name: "a.pdf", URL: "/a.pdf"}, IsPremium: true, CoinPrice: -1},
			kind:  apperr.KindValidation,
		},
		{
			name:  "unknown owner",
			input: CreateNoteInput{OwnerID: 999, Title: "notes", File: FileDescriptor{Name: "a.pdf", URL: "/a.pdf"}},
			kind:  apperr.KindNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), tc.input)
			if !apperr.IsKind(err, tc.kind) {
				t.Fatalf("expected %s, got %v", tc.kind, err)
			}
		})
	}
}

func TestCreateNormalizesTags(t *testing.T) {
	service, db, _ := newTestService(t)
	uploader := seedUser(t, db, "alice", 0)

	view := mustCreateNote(t, service, CreateNoteInput{
		OwnerID: uploader.ID,
		Title:   "Sorting algorithms",
		Tags:    []string{" algorithms ", "go", "Algorithms", ""},
	})
	if len(view.Tags) != 2 {
		t.Fatalf("expected deduplicated tags, got %v", view.Tags)
	}
}

func TestDownloadFreeNoteRecordsEventOnly(t *testing.T) {
	service, db, _ := newTestService(t)
	uploader := seedUser(t, db, "alice", 0)
	reader := seedUser(t, db, "bob", 0)
	note := mustCreateNote(t, service, CreateNoteInput{OwnerID: uploader.ID, Title: "Free handout"})

	uploaderCoins := balanceOf(t, db, uploader.ID)
	view, err := service.Download(context.Background(), note.ID, reader.ID)
	if err != nil {
		t.Fatalf("unexpected download error: %v", err)
	}
	if view.DownloadCount != 1 {
		t.Fatalf("expected 1 download, got %d", view.DownloadCount)
	}
	if got := balanceOf(t, db, uploader.ID); got != uploaderCoins {
		t.Fatalf("free download must not move coins, uploader went %d -> %d", uploaderCoins, got)
	}
	if got := balanceOf(t, db, reader.ID); got != 0 {
		t.Fatalf("free download must not move coins, reader has %d", got)
	}
}

func TestDownloadPremiumNoteSettlesPayment(t *testing.T) {
	service, db, _ := newTestService(t)
	seller := seedUser(t, db, "alice", 0)
	note := mustCreateNote(t, service, CreateNoteInput{
		OwnerID:   seller.ID,
		Title:     "Premium exam pack",
		IsPremium: true,
		CoinPrice: 5,
	})

	poor := seedUser(t, db, "carol", 3)
	_, err := service.Download(context.Background(), note.ID, poor.ID)
	if !apperr.IsKind(err, apperr.KindInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	var funds *apperr.InsufficientFundsError
	if !errors.As(err, &funds) || funds.Required != 5 || funds.Available != 3 {
		t.Fatalf("unexpected funds detail: %v", err)
	}
	after, err := service.Get(context.Background(), note.ID)
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if after.DownloadCount != 0 {
		t.Fatalf("failed charge must not record a download, got %d", after.DownloadCount)
	}
	if got := balanceOf(t, db, poor.ID); got != 3 {
		t.Fatalf("failed charge must not debit, got %d", got)
	}

	rich := seedUser(t, db, "dave", 10)
	view, err := service.Download(context.Background(), note.ID, rich.ID)
	if err != nil {
		t.Fatalf("unexpected download error: %v", err)
	}
	if view.DownloadCount != 1 {
		t.Fatalf("expected first premium sale recorded, got %d", view.DownloadCount)
	}
	if got := balanceOf(t, db, rich.ID); got != 5 {
		t.Fatalf("expected buyer to hold 5 coins, got %d", got)
	}
	// 10 from the premium upload bonus plus the 5 coin sale.
	if got := balanceOf(t, db, seller.ID); got != 15 {
		t.Fatalf("expected seller to hold 15 coins, got %d", got)
	}
}

func TestDownloadPremiumNoteRechargesOnRepeat(t *testing.T) {
	service, db, _ := newTestService(t)
	seller := seedUser(t, db, "alice", 0)
	note := mustCreateNote(t, service, CreateNoteInput{
		OwnerID:   seller.ID,
		Title:     "Premium exam pack",
		IsPremium: true,
		CoinPrice: 4,
	})
	buyer := seedUser(t, db, "bob", 9)

	for i := 0; i < 2; i++ {
		if _, err := service.Download(context.Background(), note.ID, buyer.ID); err != nil {
			t.Fatalf("unexpected download error on attempt %d: %v", i+1, err)
		}
	}
	view, err := service.Get(context.Background(), note.ID)
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if view.DownloadCount != 2 {
		t.Fatalf("re-download must record a second event, got %d", view.DownloadCount)
	}
	if got := balanceOf(t, db, buyer.ID); got != 1 {
		t.Fatalf("re-download must re-charge, buyer has %d", got)
	}
}

func TestDownloadUnknownNote(t *testing.T) {
	service, db, _ := newTestService(t)
	reader := seedUser(t, db, "bob", 0)

	_, err := service.Download(context.Background(), 404, reader.ID)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestToggleLikeIsItsOwnInverse(t *testing.T) {
	service, db, _ := newTestService(t)
	uploader := seedUser(t, db, "alice", 0)
	reader := seedUser(t, db, "bob", 0)
	note := mustCreateNote(t, service, CreateNoteInput{OwnerID: uploader.ID, Title: "Handout"})

	liked, err := service.ToggleLike(context.Background(), note.ID, reader.ID)
	if err != nil {
		t.Fatalf("unexpected toggle error: %v", err)
	}
	if !liked {
		t.Fatalf("first toggle must like")
	}
	view, err := service.Get(context.Background(), note.ID)
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if view.LikeCount != 1 {
		t.Fatalf("expected 1 like, got %d", view.LikeCount)
	}

	liked, err = service.ToggleLike(context.Background(), note.ID, reader.ID)
	if err != nil {
		t.Fatalf("unexpected toggle error: %v", err)
	}
	if liked {
		t.Fatalf("second toggle must unlike")
	}
	view, err = service.Get(context.Background(), note.ID)
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if view.LikeCount != 0 {
		t.Fatalf("expected like counter restored to 0, got %d", view.LikeCount)
	}
}

func TestToggleLikeUnknownNote(t *testing.T) {
	service, db, _ := newTestService(t)
	reader := seedUser(t, db, "bob", 0)

	_, err := service.ToggleLike(context.Background(), 404, reader.ID)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConcurrentTogglesNeverProduceTwoLikes(t *testing.T) {
	service, db, _ := newTestService(t)
	uploader := seedUser(t, db, "alice", 0)
	reader := seedUser(t, db, "bob", 0)
	note := mustCreateNote(t, service, CreateNoteInput{OwnerID: uploader.ID, Title: "Handout"})

	const attempts = 8
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, _ = service.ToggleLike(context.Background(), note.ID, reader.ID)
		}()
	}
	wg.Wait()

	var rows int64
	if err := db.Model(&Like{}).
		Where("note_id = ? AND user_id = ?", note.ID, reader.ID).
		Count(&rows).Error; err != nil {
		t.Fatalf("failed to count likes: %v", err)
	}
	if rows > 1 {
		t.Fatalf("at most one like row may exist per pair, got %d", rows)
	}
	view, err := service.Get(context.Background(), note.ID)
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if view.LikeCount != rows {
		t.Fatalf("derived counter %d disagrees with %d like rows", view.LikeCount, rows)
	}
}

func TestCommentsRequireExistingNote(t *testing.T) {
	service, db, _ := newTestService(t)
	reader := seedUser(t, db, "bob", 0)

	_, err := service.AddComment(context.Background(), 404, reader.ID, "nice work")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCommentsForReturnsOldestFirst(t *testing.T) {
	service, db, clock := newTestService(t)
	uploader := seedUser(t, db, "alice", 0)
	reader := seedUser(t, db, "bob", 0)
	note := mustCreateNote(t, service, CreateNoteInput{OwnerID: uploader.ID, Title: "Handout"})

	for _, content := range []string{"first", "second", "third"} {
		if _, err := service.AddComment(context.Background(), note.ID, reader.ID, content); err != nil {
			t.Fatalf("unexpected comment error: %v", err)
		}
		clock.Advance(time.Second)
	}
	comments, err := service.CommentsFor(context.Background(), note.ID)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(comments))
	}
	for i, want := range []string{"first", "second", "third"} {
		if comments[i].Content != want {
			t.Fatalf("expected comment %d to be %q, got %q", i, want, comments[i].Content)
		}
	}
}
