package server

import (
	"fmt"
	"net/http"
	"testing"
)

func TestToggleFollowRoundTripOverHTTP(t *testing.T) {
	handler := newTestHandler(t)
	follower := registerAccount(t, handler, "follower")
	followed := registerAccount(t, handler, "followed")

	followURL := fmt.Sprintf("/users/%d/follow", followed.id)

	var state struct {
		Following bool `json:"following"`
	}
	decodeResponse(t, performJSON(t, handler, http.MethodPost, followURL, follower.token, nil), &state)
	if !state.Following {
		t.Fatal("first toggle should establish the follow")
	}

	var followers struct {
		Users []userPayload `json:"users"`
	}
	decodeResponse(t, performJSON(t, handler, http.MethodGet, fmt.Sprintf("/users/%d/followers", followed.id), "", nil), &followers)
	if len(followers.Users) != 1 || followers.Users[0].ID != follower.id {
		t.Fatalf("unexpected followers list: %+v", followers.Users)
	}

	decodeResponse(t, performJSON(t, handler, http.MethodPost, followURL, follower.token, nil), &state)
	if state.Following {
		t.Fatal("second toggle should remove the follow")
	}
}

func TestSelfFollowMapsToConflict(t *testing.T) {
	handler := newTestHandler(t)
	account := registerAccount(t, handler, "loner")

	recorder := performJSON(t, handler, http.MethodPost, fmt.Sprintf("/users/%d/follow", account.id), account.token, nil)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected %d, got %d body %s", http.StatusConflict, recorder.Code, recorder.Body.String())
	}
}

func TestDiscussionThreadOverHTTP(t *testing.T) {
	handler := newTestHandler(t)
	author := registerAccount(t, handler, "author")
	responder := registerAccount(t, handler, "responder")

	created := performJSON(t, handler, http.MethodPost, "/discussions", author.token, createDiscussionRequestPayload{
		Title:    "Study group for finals?",
		Content:  "Anyone up for a weekly session?",
		Category: "General",
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("create discussion: status %d body %s", created.Code, created.Body.String())
	}
	var discussion struct {
		ID    uint  `json:"id"`
		Views int64 `json:"views"`
	}
	decodeResponse(t, created, &discussion)

	reply := performJSON(t, handler, http.MethodPost, fmt.Sprintf("/discussions/%d/replies", discussion.ID), responder.token, createReplyRequestPayload{
		Content: "Count me in.",
	})
	if reply.Code != http.StatusCreated {
		t.Fatalf("create reply: status %d body %s", reply.Code, reply.Body.String())
	}
	var replyPayload struct {
		ID uint `json:"id"`
	}
	decodeResponse(t, reply, &replyPayload)

	threaded := performJSON(t, handler, http.MethodPost, fmt.Sprintf("/discussions/%d/replies", discussion.ID), author.token, createReplyRequestPayload{
		Content:       "Great, Tuesday works.",
		ParentReplyID: &replyPayload.ID,
	})
	if threaded.Code != http.StatusCreated {
		t.Fatalf("threaded reply: status %d body %s", threaded.Code, threaded.Body.String())
	}

	viewed := performJSON(t, handler, http.MethodGet, fmt.Sprintf("/discussions/%d", discussion.ID), "", nil)
	if viewed.Code != http.StatusOK {
		t.Fatalf("view discussion: status %d", viewed.Code)
	}
	var viewedPayload struct {
		Views int64 `json:"views"`
	}
	decodeResponse(t, viewed, &viewedPayload)
	if viewedPayload.Views != discussion.Views+1 {
		t.Fatalf("expected view count %d, got %d", discussion.Views+1, viewedPayload.Views)
	}

	var replies struct {
		Replies []struct {
			ID            uint  `json:"id"`
			ParentReplyID *uint `json:"parent_reply_id"`
		} `json:"replies"`
	}
	decodeResponse(t, performJSON(t, handler, http.MethodGet, fmt.Sprintf("/discussions/%d/replies", discussion.ID), "", nil), &replies)
	if len(replies.Replies) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(replies.Replies))
	}
	if replies.Replies[1].ParentReplyID == nil || *replies.Replies[1].ParentReplyID != replyPayload.ID {
		t.Fatalf("expected threaded reply parent %d, got %+v", replyPayload.ID, replies.Replies[1].ParentReplyID)
	}
}

func TestDiscussionLikeRequiresSession(t *testing.T) {
	handler := newTestHandler(t)
	author := registerAccount(t, handler, "author")

	created := performJSON(t, handler, http.MethodPost, "/discussions", author.token, createDiscussionRequestPayload{
		Title:   "Office hours thread",
		Content: "Post questions here.",
	})
	var discussion struct {
		ID uint `json:"id"`
	}
	decodeResponse(t, created, &discussion)

	likeURL := fmt.Sprintf("/discussions/%d/like", discussion.ID)
	anonymous := performJSON(t, handler, http.MethodPost, likeURL, "", nil)
	if anonymous.Code != http.StatusUnauthorized {
		t.Fatalf("expected %d without session, got %d", http.StatusUnauthorized, anonymous.Code)
	}

	var likePayload struct {
		Likes int64 `json:"likes"`
	}
	decodeResponse(t, performJSON(t, handler, http.MethodPost, likeURL, author.token, nil), &likePayload)
	if likePayload.Likes != 1 {
		t.Fatalf("expected 1 like, got %d", likePayload.Likes)
	}
}
