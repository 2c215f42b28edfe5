package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/StudyVaultLab/studyvault/backend/internal/auth"
	"github.com/StudyVaultLab/studyvault/backend/internal/database"
	"github.com/StudyVaultLab/studyvault/backend/internal/discussions"
	"github.com/StudyVaultLab/studyvault/backend/internal/economy"
	"github.com/StudyVaultLab/studyvault/backend/internal/notes"
	"github.com/StudyVaultLab/studyvault/backend/internal/social"
	"github.com/StudyVaultLab/studyvault/backend/internal/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const testSigningSecret = "router-test-signing-secret"

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	economyService, err := economy.NewService(economy.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("economy service: %v", err)
	}
	usersService, err := users.NewService(users.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("users service: %v", err)
	}
	notesService, err := notes.NewService(notes.ServiceConfig{Database: db, Economy: economyService})
	if err != nil {
		t.Fatalf("notes service: %v", err)
	}
	socialService, err := social.NewService(social.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("social service: %v", err)
	}
	discussionsService, err := discussions.NewService(discussions.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("discussions service: %v", err)
	}

	tokenManager := auth.NewTokenManager(auth.TokenManagerConfig{
		SigningSecret: []byte(testSigningSecret),
		Issuer:        "studyvault-test",
		Audience:      "studyvault-test",
		TokenTTL:      15 * time.Minute,
	})

	handler, err := NewHTTPHandler(Dependencies{
		TokenManager: tokenManager,
		Users:        usersService,
		Notes:        notesService,
		Economy:      economyService,
		Social:       socialService,
		Discussions:  discussionsService,
		Logger:       zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	return handler
}

func performJSON(t *testing.T, handler http.Handler, method, target, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode request payload: %v", err)
		}
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}
	request := httptest.NewRequest(method, target, body)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
}

type registeredAccount struct {
	id    uint
	token string
}

func registerAccount(t *testing.T, handler http.Handler, username string) registeredAccount {
	t.Helper()
	recorder := performJSON(t, handler, http.MethodPost, "/auth/register", "", registerRequestPayload{
		Username: username,
		Email:    fmt.Sprintf("%s@example.edu", username),
		Password: "correct horse battery",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, recorder.Code, recorder.Body.String())
	}
	var session sessionResponsePayload
	decodeResponse(t, recorder, &session)
	if session.AccessToken == "" {
		t.Fatalf("register %s: empty access token", username)
	}
	return registeredAccount{id: session.User.ID, token: session.AccessToken}
}

func uploadNote(t *testing.T, handler http.Handler, account registeredAccount, payload createNoteRequestPayload) notes.NoteView {
	t.Helper()
	recorder := performJSON(t, handler, http.MethodPost, "/notes", account.token, payload)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("upload note: status %d body %s", recorder.Code, recorder.Body.String())
	}
	var view notes.NoteView
	decodeResponse(t, recorder, &view)
	return view
}
