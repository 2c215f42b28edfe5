package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/StudyVaultLab/studyvault/backend/internal/apperr"
	"github.com/StudyVaultLab/studyvault/backend/internal/discussions"
	"github.com/StudyVaultLab/studyvault/backend/internal/economy"
	"github.com/StudyVaultLab/studyvault/backend/internal/notes"
	"github.com/StudyVaultLab/studyvault/backend/internal/social"
	"github.com/StudyVaultLab/studyvault/backend/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userIDContextKey = "studyvault_user_id"

var (
	errMissingTokenManager       = errors.New("token manager dependency required")
	errMissingUsersService       = errors.New("users service dependency required")
	errMissingNotesService       = errors.New("notes service dependency required")
	errMissingEconomyService     = errors.New("economy service dependency required")
	errMissingSocialService      = errors.New("social service dependency required")
	errMissingDiscussionsService = errors.New("discussions service dependency required")
	errInvalidAuthorization      = errors.New("authorization header missing or invalid")
)

// SessionTokenManager issues and validates bearer tokens for the thin HTTP layer.
type SessionTokenManager interface {
	IssueSessionToken(userID uint, username string) (string, int64, error)
	ValidateToken(token string) (uint, error)
}

// Dependencies wires the core services into the HTTP adapter.
type Dependencies struct {
	TokenManager SessionTokenManager
	Users        *users.Service
	Notes        *notes.Service
	Economy      *economy.Service
	Social       *social.Service
	Discussions  *discussions.Service
	Activity     *ActivityDispatcher
	StorageKeys  StorageKeyProvider
	// MaxUploadBytes caps the declared size of uploaded files; zero selects
	// the default.
	MaxUploadBytes int64
	Logger         *zap.Logger
}

const defaultMaxUploadBytes = 32 << 20

// NewHTTPHandler assembles the gin router over the core services.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.Users == nil {
		return nil, errMissingUsersService
	}
	if deps.Notes == nil {
		return nil, errMissingNotesService
	}
	if deps.Economy == nil {
		return nil, errMissingEconomyService
	}
	if deps.Social == nil {
		return nil, errMissingSocialService
	}
	if deps.Discussions == nil {
		return nil, errMissingDiscussionsService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	activity := deps.Activity
	if activity == nil {
		activity = NewActivityDispatcher()
	}
	storageKeys := deps.StorageKeys
	if storageKeys == nil {
		storageKeys = NewUUIDKeyProvider()
	}
	maxUploadBytes := deps.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:         deps.TokenManager,
		users:          deps.Users,
		notes:          deps.Notes,
		economy:        deps.Economy,
		social:         deps.Social,
		discussions:    deps.Discussions,
		activity:       activity,
		storageKeys:    storageKeys,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}

	router.POST("/auth/register", handler.handleRegister)
	router.POST("/auth/login", handler.handleLogin)

	router.GET("/notes/trending", handler.handleTrendingNotes)
	router.GET("/notes/recent", handler.handleRecentNotes)
	router.GET("/notes/search", handler.handleSearchNotes)
	router.GET("/notes", handler.handleNotesByCategory)
	router.GET("/notes/:id", handler.handleGetNote)
	router.GET("/notes/:id/comments", handler.handleListComments)
	router.GET("/categories", handler.handleCategories)
	router.GET("/contributors", handler.handleTopContributors)

	router.GET("/users/:id", handler.handleGetUser)
	router.GET("/users/:id/followers", handler.handleFollowers)
	router.GET("/users/:id/following", handler.handleFollowing)

	router.GET("/discussions", handler.handleListDiscussions)
	router.GET("/discussions/:id", handler.handleViewDiscussion)
	router.GET("/discussions/:id/replies", handler.handleListReplies)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/notes", handler.handleCreateNote)
	protected.POST("/notes/:id/download", handler.handleDownloadNote)
	protected.POST("/notes/:id/like", handler.handleToggleLike)
	protected.POST("/notes/:id/comments", handler.handleAddComment)
	protected.POST("/users/:id/follow", handler.handleToggleFollow)
	protected.POST("/discussions", handler.handleCreateDiscussion)
	protected.POST("/discussions/:id/replies", handler.handleCreateReply)
	protected.POST("/discussions/:id/like", handler.handleLikeDiscussion)
	protected.POST("/replies/:id/like", handler.handleLikeReply)
	protected.GET("/activity/stream", handler.handleActivityStream)

	return router, nil
}

type httpHandler struct {
	tokens         SessionTokenManager
	users          *users.Service
	notes          *notes.Service
	economy        *economy.Service
	social         *social.Service
	discussions    *discussions.Service
	activity       *ActivityDispatcher
	storageKeys    StorageKeyProvider
	maxUploadBytes int64
	logger         *zap.Logger
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	userID, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, userID)
	c.Next()
}

func (h *httpHandler) authenticatedUser(c *gin.Context) (uint, bool) {
	value, exists := c.Get(userIDContextKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	userID, ok := value.(uint)
	if !ok || userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return userID, true
}

func (h *httpHandler) respondError(c *gin.Context, err error) {
	var funds *apperr.InsufficientFundsError
	if errors.As(err, &funds) {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":     "insufficient_funds",
			"required":  funds.Required,
			"available": funds.Available,
		})
		return
	}

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case apperr.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
	case apperr.KindInvalidOperation:
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_operation"})
	case apperr.KindUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return 0, false
	}
	return uint(value), true
}

func parseLimitQuery(c *gin.Context, fallback int) int {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
