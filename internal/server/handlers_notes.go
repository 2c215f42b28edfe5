package server

import (
	"net/http"
	"strings"

	"github.com/StudyVaultLab/studyvault/backend/internal/notes"
	"github.com/gin-gonic/gin"
)

type createNoteRequestPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	IsPremium   bool     `json:"is_premium"`
	CoinPrice   int64    `json:"coin_price"`
	Tags        []string `json:"tags"`
	FileName    string   `json:"file_name"`
	FileSize    int64    `json:"file_size"`
}

func (h *httpHandler) handleCreateNote(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	var request createNoteRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if request.FileSize < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if request.FileSize > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_too_large"})
		return
	}

	fileURL, fileType, err := validateUpload(h.storageKeys, request.FileName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_file_type"})
		return
	}

	view, err := h.notes.Create(c.Request.Context(), notes.CreateNoteInput{
		OwnerID:     userID,
		Title:       request.Title,
		Description: request.Description,
		Category:    request.Category,
		File: notes.FileDescriptor{
			Name: request.FileName,
			URL:  fileURL,
			Size: request.FileSize,
			Type: fileType,
		},
		IsPremium: request.IsPremium,
		CoinPrice: request.CoinPrice,
		Tags:      request.Tags,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *httpHandler) handleGetNote(c *gin.Context) {
	noteID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.notes.Get(c.Request.Context(), noteID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *httpHandler) handleDownloadNote(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}
	noteID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.notes.Download(c.Request.Context(), noteID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.activity.Publish(ActivityEvent{
		UserID:    view.UserID,
		EventType: ActivityEventDownload,
		NoteID:    view.ID,
		ActorID:   userID,
	})
	c.JSON(http.StatusOK, view)
}

func (h *httpHandler) handleToggleLike(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}
	noteID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	liked, err := h.notes.ToggleLike(c.Request.Context(), noteID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if liked {
		if view, err := h.notes.Get(c.Request.Context(), noteID); err == nil {
			h.activity.Publish(ActivityEvent{
				UserID:    view.UserID,
				EventType: ActivityEventLike,
				NoteID:    view.ID,
				ActorID:   userID,
			})
		}
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

type addCommentRequestPayload struct {
	Content string `json:"content"`
}

func (h *httpHandler) handleAddComment(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}
	noteID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var request addCommentRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	comment, err := h.notes.AddComment(c.Request.Context(), noteID, userID, request.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *httpHandler) handleListComments(c *gin.Context) {
	noteID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	comments, err := h.notes.CommentsFor(c.Request.Context(), noteID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (h *httpHandler) handleTrendingNotes(c *gin.Context) {
	views, err := h.notes.Trending(c.Request.Context(), parseLimitQuery(c, 10))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": views})
}

func (h *httpHandler) handleRecentNotes(c *gin.Context) {
	views, err := h.notes.Recent(c.Request.Context(), parseLimitQuery(c, 10))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": views})
}

func (h *httpHandler) handleSearchNotes(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query_required"})
		return
	}
	views, err := h.notes.Search(c.Request.Context(), query)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": views})
}

func (h *httpHandler) handleNotesByCategory(c *gin.Context) {
	category := strings.TrimSpace(c.Query("category"))
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category_required"})
		return
	}
	views, err := h.notes.ByCategory(c.Request.Context(), category)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": views})
}

func (h *httpHandler) handleCategories(c *gin.Context) {
	counts, err := h.notes.Categories(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": counts})
}

func (h *httpHandler) handleTopContributors(c *gin.Context) {
	contributors, err := h.notes.TopContributors(c.Request.Context(), parseLimitQuery(c, 10))
	if err != nil {
		h.respondError(c, err)
		return
	}
	payload := make([]gin.H, 0, len(contributors))
	for _, contributor := range contributors {
		payload = append(payload, gin.H{
			"id":         contributor.ID,
			"username":   contributor.Username,
			"note_count": contributor.NoteCount,
		})
	}
	c.JSON(http.StatusOK, gin.H{"contributors": payload})
}
