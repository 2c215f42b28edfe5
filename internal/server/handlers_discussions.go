package server

import (
	"net/http"

	"github.com/StudyVaultLab/studyvault/backend/internal/discussions"
	"github.com/gin-gonic/gin"
)

type createDiscussionRequestPayload struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

func (h *httpHandler) handleCreateDiscussion(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	var request createDiscussionRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	discussion, err := h.discussions.Create(c.Request.Context(), userID, request.Title, request.Content, request.Category)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, discussion)
}

func (h *httpHandler) handleListDiscussions(c *gin.Context) {
	listed, err := h.discussions.List(c.Request.Context(), parseLimitQuery(c, 0))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"discussions": listed})
}

func (h *httpHandler) handleViewDiscussion(c *gin.Context) {
	discussionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	discussion, err := h.discussions.View(c.Request.Context(), discussionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, discussion)
}

type createReplyRequestPayload struct {
	Content        string `json:"content"`
	ParentReplyID  *uint  `json:"parent_reply_id"`
	AttachmentURL  string `json:"attachment_url"`
	AttachmentType string `json:"attachment_type"`
}

func (h *httpHandler) handleCreateReply(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}
	discussionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var request createReplyRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	reply, err := h.discussions.Reply(c.Request.Context(), discussions.ReplyInput{
		DiscussionID:   discussionID,
		UserID:         userID,
		Content:        request.Content,
		ParentReplyID:  request.ParentReplyID,
		AttachmentURL:  request.AttachmentURL,
		AttachmentType: request.AttachmentType,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reply)
}

func (h *httpHandler) handleListReplies(c *gin.Context) {
	discussionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	replies, err := h.discussions.RepliesFor(c.Request.Context(), discussionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"replies": replies})
}

func (h *httpHandler) handleLikeDiscussion(c *gin.Context) {
	if _, ok := h.authenticatedUser(c); !ok {
		return
	}
	discussionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	likes, err := h.discussions.Like(c.Request.Context(), discussionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (h *httpHandler) handleLikeReply(c *gin.Context) {
	if _, ok := h.authenticatedUser(c); !ok {
		return
	}
	replyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	likes, err := h.discussions.LikeReply(c.Request.Context(), replyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}
