package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *httpHandler) handleToggleFollow(c *gin.Context) {
	followerID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}
	followedID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	following, err := h.social.ToggleFollow(c.Request.Context(), followerID, followedID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if following {
		h.activity.Publish(ActivityEvent{
			UserID:    followedID,
			EventType: ActivityEventFollow,
			ActorID:   followerID,
		})
	}
	c.JSON(http.StatusOK, gin.H{"following": following})
}

func (h *httpHandler) handleFollowers(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	followers, err := h.social.Followers(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": toUserPayloads(followers)})
}

func (h *httpHandler) handleFollowing(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	following, err := h.social.Following(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": toUserPayloads(following)})
}
