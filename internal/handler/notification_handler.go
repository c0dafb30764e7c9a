package handler

import (
	"net/http"

	"socialgraph/backend/internal/auth"
	"socialgraph/backend/internal/hub"

	"github.com/gin-gonic/gin"
)

// StreamNotifications godoc
// @Summary      Notification stream
// @Description  Server-sent events for the authenticated user: friend requests, acceptances, comments and reactions on their posts.
// @Tags         notifications
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200  {string}  string "event stream"
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications/stream [get]
func (h *Handler) StreamNotifications(c *gin.Context) {
	userID, _ := auth.UserID(c)

	client := make(hub.Client, 16)
	h.hub.Subscribe(userID, client)
	defer h.hub.Unsubscribe(userID, client)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-client:
			if !ok {
				return
			}
			c.SSEvent("message", string(msg))
			c.Writer.Flush()
		}
	}
}
