package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"socialgraph/backend/internal/hub"
	"socialgraph/backend/internal/pagination"
	"socialgraph/backend/internal/social"
	"socialgraph/backend/internal/store"

	"github.com/gin-gonic/gin"
)

const maxPageSize = 100

// Handler serves the HTTP API on top of the social engine.
type Handler struct {
	store  store.Store
	engine *social.Engine
	hub    *hub.Hub
}

// New builds a Handler. A nil hub disables notifications.
func New(s store.Store, h *hub.Hub, opts ...social.Option) *Handler {
	return &Handler{
		store:  s,
		engine: social.New(s, opts...),
		hub:    h,
	}
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// MessageResponse represents a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message" example:"Request accepted"`
}

var errorStatus = []struct {
	err    error
	status int
}{
	{social.ErrNotFound, http.StatusNotFound},
	{social.ErrPermissionDenied, http.StatusForbidden},
	{social.ErrDuplicateRequest, http.StatusConflict},
	{social.ErrAlreadyFriends, http.StatusConflict},
	{social.ErrProfileExists, http.StatusConflict},
	{social.ErrSelfEdge, http.StatusBadRequest},
	{social.ErrSelfRequest, http.StatusBadRequest},
	{social.ErrInvalidPage, http.StatusBadRequest},
	{social.ErrInvalidReaction, http.StatusBadRequest},
	{social.ErrEmptyContent, http.StatusBadRequest},
}

// respondError maps engine errors to status codes. Unknown errors are logged
// and reported as 500 without detail.
func respondError(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": e.err.Error()})
			return
		}
	}
	log.Printf("%s %s [%s]: %v", c.Request.Method, c.FullPath(), c.GetString("requestID"), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// parseID reads a numeric path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// pageParams reads the page and limit query parameters.
func pageParams(c *gin.Context) (pagination.Page, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return pagination.Page{}, false
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return pagination.Page{}, false
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	p, err := pagination.New(page, limit)
	if err != nil {
		respondError(c, err)
		return pagination.Page{}, false
	}
	return p, true
}

func (h *Handler) notify(userID uint, eventType string, payload interface{}) {
	if h.hub != nil {
		h.hub.Publish(userID, hub.Event{Type: eventType, Payload: payload})
	}
}
