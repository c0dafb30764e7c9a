package handler

import (
	"net/http"
	"time"

	"socialgraph/backend/internal/auth"
	"socialgraph/backend/internal/hub"
	"socialgraph/backend/internal/models"
	"socialgraph/backend/internal/pagination"
	"socialgraph/backend/internal/social"
	"socialgraph/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// FriendRequestResponse describes one friend request from the viewer's side.
type FriendRequestResponse struct {
	ID         uint                       `json:"id" example:"1"`
	SenderID   uint                       `json:"sender_id" example:"1"`
	ReceiverID uint                       `json:"receiver_id" example:"2"`
	Status     models.FriendRequestStatus `json:"status" example:"pending"`
	CreatedAt  time.Time                  `json:"created_at"`
	// Other is the party that is not the viewer.
	Other *UserSummary `json:"other,omitempty"`
}

func newFriendRequestResponse(req *models.FriendRequest) FriendRequestResponse {
	return FriendRequestResponse{
		ID:         req.ID,
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Status:     req.Status,
		CreatedAt:  req.CreatedAt,
	}
}

// SendRequest godoc
// @Summary      Send friend request
// @Description  Sends a friend request to another user. If that user already asked the viewer, their request is accepted instead.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target User ID"
// @Success      201  {object}  FriendRequestResponse "Request sent"
// @Success      200  {object}  FriendRequestResponse "Reverse request accepted"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Target user not found"
// @Failure      409  {object}  ErrorResponse "Request pending or already friends"
// @Failure      429  {object}  ErrorResponse
// @Router       /users/{id}/request [post]
func (h *Handler) SendRequest(c *gin.Context) {
	targetID, ok := parseID(c, "id")
	if !ok {
		return
	}
	viewerID, _ := auth.UserID(c)

	req, err := h.engine.Requests.Send(c.Request.Context(), viewerID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Status == models.RequestAccepted {
		h.notify(req.SenderID, hub.EventFriendRequestAccepted, gin.H{"request_id": req.ID, "user_id": viewerID})
		c.JSON(http.StatusOK, newFriendRequestResponse(req))
		return
	}
	h.notify(targetID, hub.EventFriendRequestReceived, gin.H{"request_id": req.ID, "user_id": viewerID})
	c.JSON(http.StatusCreated, newFriendRequestResponse(req))
}

// ListRequests godoc
// @Summary      List pending friend requests
// @Description  Pending requests received by (incoming) or sent by (outgoing) the authenticated user, newest first.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        direction query     string  false  "incoming or outgoing" default(incoming)
// @Param        page      query     int     false  "Page number" default(1)
// @Param        limit     query     int     false  "Items per page" default(10)
// @Success      200       {object}  pagination.Response[FriendRequestResponse]
// @Failure      400       {object}  ErrorResponse
// @Failure      401       {object}  ErrorResponse
// @Router       /users/me/requests [get]
func (h *Handler) ListRequests(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	viewerID, _ := auth.UserID(c)
	ctx := c.Request.Context()

	var (
		reqs  []models.FriendRequest
		total int64
		err   error
	)
	switch store.RequestDirection(c.DefaultQuery("direction", string(store.Incoming))) {
	case store.Incoming:
		reqs, total, err = h.engine.Requests.Incoming(ctx, viewerID, page.Number, page.Size)
	case store.Outgoing:
		reqs, total, err = h.engine.Requests.Outgoing(ctx, viewerID, page.Number, page.Size)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be incoming or outgoing"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	others := make([]uint, len(reqs))
	for i, r := range reqs {
		others[i] = r.SenderID
		if r.SenderID == viewerID {
			others[i] = r.ReceiverID
		}
	}
	summaries, err := h.summaries(c, others)
	if err != nil {
		respondError(c, err)
		return
	}
	byID := make(map[uint]UserSummary, len(summaries))
	for _, s := range summaries {
		byID[s.ID] = s
	}

	out := make([]FriendRequestResponse, len(reqs))
	for i := range reqs {
		out[i] = newFriendRequestResponse(&reqs[i])
		if s, ok := byID[others[i]]; ok {
			out[i].Other = &s
		}
	}
	c.JSON(http.StatusOK, pagination.NewResponse(out, total, page))
}

// requestFor loads a request the viewer takes part in. Requests between other
// users are reported as not found.
func (h *Handler) requestFor(c *gin.Context) (*models.FriendRequest, uint, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, 0, false
	}
	viewerID, _ := auth.UserID(c)

	req, err := h.engine.Requests.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, 0, false
	}
	if req.SenderID != viewerID && req.ReceiverID != viewerID {
		respondError(c, social.ErrNotFound)
		return nil, 0, false
	}
	return req, viewerID, true
}

// AcceptRequest godoc
// @Summary      Accept friend request
// @Description  Accepts a pending friend request addressed to the authenticated user. Accepting twice is a no-op.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  FriendRequestResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Only the receiver may accept"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Router       /requests/{id}/accept [post]
func (h *Handler) AcceptRequest(c *gin.Context) {
	req, viewerID, ok := h.requestFor(c)
	if !ok {
		return
	}
	if req.ReceiverID != viewerID {
		respondError(c, social.ErrPermissionDenied)
		return
	}

	req, accepted, err := h.engine.Requests.Accept(c.Request.Context(), req.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if accepted {
		h.notify(req.SenderID, hub.EventFriendRequestAccepted, gin.H{"request_id": req.ID, "user_id": viewerID})
	}
	c.JSON(http.StatusOK, newFriendRequestResponse(req))
}

// RejectRequest godoc
// @Summary      Reject friend request
// @Description  Deletes a pending friend request addressed to the authenticated user.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Only the receiver may reject"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Router       /requests/{id}/reject [post]
func (h *Handler) RejectRequest(c *gin.Context) {
	req, viewerID, ok := h.requestFor(c)
	if !ok {
		return
	}
	if req.ReceiverID != viewerID {
		respondError(c, social.ErrPermissionDenied)
		return
	}

	if err := h.engine.Requests.Reject(c.Request.Context(), req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Request rejected"})
}

// CancelRequest godoc
// @Summary      Cancel friend request
// @Description  Withdraws a pending friend request sent by the authenticated user.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Only the sender may cancel"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Router       /requests/{id}/cancel [post]
func (h *Handler) CancelRequest(c *gin.Context) {
	req, viewerID, ok := h.requestFor(c)
	if !ok {
		return
	}
	if req.SenderID != viewerID {
		respondError(c, social.ErrPermissionDenied)
		return
	}

	if err := h.engine.Requests.Cancel(c.Request.Context(), req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Request cancelled"})
}

// RemoveFriend godoc
// @Summary      Remove friend
// @Description  Ends the friendship between the authenticated user and another user.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Friend User ID"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Not friends"
// @Router       /users/{id}/remove [post]
func (h *Handler) RemoveFriend(c *gin.Context) {
	friendID, ok := parseID(c, "id")
	if !ok {
		return
	}
	viewerID, _ := auth.UserID(c)

	if err := h.engine.Requests.Unfriend(c.Request.Context(), viewerID, friendID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Friend removed"})
}
