package handler

import (
	"errors"
	"net/http"

	"socialgraph/backend/internal/auth"
	"socialgraph/backend/internal/models"
	"socialgraph/backend/internal/pagination"
	"socialgraph/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// UserSummary is the compact form used in lists.
type UserSummary struct {
	ID        uint    `json:"id" example:"1"`
	Nickname  string  `json:"nickname" example:"testuser"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// PublicUserResponse defines the structure for a user's public profile.
type PublicUserResponse struct {
	ID                 uint    `json:"id" example:"1"`
	Nickname           string  `json:"nickname" example:"testuser"`
	Bio                string  `json:"bio"`
	AvatarURL          *string `json:"avatar_url,omitempty"`
	FriendsCount       int     `json:"friends_count"`
	MutualFriendsCount int     `json:"mutual_friends_count"`
	IsFriend           bool    `json:"is_friend"`
	// RequestStatus is "outgoing" or "incoming" while a request between the
	// viewer and this user is pending.
	RequestStatus string `json:"request_status,omitempty" example:"outgoing"`
	RequestID     *uint  `json:"request_id,omitempty"`
}

// PrivateUserResponse defines the structure for the authenticated user's own profile.
type PrivateUserResponse struct {
	ID           uint    `json:"id" example:"1"`
	Nickname     string  `json:"nickname" example:"testuser"`
	Email        string  `json:"email" example:"test@example.com"`
	Role         string  `json:"role" example:"user"`
	Bio          string  `json:"bio"`
	AvatarURL    *string `json:"avatar_url,omitempty"`
	FriendsCount int     `json:"friends_count"`
	Incoming     int64   `json:"incoming_requests"`
	Outgoing     int64   `json:"outgoing_requests"`
}

// UpdateProfileInput replaces the editable profile fields.
type UpdateProfileInput struct {
	Bio       string  `json:"bio" binding:"max=500" example:"Hello there"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
}

// endregion

// region --- User Handlers ---

// SearchUsers godoc
// @Summary      Search for users
// @Description  Searches for users by nickname with pagination.
// @Tags         users
// @Produce      json
// @Param        q     query     string  false  "Search query for nickname"
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(10)
// @Success      200   {object}  pagination.Response[UserSummary]
// @Failure      400   {object}  ErrorResponse
// @Router       /users [get]
func (h *Handler) SearchUsers(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	query := c.Query("q")

	total, err := h.store.CountUsers(ctx, query)
	if err != nil {
		respondError(c, err)
		return
	}
	users, err := h.store.SearchUsers(ctx, query, page.Offset(), page.Limit())
	if err != nil {
		respondError(c, err)
		return
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	summaries, err := h.summaries(c, ids)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.NewResponse(summaries, total, page))
}

// GetUserByID godoc
// @Summary      Get user by ID
// @Description  Retrieves the public profile for a specific user, including relationship data for the viewer.
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  PublicUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func (h *Handler) GetUserByID(c *gin.Context) {
	targetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	profile, err := h.engine.Profiles.Get(c.Request.Context(), targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	response, err := h.buildPublicUserResponse(c, profile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetMe godoc
// @Summary      Get current user's info
// @Description  Retrieves the private profile for the currently authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID, _ := auth.UserID(c)

	profile, err := h.engine.Profiles.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response, err := h.buildPrivateUserResponse(c, profile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// UpdateMe godoc
// @Summary      Update current user's profile
// @Description  Replaces the bio and avatar of the authenticated user's profile.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UpdateProfileInput true "Profile"
// @Success      200  {object}  PrivateUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me [put]
func (h *Handler) UpdateMe(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.engine.Profiles.Update(c.Request.Context(), auth.ViewerFrom(c), input.Bio, input.AvatarURL)
	if err != nil {
		respondError(c, err)
		return
	}
	// Update does not reload the user row.
	if profile, err = h.engine.Profiles.Get(c.Request.Context(), profile.UserID); err != nil {
		respondError(c, err)
		return
	}

	response, err := h.buildPrivateUserResponse(c, profile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetFriends godoc
// @Summary      List a user's friends
// @Description  Friends of the user as visible to the viewer: the full list for the user and their friends, mutual friends for anyone else signed in, nothing for anonymous viewers.
// @Tags         friendship
// @Produce      json
// @Param        id    path      int  true   "User ID"
// @Param        page  query     int  false  "Page number" default(1)
// @Param        limit query     int  false  "Items per page" default(10)
// @Success      200   {object}  pagination.Response[UserSummary]
// @Failure      400   {object}  ErrorResponse
// @Router       /users/{id}/friends [get]
func (h *Handler) GetFriends(c *gin.Context) {
	ownerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	page, ok := pageParams(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	viewer := auth.ViewerFrom(c)

	ids, err := h.engine.Visibility.VisibleFriends(ctx, ownerID, viewer, page.Number, page.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	total, err := h.engine.Visibility.VisibleFriendCount(ctx, ownerID, viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	summaries, err := h.summaries(c, ids)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.NewResponse(summaries, int64(total), page))
}

// GetMutualFriends godoc
// @Summary      List mutual friends
// @Description  Friends the authenticated user has in common with another user, in ascending ID order.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int  true   "User ID"
// @Param        page  query     int  false  "Page number" default(1)
// @Param        limit query     int  false  "Items per page" default(10)
// @Success      200   {object}  pagination.Response[UserSummary]
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /users/{id}/mutual-friends [get]
func (h *Handler) GetMutualFriends(c *gin.Context) {
	otherID, ok := parseID(c, "id")
	if !ok {
		return
	}
	page, ok := pageParams(c)
	if !ok {
		return
	}
	userID, _ := auth.UserID(c)
	ctx := c.Request.Context()

	ids, err := h.engine.Graph.MutualFriendsPage(ctx, userID, otherID, page.Number, page.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	total, err := h.engine.Graph.MutualFriendCount(ctx, userID, otherID)
	if err != nil {
		respondError(c, err)
		return
	}
	summaries, err := h.summaries(c, ids)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.NewResponse(summaries, int64(total), page))
}

// endregion

// region --- Helpers ---

// summaries loads the profiles for ids, keeping their order.
func (h *Handler) summaries(c *gin.Context, ids []uint) ([]UserSummary, error) {
	profiles, err := h.store.GetProfiles(c.Request.Context(), ids)
	if err != nil {
		return nil, err
	}
	out := make([]UserSummary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, UserSummary{ID: p.UserID, Nickname: p.User.Nickname, AvatarURL: p.AvatarURL})
	}
	return out, nil
}

func (h *Handler) buildPublicUserResponse(c *gin.Context, profile *models.Profile) (PublicUserResponse, error) {
	ctx := c.Request.Context()
	response := PublicUserResponse{
		ID:        profile.UserID,
		Nickname:  profile.User.Nickname,
		Bio:       profile.Bio,
		AvatarURL: profile.AvatarURL,
	}

	var err error
	if response.FriendsCount, err = h.engine.Graph.FriendCount(ctx, profile.UserID); err != nil {
		return response, err
	}

	viewerID, ok := auth.UserID(c)
	if !ok || viewerID == profile.UserID {
		return response, nil
	}
	if response.MutualFriendsCount, err = h.engine.Graph.MutualFriendCount(ctx, viewerID, profile.UserID); err != nil {
		return response, err
	}
	if response.IsFriend, err = h.engine.Graph.IsFriend(ctx, viewerID, profile.UserID); err != nil {
		return response, err
	}

	for _, side := range []struct {
		sender, receiver uint
		status           string
	}{
		{viewerID, profile.UserID, string(store.Outgoing)},
		{profile.UserID, viewerID, string(store.Incoming)},
	} {
		req, err := h.store.FindFriendRequest(ctx, side.sender, side.receiver, false)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return response, err
		}
		if req.Status == models.RequestPending {
			response.RequestStatus = side.status
			response.RequestID = &req.ID
			break
		}
	}
	return response, nil
}

func (h *Handler) buildPrivateUserResponse(c *gin.Context, profile *models.Profile) (PrivateUserResponse, error) {
	ctx := c.Request.Context()
	response := PrivateUserResponse{
		ID:        profile.UserID,
		Nickname:  profile.User.Nickname,
		Email:     profile.User.Email,
		Role:      profile.User.Role,
		Bio:       profile.Bio,
		AvatarURL: profile.AvatarURL,
	}

	var err error
	if response.FriendsCount, err = h.engine.Graph.FriendCount(ctx, profile.UserID); err != nil {
		return response, err
	}
	pending := store.RequestFilter{UserID: profile.UserID, Status: models.RequestPending}
	pending.Direction = store.Incoming
	if response.Incoming, err = h.store.CountFriendRequests(ctx, pending); err != nil {
		return response, err
	}
	pending.Direction = store.Outgoing
	if response.Outgoing, err = h.store.CountFriendRequests(ctx, pending); err != nil {
		return response, err
	}
	return response, nil
}

// endregion
