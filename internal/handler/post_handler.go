package handler

import (
	"net/http"
	"time"

	"socialgraph/backend/internal/auth"
	"socialgraph/backend/internal/hub"
	"socialgraph/backend/internal/models"
	"socialgraph/backend/internal/pagination"
	"socialgraph/backend/internal/social"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// PostInput defines the structure for creating a post.
type PostInput struct {
	Content  string  `json:"content" binding:"required,max=5000" example:"Hello world"`
	ImageURL *string `json:"image_url" binding:"omitempty,url"`
}

// PostResponse is a post as returned to viewers allowed to see it.
type PostResponse struct {
	ID        uint      `json:"id" example:"1"`
	AuthorID  uint      `json:"author_id" example:"1"`
	Content   string    `json:"content" example:"Hello world"`
	ImageURL  *string   `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentInput defines the structure for commenting on a post.
type CommentInput struct {
	Text string `json:"text" binding:"required,max=2000" example:"Nice!"`
}

// CommentResponse is one comment on a post.
type CommentResponse struct {
	ID        uint      `json:"id" example:"1"`
	PostID    uint      `json:"post_id" example:"1"`
	UserID    uint      `json:"user_id" example:"2"`
	Text      string    `json:"text" example:"Nice!"`
	CreatedAt time.Time `json:"created_at"`
}

// ReactionInput sets the viewer's reaction on a post.
type ReactionInput struct {
	Kind models.ReactionKind `json:"kind" binding:"required" example:"like"`
}

// ReactionSummaryResponse aggregates the reactions on a post.
type ReactionSummaryResponse struct {
	Counts         map[models.ReactionKind]int64 `json:"counts"`
	TotalReactions int64                         `json:"total_reactions"`
	TotalComments  int64                         `json:"total_comments"`
	HasReacted     bool                          `json:"has_reacted"`
	ViewerReaction models.ReactionKind           `json:"viewer_reaction,omitempty"`
}

func newPostResponse(p *models.Post) PostResponse {
	return PostResponse{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
	}
}

func newCommentResponse(cm *models.Comment) CommentResponse {
	return CommentResponse{
		ID:        cm.ID,
		PostID:    cm.PostID,
		UserID:    cm.UserID,
		Text:      cm.Text,
		CreatedAt: cm.CreatedAt,
	}
}

// endregion

// region --- Posts ---

// CreatePost godoc
// @Summary      Create a post
// @Description  Publishes a post authored by the authenticated user.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body PostInput true "Post"
// @Success      201  {object}  PostResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var input PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.engine.Visibility.CreatePost(c.Request.Context(), auth.ViewerFrom(c), input.Content, input.ImageURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newPostResponse(post))
}

// GetPost godoc
// @Summary      Get a post
// @Description  Returns a post if the viewer is its author or a friend of the author.
// @Tags         posts
// @Produce      json
// @Param        id   path      int  true  "Post ID"
// @Success      200  {object}  PostResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Post not found or not visible"
// @Router       /posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	post, err := h.engine.Visibility.GetPost(c.Request.Context(), auth.ViewerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPostResponse(post))
}

// DeletePost godoc
// @Summary      Delete a post
// @Description  Deletes one of the authenticated user's posts with its comments and reactions.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Post ID"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /posts/{id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.engine.Visibility.DeletePost(c.Request.Context(), auth.ViewerFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetUserPosts godoc
// @Summary      List a user's posts
// @Description  Newest first. Viewers who are neither the author nor a friend get an empty page.
// @Tags         posts
// @Produce      json
// @Param        id    path      int  true   "User ID"
// @Param        page  query     int  false  "Page number" default(1)
// @Param        limit query     int  false  "Items per page" default(10)
// @Success      200   {object}  pagination.Response[PostResponse]
// @Failure      400   {object}  ErrorResponse
// @Router       /users/{id}/posts [get]
func (h *Handler) GetUserPosts(c *gin.Context) {
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

	posts, err := h.engine.Visibility.VisiblePosts(ctx, ownerID, viewer, page.Number, page.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	total, err := h.engine.Visibility.VisiblePostCount(ctx, ownerID, viewer)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]PostResponse, len(posts))
	for i := range posts {
		out[i] = newPostResponse(&posts[i])
	}
	c.JSON(http.StatusOK, pagination.NewResponse(out, total, page))
}

// endregion

// region --- Comments ---

// GetComments godoc
// @Summary      List comments
// @Description  Comments on a visible post, oldest first.
// @Tags         comments
// @Produce      json
// @Param        id    path      int  true   "Post ID"
// @Param        page  query     int  false  "Page number" default(1)
// @Param        limit query     int  false  "Items per page" default(10)
// @Success      200   {object}  pagination.Response[CommentResponse]
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse "Post not found or not visible"
// @Router       /posts/{id}/comments [get]
func (h *Handler) GetComments(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	page, ok := pageParams(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	viewer := auth.ViewerFrom(c)

	comments, err := h.engine.Visibility.VisibleComments(ctx, postID, viewer, page.Number, page.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	total, err := h.store.CountComments(ctx, postID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]CommentResponse, len(comments))
	for i := range comments {
		out[i] = newCommentResponse(&comments[i])
	}
	c.JSON(http.StatusOK, pagination.NewResponse(out, total, page))
}

// AddComment godoc
// @Summary      Comment on a post
// @Description  The post's author and the author's friends may comment.
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int           true  "Post ID"
// @Param        input body  CommentInput  true  "Comment"
// @Success      201  {object}  CommentResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /posts/{id}/comments [post]
func (h *Handler) AddComment(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	viewerID, _ := auth.UserID(c)

	comment, err := h.engine.Visibility.AddComment(ctx, social.ViewerFor(viewerID), postID, input.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	if post, err := h.store.GetPost(ctx, postID); err == nil && post.AuthorID != viewerID {
		h.notify(post.AuthorID, hub.EventCommentCreated, newCommentResponse(comment))
	}
	c.JSON(http.StatusCreated, newCommentResponse(comment))
}

// DeleteComment godoc
// @Summary      Delete a comment
// @Description  The comment's author and the post's author may delete it.
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Comment ID"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /comments/{id} [delete]
func (h *Handler) DeleteComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.engine.Visibility.DeleteComment(c.Request.Context(), auth.ViewerFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// endregion

// region --- Reactions ---

// SetReaction godoc
// @Summary      React to a post
// @Description  Sets the authenticated user's reaction on a visible post, replacing any earlier one.
// @Tags         reactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int            true  "Post ID"
// @Param        input body  ReactionInput  true  "Reaction"
// @Success      200  {object}  ReactionSummaryResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /posts/{id}/reaction [put]
func (h *Handler) SetReaction(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input ReactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	viewerID, _ := auth.UserID(c)
	viewer := social.ViewerFor(viewerID)

	reaction, err := h.engine.Visibility.SetReaction(ctx, viewer, postID, input.Kind)
	if err != nil {
		respondError(c, err)
		return
	}
	if post, err := h.store.GetPost(ctx, postID); err == nil && post.AuthorID != viewerID {
		h.notify(post.AuthorID, hub.EventReactionSet, gin.H{"post_id": postID, "user_id": viewerID, "kind": reaction.Kind})
	}
	h.respondSummary(c, postID, viewer)
}

// RemoveReaction godoc
// @Summary      Remove reaction
// @Description  Removes the authenticated user's reaction from a post.
// @Tags         reactions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Post ID"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "No reaction"
// @Router       /posts/{id}/reaction [delete]
func (h *Handler) RemoveReaction(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.engine.Visibility.RemoveReaction(c.Request.Context(), auth.ViewerFrom(c), postID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetReactions godoc
// @Summary      Reaction summary
// @Description  Per-kind reaction counts and totals for a post. A post the viewer may not see is reported as not found.
// @Tags         reactions
// @Produce      json
// @Param        id   path      int  true  "Post ID"
// @Success      200  {object}  ReactionSummaryResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Post not found or not visible"
// @Router       /posts/{id}/reactions [get]
func (h *Handler) GetReactions(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	h.respondSummary(c, postID, auth.ViewerFrom(c))
}

func (h *Handler) respondSummary(c *gin.Context, postID uint, viewer social.Viewer) {
	s, err := h.engine.Visibility.Summary(c.Request.Context(), postID, viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ReactionSummaryResponse{
		Counts:         s.Counts,
		TotalReactions: s.TotalReactions,
		TotalComments:  s.TotalComments,
		HasReacted:     s.HasReacted,
		ViewerReaction: s.ViewerReaction,
	})
}

// endregion
