package social

import (
	"context"
	"errors"
	"strings"

	"socialgraph/backend/internal/models"
	"socialgraph/backend/internal/pagination"
	"socialgraph/backend/internal/store"
)

// Visibility decides what a viewer may read and write.
type Visibility struct {
	store store.Store
	graph *Graph
}

func NewVisibility(s store.Store) *Visibility {
	return &Visibility{store: s, graph: NewGraph(s)}
}

// CanView reports whether viewer may read ownerID's content: the owner and the
// owner's friends may, anonymous viewers and everyone else may not.
func (v *Visibility) CanView(ctx context.Context, viewer Viewer, ownerID uint) (bool, error) {
	switch who := viewer.(type) {
	case Authenticated:
		if who.UserID == ownerID {
			return true, nil
		}
		return v.graph.IsFriend(ctx, who.UserID, ownerID)
	case Anonymous:
		return false, nil
	default:
		return false, nil
	}
}

// VisiblePosts returns ownerID's posts newest first, or an empty page when the
// viewer may not see them. A denial looks exactly like an owner with no posts.
func (v *Visibility) VisiblePosts(ctx context.Context, ownerID uint, viewer Viewer, page, pageSize int) ([]models.Post, error) {
	p, err := pagination.New(page, pageSize)
	if err != nil {
		return nil, err
	}
	ok, err := v.CanView(ctx, viewer, ownerID)
	if err != nil || !ok {
		return []models.Post{}, err
	}
	posts, err := v.store.ListPostsByAuthor(ctx, ownerID, p.Offset(), p.Limit())
	if err != nil {
		return nil, storeErr("visible posts", err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

// VisiblePostCount is the total VisiblePosts pages through.
func (v *Visibility) VisiblePostCount(ctx context.Context, ownerID uint, viewer Viewer) (int64, error) {
	ok, err := v.CanView(ctx, viewer, ownerID)
	if err != nil || !ok {
		return 0, err
	}
	n, err := v.store.CountPostsByAuthor(ctx, ownerID)
	return n, storeErr("visible post count", err)
}

// VisibleFriends returns the part of ownerID's friend list the viewer may see.
// The owner and the owner's friends see the whole list. Any other
// authenticated viewer sees only the friends they have in common with the
// owner. Mutual connections are discoverable network-wide, which makes this
// a deliberate exception to CanView. Anonymous viewers see nothing.
func (v *Visibility) VisibleFriends(ctx context.Context, ownerID uint, viewer Viewer, page, pageSize int) ([]uint, error) {
	p, err := pagination.New(page, pageSize)
	if err != nil {
		return nil, err
	}
	who, ok := viewer.(Authenticated)
	if !ok {
		return []uint{}, nil
	}
	full, err := v.CanView(ctx, who, ownerID)
	if err != nil {
		return nil, err
	}
	if full {
		return v.graph.FriendsOf(ctx, ownerID, p.Number, p.Size)
	}
	return v.graph.MutualFriendsPage(ctx, ownerID, who.UserID, p.Number, p.Size)
}

// VisibleFriendCount is the total VisibleFriends pages through.
func (v *Visibility) VisibleFriendCount(ctx context.Context, ownerID uint, viewer Viewer) (int, error) {
	who, ok := viewer.(Authenticated)
	if !ok {
		return 0, nil
	}
	full, err := v.CanView(ctx, who, ownerID)
	if err != nil {
		return 0, err
	}
	if full {
		return v.graph.FriendCount(ctx, ownerID)
	}
	return v.graph.MutualFriendCount(ctx, ownerID, who.UserID)
}

// region --- Posts ---

// CreatePost publishes a post authored by the viewer.
func (v *Visibility) CreatePost(ctx context.Context, viewer Viewer, content string, imageURL *string) (*models.Post, error) {
	who, ok := viewer.(Authenticated)
	if !ok {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	post := &models.Post{AuthorID: who.UserID, Content: content, ImageURL: imageURL}
	if err := v.store.CreatePost(ctx, post); err != nil {
		return nil, storeErr("create post", err)
	}
	return post, nil
}

// GetPost returns a post the viewer may see. A post the viewer may not see
// is reported as ErrNotFound.
func (v *Visibility) GetPost(ctx context.Context, viewer Viewer, id uint) (*models.Post, error) {
	post, err := v.store.GetPost(ctx, id)
	if err != nil {
		return nil, storeErr("get post", err)
	}
	ok, err := v.CanView(ctx, viewer, post.AuthorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storeErr("get post", store.ErrNotFound)
	}
	return post, nil
}

// DeletePost removes one of the viewer's own posts together with its comments and reactions.
func (v *Visibility) DeletePost(ctx context.Context, viewer Viewer, id uint) error {
	post, err := v.store.GetPost(ctx, id)
	if err != nil {
		return storeErr("delete post", err)
	}
	if who, ok := viewer.(Authenticated); !ok || who.UserID != post.AuthorID {
		return ErrPermissionDenied
	}
	return storeErr("delete post", v.store.DeletePost(ctx, id))
}

// ModeratePost deletes any post. Callers must have checked the moderator role.
func (v *Visibility) ModeratePost(ctx context.Context, id uint) error {
	return storeErr("moderate post", v.store.DeletePost(ctx, id))
}

// endregion

// region --- Comments ---

// CanComment reports whether viewer may comment on post: its author and the
// author's friends may.
func (v *Visibility) CanComment(ctx context.Context, post *models.Post, viewer Viewer) (bool, error) {
	switch who := viewer.(type) {
	case Authenticated:
		if who.UserID == post.AuthorID {
			return true, nil
		}
		return v.graph.IsFriend(ctx, who.UserID, post.AuthorID)
	default:
		return false, nil
	}
}

// AddComment stores a comment after checking CanComment. Nothing is written on
// ErrPermissionDenied.
func (v *Visibility) AddComment(ctx context.Context, viewer Viewer, postID uint, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyContent
	}
	post, err := v.store.GetPost(ctx, postID)
	if err != nil {
		return nil, storeErr("add comment", err)
	}
	ok, err := v.CanComment(ctx, post, viewer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPermissionDenied
	}

	comment := &models.Comment{
		PostID: post.ID,
		UserID: viewer.(Authenticated).UserID,
		Text:   text,
	}
	if err := v.store.CreateComment(ctx, comment); err != nil {
		return nil, storeErr("add comment", err)
	}
	return comment, nil
}

// VisibleComments returns a post's comments oldest first. A post the viewer
// may not see is reported as ErrNotFound, exactly like a missing one.
func (v *Visibility) VisibleComments(ctx context.Context, postID uint, viewer Viewer, page, pageSize int) ([]models.Comment, error) {
	p, err := pagination.New(page, pageSize)
	if err != nil {
		return nil, err
	}
	post, err := v.store.GetPost(ctx, postID)
	if err != nil {
		return nil, storeErr("visible comments", err)
	}
	ok, err := v.CanView(ctx, viewer, post.AuthorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storeErr("visible comments", store.ErrNotFound)
	}
	comments, err := v.store.ListComments(ctx, postID, p.Offset(), p.Limit())
	if err != nil {
		return nil, storeErr("visible comments", err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

// DeleteComment removes a comment. The comment's author and the post's author may do so.
func (v *Visibility) DeleteComment(ctx context.Context, viewer Viewer, id uint) error {
	who, ok := viewer.(Authenticated)
	if !ok {
		return ErrPermissionDenied
	}
	comment, err := v.store.GetComment(ctx, id)
	if err != nil {
		return storeErr("delete comment", err)
	}
	if comment.UserID != who.UserID {
		post, err := v.store.GetPost(ctx, comment.PostID)
		if err != nil {
			return storeErr("delete comment", err)
		}
		if post.AuthorID != who.UserID {
			return ErrPermissionDenied
		}
	}
	return storeErr("delete comment", v.store.DeleteComment(ctx, id))
}

// ModerateComment deletes any comment. Callers must have checked the moderator role.
func (v *Visibility) ModerateComment(ctx context.Context, id uint) error {
	return storeErr("moderate comment", v.store.DeleteComment(ctx, id))
}

// endregion

// region --- Reactions ---

// HasReacted reports whether the viewer has a reaction on the post.
func (v *Visibility) HasReacted(ctx context.Context, postID uint, viewer Viewer) (bool, error) {
	who, ok := viewer.(Authenticated)
	if !ok {
		return false, nil
	}
	exists, err := v.store.ReactionExists(ctx, postID, who.UserID)
	return exists, storeErr("has reacted", err)
}

// SetReaction records the viewer's reaction on a post they can see, replacing
// any earlier reaction by the same viewer.
func (v *Visibility) SetReaction(ctx context.Context, viewer Viewer, postID uint, kind models.ReactionKind) (*models.Reaction, error) {
	if !kind.Valid() {
		return nil, ErrInvalidReaction
	}
	who, ok := viewer.(Authenticated)
	if !ok {
		return nil, ErrPermissionDenied
	}
	post, err := v.store.GetPost(ctx, postID)
	if err != nil {
		return nil, storeErr("set reaction", err)
	}
	visible, err := v.CanView(ctx, who, post.AuthorID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrPermissionDenied
	}

	reaction := &models.Reaction{PostID: postID, UserID: who.UserID, Kind: kind}
	if err := v.store.UpsertReaction(ctx, reaction); err != nil {
		return nil, storeErr("set reaction", err)
	}
	return reaction, nil
}

// RemoveReaction deletes the viewer's reaction on a post.
func (v *Visibility) RemoveReaction(ctx context.Context, viewer Viewer, postID uint) error {
	who, ok := viewer.(Authenticated)
	if !ok {
		return ErrPermissionDenied
	}
	return storeErr("remove reaction", v.store.DeleteReaction(ctx, postID, who.UserID))
}

// ReactionSummary aggregates the reactions and comments on a post.
type ReactionSummary struct {
	Counts         map[models.ReactionKind]int64
	TotalReactions int64
	TotalComments  int64
	HasReacted     bool
	// ViewerReaction is empty when the viewer has not reacted.
	ViewerReaction models.ReactionKind
}

// Summary returns the post's reaction summary. A post the viewer may not see
// is reported as ErrNotFound, exactly like a missing one.
func (v *Visibility) Summary(ctx context.Context, postID uint, viewer Viewer) (*ReactionSummary, error) {
	post, err := v.store.GetPost(ctx, postID)
	if err != nil {
		return nil, storeErr("reaction summary", err)
	}
	ok, err := v.CanView(ctx, viewer, post.AuthorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storeErr("reaction summary", store.ErrNotFound)
	}

	summary := &ReactionSummary{Counts: map[models.ReactionKind]int64{}}
	counts, err := v.store.CountReactionsByKind(ctx, postID)
	if err != nil {
		return nil, storeErr("reaction summary", err)
	}
	for kind, n := range counts {
		summary.Counts[kind] = n
		summary.TotalReactions += n
	}
	if summary.TotalComments, err = v.store.CountComments(ctx, postID); err != nil {
		return nil, storeErr("reaction summary", err)
	}

	if who, ok := viewer.(Authenticated); ok {
		mine, err := v.store.GetReaction(ctx, postID, who.UserID)
		switch {
		case err == nil:
			summary.HasReacted = true
			summary.ViewerReaction = mine.Kind
		case !errors.Is(err, store.ErrNotFound):
			return nil, storeErr("reaction summary", err)
		}
	}
	return summary, nil
}

// endregion
