// Package store defines the persistence port the social engine runs against.
// Implementations live in gormstore (postgres) and memstore (in-process).
package store

import (
	"context"
	"errors"

	"socialgraph/backend/internal/models"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// RequestDirection selects which side of a friend request a listing is keyed on.
type RequestDirection string

const (
	Incoming RequestDirection = "incoming"
	Outgoing RequestDirection = "outgoing"
)

// RequestFilter narrows ListFriendRequests and CountFriendRequests.
// An empty Status matches every status.
type RequestFilter struct {
	UserID    uint
	Direction RequestDirection
	Status    models.FriendRequestStatus
}

// Store is the content and graph store. Every method is a bounded read or write;
// WithTransaction scopes a group of them into one atomic unit.
type Store interface {
	// WithTransaction runs fn against a transactional view of the store.
	// A non-nil error from fn rolls back every write made through tx.
	// Calling it on a transactional view joins the outer transaction.
	WithTransaction(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	// FindUserByLogin matches either the nickname or the email.
	FindUserByLogin(ctx context.Context, login string) (*models.User, error)
	SearchUsers(ctx context.Context, query string, offset, limit int) ([]models.User, error)
	CountUsers(ctx context.Context, query string) (int64, error)

	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfile(ctx context.Context, userID uint) (*models.Profile, error)
	// GetProfiles loads profiles with their users, in the order of ids.
	// Missing ids are skipped.
	GetProfiles(ctx context.Context, ids []uint) ([]models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	// LockProfiles takes row locks on the given profiles in ascending ID order.
	// Outside a transaction it only checks that they exist.
	LockProfiles(ctx context.Context, ids ...uint) error

	// InsertFriendship writes both directions of the edge a-b. An existing edge
	// is left untouched.
	InsertFriendship(ctx context.Context, a, b uint) error
	// DeleteFriendship removes both directions of the edge; a missing edge is not an error.
	DeleteFriendship(ctx context.Context, a, b uint) error
	FriendshipExists(ctx context.Context, a, b uint) (bool, error)
	// ListFriendIDs returns userID's friends in insertion order.
	// A negative limit returns every friend from offset on.
	ListFriendIDs(ctx context.Context, userID uint, offset, limit int) ([]uint, error)
	CountFriends(ctx context.Context, userID uint) (int64, error)
	// ListMutualFriendIDs returns the intersection of a's and b's friends
	// ordered by ID. A negative limit returns the whole intersection.
	ListMutualFriendIDs(ctx context.Context, a, b uint, offset, limit int) ([]uint, error)
	CountMutualFriends(ctx context.Context, a, b uint) (int64, error)

	CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error
	GetFriendRequest(ctx context.Context, id uint, forUpdate bool) (*models.FriendRequest, error)
	FindFriendRequest(ctx context.Context, senderID, receiverID uint, forUpdate bool) (*models.FriendRequest, error)
	UpdateFriendRequestStatus(ctx context.Context, id uint, status models.FriendRequestStatus) error
	DeleteFriendRequest(ctx context.Context, id uint) error
	// DeleteFriendRequestsBetween removes requests in both directions.
	DeleteFriendRequestsBetween(ctx context.Context, a, b uint) error
	// ListFriendRequests returns matching requests, newest first.
	ListFriendRequests(ctx context.Context, filter RequestFilter, offset, limit int) ([]models.FriendRequest, error)
	CountFriendRequests(ctx context.Context, filter RequestFilter) (int64, error)

	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	DeletePost(ctx context.Context, id uint) error
	// ListPostsByAuthor returns posts newest first.
	ListPostsByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]models.Post, error)
	CountPostsByAuthor(ctx context.Context, authorID uint) (int64, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	DeleteComment(ctx context.Context, id uint) error
	// ListComments returns a post's comments oldest first.
	ListComments(ctx context.Context, postID uint, offset, limit int) ([]models.Comment, error)
	CountComments(ctx context.Context, postID uint) (int64, error)

	// UpsertReaction inserts the reaction or replaces the kind of the existing
	// reaction by the same user on the same post.
	UpsertReaction(ctx context.Context, reaction *models.Reaction) error
	GetReaction(ctx context.Context, postID, userID uint) (*models.Reaction, error)
	ReactionExists(ctx context.Context, postID, userID uint) (bool, error)
	// DeleteReaction returns ErrNotFound when the user has not reacted.
	DeleteReaction(ctx context.Context, postID, userID uint) error
	CountReactionsByKind(ctx context.Context, postID uint) (map[models.ReactionKind]int64, error)
}
