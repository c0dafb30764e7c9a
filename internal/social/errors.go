package social

import (
	"errors"
	"fmt"

	"socialgraph/backend/internal/pagination"
	"socialgraph/backend/internal/store"
)

var (
	// ErrSelfEdge is returned when a profile is befriended or unfriended with itself.
	ErrSelfEdge = errors.New("a profile cannot be its own friend")
	// ErrSelfRequest is returned when a user sends a friend request to themselves.
	ErrSelfRequest = errors.New("cannot send a friend request to yourself")
	// ErrDuplicateRequest is returned when a pending request already exists for the pair.
	ErrDuplicateRequest = errors.New("friend request already sent")
	// ErrAlreadyFriends is returned when a request is sent to an existing friend.
	ErrAlreadyFriends = errors.New("users are already friends")
	// ErrPermissionDenied is returned by write paths the viewer is not entitled to.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound is returned when a referenced profile, request, post or comment is absent.
	ErrNotFound = errors.New("not found")
	// ErrProfileExists is returned when a profile is provisioned twice.
	ErrProfileExists = errors.New("profile already exists")
	// ErrInvalidReaction is returned for an unknown reaction kind.
	ErrInvalidReaction = errors.New("invalid reaction kind")
	// ErrEmptyContent is returned when a post or comment has no text.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidPage is returned for a non-positive page or page size.
	ErrInvalidPage = pagination.ErrInvalidPage
)

// storeErr converts a store miss into ErrNotFound and wraps anything else with
// the failing operation.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
