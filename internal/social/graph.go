package social

import (
	"context"

	"socialgraph/backend/internal/pagination"
	"socialgraph/backend/internal/store"
)

// Graph answers questions about the symmetric friend graph. Edges are only
// written through Requests.
type Graph struct {
	store store.Store
}

// NewGraph returns a Graph reading from s.
func NewGraph(s store.Store) *Graph {
	return &Graph{store: s}
}

// addFriendEdge inserts the undirected edge a-b. Adding an existing edge is a
// no-op. The store writes both directions atomically under a uniqueness
// constraint, so concurrent calls cannot produce duplicates.
func (g *Graph) addFriendEdge(ctx context.Context, a, b uint) error {
	if a == b {
		return ErrSelfEdge
	}
	return storeErr("add friend edge", g.store.InsertFriendship(ctx, a, b))
}

func (g *Graph) removeFriendEdge(ctx context.Context, a, b uint) error {
	if a == b {
		return ErrSelfEdge
	}
	return storeErr("remove friend edge", g.store.DeleteFriendship(ctx, a, b))
}

// IsFriend reports whether a and b are friends. It is symmetric and always
// false for a == b.
func (g *Graph) IsFriend(ctx context.Context, a, b uint) (bool, error) {
	if a == b {
		return false, nil
	}
	ok, err := g.store.FriendshipExists(ctx, a, b)
	return ok, storeErr("is friend", err)
}

// FriendsOf returns one page of userID's friends in the order the edges were created.
func (g *Graph) FriendsOf(ctx context.Context, userID uint, page, pageSize int) ([]uint, error) {
	p, err := pagination.New(page, pageSize)
	if err != nil {
		return nil, err
	}
	ids, err := g.store.ListFriendIDs(ctx, userID, p.Offset(), p.Limit())
	if err != nil {
		return nil, storeErr("friends of", err)
	}
	return nonNil(ids), nil
}

// MutualFriends returns the intersection of a's and b's friend sets ordered
// by ID. It is empty when a == b or either side has no friends.
func (g *Graph) MutualFriends(ctx context.Context, a, b uint) ([]uint, error) {
	if a == b {
		return []uint{}, nil
	}
	ids, err := g.store.ListMutualFriendIDs(ctx, a, b, 0, -1)
	return ids, storeErr("mutual friends", err)
}

// MutualFriendsPage is MutualFriends sliced to one page.
func (g *Graph) MutualFriendsPage(ctx context.Context, a, b uint, page, pageSize int) ([]uint, error) {
	p, err := pagination.New(page, pageSize)
	if err != nil {
		return nil, err
	}
	if a == b {
		return []uint{}, nil
	}
	ids, err := g.store.ListMutualFriendIDs(ctx, a, b, p.Offset(), p.Limit())
	if err != nil {
		return nil, storeErr("mutual friends", err)
	}
	return nonNil(ids), nil
}

// MutualFriendCount is len(MutualFriends(a, b)).
func (g *Graph) MutualFriendCount(ctx context.Context, a, b uint) (int, error) {
	if a == b {
		return 0, nil
	}
	n, err := g.store.CountMutualFriends(ctx, a, b)
	return int(n), storeErr("mutual friend count", err)
}

func (g *Graph) FriendCount(ctx context.Context, userID uint) (int, error) {
	n, err := g.store.CountFriends(ctx, userID)
	return int(n), storeErr("friend count", err)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
