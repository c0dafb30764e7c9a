package social

import (
	"context"
	"errors"

	"socialgraph/backend/internal/models"
	"socialgraph/backend/internal/pagination"
	"socialgraph/backend/internal/store"
)

// Requests is the friend-request state machine and the only writer of friend edges.
//
//	pending -> accepted   (row kept, edge created)
//	pending -> rejected   (status set, then row deleted)
//	pending -> canceled   (row deleted)
//
// Who may accept, reject or cancel a given request is decided by the caller.
type Requests struct {
	store store.Store
	opts  options
}

func NewRequests(s store.Store, opts ...Option) *Requests {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Requests{store: s, opts: o}
}

// Get returns a request by ID.
func (r *Requests) Get(ctx context.Context, id uint) (*models.FriendRequest, error) {
	req, err := r.store.GetFriendRequest(ctx, id, false)
	return req, storeErr("get friend request", err)
}

// Send creates a pending request from senderID to receiverID.
//
// If receiverID already has a pending request to senderID and reverse
// auto-accept is enabled, that request is accepted instead and returned.
func (r *Requests) Send(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, ErrSelfRequest
	}

	var out *models.FriendRequest
	err := r.store.WithTransaction(ctx, func(tx store.Store) error {
		// Serializes every send/accept between the same pair.
		if err := tx.LockProfiles(ctx, senderID, receiverID); err != nil {
			return storeErr("send friend request", err)
		}

		friends, err := NewGraph(tx).IsFriend(ctx, senderID, receiverID)
		if err != nil {
			return err
		}
		if friends {
			return ErrAlreadyFriends
		}

		existing, err := tx.FindFriendRequest(ctx, senderID, receiverID, true)
		switch {
		case err == nil && existing.Status == models.RequestPending:
			return ErrDuplicateRequest
		case err == nil:
			// Accepted row whose edge is gone; the pair may start over.
			if err := tx.DeleteFriendRequest(ctx, existing.ID); err != nil {
				return storeErr("send friend request", err)
			}
		case !errors.Is(err, store.ErrNotFound):
			return storeErr("send friend request", err)
		}

		if r.opts.autoAcceptReverse {
			reverse, err := tx.FindFriendRequest(ctx, receiverID, senderID, true)
			switch {
			case err == nil && reverse.Status == models.RequestPending:
				out, _, err = r.accept(ctx, tx, reverse)
				return err
			case err != nil && !errors.Is(err, store.ErrNotFound):
				return storeErr("send friend request", err)
			}
		}

		req := &models.FriendRequest{
			SenderID:   senderID,
			ReceiverID: receiverID,
			Status:     models.RequestPending,
		}
		if err := tx.CreateFriendRequest(ctx, req); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrDuplicateRequest
			}
			return storeErr("send friend request", err)
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Accept marks a pending request accepted and creates the friend edge, both in
// one transaction. A request that is no longer pending is returned unchanged.
// accepted reports whether this call performed the transition; of several
// concurrent accepts of one request exactly one sees true.
func (r *Requests) Accept(ctx context.Context, id uint) (req *models.FriendRequest, accepted bool, err error) {
	err = r.store.WithTransaction(ctx, func(tx store.Store) error {
		current, err := tx.GetFriendRequest(ctx, id, false)
		if err != nil {
			return storeErr("accept friend request", err)
		}
		// Profiles first, then the request row: the same order Send uses.
		if err := tx.LockProfiles(ctx, current.SenderID, current.ReceiverID); err != nil {
			return storeErr("accept friend request", err)
		}
		current, err = tx.GetFriendRequest(ctx, id, true)
		if err != nil {
			return storeErr("accept friend request", err)
		}
		req, accepted, err = r.accept(ctx, tx, current)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return req, accepted, nil
}

// accept runs inside tx with both profiles locked.
func (r *Requests) accept(ctx context.Context, tx store.Store, req *models.FriendRequest) (*models.FriendRequest, bool, error) {
	if req.Status != models.RequestPending {
		return req, false, nil
	}
	if err := tx.UpdateFriendRequestStatus(ctx, req.ID, models.RequestAccepted); err != nil {
		return nil, false, storeErr("accept friend request", err)
	}
	if err := NewGraph(tx).addFriendEdge(ctx, req.SenderID, req.ReceiverID); err != nil {
		return nil, false, err
	}
	req.Status = models.RequestAccepted
	return req, true, nil
}

// Reject marks a pending request rejected and deletes it, in one transaction.
// It is meant for the receiver.
func (r *Requests) Reject(ctx context.Context, id uint) error {
	return r.discard(ctx, id, "reject friend request", models.RequestRejected)
}

// Cancel deletes a pending request. It is meant for the sender.
func (r *Requests) Cancel(ctx context.Context, id uint) error {
	return r.discard(ctx, id, "cancel friend request", "")
}

// discard deletes a pending request, first moving it to final when final is set.
func (r *Requests) discard(ctx context.Context, id uint, op string, final models.FriendRequestStatus) error {
	return r.store.WithTransaction(ctx, func(tx store.Store) error {
		req, err := tx.GetFriendRequest(ctx, id, true)
		if err != nil {
			return storeErr(op, err)
		}
		if req.Status != models.RequestPending {
			return nil
		}
		if final != "" {
			if err := tx.UpdateFriendRequestStatus(ctx, req.ID, final); err != nil {
				return storeErr(op, err)
			}
		}
		return storeErr(op, tx.DeleteFriendRequest(ctx, req.ID))
	})
}

// Unfriend removes the edge a-b along with every request between the pair, so
// either side can send a new request later.
func (r *Requests) Unfriend(ctx context.Context, a, b uint) error {
	if a == b {
		return ErrSelfEdge
	}
	return r.store.WithTransaction(ctx, func(tx store.Store) error {
		if err := tx.LockProfiles(ctx, a, b); err != nil {
			return storeErr("unfriend", err)
		}
		g := NewGraph(tx)
		friends, err := g.IsFriend(ctx, a, b)
		if err != nil {
			return err
		}
		if !friends {
			return ErrNotFound
		}
		if err := g.removeFriendEdge(ctx, a, b); err != nil {
			return err
		}
		return storeErr("unfriend", tx.DeleteFriendRequestsBetween(ctx, a, b))
	})
}

// Incoming lists pending requests received by userID, newest first, along with their total.
func (r *Requests) Incoming(ctx context.Context, userID uint, page, pageSize int) ([]models.FriendRequest, int64, error) {
	return r.pending(ctx, userID, store.Incoming, page, pageSize)
}

// Outgoing lists pending requests sent by userID, newest first, along with their total.
func (r *Requests) Outgoing(ctx context.Context, userID uint, page, pageSize int) ([]models.FriendRequest, int64, error) {
	return r.pending(ctx, userID, store.Outgoing, page, pageSize)
}

func (r *Requests) pending(ctx context.Context, userID uint, dir store.RequestDirection, page, pageSize int) ([]models.FriendRequest, int64, error) {
	p, err := pagination.New(page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	filter := store.RequestFilter{UserID: userID, Direction: dir, Status: models.RequestPending}
	total, err := r.store.CountFriendRequests(ctx, filter)
	if err != nil {
		return nil, 0, storeErr("list friend requests", err)
	}
	reqs, err := r.store.ListFriendRequests(ctx, filter, p.Offset(), p.Limit())
	if err != nil {
		return nil, 0, storeErr("list friend requests", err)
	}
	return nonNil(reqs), total, nil
}
