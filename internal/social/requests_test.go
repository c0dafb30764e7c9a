package social

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"socialgraph/backend/internal/models"
	"socialgraph/backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRejectsSelfAndDuplicates(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "a"), f.user(t, "b")

	_, err := f.engine.Requests.Send(f.ctx, a, a)
	assert.ErrorIs(t, err, ErrSelfRequest)

	req, err := f.engine.Requests.Send(f.ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)

	_, err = f.engine.Requests.Send(f.ctx, a, b)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestSendToUnknownProfile(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "a")

	_, err := f.engine.Requests.Send(f.ctx, a, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSendToFriend(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "a"), f.user(t, "b")
	f.befriend(t, a, b)

	_, err := f.engine.Requests.Send(f.ctx, b, a)
	assert.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestAcceptCreatesEdge(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "a"), f.user(t, "b")

	req, err := f.engine.Requests.Send(f.ctx, a, b)
	require.NoError(t, err)
	accepted, transitioned, err := f.engine.Requests.Accept(f.ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, transitioned)
	assert.Equal(t, models.RequestAccepted, accepted.Status)

	for _, pair := range [][2]uint{{a, b}, {b, a}} {
		ok, err := f.engine.Graph.IsFriend(f.ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, ok)
	}

	stored, err := f.engine.Requests.Get(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestAccepted, stored.Status)
}

func TestAcceptIsNoOpWhenNotPending(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "a"), f.user(t, "b")
	req, err := f.engine.Requests.Send(f.ctx, a, b)
	require.NoError(t, err)

	_, first, err := f.engine.Requests.Accept(f.ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, first)
	again, second, err := f.engine.Requests.Accept(f.ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, second)
	assert.Equal(t, models.RequestAccepted, again.Status)

	n, err := f.engine.Graph.FriendCount(f.ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConcurrentAcceptLeavesConsistentEdge(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "a"), f.user(t, "b")
	req, err := f.engine.Requests.Send(f.ctx, a, b)
	require.NoError(t, err)

	var (
		wg          sync.WaitGroup
		transitions atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, accepted, err := f.engine.Requests.Accept(f.ctx, req.ID)
			assert.NoError(t, err)
			if accepted {
				transitions.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), transitions.Load())

	na, err := f.engine.Graph.FriendCount(f.ctx, a)
	require.NoError(t, err)
	nb, err := f.engine.Graph.FriendCount(f.ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 1, na)
	assert.Equal(t, 1, nb)
}

func TestRejectLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "a"), f.user(t, "b")
	req, err := f.engine.Requests.Send(f.ctx, a, b)
	require.NoError(t, err)

	require.NoError(t, f.engine.Requests.Reject(f.ctx, req.ID))

	ok, err := f.engine.Graph.IsFriend(f.ctx, a, b)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = f.store.GetFriendRequest(f.ctx, req.ID, false)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, f.engine.Requests.Reject(f.ctx, req.ID), ErrNotFound)

	// The pair can start over.
	_, err = f.engine.Requests.Send(f.ctx, a, b)
	assert.NoError(t, err)
}

// statusLog records every status write made through it, transactional views included.
type statusLog struct {
	store.Store
	writes *[]models.FriendRequestStatus
}

func (s statusLog) WithTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return s.Store.WithTransaction(ctx, func(tx store.Store) error {
		return fn(statusLog{Store: tx, writes: s.writes})
	})
}

func (s statusLog) UpdateFriendRequestStatus(ctx context.Context, id uint, status models.FriendRequestStatus) error {
	*s.writes = append(*s.writes, status)
	return s.Store.UpdateFriendRequestStatus(ctx, id, status)
}

func TestRejectMarksRejectedBeforeDeleting(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.user(t, "a"), f.user(t, "b"), f.user(t, "c")
	var writes []models.FriendRequestStatus
	requests := NewRequests(statusLog{Store: f.store, writes: &writes})

	rejected, err := requests.Send(f.ctx, a, b)
	require.NoError(t, err)
	require.NoError(t, requests.Reject(f.ctx, rejected.ID))
	assert.Equal(t, []models.FriendRequestStatus{models.RequestRejected}, writes)
	_, err = f.store.GetFriendRequest(f.ctx, rejected.ID, false)
	assert.ErrorIs(t, err, store.ErrNotFound)

	canceled, err := requests.Send(f.ctx, a, c)
	require.NoError(t, err)
	require.NoError(t, requests.Cancel(f.ctx, canceled.ID))
	assert.Len(t, writes, 1)
}

func TestCancelRemovesPendingRequest(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "a"), f.user(t, "b")
	req, err := f.engine.Requests.Send(f.ctx, a, b)
	require.NoError(t, err)

	require.NoError(t, f.engine.Requests.Cancel(f.ctx, req.ID))

	_, err = f.engine.Requests.Get(f.ctx, req.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	n, err := f.engine.Graph.FriendCount(f.ctx, b)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRejectAndCancelIgnoreAcceptedRequests(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "a"), f.user(t, "b")
	req, err := f.engine.Requests.Send(f.ctx, a, b)
	require.NoError(t, err)
	_, _, err = f.engine.Requests.Accept(f.ctx, req.ID)
	require.NoError(t, err)

	require.NoError(t, f.engine.Requests.Reject(f.ctx, req.ID))
	require.NoError(t, f.engine.Requests.Cancel(f.ctx, req.ID))

	stored, err := f.engine.Requests.Get(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestAccepted, stored.Status)
	ok, err := f.engine.Graph.IsFriend(f.ctx, a, b)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReverseRequestAutoAccepts(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "a"), f.user(t, "b")
	first, err := f.engine.Requests.Send(f.ctx, a, b)
	require.NoError(t, err)

	second, err := f.engine.Requests.Send(f.ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.RequestAccepted, second.Status)

	ok, err := f.engine.Graph.IsFriend(f.ctx, a, b)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := f.store.CountFriendRequests(f.ctx, store.RequestFilter{UserID: a})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReverseRequestsCoexistWhenAutoAcceptIsOff(t *testing.T) {
	f := newFixture(t, WithAutoAcceptReverse(false))
	a, b := f.user(t, "a"), f.user(t, "b")

	_, err := f.engine.Requests.Send(f.ctx, a, b)
	require.NoError(t, err)
	second, err := f.engine.Requests.Send(f.ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, second.Status)

	ok, err := f.engine.Graph.IsFriend(f.ctx, a, b)
	require.NoError(t, err)
	assert.False(t, ok)

	incoming, total, err := f.engine.Requests.Incoming(f.ctx, a, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, b, incoming[0].SenderID)
}

func TestIncomingPages(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	var senders []uint
	for _, name := range []string{"s1", "s2", "s3"} {
		id := f.user(t, name)
		_, err := f.engine.Requests.Send(f.ctx, id, owner)
		require.NoError(t, err)
		senders = append(senders, id)
	}

	first, total, err := f.engine.Requests.Incoming(f.ctx, owner, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, first, 2)
	last, _, err := f.engine.Requests.Incoming(f.ctx, owner, 2, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, senders[0], last[0].SenderID)

	past, total, err := f.engine.Requests.Incoming(f.ctx, owner, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.NotNil(t, past)
	assert.Empty(t, past)

	_, _, err = f.engine.Requests.Incoming(f.ctx, owner, 922337203685477582, 10)
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestUnfriend(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "a"), f.user(t, "b")
	f.befriend(t, a, b)

	require.NoError(t, f.engine.Requests.Unfriend(f.ctx, b, a))

	ok, err := f.engine.Graph.IsFriend(f.ctx, a, b)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, f.engine.Requests.Unfriend(f.ctx, a, b), ErrNotFound)
	assert.ErrorIs(t, f.engine.Requests.Unfriend(f.ctx, a, a), ErrSelfEdge)

	_, err = f.engine.Requests.Send(f.ctx, a, b)
	assert.NoError(t, err)
}

func TestIncomingOutgoingListings(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.user(t, "a"), f.user(t, "b"), f.user(t, "c")
	_, err := f.engine.Requests.Send(f.ctx, a, c)
	require.NoError(t, err)
	_, err = f.engine.Requests.Send(f.ctx, b, c)
	require.NoError(t, err)

	incoming, total, err := f.engine.Requests.Incoming(f.ctx, c, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, incoming, 2)

	outgoing, total, err := f.engine.Requests.Outgoing(f.ctx, a, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, c, outgoing[0].ReceiverID)

	_, _, err = f.engine.Requests.Incoming(f.ctx, c, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidPage)
}
