// Package memstore is an in-process store.Store. All operations serialize on a
// single mutex, and a transaction rolls back by restoring a snapshot. It backs the
// engine tests and the STORE=memory development mode.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"socialgraph/backend/internal/models"
	"socialgraph/backend/internal/pagination"
	"socialgraph/backend/internal/store"
)

type edge struct{ from, to uint }

type reactionKey struct{ post, user uint }

type state struct {
	seq       map[string]uint
	users     map[uint]models.User
	profiles  map[uint]models.Profile
	friends   map[uint][]uint // insertion order
	edges     map[edge]time.Time
	requests  map[uint]models.FriendRequest
	posts     map[uint]models.Post
	comments  map[uint]models.Comment
	reactions map[reactionKey]models.Reaction
}

func newState() *state {
	return &state{
		seq:       map[string]uint{},
		users:     map[uint]models.User{},
		profiles:  map[uint]models.Profile{},
		friends:   map[uint][]uint{},
		edges:     map[edge]time.Time{},
		requests:  map[uint]models.FriendRequest{},
		posts:     map[uint]models.Post{},
		comments:  map[uint]models.Comment{},
		reactions: map[reactionKey]models.Reaction{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (st *state) clone() *state {
	friends := make(map[uint][]uint, len(st.friends))
	for id, list := range st.friends {
		friends[id] = append([]uint(nil), list...)
	}
	return &state{
		seq:       cloneMap(st.seq),
		users:     cloneMap(st.users),
		profiles:  cloneMap(st.profiles),
		friends:   friends,
		edges:     cloneMap(st.edges),
		requests:  cloneMap(st.requests),
		posts:     cloneMap(st.posts),
		comments:  cloneMap(st.comments),
		reactions: cloneMap(st.reactions),
	}
}

func (st *state) next(table string) uint {
	st.seq[table]++
	return st.seq[table]
}

type db struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// Store is the in-memory store.Store.
type Store struct {
	db   *db
	inTx bool
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{db: &db{st: newState(), now: time.Now}}
}

// lock acquires the store mutex unless the caller already holds it through a transaction.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.db.mu.Lock()
	return s.db.mu.Unlock
}

func (s *Store) WithTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	snapshot := s.db.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.db.st = snapshot
		}
	}()

	if err := fn(&Store{db: s.db, inTx: true}); err != nil {
		return err
	}
	committed = true
	return nil
}

// region --- Users ---

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	defer s.lock()()
	st := s.db.st
	for _, u := range st.users {
		if u.Nickname == user.Nickname || u.Email == user.Email {
			return fmt.Errorf("%w: nickname or email taken", store.ErrDuplicate)
		}
	}
	now := s.db.now()
	user.ID = st.next("users")
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Role == "" {
		user.Role = "user"
	}
	st.users[user.ID] = *user
	return nil
}

func (s *Store) GetUser(_ context.Context, id uint) (*models.User, error) {
	defer s.lock()()
	u, ok := s.db.st.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) FindUserByLogin(_ context.Context, login string) (*models.User, error) {
	defer s.lock()()
	for _, u := range s.db.st.users {
		if u.Nickname == login || u.Email == login {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) matchUsers(query string) []models.User {
	query = strings.ToLower(query)
	var users []models.User
	for _, u := range s.db.st.users {
		if strings.Contains(strings.ToLower(u.Nickname), query) {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (s *Store) SearchUsers(_ context.Context, query string, offset, limit int) ([]models.User, error) {
	defer s.lock()()
	return pagination.Window(s.matchUsers(query), offset, limit), nil
}

func (s *Store) CountUsers(_ context.Context, query string) (int64, error) {
	defer s.lock()()
	return int64(len(s.matchUsers(query))), nil
}

// endregion

// region --- Profiles ---

func (s *Store) CreateProfile(_ context.Context, profile *models.Profile) error {
	defer s.lock()()
	st := s.db.st
	if _, ok := st.users[profile.UserID]; !ok {
		return fmt.Errorf("profile for unknown user %d: %w", profile.UserID, store.ErrNotFound)
	}
	if _, ok := st.profiles[profile.UserID]; ok {
		return fmt.Errorf("%w: profile %d", store.ErrDuplicate, profile.UserID)
	}
	now := s.db.now()
	profile.CreatedAt, profile.UpdatedAt = now, now
	stored := *profile
	stored.User = models.User{}
	st.profiles[profile.UserID] = stored
	return nil
}

func (s *Store) profile(id uint) (models.Profile, bool) {
	p, ok := s.db.st.profiles[id]
	if ok {
		p.User = s.db.st.users[id]
	}
	return p, ok
}

func (s *Store) GetProfile(_ context.Context, userID uint) (*models.Profile, error) {
	defer s.lock()()
	p, ok := s.profile(userID)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) GetProfiles(_ context.Context, ids []uint) ([]models.Profile, error) {
	defer s.lock()()
	profiles := make([]models.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.profile(id); ok {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

func (s *Store) UpdateProfile(_ context.Context, profile *models.Profile) error {
	defer s.lock()()
	st := s.db.st
	stored, ok := st.profiles[profile.UserID]
	if !ok {
		return store.ErrNotFound
	}
	stored.Bio = profile.Bio
	stored.AvatarURL = profile.AvatarURL
	stored.UpdatedAt = s.db.now()
	st.profiles[profile.UserID] = stored
	profile.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *Store) LockProfiles(_ context.Context, ids ...uint) error {
	defer s.lock()()
	for _, id := range ids {
		if _, ok := s.db.st.profiles[id]; !ok {
			return store.ErrNotFound
		}
	}
	return nil
}

// endregion

// region --- Friendships ---

func (s *Store) InsertFriendship(_ context.Context, a, b uint) error {
	defer s.lock()()
	st := s.db.st
	if a == b {
		return fmt.Errorf("memstore: friendship %d-%d violates chk_friendship_not_self", a, b)
	}
	if _, ok := st.profiles[a]; !ok {
		return store.ErrNotFound
	}
	if _, ok := st.profiles[b]; !ok {
		return store.ErrNotFound
	}
	now := s.db.now()
	for _, e := range []edge{{a, b}, {b, a}} {
		if _, ok := st.edges[e]; ok {
			continue
		}
		st.edges[e] = now
		st.friends[e.from] = append(st.friends[e.from], e.to)
	}
	return nil
}

func (s *Store) DeleteFriendship(_ context.Context, a, b uint) error {
	defer s.lock()()
	st := s.db.st
	for _, e := range []edge{{a, b}, {b, a}} {
		if _, ok := st.edges[e]; !ok {
			continue
		}
		delete(st.edges, e)
		list := st.friends[e.from]
		for i, id := range list {
			if id == e.to {
				st.friends[e.from] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (s *Store) FriendshipExists(_ context.Context, a, b uint) (bool, error) {
	defer s.lock()()
	_, ok := s.db.st.edges[edge{a, b}]
	return ok, nil
}

func (s *Store) ListFriendIDs(_ context.Context, userID uint, offset, limit int) ([]uint, error) {
	defer s.lock()()
	return pagination.Window(s.db.st.friends[userID], offset, limit), nil
}

func (s *Store) CountFriends(_ context.Context, userID uint) (int64, error) {
	defer s.lock()()
	return int64(len(s.db.st.friends[userID])), nil
}

// mutual walks the smaller adjacency list and probes the other side's edges.
func (s *Store) mutual(a, b uint) []uint {
	st := s.db.st
	if a == b {
		return []uint{}
	}
	small, other := st.friends[a], b
	if len(st.friends[b]) < len(small) {
		small, other = st.friends[b], a
	}
	ids := []uint{}
	for _, id := range small {
		if _, ok := st.edges[edge{other, id}]; ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) ListMutualFriendIDs(_ context.Context, a, b uint, offset, limit int) ([]uint, error) {
	defer s.lock()()
	return pagination.Window(s.mutual(a, b), offset, limit), nil
}

func (s *Store) CountMutualFriends(_ context.Context, a, b uint) (int64, error) {
	defer s.lock()()
	return int64(len(s.mutual(a, b))), nil
}

// endregion

// region --- Friend requests ---

func (s *Store) CreateFriendRequest(_ context.Context, req *models.FriendRequest) error {
	defer s.lock()()
	st := s.db.st
	if _, ok := st.profiles[req.SenderID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := st.profiles[req.ReceiverID]; !ok {
		return store.ErrNotFound
	}
	for _, r := range st.requests {
		if r.SenderID == req.SenderID && r.ReceiverID == req.ReceiverID {
			return fmt.Errorf("%w: request %d->%d", store.ErrDuplicate, req.SenderID, req.ReceiverID)
		}
	}
	now := s.db.now()
	req.ID = st.next("friend_requests")
	req.CreatedAt, req.UpdatedAt = now, now
	if req.Status == "" {
		req.Status = models.RequestPending
	}
	st.requests[req.ID] = *req
	return nil
}

func (s *Store) GetFriendRequest(_ context.Context, id uint, _ bool) (*models.FriendRequest, error) {
	defer s.lock()()
	r, ok := s.db.st.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (s *Store) FindFriendRequest(_ context.Context, senderID, receiverID uint, _ bool) (*models.FriendRequest, error) {
	defer s.lock()()
	for _, r := range s.db.st.requests {
		if r.SenderID == senderID && r.ReceiverID == receiverID {
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateFriendRequestStatus(_ context.Context, id uint, status models.FriendRequestStatus) error {
	defer s.lock()()
	st := s.db.st
	r, ok := st.requests[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = s.db.now()
	st.requests[id] = r
	return nil
}

func (s *Store) DeleteFriendRequest(_ context.Context, id uint) error {
	defer s.lock()()
	if _, ok := s.db.st.requests[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.db.st.requests, id)
	return nil
}

func (s *Store) DeleteFriendRequestsBetween(_ context.Context, a, b uint) error {
	defer s.lock()()
	for id, r := range s.db.st.requests {
		if (r.SenderID == a && r.ReceiverID == b) || (r.SenderID == b && r.ReceiverID == a) {
			delete(s.db.st.requests, id)
		}
	}
	return nil
}

func (s *Store) matchRequests(filter store.RequestFilter) []models.FriendRequest {
	var reqs []models.FriendRequest
	for _, r := range s.db.st.requests {
		switch filter.Direction {
		case store.Incoming:
			if r.ReceiverID != filter.UserID {
				continue
			}
		case store.Outgoing:
			if r.SenderID != filter.UserID {
				continue
			}
		default:
			if r.SenderID != filter.UserID && r.ReceiverID != filter.UserID {
				continue
			}
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		reqs = append(reqs, r)
	}
	sort.Slice(reqs, func(i, j int) bool {
		if !reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
		}
		return reqs[i].ID > reqs[j].ID
	})
	return reqs
}

func (s *Store) ListFriendRequests(_ context.Context, filter store.RequestFilter, offset, limit int) ([]models.FriendRequest, error) {
	defer s.lock()()
	return pagination.Window(s.matchRequests(filter), offset, limit), nil
}

func (s *Store) CountFriendRequests(_ context.Context, filter store.RequestFilter) (int64, error) {
	defer s.lock()()
	return int64(len(s.matchRequests(filter))), nil
}

// endregion

// region --- Posts & comments ---

func (s *Store) CreatePost(_ context.Context, post *models.Post) error {
	defer s.lock()()
	st := s.db.st
	if _, ok := st.profiles[post.AuthorID]; !ok {
		return store.ErrNotFound
	}
	now := s.db.now()
	post.ID = st.next("posts")
	post.CreatedAt, post.UpdatedAt = now, now
	st.posts[post.ID] = *post
	return nil
}

func (s *Store) GetPost(_ context.Context, id uint) (*models.Post, error) {
	defer s.lock()()
	p, ok := s.db.st.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) DeletePost(_ context.Context, id uint) error {
	defer s.lock()()
	st := s.db.st
	if _, ok := st.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(st.posts, id)
	for cid, c := range st.comments {
		if c.PostID == id {
			delete(st.comments, cid)
		}
	}
	for key := range st.reactions {
		if key.post == id {
			delete(st.reactions, key)
		}
	}
	return nil
}

func (s *Store) postsBy(authorID uint) []models.Post {
	var posts []models.Post
	for _, p := range s.db.st.posts {
		if p.AuthorID == authorID {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts
}

func (s *Store) ListPostsByAuthor(_ context.Context, authorID uint, offset, limit int) ([]models.Post, error) {
	defer s.lock()()
	return pagination.Window(s.postsBy(authorID), offset, limit), nil
}

func (s *Store) CountPostsByAuthor(_ context.Context, authorID uint) (int64, error) {
	defer s.lock()()
	return int64(len(s.postsBy(authorID))), nil
}

func (s *Store) CreateComment(_ context.Context, comment *models.Comment) error {
	defer s.lock()()
	st := s.db.st
	if _, ok := st.posts[comment.PostID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := st.profiles[comment.UserID]; !ok {
		return store.ErrNotFound
	}
	now := s.db.now()
	comment.ID = st.next("comments")
	comment.CreatedAt, comment.UpdatedAt = now, now
	st.comments[comment.ID] = *comment
	return nil
}

func (s *Store) GetComment(_ context.Context, id uint) (*models.Comment, error) {
	defer s.lock()()
	c, ok := s.db.st.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) DeleteComment(_ context.Context, id uint) error {
	defer s.lock()()
	if _, ok := s.db.st.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.db.st.comments, id)
	return nil
}

func (s *Store) commentsOn(postID uint) []models.Comment {
	var comments []models.Comment
	for _, c := range s.db.st.comments {
		if c.PostID == postID {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments
}

func (s *Store) ListComments(_ context.Context, postID uint, offset, limit int) ([]models.Comment, error) {
	defer s.lock()()
	return pagination.Window(s.commentsOn(postID), offset, limit), nil
}

func (s *Store) CountComments(_ context.Context, postID uint) (int64, error) {
	defer s.lock()()
	return int64(len(s.commentsOn(postID))), nil
}

// endregion

// region --- Reactions ---

func (s *Store) UpsertReaction(_ context.Context, reaction *models.Reaction) error {
	defer s.lock()()
	st := s.db.st
	if _, ok := st.posts[reaction.PostID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := st.profiles[reaction.UserID]; !ok {
		return store.ErrNotFound
	}
	key := reactionKey{reaction.PostID, reaction.UserID}
	now := s.db.now()
	if existing, ok := st.reactions[key]; ok {
		existing.Kind = reaction.Kind
		existing.UpdatedAt = now
		st.reactions[key] = existing
		*reaction = existing
		return nil
	}
	reaction.ID = st.next("reactions")
	reaction.CreatedAt, reaction.UpdatedAt = now, now
	st.reactions[key] = *reaction
	return nil
}

func (s *Store) GetReaction(_ context.Context, postID, userID uint) (*models.Reaction, error) {
	defer s.lock()()
	r, ok := s.db.st.reactions[reactionKey{postID, userID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (s *Store) ReactionExists(_ context.Context, postID, userID uint) (bool, error) {
	defer s.lock()()
	_, ok := s.db.st.reactions[reactionKey{postID, userID}]
	return ok, nil
}

func (s *Store) DeleteReaction(_ context.Context, postID, userID uint) error {
	defer s.lock()()
	key := reactionKey{postID, userID}
	if _, ok := s.db.st.reactions[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.db.st.reactions, key)
	return nil
}

func (s *Store) CountReactionsByKind(_ context.Context, postID uint) (map[models.ReactionKind]int64, error) {
	defer s.lock()()
	counts := map[models.ReactionKind]int64{}
	for key, r := range s.db.st.reactions {
		if key.post == postID {
			counts[r.Kind]++
		}
	}
	return counts, nil
}

// endregion
