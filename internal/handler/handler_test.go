package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"socialgraph/backend/internal/config"
	"socialgraph/backend/internal/hub"
	"socialgraph/backend/internal/middleware"
	"socialgraph/backend/internal/models"
	"socialgraph/backend/internal/store/memstore"
	"socialgraph/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	t      *testing.T
	store  *memstore.Store
	hub    *hub.Hub
	router *gin.Engine
}

func newTestAPI(t *testing.T, sendLimit gin.HandlerFunc) *testAPI {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = &config.Config{JWTSecret: "test-secret", JWTTTL: time.Hour}
	t.Cleanup(func() { config.AppConfig = prev })

	s := memstore.New()
	h := hub.NewHub()
	router := gin.New()
	New(s, h).RegisterRoutes(router.Group("/api/v1"), sendLimit)
	return &testAPI{t: t, store: s, hub: h, router: router}
}

// do sends a request and decodes a JSON response body into out when non-nil.
func (a *testAPI) do(method, path, token string, body interface{}, out interface{}) int {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	if out != nil && w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

type account struct {
	id    uint
	token string
}

// register signs a user up over HTTP and looks up its ID.
func (a *testAPI) register(nickname string) account {
	a.t.Helper()
	var tok TokenResponse
	code := a.do(http.MethodPost, "/auth/register", "", RegisterInput{
		Nickname: nickname,
		Email:    nickname + "@example.com",
		Password: "password123",
	}, &tok)
	require.Equal(a.t, http.StatusCreated, code)

	var me PrivateUserResponse
	require.Equal(a.t, http.StatusOK, a.do(http.MethodGet, "/users/me", tok.Token, nil, &me))
	return account{id: me.ID, token: tok.Token}
}

func (a *testAPI) befriend(x, y account) {
	a.t.Helper()
	var req FriendRequestResponse
	require.Equal(a.t, http.StatusCreated, a.do(http.MethodPost, fmt.Sprintf("/users/%d/request", y.id), x.token, nil, &req))
	require.Equal(a.t, http.StatusOK, a.do(http.MethodPost, fmt.Sprintf("/requests/%d/accept", req.ID), y.token, nil, nil))
}

func (a *testAPI) post(author account, content string) PostResponse {
	a.t.Helper()
	var p PostResponse
	require.Equal(a.t, http.StatusCreated, a.do(http.MethodPost, "/posts", author.token, PostInput{Content: content}, &p))
	return p
}

type pageOf[T any] struct {
	Data []T `json:"data"`
	Meta struct {
		TotalItems int64 `json:"total_items"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t, nil)
	alice := api.register("alice")

	profile, err := api.store.GetProfile(context.Background(), alice.id)
	require.NoError(t, err)
	assert.Equal(t, alice.id, profile.UserID)

	dup := RegisterInput{Nickname: "alice", Email: "other@example.com", Password: "password123"}
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/auth/register", "", dup, nil))

	short := RegisterInput{Nickname: "bob", Email: "bob@example.com", Password: "short"}
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/auth/register", "", short, nil))

	var tok TokenResponse
	assert.Equal(t, http.StatusOK, api.do(http.MethodPost, "/auth/login", "", LoginInput{Login: "alice@example.com", Password: "password123"}, &tok))
	id, err := jwt.ParseToken(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.id, id)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/auth/login", "", LoginInput{Login: "alice", Password: "wrong-password"}, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/auth/login", "", LoginInput{Login: "nobody", Password: "password123"}, nil))
}

func TestFriendRequestFlow(t *testing.T) {
	api := newTestAPI(t, nil)
	alice, bob, carol := api.register("alice"), api.register("bob"), api.register("carol")

	var sent FriendRequestResponse
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, fmt.Sprintf("/users/%d/request", bob.id), alice.token, nil, &sent))
	assert.Equal(t, models.RequestPending, sent.Status)
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, fmt.Sprintf("/users/%d/request", bob.id), alice.token, nil, nil))

	var incoming pageOf[FriendRequestResponse]
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/users/me/requests?direction=incoming", bob.token, nil, &incoming))
	require.Len(t, incoming.Data, 1)
	require.NotNil(t, incoming.Data[0].Other)
	assert.Equal(t, "alice", incoming.Data[0].Other.Nickname)

	var profile PublicUserResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, fmt.Sprintf("/users/%d", alice.id), bob.token, nil, &profile))
	assert.Equal(t, "incoming", profile.RequestStatus)

	accept := fmt.Sprintf("/requests/%d/accept", sent.ID)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, accept, alice.token, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, accept, carol.token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, accept, "", nil, nil))

	var accepted FriendRequestResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, accept, bob.token, nil, &accepted))
	assert.Equal(t, models.RequestAccepted, accepted.Status)
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, accept, bob.token, nil, nil))

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, fmt.Sprintf("/users/%d", alice.id), bob.token, nil, &profile))
	assert.True(t, profile.IsFriend)
	assert.Equal(t, 1, profile.FriendsCount)
	assert.Empty(t, profile.RequestStatus)

	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, fmt.Sprintf("/users/%d/request", alice.id), bob.token, nil, nil))

	require.Equal(t, http.StatusOK, api.do(http.MethodPost, fmt.Sprintf("/users/%d/remove", alice.id), bob.token, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, fmt.Sprintf("/users/%d/remove", alice.id), bob.token, nil, nil))
}

func TestRejectAndCancel(t *testing.T) {
	api := newTestAPI(t, nil)
	alice, bob := api.register("alice"), api.register("bob")

	var sent FriendRequestResponse
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, fmt.Sprintf("/users/%d/request", bob.id), alice.token, nil, &sent))
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, fmt.Sprintf("/requests/%d/cancel", sent.ID), bob.token, nil, nil))
	assert.Equal(t, http.StatusOK, api.do(http.MethodPost, fmt.Sprintf("/requests/%d/cancel", sent.ID), alice.token, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, fmt.Sprintf("/requests/%d/reject", sent.ID), bob.token, nil, nil))

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, fmt.Sprintf("/users/%d/request", bob.id), alice.token, nil, &sent))
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, fmt.Sprintf("/requests/%d/reject", sent.ID), alice.token, nil, nil))
	assert.Equal(t, http.StatusOK, api.do(http.MethodPost, fmt.Sprintf("/requests/%d/reject", sent.ID), bob.token, nil, nil))

	var outgoing pageOf[FriendRequestResponse]
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/users/me/requests?direction=outgoing", alice.token, nil, &outgoing))
	assert.Empty(t, outgoing.Data)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/users/me/requests?direction=sideways", alice.token, nil, nil))
}

func TestReverseRequestIsAccepted(t *testing.T) {
	api := newTestAPI(t, nil)
	alice, bob := api.register("alice"), api.register("bob")

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, fmt.Sprintf("/users/%d/request", bob.id), alice.token, nil, nil))
	var req FriendRequestResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, fmt.Sprintf("/users/%d/request", alice.id), bob.token, nil, &req))
	assert.Equal(t, models.RequestAccepted, req.Status)
	assert.Equal(t, alice.id, req.SenderID)
}

func TestPostVisibility(t *testing.T) {
	api := newTestAPI(t, nil)
	alice, bob, carol := api.register("alice"), api.register("bob"), api.register("carol")
	api.befriend(alice, bob)
	post := api.post(alice, "hello friends")

	path := fmt.Sprintf("/users/%d/posts?page=1&limit=10", alice.id)

	var posts pageOf[PostResponse]
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, path, bob.token, nil, &posts))
	require.Len(t, posts.Data, 1)
	assert.Equal(t, post.ID, posts.Data[0].ID)
	assert.Equal(t, int64(1), posts.Meta.TotalItems)

	for name, token := range map[string]string{"stranger": carol.token, "anonymous": ""} {
		t.Run(name, func(t *testing.T) {
			var hidden pageOf[PostResponse]
			require.Equal(t, http.StatusOK, api.do(http.MethodGet, path, token, nil, &hidden))
			assert.NotNil(t, hidden.Data)
			assert.Empty(t, hidden.Data)
			assert.Zero(t, hidden.Meta.TotalItems)
			assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, fmt.Sprintf("/posts/%d", post.ID), token, nil, nil))
		})
	}

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, fmt.Sprintf("/users/%d/posts?page=0", alice.id), bob.token, nil, nil))
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, fmt.Sprintf("/users/%d/posts?page=922337203685477582&limit=10", alice.id), bob.token, nil, nil))

	var past pageOf[PostResponse]
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, fmt.Sprintf("/users/%d/posts?page=3&limit=10", alice.id), bob.token, nil, &past))
	assert.NotNil(t, past.Data)
	assert.Empty(t, past.Data)
	assert.Equal(t, int64(1), past.Meta.TotalItems)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/users/abc/posts", bob.token, nil, nil))
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/posts", alice.token, PostInput{Content: "   "}, nil))

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, fmt.Sprintf("/posts/%d", post.ID), bob.token, nil, nil))
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, fmt.Sprintf("/posts/%d", post.ID), alice.token, nil, nil))
}

func TestFriendListVisibility(t *testing.T) {
	api := newTestAPI(t, nil)
	owner, friend, other, stranger := api.register("owner"), api.register("friend"), api.register("other"), api.register("stranger")
	api.befriend(owner, friend)
	api.befriend(owner, other)
	api.befriend(stranger, other)

	path := fmt.Sprintf("/users/%d/friends", owner.id)

	var list pageOf[UserSummary]
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, path, friend.token, nil, &list))
	assert.Len(t, list.Data, 2)

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, path, stranger.token, nil, &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "other", list.Data[0].Nickname)

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, path, "", nil, &list))
	assert.Empty(t, list.Data)

	var mutual pageOf[UserSummary]
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, fmt.Sprintf("/users/%d/mutual-friends", owner.id), stranger.token, nil, &mutual))
	require.Len(t, mutual.Data, 1)
	assert.Equal(t, other.id, mutual.Data[0].ID)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, fmt.Sprintf("/users/%d/mutual-friends", owner.id), "", nil, nil))
}

func TestCommentsAndReactions(t *testing.T) {
	api := newTestAPI(t, nil)
	alice, bob, carol := api.register("alice"), api.register("bob"), api.register("carol")
	api.befriend(alice, bob)
	post := api.post(alice, "post")
	comments := fmt.Sprintf("/posts/%d/comments", post.ID)

	var comment CommentResponse
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, comments, bob.token, CommentInput{Text: "nice"}, &comment))
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, comments, carol.token, CommentInput{Text: "hi"}, nil))

	var list pageOf[CommentResponse]
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, comments, bob.token, nil, &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "nice", list.Data[0].Text)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, comments, carol.token, nil, nil))

	reaction := fmt.Sprintf("/posts/%d/reaction", post.ID)
	var summary ReactionSummaryResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, reaction, bob.token, ReactionInput{Kind: models.ReactionLike}, &summary))
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, reaction, bob.token, ReactionInput{Kind: models.ReactionLove}, &summary))
	assert.Equal(t, int64(1), summary.TotalReactions)
	assert.Equal(t, int64(1), summary.TotalComments)
	assert.Equal(t, models.ReactionLove, summary.ViewerReaction)
	assert.True(t, summary.HasReacted)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPut, reaction, bob.token, ReactionInput{Kind: "meh"}, nil))
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPut, reaction, carol.token, ReactionInput{Kind: models.ReactionLike}, nil))

	// A post carol may not see reads exactly like one that does not exist.
	for _, token := range []string{carol.token, ""} {
		var hidden, missing ErrorResponse
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, fmt.Sprintf("/posts/%d/reactions", post.ID), token, nil, &hidden))
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/posts/999/reactions", token, nil, &missing))
		assert.Equal(t, missing, hidden)

		hidden, missing = ErrorResponse{}, ErrorResponse{}
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, comments, token, nil, &hidden))
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/posts/999/comments", token, nil, &missing))
		assert.Equal(t, missing, hidden)
	}

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, reaction, bob.token, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, reaction, bob.token, nil, nil))

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, fmt.Sprintf("/comments/%d", comment.ID), carol.token, nil, nil))
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, fmt.Sprintf("/comments/%d", comment.ID), alice.token, nil, nil))
}

func TestProfileUpdate(t *testing.T) {
	api := newTestAPI(t, nil)
	alice := api.register("alice")

	avatar := "https://example.com/alice.png"
	var me PrivateUserResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/users/me", alice.token, UpdateProfileInput{Bio: "hi", AvatarURL: &avatar}, &me))
	assert.Equal(t, "hi", me.Bio)
	assert.Equal(t, "alice", me.Nickname)

	var public PublicUserResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, fmt.Sprintf("/users/%d", alice.id), "", nil, &public))
	assert.Equal(t, "hi", public.Bio)
	require.NotNil(t, public.AvatarURL)
	assert.Equal(t, avatar, *public.AvatarURL)

	bad := "not a url"
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPut, "/users/me", alice.token, UpdateProfileInput{AvatarURL: &bad}, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/users/999", "", nil, nil))
}

func TestSearchUsers(t *testing.T) {
	api := newTestAPI(t, nil)
	for _, name := range []string{"anna", "annabel", "bob"} {
		api.register(name)
	}

	var res pageOf[UserSummary]
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/users?q=ann&limit=1", "", nil, &res))
	assert.Len(t, res.Data, 1)
	assert.Equal(t, int64(2), res.Meta.TotalItems)
	assert.Equal(t, 2, res.Meta.TotalPages)
}

func TestAdminModeration(t *testing.T) {
	api := newTestAPI(t, nil)
	alice := api.register("alice")
	post := api.post(alice, "spam")

	admin := &models.User{Nickname: "root", Email: "root@example.com", PasswordHash: "x", Role: models.RoleAdmin}
	require.NoError(t, api.store.CreateUser(context.Background(), admin))
	adminToken, err := jwt.GenerateToken(admin.ID)
	require.NoError(t, err)

	path := fmt.Sprintf("/admin/posts/%d", post.ID)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, path, alice.token, nil, nil))
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, adminToken, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, adminToken, nil, nil))
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, nil
}

func TestSendRequestIsRateLimited(t *testing.T) {
	api := newTestAPI(t, middleware.RateLimit(denyLimiter{}, "friend_request", 1, time.Hour))
	alice, bob := api.register("alice"), api.register("bob")

	assert.Equal(t, http.StatusTooManyRequests, api.do(http.MethodPost, fmt.Sprintf("/users/%d/request", bob.id), alice.token, nil, nil))
}
