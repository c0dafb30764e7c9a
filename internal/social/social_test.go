package social

import (
	"context"
	"testing"

	"socialgraph/backend/internal/models"
	"socialgraph/backend/internal/store/memstore"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx    context.Context
	store  *memstore.Store
	engine *Engine
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	s := memstore.New()
	return &fixture{ctx: context.Background(), store: s, engine: New(s, opts...)}
}

// user registers an identity and provisions its profile, the way registration does.
func (f *fixture) user(t *testing.T, nickname string) uint {
	t.Helper()
	u := &models.User{Nickname: nickname, Email: nickname + "@example.com", PasswordHash: "x"}
	require.NoError(t, f.store.CreateUser(f.ctx, u))
	_, err := f.engine.Profiles.Provision(f.ctx, u.ID)
	require.NoError(t, err)
	return u.ID
}

// befriend runs the full request lifecycle between a and b.
func (f *fixture) befriend(t *testing.T, a, b uint) {
	t.Helper()
	req, err := f.engine.Requests.Send(f.ctx, a, b)
	require.NoError(t, err)
	_, _, err = f.engine.Requests.Accept(f.ctx, req.ID)
	require.NoError(t, err)
}

func (f *fixture) post(t *testing.T, author uint, content string) *models.Post {
	t.Helper()
	p, err := f.engine.Visibility.CreatePost(f.ctx, Authenticated{UserID: author}, content, nil)
	require.NoError(t, err)
	return p
}
