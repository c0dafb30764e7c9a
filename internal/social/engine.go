// Package social is the social graph and visibility engine. It owns the
// friend graph, the friend-request state machine, and the visibility rules
// that gate reads and writes of posts, comments and reactions.
//
// The engine keeps no mutable state of its own. Every type holds a store and
// immutable options, and is safe for concurrent use. Read paths degrade to
// empty results when access is denied. Write paths return ErrPermissionDenied.
package social

import "socialgraph/backend/internal/store"

// Option configures the engine.
type Option func(*options)

type options struct {
	autoAcceptReverse bool
}

func defaultOptions() options {
	return options{autoAcceptReverse: true}
}

// WithAutoAcceptReverse controls what Send does when the receiver already has
// a pending request to the sender. When on (the default), the reverse request
// is accepted instead of creating a second row. When off, both requests stay pending.
func WithAutoAcceptReverse(on bool) Option {
	return func(o *options) { o.autoAcceptReverse = on }
}

// Engine bundles the engine components over one store.
type Engine struct {
	Profiles   *Profiles
	Graph      *Graph
	Requests   *Requests
	Visibility *Visibility
}

// New wires every component to s.
func New(s store.Store, opts ...Option) *Engine {
	return &Engine{
		Profiles:   NewProfiles(s),
		Graph:      NewGraph(s),
		Requests:   NewRequests(s, opts...),
		Visibility: NewVisibility(s),
	}
}
