package auth_test

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-shop-session/auth"
	"github.com/jrsteele09/go-shop-session/sessions"
)

// fakeExchanger returns a copy of session (or err) and runs sideEffect, standing in for the
// exchange client storing sessions into the repo.
type fakeExchanger struct {
	mu         sync.Mutex
	session    *sessions.Session
	err        error
	sideEffect func(ctx context.Context)
	calls      []string
}

func (e *fakeExchanger) Exchange(ctx context.Context, bearerToken string) (*sessions.Session, error) {
	e.mu.Lock()
	e.calls = append(e.calls, bearerToken)
	e.mu.Unlock()

	if e.err != nil {
		return nil, e.err
	}
	if e.sideEffect != nil {
		e.sideEffect(ctx)
	}
	if e.session == nil {
		return nil, nil
	}
	return e.session.Clone(), nil
}

func (e *fakeExchanger) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func (e *fakeExchanger) tokens() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

type resolverResult struct {
	key string
	ok  bool
	err error
}

// fakeResolver returns results in order, repeating the last one.
type fakeResolver struct {
	mu      sync.Mutex
	results []resolverResult
	calls   int
	online  []bool
}

func (r *fakeResolver) SessionKey(_ context.Context, _ string, _ string, online bool) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.online = append(r.online, online)
	idx := r.calls
	if idx >= len(r.results) {
		idx = len(r.results) - 1
	}
	r.calls++
	res := r.results[idx]
	return res.key, res.ok, res.err
}

func returns(keys ...string) *fakeResolver {
	r := &fakeResolver{}
	for _, key := range keys {
		r.results = append(r.results, resolverResult{key: key, ok: key != ""})
	}
	return r
}

type recordingObserver struct {
	mu          sync.Mutex
	activated   []*sessions.Session
	deactivated []*sessions.Session
	exchanged   []auth.ExchangeReason
	deleted     []string
}

func (o *recordingObserver) Activated(_ context.Context, s *sessions.Session) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activated = append(o.activated, s.Clone())
}

func (o *recordingObserver) Deactivated(_ context.Context, s *sessions.Session) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deactivated = append(o.deactivated, s.Clone())
}

func (o *recordingObserver) Exchanged(_ context.Context, reason auth.ExchangeReason) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.exchanged = append(o.exchanged, reason)
}

func (o *recordingObserver) SessionDeleted(_ context.Context, s *sessions.Session) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deleted = append(o.deleted, s.ID)
}

func (o *recordingObserver) exchanges() []auth.ExchangeReason {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]auth.ExchangeReason(nil), o.exchanged...)
}
