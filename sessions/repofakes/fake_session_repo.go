package fakesessionrepo

import (
	"context"
	"errors"
	"sync"

	"github.com/jrsteele09/go-shop-session/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo is an in-memory sessions.Repo. It stores copies, so callers mutating a loaded
// session do not change what is persisted until they Store it again.
type FakeSessionRepo struct {
	sessions map[string]*sessions.Session
	deleted  []string
	lock     sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]*sessions.Session),
	}
}

func (sr *FakeSessionRepo) Load(_ context.Context, id string) (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	session, ok := sr.sessions[id]
	if !ok {
		return nil, sessions.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (sr *FakeSessionRepo) Store(_ context.Context, session *sessions.Session) error {
	if session == nil || session.ID == "" {
		return errors.New("session id is required")
	}

	sr.lock.Lock()
	defer sr.lock.Unlock()

	sr.sessions[session.ID] = session.Clone()
	return nil
}

func (sr *FakeSessionRepo) Delete(_ context.Context, id string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	sr.deleted = append(sr.deleted, id)
	delete(sr.sessions, id)
	return nil
}

// Deleted returns the keys passed to Delete, in call order.
func (sr *FakeSessionRepo) Deleted() []string {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	return append([]string(nil), sr.deleted...)
}

// Len returns the number of stored sessions.
func (sr *FakeSessionRepo) Len() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	return len(sr.sessions)
}
