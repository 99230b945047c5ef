package discord

import (
	"context"
	"sync"
)

// FakeVerifier is an in-memory Verifier for tests and tokenless development
// runs. A zero-value fake resolves nothing; seed it with AddUser/AddGuild/
// AddRole.
type FakeVerifier struct {
	mu     sync.RWMutex
	users  map[string]User
	guilds map[string]struct{}
	roles  map[string]struct{}

	// Err, when set, is returned by every lookup to simulate an upstream
	// outage.
	Err error
}

func NewFakeVerifier() *FakeVerifier {
	return &FakeVerifier{
		users:  make(map[string]User),
		guilds: make(map[string]struct{}),
		roles:  make(map[string]struct{}),
	}
}

func (f *FakeVerifier) AddUser(id, username string, bot bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = User{ID: id, Username: username, Bot: bot}
}

func (f *FakeVerifier) AddGuild(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guilds[id] = struct{}{}
}

func (f *FakeVerifier) AddRole(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[id] = struct{}{}
}

func (f *FakeVerifier) ResolveUser(_ context.Context, userID string) (*User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if u, ok := f.users[userID]; ok {
		return &u, nil
	}
	return nil, nil
}

func (f *FakeVerifier) ResolveGuild(_ context.Context, guildID string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.Err != nil {
		return false, f.Err
	}
	_, ok := f.guilds[guildID]
	return ok, nil
}

func (f *FakeVerifier) ResolveRole(_ context.Context, roleID string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.Err != nil {
		return false, f.Err
	}
	_, ok := f.roles[roleID]
	return ok, nil
}

// AllowAllVerifier resolves every id. It backs tokenless development runs
// where no Discord credential is configured.
type AllowAllVerifier struct{}

func (AllowAllVerifier) ResolveUser(_ context.Context, userID string) (*User, error) {
	return &User{ID: userID, Username: userID}, nil
}

func (AllowAllVerifier) ResolveGuild(context.Context, string) (bool, error) { return true, nil }

func (AllowAllVerifier) ResolveRole(context.Context, string) (bool, error) { return true, nil }
