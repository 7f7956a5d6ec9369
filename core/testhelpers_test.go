package core

import (
	"context"
	"sync"
	"time"
)

// fakeUserStore is an in-memory UserStore with plain-text credential records.
type fakeUserStore struct {
	mu    sync.Mutex
	users []fakeUser

	findErr   error
	verifyErr error
}

type fakeUser struct {
	record   UserRecord
	password string // plain text; compared via canonical digests
}

func newFakeUserStore(users ...fakeUser) *fakeUserStore {
	return &fakeUserStore{users: users}
}

func (s *fakeUserStore) FindUser(_ context.Context, sel Selector) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, u := range s.users {
		switch {
		case sel.ID != "" && u.record.ID == sel.ID,
			sel.Username != "" && u.record.Username == sel.Username,
			sel.Email != "" && u.record.Email == sel.Email:
			rec := u.record
			return &rec, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *fakeUserStore) VerifyCredential(_ context.Context, user *UserRecord, password Password) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verifyErr != nil {
		return false, s.verifyErr
	}
	for _, u := range s.users {
		if u.record.ID == user.ID {
			want := Password{Plain: u.password}
			return want.CanonicalDigest() == password.CanonicalDigest(), nil
		}
	}
	return false, ErrUserNotFound
}

// fakeTokenStore is an in-memory TokenStore keyed by token hash.
type fakeTokenStore struct {
	mu     sync.Mutex
	owners map[string]string

	storeErr error
	findErr  error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{owners: map[string]string{}}
}

func (s *fakeTokenStore) StoreToken(_ context.Context, userID, tokenHash string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storeErr != nil {
		return s.storeErr
	}
	s.owners[tokenHash] = userID
	return nil
}

func (s *fakeTokenStore) FindToken(_ context.Context, tokenHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return "", s.findErr
	}
	userID, ok := s.owners[tokenHash]
	if !ok {
		return "", ErrTokenNotFound
	}
	return userID, nil
}

func (s *fakeTokenStore) DeleteToken(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owners[tokenHash]; !ok {
		return ErrTokenNotFound
	}
	delete(s.owners, tokenHash)
	return nil
}

func (s *fakeTokenStore) DeleteUserTokens(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for hash, owner := range s.owners {
		if owner == userID {
			delete(s.owners, hash)
			n++
		}
	}
	return n, nil
}

func (s *fakeTokenStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.owners)
}

// fakeLimiter counts consumes per key and denies beyond the policy's points.
type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int

	err error
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{counts: map[string]int{}}
}

func (l *fakeLimiter) Consume(_ context.Context, key string, policy Policy) (*Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.counts[key]++
	d := &Decision{
		Limit:      int64(policy.Points),
		Remaining:  int64(policy.Points - l.counts[key]),
		ResetAfter: policy.Duration,
	}
	if l.counts[key] <= policy.Points {
		d.Allowed = true
		return d, nil
	}
	d.Remaining = 0
	d.RetryAfter = policy.Duration
	return d, nil
}

func (l *fakeLimiter) reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, key)
}
