package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davgate/auth"
	"github.com/xxxsen/davgate/idp"
	"github.com/xxxsen/davgate/metrics"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"
)

const (
	defaultMaxSessions = 10000
	defaultAuthFailTTL = 10 * time.Second
	maxFailedEntries   = 4096
)

// Store maps usernames onto their current token, all access goes through its methods.
type Store struct {
	c        *config
	mu       sync.Mutex
	sessions *lru.Cache[string, *Session]
	failed   *expirable.LRU[string, struct{}]
	group    singleflight.Group
	verifier auth.IVerifier
	key      []byte
}

func NewStore(v auth.IVerifier, opts ...Option) (*Store, error) {
	c := &config{
		maxSessions: defaultMaxSessions,
		authFailTTL: defaultAuthFailTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	sessions, err := lru.New[string, *Session](c.maxSessions)
	if err != nil {
		return nil, fmt.Errorf("create session cache failed, err:%w", err)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate digest key failed, err:%w", err)
	}
	return &Store{
		c:        c,
		sessions: sessions,
		failed:   expirable.NewLRU[string, struct{}](maxFailedEntries, nil, c.authFailTTL),
		verifier: v,
		key:      key,
	}, nil
}

func (s *Store) digest(username string, password string) []byte {
	h, _ := blake2b.New256(s.key)
	_, _ = h.Write([]byte(username))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(password))
	return h.Sum(nil)
}

// Resolve returns the cached token of username, verifying the credential on first use.
func (s *Store) Resolve(ctx context.Context, username string, password string) (*idp.Token, error) {
	digest := s.digest(username, password)
	if tk, ok := s.lookup(username, digest); ok {
		return tk, nil
	}
	flightKey := username + ":" + hex.EncodeToString(digest)
	if _, ok := s.failed.Get(flightKey); ok {
		return nil, fmt.Errorf("%w: recently rejected", auth.ErrAuthenticationFailed)
	}
	v, err, _ := s.group.Do(flightKey, func() (interface{}, error) {
		if tk, ok := s.lookup(username, digest); ok {
			return tk, nil
		}
		tk, err := s.verifier.Verify(context.WithoutCancel(ctx), username, password)
		if err != nil {
			if errors.Is(err, auth.ErrAuthenticationFailed) {
				s.failed.Add(flightKey, struct{}{})
			}
			return nil, err
		}
		s.put(username, digest, tk)
		logutil.GetLogger(ctx).Info("user session created", zap.String("user", username))
		return tk, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*idp.Token), nil
}

// lookup misses on a different password and on an already expired token.
func (s *Store) lookup(username string, digest []byte) (*idp.Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions.Get(username)
	if !ok {
		return nil, false
	}
	if subtle.ConstantTimeCompare(sess.digest, digest) != 1 {
		return nil, false
	}
	now := s.c.now()
	if !now.Before(sess.Expiry) {
		return nil, false
	}
	sess.LastAccess = now
	return sess.Token, true
}

func (s *Store) put(username string, digest []byte, tk *idp.Token) {
	now := s.c.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Add(username, &Session{
		Username:   username,
		Token:      tk,
		Expiry:     ExpiryOf(tk, now),
		LastAccess: now,
		digest:     digest,
	})
	metrics.SetActiveSessions(s.sessions.Len())
}

// Get returns a copy of the session of username.
func (s *Store) Get(username string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions.Peek(username)
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Invalidate drops the session of username if it still holds tk.
func (s *Store) Invalidate(username string, tk *idp.Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions.Peek(username)
	if !ok || sess.Token != tk {
		return false
	}
	s.sessions.Remove(username)
	metrics.SetActiveSessions(s.sessions.Len())
	return true
}

// Due lists sessions whose token expires within ahead.
func (s *Store) Due(ahead time.Duration) []Session {
	now := s.c.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := make([]Session, 0, 8)
	for _, username := range s.sessions.Keys() {
		sess, ok := s.sessions.Peek(username)
		if !ok || len(sess.Token.RefreshToken) == 0 {
			continue
		}
		if now.Before(sess.Expiry.Add(-ahead)) {
			continue
		}
		rs = append(rs, *sess)
	}
	return rs
}

// Replace swaps the token of username from old to tk, it does nothing if the session moved on.
func (s *Store) Replace(username string, old *idp.Token, tk *idp.Token) bool {
	now := s.c.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions.Peek(username)
	if !ok || sess.Token != old {
		return false
	}
	sess.Token = tk
	sess.Expiry = ExpiryOf(tk, now)
	return true
}

// EvictIdle removes sessions not used for maxIdle.
func (s *Store) EvictIdle(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	now := s.c.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	cnt := 0
	for _, username := range s.sessions.Keys() {
		sess, ok := s.sessions.Peek(username)
		if !ok || now.Sub(sess.LastAccess) < maxIdle {
			continue
		}
		s.sessions.Remove(username)
		cnt++
	}
	if cnt > 0 {
		metrics.SetActiveSessions(s.sessions.Len())
	}
	return cnt
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Len()
}
