package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/davgate/idp"
)

type fakeRefreshIdP struct {
	calls atomic.Int64
	err   error
}

func (f *fakeRefreshIdP) PasswordGrant(ctx context.Context, username string, password string) (*idp.Token, error) {
	return nil, errors.New("not used")
}

func (f *fakeRefreshIdP) RefreshGrant(ctx context.Context, refreshToken string) (*idp.Token, error) {
	n := f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &idp.Token{
		AccessToken:  fmt.Sprintf("refreshed-%d", n),
		RefreshToken: refreshToken + "-next",
		ExpiresIn:    3600,
	}, nil
}

func TestTickRefreshOnce(t *testing.T) {
	s, clk := newTestStore(t, &fakeVerifier{password: "secret"})
	cli := &fakeRefreshIdP{}
	r := NewRefresher(s, cli, WithRetry(1, 0))
	ctx := context.Background()

	_, err := s.Resolve(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, 0, r.Tick(ctx))
	assert.Equal(t, int64(0), cli.calls.Load())

	clk.Advance(59*time.Minute + time.Second)
	assert.Equal(t, 1, r.Tick(ctx))
	assert.Equal(t, 0, r.Tick(ctx))
	assert.Equal(t, int64(1), cli.calls.Load())

	sess, ok := s.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "refreshed-1", sess.Token.AccessToken)
	assert.Equal(t, "rt-alice-1-next", sess.Token.RefreshToken)

	tk, err := s.Resolve(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "refreshed-1", tk.AccessToken)
}

func TestTickManySessions(t *testing.T) {
	s, clk := newTestStore(t, &fakeVerifier{password: "secret"})
	cli := &fakeRefreshIdP{}
	r := NewRefresher(s, cli, WithConcurrency(2), WithRetry(1, 0))
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.Resolve(ctx, fmt.Sprintf("u%d", i), "secret")
		require.NoError(t, err)
	}
	clk.Advance(time.Hour)
	assert.Equal(t, 5, r.Tick(ctx))
	assert.Equal(t, int64(5), cli.calls.Load())
}

func TestTickRejectedKeepsToken(t *testing.T) {
	s, clk := newTestStore(t, &fakeVerifier{password: "secret"})
	cli := &fakeRefreshIdP{err: &idp.Error{StatusCode: http.StatusBadRequest}}
	r := NewRefresher(s, cli, WithRetry(3, 0))
	ctx := context.Background()
	tk, err := s.Resolve(ctx, "alice", "secret")
	require.NoError(t, err)
	clk.Advance(59*time.Minute + time.Second)
	assert.Equal(t, 0, r.Tick(ctx))
	assert.Equal(t, int64(1), cli.calls.Load())
	sess, ok := s.Get("alice")
	require.True(t, ok)
	assert.Same(t, tk, sess.Token)
}

func TestTickTransportErrorRetried(t *testing.T) {
	s, clk := newTestStore(t, &fakeVerifier{password: "secret"})
	cli := &fakeRefreshIdP{err: errors.New("connection refused")}
	r := NewRefresher(s, cli, WithRetry(2, time.Millisecond))
	ctx := context.Background()
	_, err := s.Resolve(ctx, "alice", "secret")
	require.NoError(t, err)
	clk.Advance(time.Hour)
	assert.Equal(t, 0, r.Tick(ctx))
	assert.Equal(t, int64(3), cli.calls.Load())
	_, ok := s.Get("alice")
	assert.True(t, ok)
}

func TestTickEvictsIdle(t *testing.T) {
	s, clk := newTestStore(t, &fakeVerifier{password: "secret"})
	r := NewRefresher(s, &fakeRefreshIdP{}, WithMaxIdle(10*time.Minute), WithRetry(1, 0))
	ctx := context.Background()
	_, err := s.Resolve(ctx, "alice", "secret")
	require.NoError(t, err)
	clk.Advance(11 * time.Minute)
	r.Tick(ctx)
	assert.Equal(t, 0, s.Len())
}

func TestRunStops(t *testing.T) {
	s, _ := newTestStore(t, &fakeVerifier{password: "secret"})
	r := NewRefresher(s, &fakeRefreshIdP{}, WithRefreshInterval(5*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}

func TestTickNoRetry(t *testing.T) {
	s, clk := newTestStore(t, &fakeVerifier{password: "secret"})
	cli := &fakeRefreshIdP{err: errors.New("connection refused")}
	r := NewRefresher(s, cli, WithRetry(0, 0))
	ctx := context.Background()
	_, err := s.Resolve(ctx, "alice", "secret")
	require.NoError(t, err)
	clk.Advance(time.Hour)
	assert.Equal(t, 0, r.Tick(ctx))
	assert.Equal(t, int64(1), cli.calls.Load())
}
