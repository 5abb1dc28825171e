package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/retry"
	"github.com/xxxsen/davgate/idp"
	"github.com/xxxsen/davgate/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRefreshInterval    = 5 * time.Second
	defaultRefreshAhead       = time.Minute
	defaultRefreshConcurrency = 8
)

// Refresher renews tokens shortly before they expire.
type Refresher struct {
	c     *refresherConfig
	store *Store
	cli   idp.IClient
}

func NewRefresher(store *Store, cli idp.IClient, opts ...RefresherOption) *Refresher {
	c := &refresherConfig{
		interval:      defaultRefreshInterval,
		ahead:         defaultRefreshAhead,
		concurrency:   defaultRefreshConcurrency,
		retryTimes:    2,
		retryInterval: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.concurrency <= 0 {
		c.concurrency = 1
	}
	return &Refresher{c: c, store: store, cli: cli}
}

// Run blocks until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.c.interval)
	defer ticker.Stop()
	logutil.GetLogger(ctx).Info("token refresher started", zap.Duration("interval", r.c.interval), zap.Duration("ahead", r.c.ahead))
	for {
		select {
		case <-ctx.Done():
			logutil.GetLogger(ctx).Info("token refresher stopped")
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick runs one refresh pass and returns the number of replaced tokens.
func (r *Refresher) Tick(ctx context.Context) int {
	start := time.Now()
	defer func() {
		metrics.RecordRefreshTick(time.Since(start))
	}()
	if cnt := r.store.EvictIdle(r.c.maxIdle); cnt > 0 {
		logutil.GetLogger(ctx).Info("evict idle sessions", zap.Int("count", cnt))
	}
	due := r.store.Due(r.c.ahead)
	if len(due) == 0 {
		return 0
	}
	var replaced atomic.Int64
	eg := &errgroup.Group{}
	eg.SetLimit(r.c.concurrency)
	for _, sess := range due {
		eg.Go(func() error {
			tk, err := r.refresh(ctx, sess.Token.RefreshToken)
			if err != nil {
				logutil.GetLogger(ctx).Warn("refresh token failed, keep current one",
					zap.String("user", sess.Username), zap.Time("expiry", sess.Expiry), zap.Error(err))
				return nil
			}
			if !r.store.Replace(sess.Username, sess.Token, tk) {
				logutil.GetLogger(ctx).Debug("session changed during refresh, drop new token", zap.String("user", sess.Username))
				return nil
			}
			replaced.Add(1)
			logutil.GetLogger(ctx).Debug("token refreshed", zap.String("user", sess.Username))
			return nil
		})
	}
	_ = eg.Wait()
	return int(replaced.Load())
}

// refresh retries transport failures only, a rejected refresh token is final.
// A failing grant is attempted retryTimes+1 times.
func (r *Refresher) refresh(ctx context.Context, refreshToken string) (*idp.Token, error) {
	var tk *idp.Token
	var rejected error
	err := retry.RetryDo(ctx, r.c.retryTimes, r.c.retryInterval, func(ctx context.Context) error {
		rs, err := r.cli.RefreshGrant(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, idp.ErrInvalidGrant) {
				rejected = err
				return nil
			}
			return err
		}
		tk = rs
		return nil
	})
	if err != nil {
		metrics.RecordTokenExchange(idp.GrantTypeRefreshToken, metrics.ResultError)
		return nil, fmt.Errorf("refresh grant failed, err:%w", err)
	}
	if rejected != nil {
		metrics.RecordTokenExchange(idp.GrantTypeRefreshToken, metrics.ResultRejected)
		return nil, rejected
	}
	metrics.RecordTokenExchange(idp.GrantTypeRefreshToken, metrics.ResultSuccess)
	return tk, nil
}
