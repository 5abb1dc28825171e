package session

import "time"

type config struct {
	maxSessions int
	authFailTTL time.Duration
	now         func() time.Time
}

type Option func(c *config)

func WithMaxSessions(n int) Option {
	return func(c *config) {
		c.maxSessions = n
	}
}

// WithAuthFailTTL sets how long rejected credentials are answered without asking the identity service.
func WithAuthFailTTL(d time.Duration) Option {
	return func(c *config) {
		c.authFailTTL = d
	}
}

func WithClock(fn func() time.Time) Option {
	return func(c *config) {
		c.now = fn
	}
}

type refresherConfig struct {
	interval      time.Duration
	ahead         time.Duration
	maxIdle       time.Duration
	concurrency   int
	retryTimes    uint32
	retryInterval time.Duration
}

type RefresherOption func(c *refresherConfig)

func WithRefreshInterval(d time.Duration) RefresherOption {
	return func(c *refresherConfig) {
		c.interval = d
	}
}

func WithRefreshAhead(d time.Duration) RefresherOption {
	return func(c *refresherConfig) {
		c.ahead = d
	}
}

// WithMaxIdle evicts sessions unused for longer than d, 0 keeps them forever.
func WithMaxIdle(d time.Duration) RefresherOption {
	return func(c *refresherConfig) {
		c.maxIdle = d
	}
}

func WithConcurrency(n int) RefresherOption {
	return func(c *refresherConfig) {
		c.concurrency = n
	}
}

// WithRetry sets how many extra attempts follow a failed refresh grant, 0 means a single attempt.
func WithRetry(times uint32, interval time.Duration) RefresherOption {
	return func(c *refresherConfig) {
		c.retryTimes = times
		c.retryInterval = interval
	}
}
