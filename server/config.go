package server

import (
	"github.com/xxxsen/davgate/apiclient"
	"github.com/xxxsen/davgate/davpath"
	"github.com/xxxsen/davgate/session"
	"github.com/xxxsen/davgate/staging"
)

type config struct {
	api           apiclient.IClient
	store         *session.Store
	stager        *staging.Stager
	resolver      *davpath.Resolver
	realm         string
	version       string
	enableMetrics bool
}

type Option func(c *config)

func WithAPIClient(cli apiclient.IClient) Option {
	return func(c *config) {
		c.api = cli
	}
}

func WithSessionStore(s *session.Store) Option {
	return func(c *config) {
		c.store = s
	}
}

func WithStager(s *staging.Stager) Option {
	return func(c *config) {
		c.stager = s
	}
}

// WithPrefix mounts the webdav tree under prefix.
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.resolver = davpath.New(prefix)
	}
}

func WithRealm(realm string) Option {
	return func(c *config) {
		c.realm = realm
	}
}

func WithVersion(v string) Option {
	return func(c *config) {
		c.version = v
	}
}

func WithEnableMetrics(v bool) Option {
	return func(c *config) {
		c.enableMetrics = v
	}
}

func applyOpts(opts ...Option) *config {
	c := &config{
		resolver: davpath.New(""),
		realm:    "davgate",
		version:  "dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
