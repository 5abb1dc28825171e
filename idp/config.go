package idp

import "net/http"

type config struct {
	Host   string
	Client *http.Client
}

type Option func(*config)

// WithHost sets the identity service base url, e.g. http://127.0.0.1:8081
func WithHost(h string) Option {
	return func(c *config) {
		c.Host = h
	}
}

func WithHTTPClient(cli *http.Client) Option {
	return func(c *config) {
		c.Client = cli
	}
}
