package apiclient

import "net/http"

type config struct {
	Host   string
	Client *http.Client
}

type Option func(*config)

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
