package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	apiToken = "/v2/token"
)

var (
	defaultHttpClient = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			IdleConnTimeout:     20 * time.Second,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
		},
	}
)

type defaultClient struct {
	c *config
}

func (d *defaultClient) buildUrl(api string) string {
	return strings.TrimSuffix(d.c.Host, "/") + api
}

func (d *defaultClient) PasswordGrant(ctx context.Context, username string, password string) (*Token, error) {
	return d.exchange(ctx, url.Values{
		"grant_type": {GrantTypePassword},
		"username":   {username},
		"password":   {password},
	})
}

func (d *defaultClient) RefreshGrant(ctx context.Context, refreshToken string) (*Token, error) {
	return d.exchange(ctx, url.Values{
		"grant_type":    {GrantTypeRefreshToken},
		"refresh_token": {refreshToken},
	})
}

func (d *defaultClient) exchange(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.buildUrl(apiToken), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request failed, err:%w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rsp, err := d.c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call token endpoint failed, err:%w", err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return nil, readError(rsp)
	}
	tk := &Token{}
	if err := json.NewDecoder(rsp.Body).Decode(tk); err != nil {
		return nil, fmt.Errorf("decode token failed, err:%w", err)
	}
	if len(tk.AccessToken) == 0 {
		return nil, fmt.Errorf("no access token in idp response")
	}
	return tk, nil
}

func readError(rsp *http.Response) error {
	e := &Error{StatusCode: rsp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(rsp.Body, 64*1024))
	if err != nil || len(raw) == 0 {
		return e
	}
	body := &ErrorResponse{}
	if err := json.Unmarshal(raw, body); err == nil {
		e.Rsp = body
	}
	return e
}

func New(opts ...Option) (IClient, error) {
	c := &config{
		Client: defaultHttpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if len(c.Host) == 0 {
		return nil, fmt.Errorf("no host found")
	}
	if _, err := url.Parse(c.Host); err != nil {
		return nil, fmt.Errorf("invalid host:%s, err:%w", c.Host, err)
	}
	return &defaultClient{c: c}, nil
}
