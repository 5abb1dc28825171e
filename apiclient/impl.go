package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

var (
	defaultHttpClient = &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
		},
	}
	quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
)

type defaultClient struct {
	c *config
}

type boundClient struct {
	c     *config
	token string
}

func (d *defaultClient) Bind(accessToken string) IFileClient {
	return &boundClient{c: d.c, token: accessToken}
}

func (b *boundClient) buildUrl(api string, query url.Values) string {
	u := strings.TrimSuffix(b.c.Host, "/") + api
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (b *boundClient) newRequest(ctx context.Context, method string, api string, query url.Values, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, b.buildUrl(api, query), body)
	if err != nil {
		return nil, fmt.Errorf("build request failed, api:%s, err:%w", api, err)
	}
	req.Header.Set("Authorization", "Bearer "+b.token)
	return req, nil
}

func (b *boundClient) do(req *http.Request) (*http.Response, error) {
	rsp, err := b.c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call api failed, method:%s, path:%s, err:%w", req.Method, req.URL.Path, err)
	}
	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		defer rsp.Body.Close()
		return nil, readError(rsp)
	}
	return rsp, nil
}

func (b *boundClient) callJson(ctx context.Context, method string, api string, query url.Values, in interface{}, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request failed, err:%w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := b.newRequest(ctx, method, api, query, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rsp, err := b.do(req)
	if err != nil {
		return err
	}
	defer rsp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, rsp.Body)
		return nil
	}
	if err := json.NewDecoder(rsp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response failed, api:%s, err:%w", api, err)
	}
	return nil
}

func (b *boundClient) GetByPath(ctx context.Context, p string) (*File, error) {
	f := &File{}
	if err := b.callJson(ctx, http.MethodGet, "/v2/files", url.Values{"path": {p}}, nil, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (b *boundClient) ListByPath(ctx context.Context, p string) ([]*File, error) {
	rs := make([]*File, 0, 32)
	if err := b.callJson(ctx, http.MethodGet, "/v2/files/list", url.Values{"path": {p}}, nil, &rs); err != nil {
		return nil, err
	}
	return rs, nil
}

func (b *boundClient) Download(ctx context.Context, f *File, w io.Writer) (int64, error) {
	api := fmt.Sprintf("/v2/files/%s/original%s", url.PathEscape(f.ID), f.Extension())
	req, err := b.newRequest(ctx, http.MethodGet, api, nil, nil)
	if err != nil {
		return 0, err
	}
	rsp, err := b.do(req)
	if err != nil {
		return 0, err
	}
	defer rsp.Body.Close()
	n, err := io.Copy(w, rsp.Body)
	if err != nil {
		return n, fmt.Errorf("copy original content failed, id:%s, err:%w", f.ID, err)
	}
	return n, nil
}

func (b *boundClient) Upload(ctx context.Context, ur *UploadRequest) (*File, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	done := make(chan struct{})
	// 关闭读端让写协程退出, 等它结束后 ur.Reader 才能交还给调用方
	defer func() {
		_ = pr.Close()
		<-done
	}()
	go func() {
		defer close(done)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(ur.Name)))
		ct := ur.ContentType
		if len(ct) == 0 {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := writer.CreatePart(h)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, ur.Reader); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(writer.Close())
	}()
	query := url.Values{
		"type":         {FileTypeFile},
		"workspace_id": {ur.WorkspaceID},
		"name":         {ur.Name},
	}
	if len(ur.ParentID) > 0 {
		query.Set("parent_id", ur.ParentID)
	}
	req, err := b.newRequest(ctx, http.MethodPost, "/v2/files", query, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rsp, err := b.do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()
	f := &File{}
	if err := json.NewDecoder(rsp.Body).Decode(f); err != nil {
		return nil, fmt.Errorf("decode upload response failed, err:%w", err)
	}
	return f, nil
}

func (b *boundClient) CreateFolder(ctx context.Context, workspaceID string, parentID string, name string) (*File, error) {
	query := url.Values{
		"type":         {FileTypeFolder},
		"workspace_id": {workspaceID},
		"name":         {name},
	}
	if len(parentID) > 0 {
		query.Set("parent_id", parentID)
	}
	f := &File{}
	if err := b.callJson(ctx, http.MethodPost, "/v2/files", query, nil, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (b *boundClient) Copy(ctx context.Context, id string, targetID string) (*File, error) {
	f := &File{}
	api := fmt.Sprintf("/v2/files/%s/copy/%s", url.PathEscape(id), url.PathEscape(targetID))
	if err := b.callJson(ctx, http.MethodPost, api, nil, nil, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (b *boundClient) Move(ctx context.Context, id string, targetID string) error {
	api := fmt.Sprintf("/v2/files/%s/move/%s", url.PathEscape(id), url.PathEscape(targetID))
	return b.callJson(ctx, http.MethodPost, api, nil, nil, nil)
}

func (b *boundClient) Rename(ctx context.Context, id string, name string) (*File, error) {
	f := &File{}
	api := fmt.Sprintf("/v2/files/%s/name", url.PathEscape(id))
	if err := b.callJson(ctx, http.MethodPatch, api, nil, &renameRequest{Name: name}, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (b *boundClient) Delete(ctx context.Context, id string) error {
	api := fmt.Sprintf("/v2/files/%s", url.PathEscape(id))
	return b.callJson(ctx, http.MethodDelete, api, nil, nil, nil)
}

func readError(rsp *http.Response) error {
	e := &APIError{StatusCode: rsp.StatusCode}
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
