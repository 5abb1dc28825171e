package webdav

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/xxxsen/davgate/apiclient"
	"github.com/xxxsen/davgate/idp"
)

// fakeBackend is an in-memory backing api keyed by logical path.
type fakeBackend struct {
	mu       sync.Mutex
	items    map[string]*apiclient.File
	content  map[string][]byte
	nextID   int
	calls    []string
	tokens   []string
	rejectTk string
	failOn   map[string]int
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{
		items:   make(map[string]*apiclient.File),
		content: make(map[string][]byte),
		failOn:  make(map[string]int),
	}
	b.items["/"] = &apiclient.File{ID: "root", WorkspaceID: "ws", Name: "root", Type: apiclient.FileTypeFolder, Permission: apiclient.PermissionOwner, CreateTime: "2024-01-01T00:00:00Z"}
	return b
}

func (b *fakeBackend) addFolder(p string, perm apiclient.Permission) *apiclient.File {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addLocked(p, apiclient.FileTypeFolder, perm, nil)
}

func (b *fakeBackend) addFile(p string, data []byte) *apiclient.File {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addLocked(p, apiclient.FileTypeFile, apiclient.PermissionOwner, data)
}

func (b *fakeBackend) addLocked(p string, typ string, perm apiclient.Permission, data []byte) *apiclient.File {
	b.nextID++
	parent := b.items[path.Dir(p)]
	f := &apiclient.File{
		ID:          fmt.Sprintf("id%d", b.nextID),
		WorkspaceID: "ws",
		Name:        path.Base(p),
		Type:        typ,
		Permission:  perm,
		CreateTime:  "2024-01-02T03:04:05Z",
	}
	if parent != nil {
		f.ParentID = parent.ID
	}
	if typ == apiclient.FileTypeFile {
		f.Snapshot = &apiclient.Snapshot{Original: &apiclient.Original{Extension: path.Ext(p), Size: int64(len(data))}}
		b.content[f.ID] = data
	}
	b.items[p] = f
	return f
}

func (b *fakeBackend) get(p string) (*apiclient.File, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.items[p]
	return f, ok
}

func (b *fakeBackend) callsOf(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	cnt := 0
	for _, c := range b.calls {
		if strings.HasPrefix(c, prefix) {
			cnt++
		}
	}
	return cnt
}

func (b *fakeBackend) pathOf(id string) (string, bool) {
	for p, f := range b.items {
		if f.ID == id {
			return p, true
		}
	}
	return "", false
}

// rekey moves p and all of its descendants to np.
func (b *fakeBackend) rekey(p string, np string) {
	moved := make(map[string]*apiclient.File)
	for k, f := range b.items {
		if k == p || strings.HasPrefix(k, p+"/") {
			moved[np+strings.TrimPrefix(k, p)] = f
			delete(b.items, k)
		}
	}
	for k, f := range moved {
		b.items[k] = f
	}
}

func (b *fakeBackend) Bind(accessToken string) apiclient.IFileClient {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = append(b.tokens, accessToken)
	return &fakeFileClient{b: b, token: accessToken}
}

type fakeFileClient struct {
	b     *fakeBackend
	token string
}

// enter records call and answers the failure injected for its operation, e.g. failOn["delete"] = 403.
func (f *fakeFileClient) enter(call string) error {
	f.b.mu.Lock()
	f.b.calls = append(f.b.calls, call)
	op, _, _ := strings.Cut(call, " ")
	code, fail := f.b.failOn[op]
	f.b.mu.Unlock()
	if len(f.b.rejectTk) > 0 && f.token == f.b.rejectTk {
		return &apiclient.APIError{StatusCode: 401}
	}
	if fail {
		return &apiclient.APIError{StatusCode: code}
	}
	return nil
}

func (f *fakeFileClient) GetByPath(ctx context.Context, p string) (*apiclient.File, error) {
	if err := f.enter("get " + p); err != nil {
		return nil, err
	}
	item, ok := f.b.get(p)
	if !ok {
		return nil, &apiclient.APIError{StatusCode: 404}
	}
	cp := *item
	return &cp, nil
}

func (f *fakeFileClient) ListByPath(ctx context.Context, p string) ([]*apiclient.File, error) {
	if err := f.enter("list " + p); err != nil {
		return nil, err
	}
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if _, ok := f.b.items[p]; !ok {
		return nil, &apiclient.APIError{StatusCode: 404}
	}
	rs := make([]*apiclient.File, 0)
	for k, item := range f.b.items {
		if k != "/" && path.Dir(k) == p {
			cp := *item
			rs = append(rs, &cp)
		}
	}
	return rs, nil
}

func (f *fakeFileClient) Download(ctx context.Context, item *apiclient.File, w io.Writer) (int64, error) {
	if err := f.enter("download " + item.ID); err != nil {
		return 0, err
	}
	f.b.mu.Lock()
	data, ok := f.b.content[item.ID]
	f.b.mu.Unlock()
	if !ok {
		return 0, &apiclient.APIError{StatusCode: 404}
	}
	return io.Copy(w, bytes.NewReader(data))
}

func (f *fakeFileClient) Upload(ctx context.Context, req *apiclient.UploadRequest) (*apiclient.File, error) {
	if err := f.enter("upload " + req.Name); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(req.Reader)
	if err != nil {
		return nil, err
	}
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	pp, ok := f.b.pathOf(req.ParentID)
	if !ok {
		return nil, &apiclient.APIError{StatusCode: 404}
	}
	item := f.b.addLocked(path.Join(pp, req.Name), apiclient.FileTypeFile, apiclient.PermissionOwner, data)
	cp := *item
	return &cp, nil
}

func (f *fakeFileClient) CreateFolder(ctx context.Context, workspaceID string, parentID string, name string) (*apiclient.File, error) {
	if err := f.enter("mkdir " + name); err != nil {
		return nil, err
	}
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	pp, ok := f.b.pathOf(parentID)
	if !ok {
		return nil, &apiclient.APIError{StatusCode: 404}
	}
	item := f.b.addLocked(path.Join(pp, name), apiclient.FileTypeFolder, apiclient.PermissionOwner, nil)
	cp := *item
	return &cp, nil
}

func (f *fakeFileClient) Copy(ctx context.Context, id string, targetID string) (*apiclient.File, error) {
	if err := f.enter("copy " + id + " " + targetID); err != nil {
		return nil, err
	}
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	sp, ok := f.b.pathOf(id)
	if !ok {
		return nil, &apiclient.APIError{StatusCode: 404}
	}
	tp, ok := f.b.pathOf(targetID)
	if !ok {
		return nil, &apiclient.APIError{StatusCode: 404}
	}
	src := f.b.items[sp]
	np := path.Join(tp, src.Name)
	if _, exists := f.b.items[np]; exists {
		np = path.Join(tp, "Copy of "+src.Name)
	}
	item := f.b.addLocked(np, src.Type, src.Permission, f.b.content[src.ID])
	cp := *item
	return &cp, nil
}

func (f *fakeFileClient) Move(ctx context.Context, id string, targetID string) error {
	if err := f.enter("move " + id + " " + targetID); err != nil {
		return err
	}
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	sp, ok := f.b.pathOf(id)
	if !ok {
		return &apiclient.APIError{StatusCode: 404}
	}
	tp, ok := f.b.pathOf(targetID)
	if !ok {
		return &apiclient.APIError{StatusCode: 404}
	}
	f.b.items[sp].ParentID = targetID
	f.b.rekey(sp, path.Join(tp, path.Base(sp)))
	return nil
}

func (f *fakeFileClient) Rename(ctx context.Context, id string, name string) (*apiclient.File, error) {
	if err := f.enter("rename " + id + " " + name); err != nil {
		return nil, err
	}
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	sp, ok := f.b.pathOf(id)
	if !ok {
		return nil, &apiclient.APIError{StatusCode: 404}
	}
	f.b.items[sp].Name = name
	f.b.rekey(sp, path.Join(path.Dir(sp), name))
	cp := *f.b.items[path.Join(path.Dir(sp), name)]
	return &cp, nil
}

func (f *fakeFileClient) Delete(ctx context.Context, id string) error {
	if err := f.enter("delete " + id); err != nil {
		return err
	}
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	sp, ok := f.b.pathOf(id)
	if !ok {
		return &apiclient.APIError{StatusCode: 404}
	}
	for k := range f.b.items {
		if k == sp || strings.HasPrefix(k, sp+"/") {
			delete(f.b.items, k)
		}
	}
	return nil
}

type fakeInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (f *fakeInvalidator) Invalidate(username string, tk *idp.Token) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, username)
	return true
}
