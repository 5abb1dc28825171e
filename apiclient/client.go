package apiclient

import (
	"context"
	"io"
)

// IClient hands out file clients bound to a bearer token.
type IClient interface {
	Bind(accessToken string) IFileClient
}

type IFileClient interface {
	GetByPath(ctx context.Context, p string) (*File, error)
	ListByPath(ctx context.Context, p string) ([]*File, error)
	Download(ctx context.Context, f *File, w io.Writer) (int64, error)
	Upload(ctx context.Context, req *UploadRequest) (*File, error)
	CreateFolder(ctx context.Context, workspaceID string, parentID string, name string) (*File, error)
	Copy(ctx context.Context, id string, targetID string) (*File, error)
	Move(ctx context.Context, id string, targetID string) error
	Rename(ctx context.Context, id string, name string) (*File, error)
	Delete(ctx context.Context, id string) error
}
