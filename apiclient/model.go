package apiclient

import (
	"io"
	"time"
)

type Permission string

const (
	PermissionNone   Permission = "none"
	PermissionViewer Permission = "viewer"
	PermissionEditor Permission = "editor"
	PermissionOwner  Permission = "owner"
)

var permissionLevel = map[Permission]int{
	PermissionNone:   0,
	PermissionViewer: 1,
	PermissionEditor: 2,
	PermissionOwner:  3,
}

// AtLeast reports whether p grants everything o grants, unknown values rank as none.
func (p Permission) AtLeast(o Permission) bool {
	return permissionLevel[p] >= permissionLevel[o]
}

const (
	FileTypeFile   = "file"
	FileTypeFolder = "folder"
)

type Original struct {
	Extension string `json:"extension"`
	Size      int64  `json:"size"`
}

type Snapshot struct {
	ID       string    `json:"id,omitempty"`
	Version  int64     `json:"version,omitempty"`
	Original *Original `json:"original,omitempty"`
}

type File struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspaceId"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	ParentID    string     `json:"parentId,omitempty"`
	Permission  Permission `json:"permission"`
	IsShared    *bool      `json:"isShared,omitempty"`
	Snapshot    *Snapshot  `json:"snapshot,omitempty"`
	CreateTime  string     `json:"createTime"`
	UpdateTime  *string    `json:"updateTime,omitempty"`
}

func (f *File) IsFolder() bool {
	return f.Type == FileTypeFolder
}

// Size returns the size of the original content when the backing api knows it.
func (f *File) Size() (int64, bool) {
	if f.Snapshot == nil || f.Snapshot.Original == nil {
		return 0, false
	}
	return f.Snapshot.Original.Size, true
}

func (f *File) Extension() string {
	if f.Snapshot == nil || f.Snapshot.Original == nil {
		return ""
	}
	return f.Snapshot.Original.Extension
}

func (f *File) Created() time.Time {
	return parseTime(f.CreateTime)
}

// Modified falls back to the creation time for items never updated.
func (f *File) Modified() time.Time {
	if f.UpdateTime != nil && len(*f.UpdateTime) > 0 {
		return parseTime(*f.UpdateTime)
	}
	return f.Created()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

type UploadRequest struct {
	WorkspaceID string
	ParentID    string
	Name        string
	ContentType string
	Reader      io.Reader
}

type renameRequest struct {
	Name string `json:"name"`
}
