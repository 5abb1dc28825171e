// Package davpath maps WebDAV request paths onto the logical paths used by the backing API.
package davpath

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

var (
	ErrMalformedPath  = errors.New("malformed path")
	ErrNoDestination  = errors.New("no destination header found")
	ErrOutsidePrefix  = errors.New("path outside mount prefix")
	errParentTraverse = fmt.Errorf("%w: parent traversal not allowed", ErrMalformedPath)
)

type Resolver struct {
	prefix string
}

// New creates a resolver mounted under prefix, "" and "/" both mean the root.
func New(prefix string) *Resolver {
	prefix = strings.Trim(prefix, "/")
	if len(prefix) > 0 {
		prefix = "/" + prefix
	}
	return &Resolver{prefix: prefix}
}

func (r *Resolver) Prefix() string {
	return r.prefix
}

// Source returns the logical path of an already decoded url path.
func (r *Resolver) Source(urlPath string) (string, error) {
	if len(urlPath) == 0 {
		urlPath = "/"
	}
	if !strings.HasPrefix(urlPath, "/") {
		return "", fmt.Errorf("%w: %q not absolute", ErrMalformedPath, urlPath)
	}
	for _, seg := range strings.Split(urlPath, "/") {
		if seg == ".." {
			return "", errParentTraverse
		}
	}
	p := urlPath
	if len(r.prefix) > 0 {
		switch {
		case p == r.prefix:
			p = "/"
		case strings.HasPrefix(p, r.prefix+"/"):
			p = p[len(r.prefix):]
		default:
			return "", fmt.Errorf("%w: %s", ErrOutsidePrefix, urlPath)
		}
	}
	return path.Clean("/" + p), nil
}

// Destination resolves the Destination header of COPY/MOVE, either an absolute url or an absolute path.
func (r *Resolver) Destination(header string) (string, error) {
	if len(header) == 0 {
		return "", ErrNoDestination
	}
	u, err := url.Parse(header)
	if err != nil {
		return "", fmt.Errorf("%w: parse destination failed, err:%w", ErrMalformedPath, err)
	}
	if len(u.Path) == 0 {
		return "", fmt.Errorf("%w: destination has no path", ErrMalformedPath)
	}
	return r.Source(u.Path)
}

// Href renders a logical path as a percent-encoded href under the mount prefix.
func (r *Resolver) Href(logical string, collection bool) string {
	sb := strings.Builder{}
	sb.WriteString(r.prefix)
	for _, seg := range strings.Split(strings.Trim(logical, "/"), "/") {
		if len(seg) == 0 {
			continue
		}
		sb.WriteString("/")
		sb.WriteString(url.PathEscape(seg))
	}
	if collection || sb.Len() == 0 {
		sb.WriteString("/")
	}
	return sb.String()
}

// ChildHref appends an encoded child name to an existing href.
func ChildHref(parent string, name string, collection bool) string {
	if !strings.HasSuffix(parent, "/") {
		parent += "/"
	}
	h := parent + url.PathEscape(name)
	if collection {
		h += "/"
	}
	return h
}

func Dir(p string) string {
	return path.Dir(p)
}

func Base(p string) string {
	return path.Base(p)
}

func IsRoot(p string) bool {
	return p == "/"
}

// IsLockFile reports office suite lock files, e.g. "~$report.docx" and ".~lock.report.odt#".
func IsLockFile(name string) bool {
	if strings.HasPrefix(name, "~$") {
		return true
	}
	return strings.HasPrefix(name, ".~lock.") && strings.HasSuffix(name, "#")
}
