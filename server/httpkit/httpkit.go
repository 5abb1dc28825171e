package httpkit

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/davgate/apiclient"
)

const (
	defaultMimeType = "application/octet-stream"
)

func DetermineMimeType(filename string) string {
	ext := path.Ext(filename)
	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return defaultMimeType
	}
	return mimeType
}

// DetectContentType prefers the extension and sniffs the content otherwise, r is rewound afterwards.
func DetectContentType(filename string, r io.ReadSeeker) (string, error) {
	if mimeType := mime.TypeByExtension(path.Ext(filename)); mimeType != "" {
		return mimeType, nil
	}
	mt, err := mimetype.DetectReader(r)
	if _, serr := r.Seek(0, io.SeekStart); serr != nil {
		return defaultMimeType, fmt.Errorf("rewind after detect failed, err:%w", serr)
	}
	if err != nil {
		return defaultMimeType, fmt.Errorf("detect mime type failed, err:%w", err)
	}
	return mt.String(), nil
}

// ETag derives a strong validator from the item identity and its last change.
func ETag(f *apiclient.File) string {
	d := xxhash.New()
	_, _ = d.WriteString(f.ID)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(f.Modified().UTC().Format(time.RFC3339Nano))
	if sz, ok := f.Size(); ok {
		_, _ = d.WriteString(fmt.Sprintf("|%d", sz))
	}
	return fmt.Sprintf("\"%x\"", d.Sum64())
}

func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(http.TimeFormat)
}

func SetItemHeader(c *gin.Context, f *apiclient.File) {
	if lm := FormatTime(f.Modified()); len(lm) > 0 {
		c.Header("Last-Modified", lm)
	}
	c.Header("ETag", ETag(f))
}
