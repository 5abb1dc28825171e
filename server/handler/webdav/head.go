package webdav

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/davgate/server/httpkit"
)

func (h *WebdavHandler) handleHead(c *gin.Context) {
	cli, id, ok := h.bindClient(c)
	if !ok {
		return
	}
	location, ok := h.sourcePath(c)
	if !ok {
		return
	}
	item, err := cli.GetByPath(c.Request.Context(), location)
	if err != nil {
		h.failBackend(c, id, fmt.Errorf("resolve item failed, location:%s, err:%w", location, err))
		return
	}
	httpkit.SetItemHeader(c, item)
	if item.IsFolder() {
		c.Header("Content-Type", "httpd/unix-directory")
		c.Status(http.StatusOK)
		return
	}
	c.Header("Content-Type", httpkit.DetermineMimeType(item.Name))
	c.Header("Accept-Ranges", "bytes")
	if sz, ok := item.Size(); ok {
		c.Header("Content-Length", strconv.FormatInt(sz, 10))
	}
	c.Status(http.StatusOK)
}
