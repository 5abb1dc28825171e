package webdav

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
	"github.com/xxxsen/davgate/davpath"
)

func (h *WebdavHandler) handleDelete(c *gin.Context) {
	ctx := c.Request.Context()
	cli, id, ok := h.bindClient(c)
	if !ok {
		return
	}
	location, ok := h.sourcePath(c)
	if !ok {
		return
	}
	if davpath.IsRoot(location) {
		proxyutil.FailStatus(c, http.StatusForbidden, fmt.Errorf("cant delete root"))
		return
	}
	item, err := cli.GetByPath(ctx, location)
	if err != nil {
		h.failBackend(c, id, fmt.Errorf("resolve item failed, location:%s, err:%w", location, err))
		return
	}
	if err := cli.Delete(ctx, item.ID); err != nil {
		h.failBackend(c, id, fmt.Errorf("delete item failed, location:%s, err:%w", location, err))
		return
	}
	c.Status(http.StatusNoContent)
}
