package webdav

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
	"github.com/xxxsen/davgate/apiclient"
	"github.com/xxxsen/davgate/davpath"
)

func (h *WebdavHandler) handleMkcol(c *gin.Context) {
	ctx := c.Request.Context()
	cli, id, ok := h.bindClient(c)
	if !ok {
		return
	}
	location, ok := h.sourcePath(c)
	if !ok {
		return
	}
	if c.Request.ContentLength > 0 {
		proxyutil.FailStatus(c, http.StatusUnsupportedMediaType, fmt.Errorf("mkcol with body not supported"))
		return
	}
	if davpath.IsRoot(location) {
		proxyutil.FailStatus(c, http.StatusMethodNotAllowed, fmt.Errorf("root already exists"))
		return
	}
	existing, err := lookupOptional(c, cli, location)
	if err != nil {
		h.failBackend(c, id, fmt.Errorf("resolve item failed, location:%s, err:%w", location, err))
		return
	}
	if existing != nil {
		proxyutil.FailStatus(c, http.StatusMethodNotAllowed, fmt.Errorf("item already exists, location:%s", location))
		return
	}
	parent, err := cli.GetByPath(ctx, davpath.Dir(location))
	if err != nil {
		h.failBackend(c, id, fmt.Errorf("resolve parent failed, location:%s, err:%w", location, err))
		return
	}
	if !parent.Permission.AtLeast(apiclient.PermissionEditor) {
		proxyutil.FailStatus(c, http.StatusUnauthorized, fmt.Errorf("no write permission on parent, location:%s, permission:%s", location, parent.Permission))
		return
	}
	if _, err := cli.CreateFolder(ctx, parent.WorkspaceID, parent.ID, davpath.Base(location)); err != nil {
		h.failBackend(c, id, fmt.Errorf("create folder failed, location:%s, err:%w", location, err))
		return
	}
	c.Status(http.StatusCreated)
}
