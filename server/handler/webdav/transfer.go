package webdav

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
	"github.com/xxxsen/davgate/apiclient"
	"github.com/xxxsen/davgate/davpath"
	"github.com/xxxsen/davgate/session"
)

// transfer is the resolved state shared by COPY and MOVE.
type transfer struct {
	cli    apiclient.IFileClient
	id     *session.Identity
	src    string
	dst    string
	item   *apiclient.File
	parent *apiclient.File
}

func (h *WebdavHandler) prepareTransfer(c *gin.Context) (*transfer, bool) {
	ctx := c.Request.Context()
	cli, id, ok := h.bindClient(c)
	if !ok {
		return nil, false
	}
	src, ok := h.sourcePath(c)
	if !ok {
		return nil, false
	}
	dst, ok := h.destinationPath(c)
	if !ok {
		return nil, false
	}
	if src == dst {
		proxyutil.FailStatus(c, http.StatusForbidden, fmt.Errorf("src equals dst, path:%s", src))
		return nil, false
	}
	if davpath.IsRoot(src) || davpath.IsRoot(dst) {
		proxyutil.FailStatus(c, http.StatusForbidden, fmt.Errorf("root can not be copied or replaced, src:%s, dst:%s", src, dst))
		return nil, false
	}
	if strings.HasPrefix(dst, src+"/") {
		proxyutil.FailStatus(c, http.StatusForbidden, fmt.Errorf("dst inside src, src:%s, dst:%s", src, dst))
		return nil, false
	}
	item, err := cli.GetByPath(ctx, src)
	if err != nil {
		h.failBackend(c, id, fmt.Errorf("resolve src failed, src:%s, err:%w", src, err))
		return nil, false
	}
	parent, err := cli.GetByPath(ctx, davpath.Dir(dst))
	if err != nil {
		h.failBackend(c, id, fmt.Errorf("resolve dst parent failed, dst:%s, err:%w", dst, err))
		return nil, false
	}
	if !parent.IsFolder() {
		proxyutil.FailStatus(c, http.StatusConflict, fmt.Errorf("dst parent is not a folder, dst:%s", dst))
		return nil, false
	}
	existing, err := lookupOptional(c, cli, dst)
	if err != nil {
		h.failBackend(c, id, fmt.Errorf("resolve dst failed, dst:%s, err:%w", dst, err))
		return nil, false
	}
	if existing != nil {
		if strings.EqualFold(c.GetHeader("Overwrite"), "F") {
			proxyutil.FailStatus(c, http.StatusPreconditionFailed, fmt.Errorf("dst exists and overwrite disabled, dst:%s", dst))
			return nil, false
		}
		if err := cli.Delete(ctx, existing.ID); err != nil {
			h.failBackend(c, id, fmt.Errorf("delete existing dst failed, dst:%s, err:%w", dst, err))
			return nil, false
		}
	}
	return &transfer{cli: cli, id: id, src: src, dst: dst, item: item, parent: parent}, true
}
