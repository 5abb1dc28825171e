package webdav

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davgate/davpath"
	"go.uber.org/zap"
)

func (h *WebdavHandler) handleMove(c *gin.Context) {
	ctx := c.Request.Context()
	tr, ok := h.prepareTransfer(c)
	if !ok {
		return
	}
	if davpath.Dir(tr.src) != davpath.Dir(tr.dst) {
		if err := tr.cli.Move(ctx, tr.item.ID, tr.parent.ID); err != nil {
			h.failBackend(c, tr.id, fmt.Errorf("move item failed, src:%s, dst:%s, err:%w", tr.src, tr.dst, err))
			return
		}
	}
	if name := davpath.Base(tr.dst); davpath.Base(tr.src) != name {
		if _, err := tr.cli.Rename(ctx, tr.item.ID, name); err != nil {
			h.failBackend(c, tr.id, fmt.Errorf("rename item failed, dst:%s, err:%w", tr.dst, err))
			return
		}
	}
	logutil.GetLogger(ctx).Info("item moved", zap.String("src", tr.src), zap.String("dst", tr.dst))
	c.Status(http.StatusNoContent)
}
