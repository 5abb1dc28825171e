package webdav

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davgate/davpath"
	"go.uber.org/zap"
)

func (h *WebdavHandler) handleCopy(c *gin.Context) {
	ctx := c.Request.Context()
	tr, ok := h.prepareTransfer(c)
	if !ok {
		return
	}
	dup, err := tr.cli.Copy(ctx, tr.item.ID, tr.parent.ID)
	if err != nil {
		h.failBackend(c, tr.id, fmt.Errorf("copy item failed, src:%s, dst:%s, err:%w", tr.src, tr.dst, err))
		return
	}
	if name := davpath.Base(tr.dst); dup.Name != name {
		if _, err := tr.cli.Rename(ctx, dup.ID, name); err != nil {
			h.failBackend(c, tr.id, fmt.Errorf("rename copied item failed, dst:%s, err:%w", tr.dst, err))
			return
		}
	}
	logutil.GetLogger(ctx).Info("item copied", zap.String("src", tr.src), zap.String("dst", tr.dst))
	c.Status(http.StatusNoContent)
}
