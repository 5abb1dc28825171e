package webdav

import (
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi/proxyutil"
	"github.com/xxxsen/davgate/apiclient"
	"github.com/xxxsen/davgate/davpath"
	"github.com/xxxsen/davgate/metrics"
	"github.com/xxxsen/davgate/server/httpkit"
	"go.uber.org/zap"
)

func (h *WebdavHandler) handlePut(c *gin.Context) {
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
		proxyutil.FailStatus(c, http.StatusMethodNotAllowed, fmt.Errorf("cant put on root"))
		return
	}
	name := davpath.Base(location)
	if davpath.IsLockFile(name) {
		logutil.GetLogger(ctx).Debug("skip office lock file", zap.String("location", location))
		c.Status(http.StatusOK)
		return
	}
	parent, err := cli.GetByPath(ctx, davpath.Dir(location))
	if err != nil {
		h.failBackend(c, id, fmt.Errorf("resolve parent failed, location:%s, err:%w", location, err))
		return
	}
	if !parent.IsFolder() {
		proxyutil.FailStatus(c, http.StatusConflict, fmt.Errorf("parent is not a folder, location:%s", location))
		return
	}
	if !parent.Permission.AtLeast(apiclient.PermissionEditor) {
		proxyutil.FailStatus(c, http.StatusUnauthorized, fmt.Errorf("no write permission on parent, location:%s, permission:%s", location, parent.Permission))
		return
	}
	existing, err := lookupOptional(c, cli, location)
	if err != nil {
		h.failBackend(c, id, fmt.Errorf("resolve existing item failed, location:%s, err:%w", location, err))
		return
	}
	if existing != nil && existing.IsFolder() {
		proxyutil.FailStatus(c, http.StatusMethodNotAllowed, fmt.Errorf("cant overwrite folder, location:%s", location))
		return
	}
	staged, err := h.stager.StageReader(c.Request.Body)
	if err != nil {
		proxyutil.FailStatus(c, http.StatusInternalServerError, fmt.Errorf("stage request body failed, location:%s, err:%w", location, err))
		return
	}
	defer func() {
		if err := staged.Release(); err != nil {
			logutil.GetLogger(ctx).Error("release staged file failed", zap.Error(err))
		}
	}()
	metrics.RecordStaged(metrics.DirectionUpload, staged.Size())
	if existing != nil {
		if err := cli.Delete(ctx, existing.ID); err != nil {
			h.failBackend(c, id, fmt.Errorf("delete existing item failed, location:%s, err:%w", location, err))
			return
		}
	}
	contentType, err := httpkit.DetectContentType(name, staged)
	if err != nil {
		logutil.GetLogger(ctx).Warn("detect content type failed", zap.String("location", location), zap.Error(err))
	}
	item, err := cli.Upload(ctx, &apiclient.UploadRequest{
		WorkspaceID: parent.WorkspaceID,
		ParentID:    parent.ID,
		Name:        name,
		ContentType: contentType,
		Reader:      staged,
	})
	if err != nil {
		h.failBackend(c, id, fmt.Errorf("upload item failed, location:%s, err:%w", location, err))
		return
	}
	logutil.GetLogger(ctx).Info("item uploaded", zap.String("location", location), zap.String("id", item.ID),
		zap.String("size", humanize.IBytes(uint64(staged.Size()))), zap.Bool("replaced", existing != nil))
	c.Status(http.StatusCreated)
}
