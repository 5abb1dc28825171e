package webdav

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi/proxyutil"
	"github.com/xxxsen/davgate/metrics"
	"github.com/xxxsen/davgate/server/httpkit"
	"go.uber.org/zap"
)

func (h *WebdavHandler) handleGet(c *gin.Context) {
	ctx := c.Request.Context()
	cli, id, ok := h.bindClient(c)
	if !ok {
		return
	}
	location, ok := h.sourcePath(c)
	if !ok {
		return
	}
	rangeHeader := c.GetHeader("Range")
	if len(rangeHeader) > 0 && !httpkit.IsBytesRange(rangeHeader) {
		proxyutil.FailStatus(c, http.StatusBadRequest, fmt.Errorf("%w: %s", httpkit.ErrMalformedRange, rangeHeader))
		return
	}
	item, err := cli.GetByPath(ctx, location)
	if err != nil {
		h.failBackend(c, id, fmt.Errorf("resolve item failed, location:%s, err:%w", location, err))
		return
	}
	if item.IsFolder() {
		proxyutil.FailStatus(c, http.StatusMethodNotAllowed, fmt.Errorf("cant open stream on folder, location:%s", location))
		return
	}
	// 后端不支持range读取, 需要先完整落盘
	staged, err := h.stager.Stage(func(w io.Writer) error {
		_, err := cli.Download(ctx, item, w)
		return err
	})
	if err != nil {
		h.failBackend(c, id, fmt.Errorf("stage item failed, location:%s, err:%w", location, err))
		return
	}
	defer func() {
		if err := staged.Release(); err != nil {
			logutil.GetLogger(ctx).Error("release staged file failed", zap.Error(err))
		}
	}()
	size := staged.Size()
	metrics.RecordStaged(metrics.DirectionDownload, size)
	logutil.GetLogger(ctx).Debug("item staged", zap.String("location", location), zap.String("size", humanize.IBytes(uint64(size))))

	contentType, err := httpkit.DetectContentType(item.Name, staged)
	if err != nil {
		logutil.GetLogger(ctx).Warn("detect content type failed", zap.String("location", location), zap.Error(err))
	}
	c.Header("Content-Type", contentType)
	c.Header("Accept-Ranges", "bytes")
	httpkit.SetItemHeader(c, item)
	if len(rangeHeader) == 0 {
		c.Header("Content-Length", strconv.FormatInt(size, 10))
		c.Status(http.StatusOK)
		if _, err := io.Copy(c.Writer, staged); err != nil {
			logutil.GetLogger(ctx).Error("write item content failed", zap.String("location", location), zap.Error(err))
		}
		return
	}
	start, end, err := httpkit.ParseRange(rangeHeader, size)
	if err != nil {
		if errors.Is(err, httpkit.ErrUnsatisfiableRange) {
			c.Header("Content-Range", fmt.Sprintf("bytes */%d", size))
			proxyutil.FailStatus(c, http.StatusRequestedRangeNotSatisfiable, fmt.Errorf("range:%s, size:%d, err:%w", rangeHeader, size, err))
			return
		}
		proxyutil.FailStatus(c, http.StatusBadRequest, err)
		return
	}
	if _, err := staged.Seek(start, io.SeekStart); err != nil {
		proxyutil.FailStatus(c, http.StatusInternalServerError, fmt.Errorf("seek staged file failed, err:%w", err))
		return
	}
	length := end - start + 1
	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	c.Header("Content-Length", strconv.FormatInt(length, 10))
	c.Status(http.StatusPartialContent)
	if _, err := io.CopyN(c.Writer, staged, length); err != nil {
		logutil.GetLogger(ctx).Error("write item range failed", zap.String("location", location), zap.Error(err))
	}
}
