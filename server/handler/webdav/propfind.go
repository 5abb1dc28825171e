package webdav

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi/proxyutil"
	"github.com/xxxsen/davgate/apiclient"
	"github.com/xxxsen/davgate/davpath"
	"github.com/xxxsen/davgate/server/httpkit"
	"github.com/xxxsen/davgate/server/model"
	"go.uber.org/zap"
)

func (h *WebdavHandler) handlePropfind(c *gin.Context) {
	ctx := c.Request.Context()
	cli, id, ok := h.bindClient(c)
	if !ok {
		return
	}
	location, ok := h.sourcePath(c)
	if !ok {
		return
	}
	base, err := cli.GetByPath(ctx, location)
	if err != nil {
		h.failBackend(c, id, fmt.Errorf("resolve item failed, location:%s, err:%w", location, err))
		return
	}
	selfHref := h.resolver.Href(location, base.IsFolder())
	ms := &model.Multistatus{
		XMLNS: "DAV:",
	}
	ms.Responses = append(ms.Responses, convertItemToResponse(selfHref, base))
	//非0的场景下, 均只获取直接子级
	if base.IsFolder() && c.GetHeader("Depth") != "0" {
		children, err := cli.ListByPath(ctx, location)
		if err != nil {
			h.failBackend(c, id, fmt.Errorf("list folder failed, location:%s, err:%w", location, err))
			return
		}
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].IsFolder() && !children[j].IsFolder()
		})
		for _, item := range children {
			ms.Responses = append(ms.Responses, convertItemToResponse(davpath.ChildHref(selfHref, item.Name, item.IsFolder()), item))
		}
	}
	if err := writeDavResponse(c, ms); err != nil {
		logutil.GetLogger(ctx).Error("write as xml failed", zap.Error(err))
		return
	}
}

func convertItemToResponse(href string, item *apiclient.File) *model.Response {
	resp := &model.Response{
		Href: href,
		Propstat: model.Propstat{
			Prop: model.Prop{
				DisplayName:  item.Name,
				CreationDate: httpkit.FormatTime(item.Created()),
				LastModified: httpkit.FormatTime(item.Modified()),
				ETag:         httpkit.ETag(item),
			},
			Status: model.StatusOK,
		},
	}
	if item.IsFolder() {
		resp.Propstat.Prop.ResourceType.Collection = &struct{}{}
		return resp
	}
	if sz, ok := item.Size(); ok {
		resp.Propstat.Prop.ContentLength = &sz
	}
	resp.Propstat.Prop.ContentType = httpkit.DetermineMimeType(item.Name)
	return resp
}

func writeDavResponse(c *gin.Context, ms *model.Multistatus) error {
	raw, err := xml.Marshal(ms)
	if err != nil {
		proxyutil.FailStatus(c, http.StatusInternalServerError, fmt.Errorf("encode multistatus failed, err:%w", err))
		return err
	}
	data := make([]byte, 0, len(xml.Header)+len(raw))
	data = append(data, xml.Header...)
	data = append(data, raw...)
	c.Data(http.StatusMultiStatus, "application/xml; charset=utf-8", data)
	return nil
}
