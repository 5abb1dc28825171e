package webdav

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (h *WebdavHandler) handleOptions(c *gin.Context) {
	c.Header("Allow", strings.Join(AllowMethods, ", "))
	c.Header("DAV", "1")
	c.Header("MS-Author-Via", "DAV")
	c.Status(http.StatusOK)
}

// handlePropPatch 不支持修改属性, 直接返回成功
func (h *WebdavHandler) handlePropPatch(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
