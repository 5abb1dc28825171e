package webdav

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi/proxyutil"
	"github.com/xxxsen/davgate/apiclient"
	"github.com/xxxsen/davgate/davpath"
	"github.com/xxxsen/davgate/idp"
	"github.com/xxxsen/davgate/session"
	"github.com/xxxsen/davgate/staging"
	"go.uber.org/zap"
)

type sessionInvalidator interface {
	Invalidate(username string, tk *idp.Token) bool
}

type WebdavHandler struct {
	api      apiclient.IClient
	sessions sessionInvalidator
	stager   *staging.Stager
	resolver *davpath.Resolver
}

func NewWebdavHandler(api apiclient.IClient, sessions sessionInvalidator, stager *staging.Stager, resolver *davpath.Resolver) *WebdavHandler {
	return &WebdavHandler{
		api:      api,
		sessions: sessions,
		stager:   stager,
		resolver: resolver,
	}
}

func (h *WebdavHandler) Handler(c *gin.Context) {
	switch strings.ToUpper(c.Request.Method) {
	case http.MethodOptions:
		h.handleOptions(c)
	case http.MethodGet:
		h.handleGet(c)
	case http.MethodHead:
		h.handleHead(c)
	case http.MethodPut:
		h.handlePut(c)
	case http.MethodDelete:
		h.handleDelete(c)
	case MethodMkcol:
		h.handleMkcol(c)
	case MethodCopy:
		h.handleCopy(c)
	case MethodMove:
		h.handleMove(c)
	case MethodPropfind:
		h.handlePropfind(c)
	case MethodProppatch:
		h.handlePropPatch(c)
	default:
		proxyutil.FailStatus(c, http.StatusNotImplemented, fmt.Errorf("unsupported method:%s", c.Request.Method))
	}
}

// bindClient returns a backing api client carrying the session token of the request.
func (h *WebdavHandler) bindClient(c *gin.Context) (apiclient.IFileClient, *session.Identity, bool) {
	id, ok := session.GetIdentity(c.Request.Context())
	if !ok {
		proxyutil.FailStatus(c, http.StatusUnauthorized, fmt.Errorf("no session found"))
		return nil, nil, false
	}
	return h.api.Bind(id.Token.AccessToken), id, true
}

func (h *WebdavHandler) sourcePath(c *gin.Context) (string, bool) {
	location, err := h.resolver.Source(c.Request.URL.Path)
	if err != nil {
		h.failPath(c, err)
		return "", false
	}
	return location, true
}

func (h *WebdavHandler) destinationPath(c *gin.Context) (string, bool) {
	location, err := h.resolver.Destination(c.GetHeader("Destination"))
	if err != nil {
		proxyutil.FailStatus(c, http.StatusBadRequest, fmt.Errorf("resolve destination failed, err:%w", err))
		return "", false
	}
	return location, true
}

func (h *WebdavHandler) failPath(c *gin.Context, err error) {
	if errors.Is(err, davpath.ErrOutsidePrefix) {
		proxyutil.FailStatus(c, http.StatusNotFound, err)
		return
	}
	proxyutil.FailStatus(c, http.StatusBadRequest, err)
}

// failBackend maps a backing api error onto a status, only a rejected token drops the session.
func (h *WebdavHandler) failBackend(c *gin.Context, id *session.Identity, err error) {
	if errors.Is(err, os.ErrNotExist) {
		proxyutil.FailStatus(c, http.StatusNotFound, err)
		return
	}
	if errors.Is(err, apiclient.ErrForbidden) {
		proxyutil.FailStatus(c, http.StatusUnauthorized, err)
		return
	}
	if errors.Is(err, apiclient.ErrUnauthorized) && h.sessions.Invalidate(id.Username, id.Token) {
		logutil.GetLogger(c.Request.Context()).Warn("backing api rejected token, session dropped", zap.String("user", id.Username))
	}
	proxyutil.FailStatus(c, http.StatusInternalServerError, err)
}

// lookupOptional resolves p and reports a missing item as nil.
func lookupOptional(c *gin.Context, cli apiclient.IFileClient, p string) (*apiclient.File, error) {
	item, err := cli.GetByPath(c.Request.Context(), p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}
