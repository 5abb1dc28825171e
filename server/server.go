package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/davgate/metrics"
	"github.com/xxxsen/davgate/server/handler/system"
	"github.com/xxxsen/davgate/server/handler/webdav"
	"github.com/xxxsen/davgate/server/middleware"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

type Server struct {
	c      *config
	engine *gin.Engine
	svr    *http.Server
}

func New(bind string, opts ...Option) (*Server, error) {
	c := applyOpts(opts...)
	if c.api == nil {
		return nil, fmt.Errorf("no api client found")
	}
	if c.store == nil {
		return nil, fmt.Errorf("no session store found")
	}
	if c.stager == nil {
		return nil, fmt.Errorf("no stager found")
	}
	engine := gin.New()
	// webdav 路径原样交给处理器, 不做重定向
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false
	engine.HandleMethodNotAllowed = false
	svr := &Server{
		c:      c,
		engine: engine,
		svr: &http.Server{
			Addr:    bind,
			Handler: engine,
		},
	}
	svr.initAPI(engine)
	return svr, nil
}

func (s *Server) initAPI(engine *gin.Engine) {
	engine.Use(middleware.RecoverMiddleware(), middleware.LogRequestMiddleware(), middleware.MetricsMiddleware())
	engine.GET("/v1/health", system.Health)
	engine.GET("/version", system.Version(s.c.version))
	if s.c.enableMetrics {
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	webdavHandler := webdav.NewWebdavHandler(s.c.api, s.c.store, s.c.stager, s.c.resolver)
	// webdav 方法不固定, 统一走 NoRoute 分发
	engine.NoRoute(middleware.MustAuthMiddleware(s.c.store, s.c.realm), webdavHandler.Handler)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run() error {
	if err := s.svr.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.svr.Shutdown(ctx)
}
