package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davgate/apiclient"
	"github.com/xxxsen/davgate/auth"
	"github.com/xxxsen/davgate/config"
	"github.com/xxxsen/davgate/idp"
	"github.com/xxxsen/davgate/server"
	"github.com/xxxsen/davgate/session"
	"github.com/xxxsen/davgate/staging"
	"go.uber.org/zap"
)

var file = flag.String("config", "./config.json", "config file path")

var version = "dev"

const (
	shutdownTimeout = 10 * time.Second
)

func main() {
	flag.Parse()

	c, err := config.Parse(*file)
	if err != nil {
		panic(err)
	}
	logitem := c.LogInfo
	logger := logger.Init(logitem.File, logitem.Level, int(logitem.FileCount), int(logitem.FileSize), int(logitem.KeepDays), logitem.Console)
	logger.Info("recv config", zap.Any("config", c))
	logger.Info("current session config",
		zap.Int64("refresh_interval", c.Session.RefreshInterval),
		zap.Int64("refresh_ahead", c.Session.RefreshAhead),
		zap.Int("refresh_concurrency", c.Session.RefreshConcurrency),
		zap.Int64("max_idle", c.Session.MaxIdle),
		zap.Int("max_sessions", c.Session.MaxSessions),
	)
	idpClient, err := idp.New(idp.WithHost(c.IdPURL))
	if err != nil {
		logger.Fatal("init idp client fail", zap.Error(err))
	}
	store, err := session.NewStore(auth.NewIdPVerifier(idpClient),
		session.WithMaxSessions(c.Session.MaxSessions),
		session.WithAuthFailTTL(time.Duration(c.Session.AuthFailTTL)*time.Second),
	)
	if err != nil {
		logger.Fatal("init session store fail", zap.Error(err))
	}
	refresher := session.NewRefresher(store, idpClient,
		session.WithRefreshInterval(time.Duration(c.Session.RefreshInterval)*time.Second),
		session.WithRefreshAhead(time.Duration(c.Session.RefreshAhead)*time.Second),
		session.WithMaxIdle(time.Duration(c.Session.MaxIdle)*time.Second),
		session.WithConcurrency(c.Session.RefreshConcurrency),
	)
	apiClient, err := apiclient.New(apiclient.WithHost(c.APIURL))
	if err != nil {
		logger.Fatal("init api client fail", zap.Error(err))
	}
	stager, err := buildStager(c)
	if err != nil {
		logger.Fatal("init stager fail", zap.Error(err))
	}
	svr, err := server.New(c.Bind,
		server.WithAPIClient(apiClient),
		server.WithSessionStore(store),
		server.WithStager(stager),
		server.WithPrefix(c.Prefix),
		server.WithVersion(version),
		server.WithEnableMetrics(c.EnableMetrics),
	)
	if err != nil {
		logger.Fatal("init server fail", zap.Error(err))
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go refresher.Run(ctx)
	go func() {
		<-ctx.Done()
		logger.Info("recv stop signal, shutdown server...")
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		if err := svr.Shutdown(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			logger.Error("shutdown server fail", zap.Error(err))
		}
	}()
	logger.Info("init server succ, start it...", zap.String("bind", c.Bind), zap.String("version", version))
	if err := svr.Run(); err != nil {
		logger.Fatal("run server fail", zap.Error(err))
	}
	logger.Info("server stopped")
}

func buildStager(c *config.Config) (*staging.Stager, error) {
	stager, err := staging.New(afero.NewOsFs(), c.StagingDir)
	if err != nil {
		return nil, fmt.Errorf("create stager failed, dir:%s, err:%w", c.StagingDir, err)
	}
	cnt, sz, err := stager.Sweep()
	if err != nil {
		return nil, fmt.Errorf("sweep staging dir failed, dir:%s, err:%w", stager.Dir(), err)
	}
	logutil.GetLogger(context.Background()).Info("staging dir ready", zap.String("dir", stager.Dir()), zap.Int("swept_files", cnt),
		zap.String("swept_size", humanize.IBytes(uint64(sz))))
	return stager, nil
}
