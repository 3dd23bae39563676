// 程序入口：读取配置、初始化依赖并启动服务；路由注册在 internal/api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"demsausage-api/internal/api"
	"demsausage-api/internal/cache"
	"demsausage-api/internal/config"
	"demsausage-api/internal/geoip"
	"demsausage-api/internal/logger"
	"demsausage-api/internal/mail"
	"demsausage-api/internal/migrate"
	"demsausage-api/internal/store"
	"demsausage-api/internal/store/memstore"
	"demsausage-api/internal/utils"
)

func main() {
	config.LoadDotEnv()
	l := logger.Setup()
	l.Debug("log_init_ok")
	cfg := config.FromEnv()
	l.Debug("config_api_base", "base", cfg.APIBase, "datastore", cfg.Datastore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ds api.Datastore
	switch cfg.Datastore {
	case "memory":
		ds = memstore.New()
		l.Warn("datastore_memory", "note", "data is lost on restart")
	default:
		db, err := utils.OpenPostgres(cfg)
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			l.Error("db_ping_error", "err", err)
			os.Exit(1)
		}
		l.Info("db_ping_ok")
		if err := migrate.EnsureSchema(ctx, db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		ds = store.AttachDB(db)
	}

	var cs cache.Store
	rc := utils.OpenRedis(cfg)
	if rc == nil {
		l.Info("redis_disabled")
		cs = cache.NewMemoryStore()
	} else {
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		cs = cache.NewRedisStore(rc)
	}

	gr := geoip.New()
	if cfg.GeoIPDBPath != "" {
		if err := gr.Open(cfg.GeoIPDBPath); err != nil {
			l.Error("geoip_open_error", "path", cfg.GeoIPDBPath, "err", err)
		}
	} else {
		l.Info("geoip_disabled")
	}

	srv := api.NewServer(api.Deps{
		Config:     cfg,
		Datastore:  ds,
		CacheStore: cs,
		Sender:     mail.NewClient(cfg),
		GeoIP:      gr,
		Redis:      rc,
	})
	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if cfg.TLSEnable {
			if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "demsausage.local"); err != nil {
				errCh <- err
				return
			}
			l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
			errCh <- s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
			return
		}
		l.Info("listening", "addr", cfg.Addr)
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			l.Error("server_error", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		l.Info("shutdown_begin")
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.Shutdown(sctx); err != nil {
			l.Error("shutdown_error", "err", err)
		}
		l.Info("shutdown_done")
	}
}
