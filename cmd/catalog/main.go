package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"ProductStore/internal/auth"
	"ProductStore/internal/catalog"
	"ProductStore/internal/config"
	"ProductStore/pkg/kit"
)

const (
	service     = "catalog"
	openTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load(config.DefaultFile, config.DefaultEnvFile)
	if err != nil {
		log := kit.NewLogger(service, "info")
		log.Fatal("load config", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.Log.Level)
	defer func() { _ = log.Sync() }()
	log.Info("config loaded", zap.Stringer("config", cfg))

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	doc, err := catalog.OpenDocument(ctx, catalog.DocumentConfig{
		Backend:     cfg.Store.Backend,
		Path:        cfg.Store.Path,
		Name:        cfg.Store.Name,
		DSN:         cfg.Store.DSN,
		RedisAddr:   cfg.Store.RedisAddr,
		RedisPrefix: cfg.Store.RedisPrefix,
	})
	cancel()
	if err != nil {
		log.Fatal("open products document", zap.Error(err), zap.String("backend", cfg.Store.Backend))
	}
	defer func() { _ = doc.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store := catalog.NewStore(doc, log, catalog.NewStoreMetrics(reg))
	if err := store.Initialize(context.Background()); err != nil {
		log.Warn("initial load failed", zap.Error(err))
	}

	admin, err := adminDeps(cfg, log)
	if err != nil {
		log.Fatal("admin setup", zap.Error(err))
	}

	h := catalog.NewHandler(&catalog.Server{Store: store, Log: log}, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
		TrustProxy:     cfg.HTTP.TrustProxy,
		Admin:          admin,
	})

	opts := kit.ServerOptions{
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.HTTP.ShutdownTimeout,
	}
	if err := kit.RunHTTPServer(cfg.Addr(), h, log, opts); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func adminDeps(cfg *config.Config, log *zap.Logger) (*catalog.AdminDeps, error) {
	if !cfg.Admin.Enabled {
		return nil, nil
	}

	creds, err := auth.NewCredentials(cfg.Admin.PasswordHash)
	if err != nil {
		return nil, err
	}
	tokens := auth.NewTokenMaker(cfg.Admin.JWTSecret)

	log.Info("admin write routes enabled")
	return &catalog.AdminDeps{
		Tokens: tokens,
		Login: &auth.Login{
			Log:         log,
			Tokens:      tokens,
			Credentials: creds,
			TTL:         cfg.Admin.TokenTTL,
		},
		LoginLimitPerMin: cfg.Admin.LoginLimitPerMin,
	}, nil
}
