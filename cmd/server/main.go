package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"signalshub/internal/auth"
	"signalshub/internal/chain"
	"signalshub/internal/config"
	cronrunner "signalshub/internal/cron"
	"signalshub/internal/db"
	"signalshub/internal/handler"
	"signalshub/internal/kv"
	"signalshub/internal/logger"
	"signalshub/internal/metrics"
	"signalshub/internal/notify"
	"signalshub/internal/realtime"
	"signalshub/internal/repository/kvstore"
	"signalshub/internal/service"

	_ "signalshub/docs"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}

	cfgPath := os.Getenv("SH_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("SH_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	baseCtx := ctx

	backend, cleanup, err := openKV(baseCtx, cfg, logger)
	if err != nil {
		logger.Fatal("kv backend unavailable", zap.String("backend", cfg.KV.Backend), zap.Error(err))
	}
	defer cleanup()
	repo := kvstore.New(backend)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	hub := realtime.NewHub(cfg.Notify.StreamBuffer)
	notificationSvc := &service.NotificationService{
		Repo:      repo,
		Logger:    logger,
		Metrics:   m,
		Hub:       hub,
		NewID:     uuid.NewString,
		SendAsync: cfg.Notify.Async,
	}
	if len(cfg.Notify.Channels) > 0 {
		notificationSvc.Outbound = notify.NewDispatcher(cfg.Notify.Channels, cfg.Notify.Timeout)
		logger.Info("outbound notifications enabled", zap.Int("channels", len(cfg.Notify.Channels)))
	}

	analystSvc := &service.AnalystService{Repo: repo, Logger: logger}
	signalSvc := &service.SignalService{Repo: repo, Analysts: analystSvc, Logger: logger, Metrics: m}
	purchaseSvc := &service.PurchaseService{
		Repo:          repo,
		Analysts:      analystSvc,
		Notifications: notificationSvc,
		Verifier:      paymentVerifier(baseCtx, cfg.Chain, logger),
		Logger:        logger,
		Metrics:       m,
	}
	ratingSvc := &service.RatingService{Repo: repo, Analysts: analystSvc, Logger: logger, Metrics: m}
	followSvc := &service.FollowService{Repo: repo}
	sweeper := &service.ExpirySweeper{
		Repo:          repo,
		Analysts:      analystSvc,
		Notifications: notificationSvc,
		Logger:        logger,
		Metrics:       m,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.CORS())
	if m != nil {
		engine.Use(m.Middleware())
		engine.GET("/metrics", gin.WrapH(m.Handler()))
	}

	healthHandler := &handler.HealthHandler{Store: repo}
	healthHandler.Register(engine)
	handler.RegisterDocs(engine, cfg.Server.RoutePrefix)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	var verifier *auth.JWT
	if secret := strings.TrimSpace(cfg.Auth.JWTSecret); secret != "" {
		verifier = &auth.JWT{Secret: []byte(secret)}
	}
	if cfg.Auth.Disabled {
		logger.Warn("bearer auth disabled")
	}
	api := engine.Group(cfg.Server.RoutePrefix)
	api.Use(auth.RequireBearer(verifier, cfg.Auth.Disabled))
	api.Use(handler.RateLimitWrites(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

	signalHandler := &handler.SignalHandler{Service: signalSvc, Logger: logger}
	signalHandler.Register(api)
	purchaseHandler := &handler.PurchaseHandler{Service: purchaseSvc, Logger: logger}
	purchaseHandler.Register(api)
	ratingHandler := &handler.RatingHandler{Service: ratingSvc, Logger: logger}
	ratingHandler.Register(api)
	analystHandler := &handler.AnalystHandler{Service: analystSvc, Logger: logger}
	analystHandler.Register(api)
	notificationHandler := &handler.NotificationHandler{
		Service:      notificationSvc,
		Stream:       hub,
		Logger:       logger,
		PingInterval: 30 * time.Second,
	}
	notificationHandler.Register(api)
	followHandler := &handler.FollowHandler{Service: followSvc, Logger: logger}
	followHandler.Register(api)
	sweepHandler := &handler.SweepHandler{Sweeper: sweeper, Logger: logger}
	sweepHandler.Register(api)

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, baseCtx)
		registerJobs(cronRunner, cfg, backend, sweeper, analystSvc, logger)
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	if cfg.Cron.SweepOnBoot {
		go runSweep(baseCtx, sweeper, logger)
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting",
			zap.String("addr", cfg.Server.HTTPAddr),
			zap.String("prefix", cfg.Server.RoutePrefix),
			zap.String("kv", cfg.KV.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// openKV picks the storage backend. Only an unset or "memory" backend runs
// in memory; an explicit backend that cannot be reached is an error.
func openKV(ctx context.Context, cfg config.Config, logger *zap.Logger) (kv.Store, func(), error) {
	noop := func() {}
	switch backend := strings.ToLower(strings.TrimSpace(cfg.KV.Backend)); backend {
	case "", "memory":
		return kv.NewMemoryStore(), noop, nil
	case "redis":
		store := kv.NewRedisStore(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, noop, fmt.Errorf("redis %s unreachable: %w", cfg.Redis.Addr, err)
		}
		return store, func() { _ = store.Close() }, nil
	case "postgres":
		dbConn, err := db.Open(cfg.DB)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
			logger.Warn("failed to set timezone", zap.Error(err))
		}
		if err := db.AutoMigrate(dbConn); err != nil {
			_ = db.Close(dbConn)
			return nil, noop, fmt.Errorf("auto-migrate: %w", err)
		}
		return kv.NewGormStore(dbConn.Gorm), func() { _ = db.Close(dbConn) }, nil
	default:
		return nil, noop, fmt.Errorf("unknown kv backend %q", backend)
	}
}

func paymentVerifier(ctx context.Context, cfg config.ChainConfig, logger *zap.Logger) service.PaymentVerifier {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case chain.ModeFormat:
		logger.Info("payment verification: format")
		return chain.FormatVerifier{}
	case chain.ModeRPC:
		dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		v, err := chain.NewRPCVerifier(dialCtx, cfg.RPCURL, cfg.PayeeAddress)
		if err != nil {
			logger.Fatal("payment verifier init failed", zap.String("rpc_url", cfg.RPCURL), zap.Error(err))
		}
		logger.Info("payment verification: rpc", zap.String("rpc_url", cfg.RPCURL))
		return v
	default:
		logger.Warn("payment verification disabled; transaction hashes are stored unchecked")
		return nil
	}
}

func registerJobs(r *cronrunner.Runner, cfg config.Config, backend kv.Store, sweeper *service.ExpirySweeper, analysts *service.AnalystService, logger *zap.Logger) {
	if spec := strings.TrimSpace(cfg.Cron.ExpirySweep); spec != "" {
		if _, err := r.Add("expiry_sweep", spec, func(ctx context.Context) {
			runSweep(ctx, sweeper, logger)
		}); err != nil {
			logger.Warn("cron register expiry sweep failed", zap.Error(err))
		}
	}

	if spec := strings.TrimSpace(cfg.Cron.Reconcile); spec != "" {
		if _, err := r.Add("reconcile", spec, func(ctx context.Context) {
			n, err := analysts.RebuildAll(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("analyst reconcile failed", zap.Error(err))
				return
			}
			logger.Info("analyst stats reconciled", zap.Int("analysts", n))
		}); err != nil {
			logger.Warn("cron register reconcile failed", zap.Error(err))
		}
	}

	if gs, ok := backend.(*kv.GormStore); ok {
		// Periodic cleanup: idempotency rows carry a TTL that Postgres does not enforce.
		if _, err := r.Add("kv_cleanup", "@every 30m", func(ctx context.Context) {
			n, err := gs.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				logger.Warn("delete expired kv rows failed", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Info("deleted expired kv rows", zap.Int64("count", n))
			}
		}); err != nil {
			logger.Warn("cron register kv cleanup failed", zap.Error(err))
		}
	}
}

func runSweep(ctx context.Context, sweeper *service.ExpirySweeper, logger *zap.Logger) {
	res, err := sweeper.Sweep(ctx, time.Now().UTC())
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("expiry sweep failed", zap.Error(err))
		}
		return
	}
	if res.Skipped {
		logger.Debug("expiry sweep skipped, previous run still active")
		return
	}
	logger.Info("expiry sweep finished",
		zap.Int("checked", res.Checked),
		zap.Int("expired", res.Expired),
		zap.Int("notified", res.Notified),
	)
}
