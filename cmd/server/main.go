package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailfly/backend/internal/auth"
	"mailfly/backend/internal/auth/token"
	"mailfly/backend/internal/config"
	"mailfly/backend/internal/health"
	"mailfly/backend/internal/logger"
	"mailfly/backend/internal/middleware"
	"mailfly/backend/internal/monitoring"
	"mailfly/backend/internal/service"
	"mailfly/backend/internal/smtp"
	"mailfly/backend/internal/storage"
	"mailfly/backend/internal/storage/memory"
	sqlstore "mailfly/backend/internal/storage/sql"
	httptransport "mailfly/backend/internal/transport/http"
	"mailfly/backend/internal/websocket"
)

const sweepInterval = 10 * time.Minute

// main 启动同时包含 HTTP API 与 SMTP 接收的综合服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if cfg.Log.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("starting mailfly server",
		zap.Strings("domains", cfg.Mailbox.Domains),
		zap.Duration("mailbox_ttl", cfg.Mailbox.TTL),
	)

	// 存储层：配置了数据库时用 SQL，否则用内存存储（开发环境）
	var store storage.Store
	if cfg.Database.Driver != "" && cfg.Database.DSN != "" {
		store, err = sqlstore.NewStore(cfg.Database.Driver, cfg.Database.DSN, sqlstore.Options{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			panic(fmt.Sprintf("failed to initialize database storage: %v", err))
		}
		log.Info("using database storage", zap.String("driver", cfg.Database.Driver))
	} else {
		store = memory.NewStore()
		log.Info("using memory storage (development mode)")
	}
	defer store.Close()

	// Redis 仅用于限流计数，可选
	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		log.Info("redis rate limit counter enabled", zap.String("address", cfg.Redis.Address))
	}

	metrics := monitoring.NewMetrics()
	healthChecker := health.NewChecker(store)

	// 服务层
	tokenManager := token.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
	authService := auth.NewService(store, tokenManager)
	inboxService := service.NewInboxService(store, cfg.Mailbox.Domains, cfg.Mailbox.TTL, log)
	emailService := service.NewEmailService(store)
	statsService := service.NewStatsService(store, cfg.Mailbox.StatsRetention, log)
	tokenService := service.NewTokenService(store)

	var forwarder service.Forwarder
	if relay := smtp.NewRelayForwarder(cfg.SMTP.RelayAddr); relay != nil {
		forwarder = relay
		log.Info("mail forwarding enabled", zap.String("relay", cfg.SMTP.RelayAddr))
	}
	ingestService := service.NewIngestService(store, smtp.NewParser(), forwarder, log)

	inboxService.SetMetrics(metrics.InboxesCreated, metrics.InboxesDeleted)
	ingestService.SetMetrics(metrics.MailsDelivered, metrics.MailsRejected, metrics.MailsForwarded)
	statsService.SetSweptCounter(metrics.InboxesSwept)

	wsHub := websocket.NewHub(cfg.CORS.AllowedOrigins, inboxService, authService, log)
	ingestService.SetNotifier(wsHub)

	createLimiter := middleware.NewCreateLimiter(cfg.RateLimit.CreatePerHour, rdb, log)

	// HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:        cfg,
		InboxService:  inboxService,
		EmailService:  emailService,
		StatsService:  statsService,
		TokenService:  tokenService,
		AuthService:   authService,
		WebSocketHub:  wsHub,
		CreateLimiter: createLimiter,
		Metrics:       metrics,
		Logger:        log,
	})

	router.GET("/healthz", gin.WrapH(healthChecker.LiveHandler()))
	router.GET("/readyz", gin.WrapH(healthChecker.ReadyHandler()))
	router.GET("/metrics", gin.WrapH(metrics.HTTPHandler()))

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// SMTP 服务器
	smtpBackend := smtp.NewBackend(ingestService, smtp.NewConnLimiter(20), cfg.SMTP.MaxMessageBytes, log)
	smtpServer := gosmtp.NewServer(smtpBackend)
	smtpServer.Addr = cfg.SMTP.BindAddr
	smtpServer.Domain = cfg.SMTP.Domain
	smtpServer.ReadTimeout = 10 * time.Second
	smtpServer.WriteTimeout = 10 * time.Second
	smtpServer.MaxMessageBytes = cfg.SMTP.MaxMessageBytes
	smtpServer.MaxRecipients = 50

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	group.Go(func() error {
		log.Info("starting SMTP server",
			zap.String("address", cfg.SMTP.BindAddr),
			zap.String("domain", cfg.SMTP.Domain),
		)
		if err := smtpServer.ListenAndServe(); err != nil {
			log.Error("SMTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 定期回收过期邮箱与陈旧统计
	group.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		log.Info("starting sweep task", zap.Duration("interval", sweepInterval))

		for {
			select {
			case <-groupCtx.Done():
				log.Info("sweep task stopped")
				return nil
			case <-ticker.C:
				if err := statsService.Sweep(); err != nil {
					log.Error("sweep failed", zap.Error(err))
				}
			}
		}
	})

	// 优雅关闭
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}
		if err := smtpServer.Close(); err != nil {
			log.Warn("SMTP server close warning", zap.Error(err))
		}

		log.Info("servers stopped")
		return nil
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}
