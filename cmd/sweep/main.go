package main

import (
	"fmt"

	"go.uber.org/zap"

	"mailfly/backend/internal/config"
	"mailfly/backend/internal/logger"
	"mailfly/backend/internal/service"
	sqlstore "mailfly/backend/internal/storage/sql"
)

// main 执行一轮过期邮箱与陈旧统计的回收后退出。
// 适合作为 cron 任务在服务进程之外运行，重复执行是幂等的。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if cfg.Database.Driver == "" || cfg.Database.DSN == "" {
		log.Fatal("sweep requires a database: set MAILFLY_DATABASE_DRIVER and MAILFLY_DATABASE_DSN")
	}

	store, err := sqlstore.NewStore(cfg.Database.Driver, cfg.Database.DSN, sqlstore.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer store.Close()

	stats := service.NewStatsService(store, cfg.Mailbox.StatsRetention, log)
	if err := stats.Sweep(); err != nil {
		log.Fatal("sweep failed", zap.Error(err))
	}

	log.Info("sweep finished")
}
