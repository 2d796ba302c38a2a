package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tempmail/bot/internal/bot"
	"tempmail/bot/internal/config"
	"tempmail/bot/internal/keepalive"
	"tempmail/bot/internal/logger"
	"tempmail/bot/internal/monitoring"
	"tempmail/bot/internal/session"
	"tempmail/bot/internal/tmclient"
)

// main 是 Telegram 机器人的程序入口
//
// 启用保活功能时，保活服务器作为同进程的独立协程运行。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     cfg.Log.File,
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      28,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("starting tempmail bot",
		zap.String("api_url", cfg.API.BaseURL),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("keep_alive", cfg.KeepAlive.Enabled),
	)

	metrics := monitoring.NewMetrics()
	sessions := session.NewStore(cfg.Session.MaxPerUser, cfg.Session.ExpiryGrace)
	client := tmclient.NewClient(cfg.API.BaseURL, cfg.API.Timeout, log)

	tgBot, err := bot.New(cfg, client, sessions, metrics, log)
	if err != nil {
		log.Fatal("failed to create bot", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	// 机器人更新循环
	group.Go(func() error {
		return tgBot.Run(groupCtx)
	})

	// 保活服务器（可选）
	if cfg.KeepAlive.Enabled {
		server := keepalive.NewServer(cfg.KeepAlive, cfg.API.BaseURL, metrics, log)
		group.Go(func() error {
			return server.Run(groupCtx)
		})
	}

	// 定时清理过期的十分钟邮箱会话
	group.Go(func() error {
		ticker := time.NewTicker(cfg.Session.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if removed := sessions.PruneExpired(); removed > 0 {
					metrics.SessionsPruned.Add(float64(removed))
					log.Info("pruned expired sessions", zap.Int("removed", removed))
				}
				metrics.ActiveSessions.Set(float64(sessions.Len()))
			}
		}
	})

	if err := group.Wait(); err != nil {
		log.Fatal("bot exited with error", zap.Error(err))
	}
	log.Info("bot shut down cleanly")
}
