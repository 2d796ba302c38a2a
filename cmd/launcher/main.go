package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"tempmail/bot/internal/config"
	"tempmail/bot/internal/logger"
	"tempmail/bot/internal/supervisor"
)

// main 是统一启动器的程序入口
//
// 按配置将 API 服务与机器人作为子进程拉起并监督，
// 收到终止信号时先优雅终止，超时后强制杀死。
func main() {
	apiOnly := flag.Bool("api-only", false, "run only the API server")
	botOnly := flag.Bool("bot-only", false, "run only the Telegram bot")
	withKeepAlive := flag.Bool("with-keepalive", false, "enable the keep-alive server in the bot")
	flag.Parse()

	// 命令行参数优先于环境变量
	if *apiOnly {
		os.Setenv("ENABLE_API", "true")
		os.Setenv("ENABLE_BOT", "false")
	} else if *botOnly {
		os.Setenv("ENABLE_API", "false")
		os.Setenv("ENABLE_BOT", "true")
	}
	if *withKeepAlive {
		os.Setenv("ENABLE_KEEP_ALIVE", "true")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("tempmail service launcher",
		zap.Bool("api_enabled", cfg.API.Enabled),
		zap.Bool("bot_enabled", cfg.Bot.Enabled),
		zap.Bool("keep_alive_enabled", cfg.KeepAlive.Enabled),
	)

	sup := supervisor.New(log)

	if cfg.API.Enabled {
		command, args := config.SplitCommand(cfg.Launcher.APICommand)
		if err := sup.Start(supervisor.Service{
			Name:    "API",
			Command: command,
			Args:    args,
		}); err != nil {
			log.Error("failed to start API service", zap.Error(err))
		}
	}

	if cfg.Bot.Enabled {
		env := []string{}
		if cfg.KeepAlive.Enabled {
			env = append(env, "ENABLE_KEEP_ALIVE=true")
		}
		command, args := config.SplitCommand(cfg.Launcher.BotCommand)
		if err := sup.Start(supervisor.Service{
			Name:    "BOT",
			Command: command,
			Args:    args,
			Env:     env,
		}); err != nil {
			log.Error("failed to start BOT service", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sup.Run(ctx); err != nil {
		log.Error("no services running, check your configuration", zap.Error(err))
		os.Exit(1)
	}
	log.Info("launcher shut down")
}
