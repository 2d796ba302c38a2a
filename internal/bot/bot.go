// Package bot 实现临时邮箱 Telegram 机器人
//
// 一次更新（命令或按钮回调）被完整处理后才取下一条，
// 会话存储因此不会被同一进程内的并发处理器交错访问。
package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tempmail/bot/internal/config"
	"tempmail/bot/internal/monitoring"
	"tempmail/bot/internal/session"
	"tempmail/bot/internal/tmclient"
)

// Sender 抽象 Telegram 的出站消息能力，便于测试替换
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot 是临时邮箱 Telegram 机器人
type Bot struct {
	api      *tgbotapi.BotAPI
	sender   Sender
	client   *tmclient.Client
	sessions *session.Store
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	apiURL   string
	now      func() time.Time // 可注入的时钟，便于测试
}

// New 创建机器人实例并完成 Telegram 鉴权
func New(cfg *config.Config, client *tmclient.Client, sessions *session.Store, metrics *monitoring.Metrics, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return nil, err
	}

	logger.Info("authorized on Telegram",
		zap.String("username", api.Self.UserName),
		zap.String("api_url", cfg.API.BaseURL),
	)

	return &Bot{
		api:      api,
		sender:   api,
		client:   client,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
		apiURL:   cfg.API.BaseURL,
		now:      time.Now,
	}, nil
}

// Run 启动更新轮询循环，直到 ctx 取消
//
// 更新串行处理：一条更新（含其中的远程 API 调用）处理完毕后
// 才会取出下一条。
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)
	b.logger.Info("bot started, waiting for updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopped")
			return nil
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}
