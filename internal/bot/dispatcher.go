package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tempmail/bot/internal/domain"
)

// 按钮回调触发器
//
// check_messages 是固定触发器，必须在 check_ 前缀匹配之前判定。
const (
	triggerGenPrefix   = "gen_"
	triggerCheckPrefix = "check_"
	triggerCopyPrefix  = "copy_"
	triggerCheckAll    = "check_messages"
)

// handleUpdate 将一条更新路由到对应的处理器
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	log := b.logger.With(zap.String("update_id", uuid.NewString()))

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, log, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, log, update.Message)
	}
}

// handleCommand 处理文本命令
func (b *Bot) handleCommand(ctx context.Context, log *zap.Logger, msg *tgbotapi.Message) {
	command := msg.Command()
	chatID := msg.Chat.ID
	userID := msg.From.ID

	log.Info("handling command",
		zap.String("command", command),
		zap.Int64("user_id", userID),
	)
	b.metrics.UpdatesTotal.WithLabelValues("/" + command).Inc()

	switch command {
	case "start":
		b.sendWelcome(chatID, msg.From.FirstName)
	case "help":
		b.sendHelp(chatID)
	case "gen":
		b.generate(ctx, chatID, userID, domain.KindRegular)
	case "tenmin":
		b.generate(ctx, chatID, userID, domain.KindTenMinute)
	case "edu":
		b.generate(ctx, chatID, userID, domain.KindEdu)
	case "check":
		b.check(ctx, chatID, userID, strings.TrimSpace(msg.CommandArguments()))
	}
}

// handleCallback 处理按钮回调
//
// 每次回调都先发送轻量确认，避免客户端一直显示加载状态。
func (b *Bot) handleCallback(ctx context.Context, log *zap.Logger, query *tgbotapi.CallbackQuery) {
	if _, err := b.sender.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Warn("failed to answer callback", zap.Error(err))
	}

	if query.Message == nil {
		log.Warn("callback without originating message", zap.String("data", query.Data))
		return
	}

	data := query.Data
	chatID := query.Message.Chat.ID
	userID := query.From.ID

	log.Info("handling callback",
		zap.String("trigger", data),
		zap.Int64("user_id", userID),
	)
	b.metrics.UpdatesTotal.WithLabelValues(triggerLabel(data)).Inc()

	switch {
	case data == triggerCheckAll:
		b.check(ctx, chatID, userID, "")
	case strings.HasPrefix(data, triggerGenPrefix):
		kind, err := domain.ParseKind(strings.TrimPrefix(data, triggerGenPrefix))
		if err != nil {
			log.Warn("unknown generate trigger", zap.String("data", data))
			return
		}
		b.generate(ctx, chatID, userID, kind)
	case strings.HasPrefix(data, triggerCheckPrefix):
		b.check(ctx, chatID, userID, strings.TrimPrefix(data, triggerCheckPrefix))
	case strings.HasPrefix(data, triggerCopyPrefix):
		b.copyEmail(chatID, query.Message.MessageID, strings.TrimPrefix(data, triggerCopyPrefix))
	default:
		log.Warn("unknown callback trigger", zap.String("data", data))
	}
}

// triggerLabel 将回调数据归一为低基数的指标标签
func triggerLabel(data string) string {
	switch {
	case data == triggerCheckAll:
		return triggerCheckAll
	case strings.HasPrefix(data, triggerGenPrefix):
		return data
	case strings.HasPrefix(data, triggerCheckPrefix):
		return "check_email"
	case strings.HasPrefix(data, triggerCopyPrefix):
		return "copy_email"
	default:
		return "unknown"
	}
}
