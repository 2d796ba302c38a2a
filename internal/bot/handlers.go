package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tempmail/bot/internal/domain"
	"tempmail/bot/internal/session"
)

// sendWelcome 发送 /start 欢迎消息
func (b *Bot) sendWelcome(chatID int64, firstName string) {
	reply := tgbotapi.NewMessage(chatID, welcomeText(firstName))
	reply.ParseMode = tgbotapi.ModeMarkdown
	reply.ReplyMarkup = welcomeKeyboard(b.apiURL)
	b.send(reply)
}

// sendHelp 发送 /help 帮助消息
func (b *Bot) sendHelp(chatID int64) {
	reply := tgbotapi.NewMessage(chatID, helpText())
	reply.ParseMode = tgbotapi.ModeMarkdown
	b.send(reply)
}

// generate 生成指定类型的临时邮箱并写入会话
//
// 仅当生成响应同时携带邮箱地址与访问令牌时才写入会话记录；
// 任一缺失都视为失败并原样转述给用户。
func (b *Bot) generate(ctx context.Context, chatID, userID int64, kind domain.MailboxKind) {
	loading := b.send(tgbotapi.NewMessage(chatID, msgGenerating))

	start := time.Now()
	result, err := b.client.Generate(ctx, kind)
	b.observeAPI(kind, "generate", start, err)

	b.deleteMessage(chatID, loading)

	if err != nil {
		b.metrics.ErrorsTotal.WithLabelValues("api").Inc()
		b.send(tgbotapi.NewMessage(chatID, errorText(err)))
		return
	}

	email, err := result.Address(kind)
	if err != nil {
		b.metrics.ErrorsTotal.WithLabelValues("malformed_response").Inc()
		b.send(tgbotapi.NewMessage(chatID, errorText(err)))
		return
	}
	token, err := result.Token()
	if err != nil {
		b.metrics.ErrorsTotal.WithLabelValues("malformed_response").Inc()
		b.send(tgbotapi.NewMessage(chatID, errorText(err)))
		return
	}

	b.sessions.Put(userID, &session.Record{
		Email:     email,
		Token:     token,
		Kind:      kind,
		CreatedAt: b.now(),
		ExpiresAt: parseExpiry(kind, result.ExpiresAt),
	})
	b.metrics.ActiveSessions.Set(float64(b.sessions.Len()))

	b.logger.Info("session created",
		zap.Int64("user_id", userID),
		zap.String("kind", kind.String()),
	)

	reply := tgbotapi.NewMessage(chatID, generatedText(kind, email, token, result))
	reply.ParseMode = tgbotapi.ModeMarkdown
	reply.ReplyMarkup = generatedKeyboard(kind, email)
	b.send(reply)
}

// check 查询用户会话
//
// email 为空时仅渲染本地会话列表，不发起任何网络调用；
// email 非空但不在会话中时直接报告未找到，同样不发起网络调用。
func (b *Bot) check(ctx context.Context, chatID, userID int64, email string) {
	records := b.sessions.ListForUser(userID)
	if len(records) == 0 {
		b.send(tgbotapi.NewMessage(chatID, msgNoActiveEmails))
		return
	}

	if email == "" {
		reply := tgbotapi.NewMessage(chatID, emailListText(records))
		reply.ParseMode = tgbotapi.ModeMarkdown
		reply.ReplyMarkup = emailListKeyboard(records)
		b.send(reply)
		return
	}

	record, ok := b.sessions.Get(userID, email)
	if !ok {
		b.send(tgbotapi.NewMessage(chatID, msgEmailNotFound))
		return
	}

	loading := b.send(tgbotapi.NewMessage(chatID, msgChecking))

	start := time.Now()
	result, err := b.client.Check(ctx, record.Kind, record.Token)
	b.observeAPI(record.Kind, "check", start, err)

	b.deleteMessage(chatID, loading)

	if err != nil {
		b.metrics.ErrorsTotal.WithLabelValues("api").Inc()
		b.send(tgbotapi.NewMessage(chatID, checkErrorText(err)))
		return
	}

	address := result.Address(record.Email)
	var text string
	if len(result.Messages) == 0 {
		text = noMessagesText(address, b.now())
	} else {
		text = messagesText(address, result.Messages)
	}

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeMarkdown
	reply.ReplyMarkup = messagesKeyboard(email)
	b.send(reply)
}

// copyEmail 将原消息就地改写为可复制的邮箱地址
func (b *Bot) copyEmail(chatID int64, messageID int, email string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, copyText(email))
	edit.ParseMode = tgbotapi.ModeMarkdown
	b.send(edit)
}

// send 发送消息并记录失败
func (b *Bot) send(c tgbotapi.Chattable) *tgbotapi.Message {
	msg, err := b.sender.Send(c)
	if err != nil {
		b.logger.Warn("failed to send message", zap.Error(err))
		b.metrics.ErrorsTotal.WithLabelValues("telegram").Inc()
		return nil
	}
	return &msg
}

// deleteMessage 删除加载提示消息，失败仅记录
func (b *Bot) deleteMessage(chatID int64, msg *tgbotapi.Message) {
	if msg == nil {
		return
	}
	if _, err := b.sender.Request(tgbotapi.NewDeleteMessage(chatID, msg.MessageID)); err != nil {
		b.logger.Warn("failed to delete loading message", zap.Error(err))
	}
}

// observeAPI 记录一次远程 API 调用的指标
func (b *Bot) observeAPI(kind domain.MailboxKind, operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	b.metrics.APIRequestsTotal.WithLabelValues(kind.String(), operation, outcome).Inc()
	b.metrics.APIRequestDuration.WithLabelValues(kind.String(), operation).Observe(time.Since(start).Seconds())
}

// parseExpiry 解析远端返回的到期时间
//
// 仅十分钟邮箱有意义；远端格式不可解析时返回 nil，
// 此时该会话不参与过期清理，仅受容量上限约束。
func parseExpiry(kind domain.MailboxKind, value string) *time.Time {
	if kind != domain.KindTenMinute || value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}
