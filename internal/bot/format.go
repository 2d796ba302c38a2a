package bot

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tempmail/bot/internal/domain"
	"tempmail/bot/internal/session"
)

// 展示相关的常量
const (
	maxMessagesShown = 5   // 单次最多渲染的邮件数
	maxBodyLength    = 100 // 正文超过该长度时截断
	bodyTruncateAt   = 97  // 截断后保留的字符数，末尾补省略号
	labelTruncateAt  = 20  // 列表按钮中邮箱地址保留的字符数
)

// 固定文案
const (
	msgNoActiveEmails = "❌ No active emails found. Generate an email first using /gen, /tenmin, or /edu"
	msgEmailNotFound  = "❌ Email not found in your active sessions."
	msgGenerating     = "🔄 Generating your temporary email..."
	msgChecking       = "🔍 Checking messages..."
)

// defaultAPIOwner 远端未返回 api_owner 字段时的署名
const defaultAPIOwner = "@ISmartCoder"

// welcomeText 构造 /start 欢迎消息
func welcomeText(firstName string) string {
	var b strings.Builder
	b.WriteString("🌟 *Welcome to TempMail Bot* 🌟\n\n")
	fmt.Fprintf(&b, "Hello %s! 👋\n\n", firstName)
	b.WriteString("I can help you generate and manage temporary email addresses instantly!\n\n")
	b.WriteString("*Available Commands:*\n")
	b.WriteString("📧 /gen - Generate regular temporary email\n")
	b.WriteString("⏱️ /tenmin - Generate 10-minute email\n")
	b.WriteString("🎓 /edu - Generate .edu email\n")
	b.WriteString("📬 /check - Check messages for your emails\n")
	b.WriteString("❓ /help - Show this help message\n\n")
	b.WriteString("*Quick Actions:*")
	return b.String()
}

// helpText 构造 /help 帮助消息
func helpText() string {
	var b strings.Builder
	b.WriteString("🔹 *TempMail Bot Help* 🔹\n\n")
	b.WriteString("*Commands:*\n")
	b.WriteString("• `/start` - Show welcome message\n")
	b.WriteString("• `/gen` - Generate regular temporary email\n")
	b.WriteString("• `/tenmin` - Generate 10-minute email (expires in 10 min)\n")
	b.WriteString("• `/edu` - Generate educational (.edu) email\n")
	b.WriteString("• `/check` - Check messages for your active emails\n")
	b.WriteString("• `/help` - Show this help\n\n")
	b.WriteString("*How to use:*\n")
	b.WriteString("1️⃣ Generate an email using any command\n")
	b.WriteString("2️⃣ Use the email for your needs\n")
	b.WriteString("3️⃣ Check messages using /check or buttons\n")
	b.WriteString("4️⃣ Copy emails and tokens easily\n\n")
	b.WriteString("*Features:*\n")
	b.WriteString("✅ Multiple email types\n")
	b.WriteString("✅ Instant generation\n")
	b.WriteString("✅ Message checking\n")
	b.WriteString("✅ Auto-expiration for 10-min emails\n")
	b.WriteString("✅ Easy copy/paste")
	return b.String()
}

// generatedText 构造生成成功的回复消息
func generatedText(kind domain.MailboxKind, email, token string, result *domain.GenerateResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *Temporary Email Generated!*\n\n", kind.Icon())
	fmt.Fprintf(&b, "📬 *Email:* `%s`\n", email)
	fmt.Fprintf(&b, "🔑 *Token:* `%s`\n", token)
	fmt.Fprintf(&b, "⚡ *Generated in:* %s\n", valueOr(result.TimeTaken, "N/A"))
	fmt.Fprintf(&b, "👨‍💻 *API by:* %s", valueOr(result.APIOwner, defaultAPIOwner))
	if kind == domain.KindTenMinute {
		fmt.Fprintf(&b, "\n⏰ *Expires:* %s", valueOr(result.ExpiresAt, "N/A"))
	}
	b.WriteString("\n\n*Tap to copy email or token* ☝️")
	return b.String()
}

// emailListText 构造用户会话列表消息
func emailListText(records []*session.Record) string {
	var b strings.Builder
	b.WriteString("📬 *Your Active Emails:*\n\n")
	for _, record := range records {
		fmt.Fprintf(&b, "%s `%s`\n", record.Kind.Icon(), record.Email)
		fmt.Fprintf(&b, "📅 Created: %s\n\n", record.CreatedAt.Format("15:04"))
	}
	return b.String()
}

// messagesText 构造收件箱消息列表，最多渲染 5 封
func messagesText(address string, messages []domain.InboxMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📬 *Messages for:* `%s`\n\n", address)
	for i, msg := range messages {
		if i >= maxMessagesShown {
			break
		}
		fmt.Fprintf(&b, "📨 *Message %d:*\n", i+1)
		fmt.Fprintf(&b, "👤 *From:* %s\n", msg.Sender())
		fmt.Fprintf(&b, "📝 *Subject:* %s\n", msg.SubjectLine())
		fmt.Fprintf(&b, "📅 *Date:* %s\n", msg.Received())
		fmt.Fprintf(&b, "💬 *Content:* %s\n\n", truncateBody(msg.Content()))
		b.WriteString("────────────────\n")
	}
	return b.String()
}

// noMessagesText 构造空收件箱消息
func noMessagesText(address string, checkedAt time.Time) string {
	var b strings.Builder
	b.WriteString("📭 *No messages found*\n\n")
	fmt.Fprintf(&b, "📬 *Email:* `%s`\n", address)
	fmt.Fprintf(&b, "🔍 *Checked at:* %s\n\n", checkedAt.Format("15:04:05"))
	b.WriteString("Messages will appear here when received.")
	return b.String()
}

// copyText 构造复制邮箱地址的消息
func copyText(email string) string {
	return fmt.Sprintf("📋 *Email copied!*\n\n`%s`\n\nTap the email above to copy it.", email)
}

// errorText 构造面向用户的错误消息，错误原样转述
func errorText(err error) string {
	return fmt.Sprintf("❌ Error: %s", err)
}

// checkErrorText 构造收件检查失败的错误消息
func checkErrorText(err error) string {
	return fmt.Sprintf("❌ Error checking messages: %s", err)
}

// truncateBody 截断过长的邮件正文
//
// 超过 100 字符的正文保留前 97 字符并补省略号；按 rune 计数，
// 避免把多字节字符截成半个。
func truncateBody(body string) string {
	runes := []rune(body)
	if len(runes) <= maxBodyLength {
		return body
	}
	return string(runes[:bodyTruncateAt]) + "..."
}

// truncateLabel 截断按钮标签中的邮箱地址
func truncateLabel(email string) string {
	runes := []rune(email)
	if len(runes) > labelTruncateAt {
		runes = runes[:labelTruncateAt]
	}
	return string(runes)
}

// valueOr 返回非空值，空值时使用回退文案
func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// welcomeKeyboard 构造欢迎消息的快捷按钮
func welcomeKeyboard(apiURL string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📧 Generate Email", triggerGenPrefix+string(domain.KindRegular)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏱️ 10-Min Email", triggerGenPrefix+string(domain.KindTenMinute)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎓 Edu Email", triggerGenPrefix+string(domain.KindEdu)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📬 Check Messages", triggerCheckAll),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔗 Visit API", apiURL),
		),
	)
}

// generatedKeyboard 构造生成成功消息的操作按钮
func generatedKeyboard(kind domain.MailboxKind, email string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📬 Check Messages", triggerCheckPrefix+email),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Generate New", triggerGenPrefix+string(kind)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Copy Email", triggerCopyPrefix+email),
		),
	)
}

// emailListKeyboard 为每个会话构造一个检查按钮
func emailListKeyboard(records []*session.Record) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(records))
	for _, record := range records {
		label := fmt.Sprintf("📬 Check %s...", truncateLabel(record.Email))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, triggerCheckPrefix+record.Email),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// messagesKeyboard 构造收件箱消息的操作按钮
func messagesKeyboard(email string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", triggerCheckPrefix+email),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📧 Generate New", triggerGenPrefix+string(domain.KindRegular)),
		),
	)
}
