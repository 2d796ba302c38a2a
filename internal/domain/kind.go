package domain

import "errors"

// ErrUnknownKind 表示邮箱类型不在支持范围内
var ErrUnknownKind = errors.New("unknown mailbox kind")

// MailboxKind 表示临时邮箱的类型
//
// 类型决定了远程 API 的端点路径与响应字段名：
// edu 类型的生成响应使用 edu_mail 字段，其余类型使用 temp_mail。
type MailboxKind string

const (
	KindRegular   MailboxKind = "regular" // 普通临时邮箱
	KindTenMinute MailboxKind = "10min"   // 十分钟邮箱，到期由远端自动销毁
	KindEdu       MailboxKind = "edu"     // 教育域名 (.edu) 邮箱
)

// ParseKind 解析邮箱类型字符串
func ParseKind(value string) (MailboxKind, error) {
	switch MailboxKind(value) {
	case KindRegular, KindTenMinute, KindEdu:
		return MailboxKind(value), nil
	default:
		return "", ErrUnknownKind
	}
}

// Valid 判断类型是否有效
func (k MailboxKind) Valid() bool {
	switch k {
	case KindRegular, KindTenMinute, KindEdu:
		return true
	}
	return false
}

// String 返回类型的字符串表示
func (k MailboxKind) String() string {
	return string(k)
}

// GeneratePath 返回该类型的生成端点路径
func (k MailboxKind) GeneratePath() string {
	switch k {
	case KindTenMinute:
		return "/api/10min/gen"
	case KindEdu:
		return "/api/edu/gen"
	default:
		return "/api/gen"
	}
}

// CheckPath 返回该类型的收件检查端点路径（不含 token 参数）
func (k MailboxKind) CheckPath() string {
	switch k {
	case KindTenMinute:
		return "/api/10min/chk"
	case KindEdu:
		return "/api/edu/chk"
	default:
		return "/api/chk"
	}
}

// Icon 返回该类型在消息中使用的图标
func (k MailboxKind) Icon() string {
	switch k {
	case KindTenMinute:
		return "⏱️"
	case KindEdu:
		return "🎓"
	default:
		return "📧"
	}
}
