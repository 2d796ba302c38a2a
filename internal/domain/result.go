package domain

import "errors"

var (
	// ErrMissingAddress 表示生成响应中缺少该类型声明的邮箱地址字段
	ErrMissingAddress = errors.New("generate response missing mailbox address")
	// ErrMissingToken 表示生成响应中缺少访问令牌
	ErrMissingToken = errors.New("generate response missing access token")
)

// GenerateResult 表示一次生成邮箱请求的成功响应
//
// 远程 API 在不同邮箱类型间的字段名并不一致：
// regular 与 10min 响应使用 temp_mail，edu 响应使用 edu_mail。
// Address 按类型选择声明的字段，缺失时显式报错而非静默回退。
type GenerateResult struct {
	TempMail    string `json:"temp_mail"`
	EduMail     string `json:"edu_mail"`
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"` // 仅 10min 类型返回
	TimeTaken   string `json:"time_taken"`
	APIOwner    string `json:"api_owner"`
}

// Address 返回该类型声明字段中的邮箱地址
func (r *GenerateResult) Address(kind MailboxKind) (string, error) {
	var address string
	if kind == KindEdu {
		address = r.EduMail
	} else {
		address = r.TempMail
	}
	if address == "" {
		return "", ErrMissingAddress
	}
	return address, nil
}

// Token 返回访问令牌
func (r *GenerateResult) Token() (string, error) {
	if r.AccessToken == "" {
		return "", ErrMissingToken
	}
	return r.AccessToken, nil
}

// CheckResult 表示一次收件检查请求的成功响应
type CheckResult struct {
	Mailbox  string         `json:"mailbox"`
	EduMail  string         `json:"edu_mail"`
	Messages []InboxMessage `json:"messages"`
}

// Address 返回响应回显的邮箱地址，两个字段均为空时使用调用方提供的回退值
func (r *CheckResult) Address(fallback string) string {
	if r.Mailbox != "" {
		return r.Mailbox
	}
	if r.EduMail != "" {
		return r.EduMail
	}
	return fallback
}
