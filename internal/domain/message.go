package domain

// 缺失字段的占位文案，保持与历史展示一致
const (
	PlaceholderSender  = "Unknown"
	PlaceholderSubject = "No Subject"
	PlaceholderDate    = "Unknown"
	PlaceholderContent = "No content"
)

// InboxMessage 表示收件检查响应中的一封邮件
//
// 远程 API 对同一字段存在两种拼写（小写与首字母大写），
// 且不同邮箱类型返回的拼写不同。两种拼写都建模为独立字段，
// 取值时按"第一个非空者生效"的规则选择；encoding/json 解码时
// 精确匹配优先，已知拼写的键各自落在对应字段上。
type InboxMessage struct {
	From       string `json:"from"`
	FromAlt    string `json:"From"`
	Subject    string `json:"subject"`
	SubjectAlt string `json:"Subject"`
	ReceivedAt string `json:"receivedAt"`
	Date       string `json:"Date"`
	Body       string `json:"body"`
	Message    string `json:"Message"`
}

// Sender 返回发件人，缺失时返回占位文案
func (m *InboxMessage) Sender() string {
	return firstNonEmpty(m.From, m.FromAlt, PlaceholderSender)
}

// SubjectLine 返回主题，缺失时返回占位文案
func (m *InboxMessage) SubjectLine() string {
	return firstNonEmpty(m.Subject, m.SubjectAlt, PlaceholderSubject)
}

// Received 返回接收时间的原始字符串，缺失时返回占位文案
func (m *InboxMessage) Received() string {
	return firstNonEmpty(m.ReceivedAt, m.Date, PlaceholderDate)
}

// Content 返回正文，缺失时返回占位文案
func (m *InboxMessage) Content() string {
	return firstNonEmpty(m.Body, m.Message, PlaceholderContent)
}

// firstNonEmpty 返回第一个非空字符串，全部为空时返回回退值
func firstNonEmpty(primary, secondary, fallback string) string {
	if primary != "" {
		return primary
	}
	if secondary != "" {
		return secondary
	}
	return fallback
}
