// Package tmclient 封装远程临时邮箱 HTTP API 的访问
//
// 所有端点均为无认证的 GET 请求，token 以查询参数传递。
// 所有失败（传输层错误与非 200 状态码）统一归一为 *APIError，
// 由调用方原样转述给最终用户；客户端本身不重试、不降级。
package tmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"tempmail/bot/internal/domain"
)

// APIError 表示一次 API 请求的失败
//
// StatusCode 非零表示远端返回了非 200 状态码；
// Err 非空表示传输层失败（DNS、连接拒绝、超时）或响应体解析失败。
type APIError struct {
	StatusCode int
	Err        error
}

// Error 返回面向用户的错误描述
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Connection error: %v", e.Err)
	}
	return fmt.Sprintf("API request failed with status %d", e.StatusCode)
}

// Unwrap 返回底层错误
func (e *APIError) Unwrap() error {
	return e.Err
}

// Client 是远程临时邮箱 API 的客户端
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient 创建 API 客户端
//
// baseURL 不含末尾斜杠；timeout 为 0 时使用 30 秒默认值。
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Generate 请求生成指定类型的临时邮箱
func (c *Client) Generate(ctx context.Context, kind domain.MailboxKind) (*domain.GenerateResult, error) {
	var result domain.GenerateResult
	if err := c.get(ctx, kind.GeneratePath(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Check 查询指定会话的收件箱
//
// token 经 URL 编码后拼入查询串，端点路径由会话的邮箱类型决定。
func (c *Client) Check(ctx context.Context, kind domain.MailboxKind, token string) (*domain.CheckResult, error) {
	query := url.Values{"token": {token}}
	path := kind.CheckPath() + "?" + query.Encode()

	var result domain.CheckResult
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// get 发起一次 GET 请求并解析 JSON 响应
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &APIError{Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("API request error", zap.String("path", path), zap.Error(err))
		return &APIError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("API request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return &APIError{StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Err: err}
	}
	return nil
}
