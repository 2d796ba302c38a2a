package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BotConfig 定义 Telegram 机器人的配置
type BotConfig struct {
	Token   string // Telegram Bot Token，机器人启用时必填
	Enabled bool   // 是否启用机器人服务
}

// APIConfig 定义远程临时邮箱 API 的访问配置
type APIConfig struct {
	BaseURL string        // API 基础地址，默认 "http://localhost:8000"
	Timeout time.Duration // 单次请求超时，默认 30s
	Enabled bool          // 启动器是否拉起 API 子进程
}

// KeepAliveConfig 定义保活探测服务器的配置
type KeepAliveConfig struct {
	Enabled bool   // 是否启用保活服务器
	Host    string // 监听地址，默认 "0.0.0.0"
	Port    int    // 监听端口，默认 8080；被占用时向后探测 9 个端口
}

// SessionConfig 定义会话存储的容量与过期策略
type SessionConfig struct {
	MaxPerUser    int           // 单个用户最多保留的会话数，超出时淘汰最旧的一条
	SweepInterval time.Duration // 过期会话清理间隔
	ExpiryGrace   time.Duration // 十分钟邮箱过期后的宽限期，宽限期结束才从本地移除
}

// LauncherConfig 定义启动器拉起子进程所用的命令
type LauncherConfig struct {
	APICommand string // API 服务启动命令，按空白切分为命令与参数
	BotCommand string // 机器人启动命令
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 彩色输出与详细堆栈
	File        string // 日志文件路径，留空表示仅输出到标准输出
}

// Config 是系统核心配置的根结构体
type Config struct {
	Bot       BotConfig
	API       APIConfig
	KeepAlive KeepAliveConfig
	Session   SessionConfig
	Launcher  LauncherConfig
	Log       LogConfig
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量直接使用扁平命名，与历史部署保持一致：
// BOT_TOKEN, API_URL, ENABLE_API, ENABLE_BOT, ENABLE_KEEP_ALIVE,
// KEEP_ALIVE_HOST, KEEP_ALIVE_PORT 等。
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，.env 是可选的）
	loadEnvFile()

	viper.AutomaticEnv()

	viper.SetDefault("bot_token", "")
	viper.SetDefault("api_url", "http://localhost:8000")
	viper.SetDefault("api_timeout", "30s")
	viper.SetDefault("enable_api", true)
	viper.SetDefault("enable_bot", true)
	viper.SetDefault("enable_keep_alive", false)
	viper.SetDefault("keep_alive_host", "0.0.0.0")
	viper.SetDefault("keep_alive_port", 8080)
	viper.SetDefault("session_max_per_user", 10)
	viper.SetDefault("session_sweep_interval", "1m")
	viper.SetDefault("session_expiry_grace", "1m")
	viper.SetDefault("api_command", "tempmail-api")
	viper.SetDefault("bot_command", "tempmail-bot")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_development", false)
	viper.SetDefault("log_file", "")

	apiTimeout, err := time.ParseDuration(viper.GetString("api_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid api_timeout: %w", err)
	}

	sweepInterval, err := time.ParseDuration(viper.GetString("session_sweep_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid session_sweep_interval: %w", err)
	}

	expiryGrace, err := time.ParseDuration(viper.GetString("session_expiry_grace"))
	if err != nil {
		return nil, fmt.Errorf("invalid session_expiry_grace: %w", err)
	}

	maxPerUser := viper.GetInt("session_max_per_user")
	if maxPerUser <= 0 {
		maxPerUser = 10
	}

	port := viper.GetInt("keep_alive_port")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid keep_alive_port: %d", port)
	}

	apiURL := strings.TrimRight(viper.GetString("api_url"), "/")
	if apiURL == "" {
		return nil, fmt.Errorf("api_url must not be empty")
	}

	cfg := &Config{
		Bot: BotConfig{
			Token:   viper.GetString("bot_token"),
			Enabled: viper.GetBool("enable_bot"),
		},
		API: APIConfig{
			BaseURL: apiURL,
			Timeout: apiTimeout,
			Enabled: viper.GetBool("enable_api"),
		},
		KeepAlive: KeepAliveConfig{
			Enabled: viper.GetBool("enable_keep_alive"),
			Host:    viper.GetString("keep_alive_host"),
			Port:    port,
		},
		Session: SessionConfig{
			MaxPerUser:    maxPerUser,
			SweepInterval: sweepInterval,
			ExpiryGrace:   expiryGrace,
		},
		Launcher: LauncherConfig{
			APICommand: viper.GetString("api_command"),
			BotCommand: viper.GetString("bot_command"),
		},
		Log: LogConfig{
			Level:       viper.GetString("log_level"),
			Development: viper.GetBool("log_development"),
			File:        viper.GetString("log_file"),
		},
	}

	// 机器人启用但缺少 Token 属于致命配置错误，启动时直接拒绝
	if cfg.Bot.Enabled && cfg.Bot.Token == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable is required when the bot is enabled")
	}

	return cfg, nil
}

// SplitCommand 将启动命令切分为命令与参数
//
// 例如 "tempmail-api --port 8000" 切分为 "tempmail-api" 与 ["--port", "8000"]。
// 空字符串返回空命令。
func SplitCommand(command string) (string, []string) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// loadEnvFile 尝试加载 .env 文件
//
// 依次尝试当前目录与父目录，任意一处加载成功即停止。
func loadEnvFile() {
	candidates := []string{".env", filepath.Join("..", ".env")}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
}
