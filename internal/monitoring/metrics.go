package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
//
// 指标注册在独立的 Registry 上，由保活服务器的 /metrics 端点暴露。
type Metrics struct {
	registry *prometheus.Registry

	// 机器人指标
	UpdatesTotal   *prometheus.CounterVec // 按触发器统计处理的更新
	ActiveSessions prometheus.Gauge       // 当前会话总数
	SessionsPruned prometheus.Counter     // 过期清理移除的会话数

	// 远程 API 指标
	APIRequestsTotal   *prometheus.CounterVec   // 按类型/操作/结果统计请求
	APIRequestDuration *prometheus.HistogramVec // 请求耗时

	// 错误指标
	ErrorsTotal *prometheus.CounterVec // 按错误种类统计
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		UpdatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tempmail_bot_updates_total",
			Help: "Total number of Telegram updates handled, by trigger",
		}, []string{"trigger"}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tempmail_bot_active_sessions",
			Help: "Number of sessions currently held in memory",
		}),

		SessionsPruned: factory.NewCounter(prometheus.CounterOpts{
			Name: "tempmail_bot_sessions_pruned_total",
			Help: "Total number of expired sessions removed by the sweep",
		}),

		APIRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tempmail_bot_api_requests_total",
			Help: "Total number of requests to the remote temp-mail API",
		}, []string{"kind", "operation", "outcome"}),

		APIRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tempmail_bot_api_request_duration_seconds",
			Help:    "Duration of requests to the remote temp-mail API",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "operation"}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tempmail_bot_errors_total",
			Help: "Total number of errors surfaced to users, by category",
		}, []string{"category"}),
	}
}

// HTTPHandler 返回 Prometheus 指标端点的处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
