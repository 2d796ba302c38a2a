// Package keepalive 实现保活探测 Web 服务器
//
// 面向托管平台的外部拨测，只读 JSON 端点，无任何业务逻辑。
package keepalive

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"tempmail/bot/internal/config"
	"tempmail/bot/internal/monitoring"
)

// Version 保活服务器上报的版本号
const Version = "2.0.0"

// 端口被占用时向后探测的端口数量
const portProbeRange = 10

// Server 保活探测服务器
type Server struct {
	engine    *gin.Engine
	health    healthcheck.Handler
	logger    *zap.Logger
	host      string
	port      int
	startTime time.Time
}

// NewServer 创建保活服务器
//
// apiURL 非空时注册远程 API 的就绪检查；metrics 非空时暴露 /metrics。
func NewServer(cfg config.KeepAliveConfig, apiURL string, metrics *monitoring.Metrics, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:    gin.New(),
		health:    healthcheck.NewHandler(),
		logger:    logger,
		host:      cfg.Host,
		port:      cfg.Port,
		startTime: time.Now(),
	}

	s.health.AddLivenessCheck("goroutine-count", healthcheck.GoroutineCountCheck(500))
	if apiURL != "" {
		s.health.AddReadinessCheck("tempmail-api", healthcheck.HTTPGetCheck(apiURL, 5*time.Second))
	}

	s.engine.Use(gin.CustomRecovery(s.recoveryHandler))
	s.engine.Use(gincors.Default())

	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/ping", s.handlePing)
	s.engine.GET("/stats", s.handleStats)
	s.engine.GET("/live", gin.WrapF(s.health.LiveEndpoint))
	s.engine.GET("/ready", gin.WrapF(s.health.ReadyEndpoint))
	if metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(metrics.HTTPHandler()))
	}
	s.engine.NoRoute(s.handleNotFound)

	return s
}

// Run 启动服务器，直到 ctx 取消
//
// 配置的端口被占用时依次向后探测备用端口。
func (s *Server) Run(ctx context.Context) error {
	listener, port, err := s.listen()
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("keep-alive server started",
		zap.String("host", s.host),
		zap.Int("port", port),
		zap.String("local_ip", localIP()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("keep-alive server stopped")
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// listen 绑定监听端口，被占用时向后探测备用端口
func (s *Server) listen() (net.Listener, int, error) {
	for port := s.port; port < s.port+portProbeRange; port++ {
		listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.host, port))
		if err == nil {
			if port != s.port {
				s.logger.Warn("configured port in use, using alternative",
					zap.Int("configured", s.port),
					zap.Int("alternative", port),
				)
			}
			return listener, port, nil
		}
	}
	return nil, 0, fmt.Errorf("no available ports in range %d-%d", s.port, s.port+portProbeRange-1)
}

// localIP 返回本机对外 IP，失败时回退到环回地址
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
