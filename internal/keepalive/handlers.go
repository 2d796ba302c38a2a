package keepalive

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// uptime 返回启动以来的时长，精确到秒
func (s *Server) uptime() time.Duration {
	return time.Since(s.startTime).Truncate(time.Second)
}

// handleIndex 主保活端点
func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"message":   "TempMail Keep-Alive Server",
		"uptime":    s.uptime().String(),
		"timestamp": time.Now().Format(time.RFC3339),
		"local_ip":  localIP(),
	})
}

// handleHealth 详细健康信息端点
func (s *Server) handleHealth(c *gin.Context) {
	uptime := s.uptime()
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "TempMail Keep-Alive",
		"uptime": gin.H{
			"human":      uptime.String(),
			"seconds":    int(uptime.Seconds()),
			"started_at": s.startTime.Format(time.RFC3339),
		},
		"system": gin.H{
			"local_ip": localIP(),
			"port":     s.port,
		},
		"version":   Version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handlePing 简单拨测端点
func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"response":  "pong",
		"timestamp": time.Now().Format(time.RFC3339),
		"status":    "ok",
	})
}

// handleStats 服务器统计端点
func (s *Server) handleStats(c *gin.Context) {
	uptime := s.uptime()
	c.JSON(http.StatusOK, gin.H{
		"server": "TempMail Keep-Alive",
		"stats": gin.H{
			"uptime_seconds": int(uptime.Seconds()),
			"uptime_human":   uptime.String(),
			"started_at":     s.startTime.Format(time.RFC3339),
			"current_time":   time.Now().Format(time.RFC3339),
			"local_ip":       localIP(),
			"port":           s.port,
		},
		"endpoints": []gin.H{
			{"path": "/", "description": "Main keep-alive check"},
			{"path": "/health", "description": "Detailed health information"},
			{"path": "/ping", "description": "Simple ping response"},
			{"path": "/stats", "description": "Server statistics"},
			{"path": "/live", "description": "Liveness probe"},
			{"path": "/ready", "description": "Readiness probe"},
			{"path": "/metrics", "description": "Prometheus metrics"},
		},
	})
}

// handleNotFound 自定义 404 响应
func (s *Server) handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":               "Not Found",
		"message":             "The requested endpoint does not exist",
		"available_endpoints": []string{"/", "/health", "/ping", "/stats", "/live", "/ready", "/metrics"},
	})
}

// recoveryHandler 自定义 500 响应
func (s *Server) recoveryHandler(c *gin.Context, _ interface{}) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":     "Internal Server Error",
		"message":   "Something went wrong on our end",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
