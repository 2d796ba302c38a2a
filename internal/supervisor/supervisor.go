// Package supervisor 实现子进程监督
//
// 每个启用的服务作为独立子进程拉起，由专属协程转发其合并输出。
// 进程死亡是终态：不做任何重启，全部进程退出后监督器自身退出。
package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// State 表示受监督服务的生命周期状态
type State int32

const (
	StateNotStarted State = iota // 尚未拉起
	StateRunning                 // 运行中
	StateExited                  // 自行退出（未经监督器要求）
	StateTerminating             // 已发送优雅终止信号，等待退出
	StateTerminated              // 已退出（优雅或强制）
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateTerminating:
		return "terminating"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ErrNoServices 表示没有任何服务被成功拉起
var ErrNoServices = errors.New("no services started")

// Service 定义一个受监督的服务
type Service struct {
	Name    string   // 服务名，用于日志前缀
	Command string   // 可执行文件
	Args    []string // 命令行参数
	Env     []string // 追加到继承环境之上的额外变量，形如 "KEY=value"
}

// child 记录一个已拉起的子进程
type child struct {
	service  Service
	cmd      *exec.Cmd
	mu       sync.Mutex
	state    State
	exitCode int
	done     chan struct{} // Wait 返回后关闭
}

// setState 更新子进程状态
func (c *child) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// State 读取子进程状态
func (c *child) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Supervisor 监督一组子进程
type Supervisor struct {
	logger          *zap.Logger
	pollInterval    time.Duration
	shutdownTimeout time.Duration // 优雅终止的等待上限，超时后强制杀死

	mu       sync.Mutex
	children map[string]*child
	relays   errgroup.Group
}

// New 创建监督器，轮询间隔 1 秒，优雅终止等待 10 秒
func New(logger *zap.Logger) *Supervisor {
	return &Supervisor{
		logger:          logger,
		pollInterval:    time.Second,
		shutdownTimeout: 10 * time.Second,
		children:        make(map[string]*child),
	}
}

// Start 拉起一个服务子进程
//
// 子进程的标准错误合并进标准输出，由专属协程逐行转发到日志，
// 避免子进程因输出缓冲区写满而阻塞。
func (s *Supervisor) Start(svc Service) error {
	cmd := exec.Command(svc.Command, svc.Args...)
	cmd.Env = append(os.Environ(), svc.Env...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("pipe for %s: %w", svc.Name, err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", svc.Name, err)
	}

	c := &child{
		service: svc,
		cmd:     cmd,
		state:   StateRunning,
		done:    make(chan struct{}),
	}

	s.mu.Lock()
	s.children[svc.Name] = c
	s.mu.Unlock()

	s.relays.Go(func() error {
		s.relay(c, stdout)
		return nil
	})

	s.logger.Info("service started",
		zap.String("service", svc.Name),
		zap.Int("pid", cmd.Process.Pid),
	)
	return nil
}

// relay 转发子进程输出并观察其退出
func (s *Supervisor) relay(c *child, pipe io.Reader) {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		s.logger.Info(line, zap.String("service", c.service.Name))
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("service output relay stopped early",
			zap.String("service", c.service.Name),
			zap.Error(err),
		)
		// 继续排空管道，否则子进程可能因输出缓冲区写满而永远阻塞
		_, _ = io.Copy(io.Discard, pipe)
	}

	err := c.cmd.Wait()

	c.mu.Lock()
	c.exitCode = c.cmd.ProcessState.ExitCode()
	if c.state == StateTerminating {
		c.state = StateTerminated
	} else {
		c.state = StateExited
	}
	exitCode := c.exitCode
	c.mu.Unlock()
	close(c.done)

	s.logger.Info("service process ended",
		zap.String("service", c.service.Name),
		zap.Int("exit_code", exitCode),
		zap.Error(err),
	)
}

// Run 监督所有已拉起的子进程，直到全部退出或 ctx 取消
//
// 固定间隔轮询存活集合；自行退出的进程被移出集合并记录为意外死亡，
// 集合清空后返回。ctx 取消时对所有存活进程执行优雅终止，
// 超时未退出的强制杀死，并等待全部进程被回收后才返回。
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	count := len(s.children)
	s.mu.Unlock()
	if count == 0 {
		return ErrNoServices
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutdown signal received, stopping services")
			s.shutdown()
			_ = s.relays.Wait()
			return nil
		case <-ticker.C:
			if s.reapDead() == 0 {
				s.logger.Warn("all services have stopped")
				_ = s.relays.Wait()
				return nil
			}
		}
	}
}

// reapDead 移除已死亡的子进程，返回剩余存活数量
func (s *Supervisor) reapDead() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, c := range s.children {
		state := c.State()
		if state != StateExited && state != StateTerminated {
			continue
		}
		c.mu.Lock()
		exitCode := c.exitCode
		c.mu.Unlock()
		s.logger.Warn("service died unexpectedly",
			zap.String("service", name),
			zap.Int("exit_code", exitCode),
		)
		delete(s.children, name)
	}
	return len(s.children)
}

// shutdown 终止所有存活子进程：先优雅后强制，并等待回收
func (s *Supervisor) shutdown() {
	s.mu.Lock()
	live := make([]*child, 0, len(s.children))
	for _, c := range s.children {
		live = append(live, c)
	}
	s.children = make(map[string]*child)
	s.mu.Unlock()

	// 先给所有进程发优雅终止信号，再逐个等待
	for _, c := range live {
		if c.State() != StateRunning {
			continue
		}
		c.setState(StateTerminating)
		if err := c.cmd.Process.Signal(syscall.SIGTERM); err != nil {
			s.logger.Warn("failed to signal service",
				zap.String("service", c.service.Name),
				zap.Error(err),
			)
		}
	}

	for _, c := range live {
		if c.State() != StateTerminating {
			continue
		}
		select {
		case <-c.done:
			s.logger.Info("service stopped gracefully",
				zap.String("service", c.service.Name),
			)
		case <-time.After(s.shutdownTimeout):
			s.logger.Warn("service did not stop in time, force killing",
				zap.String("service", c.service.Name),
			)
			if err := c.cmd.Process.Kill(); err != nil {
				s.logger.Warn("failed to kill service",
					zap.String("service", c.service.Name),
					zap.Error(err),
				)
			}
			<-c.done
		}
	}
}
