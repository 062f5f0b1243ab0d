package tcp

import (
	"context"
	"net"
	"sync"

	"go.uber.org/fx"

	"github.com/dep2p/go-raftnet/config"
	"github.com/dep2p/go-raftnet/internal/core/metrics"
	"github.com/dep2p/go-raftnet/pkg/interfaces"
)

// Params 传输模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg   *config.Config          `optional:"true"`
	Metrics      *metrics.Registry       `optional:"true"`
	Handler      interfaces.BatchHandler `optional:"true"`
	CustomDialer interfaces.Dialer       `name:"custom_dialer" optional:"true"`
}

// Result 传输模块提供的结果
type Result struct {
	fx.Out

	Dialer interfaces.Dialer
	Server *Server
}

// Module 返回传输 Fx 模块
//
// 生命周期:
//   - OnStart: 配置了 ListenAddr 且提供了 BatchHandler 时开始监听
//   - OnStop: 关闭监听器
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(ProvideTransport),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideTransport 提供拨号器与入站服务
func ProvideTransport(p Params) Result {
	cfg := ConfigFromUnified(p.UnifiedCfg)

	var dialer interfaces.Dialer = NewDialer(cfg, p.Metrics)
	if p.CustomDialer != nil {
		dialer = p.CustomDialer
	}
	return Result{
		Dialer: dialer,
		Server: NewServer(cfg, p.Handler, p.Metrics),
	}
}

func registerLifecycle(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.Stop,
	})
}

// ============================================================================
//                              Server
// ============================================================================

// Server 按配置可选地运行 Listener
type Server struct {
	cfg     Config
	handler interfaces.BatchHandler
	metrics *metrics.Registry

	mu sync.Mutex
	ln *Listener
}

// NewServer 创建入站服务
func NewServer(cfg Config, handler interfaces.BatchHandler, reg *metrics.Registry) *Server {
	return &Server{cfg: cfg, handler: handler, metrics: reg}
}

// Start 开始监听；未配置地址或处理器时不做任何事
func (s *Server) Start(_ context.Context) error {
	if s.cfg.ListenAddr == "" {
		return nil
	}
	if s.handler == nil {
		logger.Warn("配置了监听地址但没有批量消息处理器，跳过监听", "addr", s.cfg.ListenAddr)
		return nil
	}

	ln, err := Listen(s.cfg.ListenAddr, s.cfg, s.handler, s.metrics)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Stop 停止监听
func (s *Server) Stop(_ context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.ln = nil
	s.mu.Unlock()
	if ln == nil {
		return nil
	}
	return ln.Close()
}

// Addr 返回实际监听地址，未监听时返回 nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}
