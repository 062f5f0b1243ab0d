package raftnet

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-raftnet/config"
	"github.com/dep2p/go-raftnet/internal/core/metrics"
	"github.com/dep2p/go-raftnet/internal/core/raftclient"
	"github.com/dep2p/go-raftnet/internal/core/resolver"
	"github.com/dep2p/go-raftnet/internal/core/storage/engine"
	"github.com/dep2p/go-raftnet/internal/core/transport/tcp"
	"github.com/dep2p/go-raftnet/pkg/lib/log"
)

var logger = log.Logger("raftnet")

const (
	// startTimeout Fx 应用启动超时
	startTimeout = 30 * time.Second

	// stopTimeout Fx 应用停止超时
	stopTimeout = 15 * time.Second
)

// ════════════════════════════════════════════════════════════════════════════
//                              节点状态
// ════════════════════════════════════════════════════════════════════════════

// NodeState 节点状态
type NodeState int

const (
	// StateIdle 已创建，未启动
	StateIdle NodeState = iota
	// StateRunning 运行中
	StateRunning
	// StateClosed 已关闭
	StateClosed
)

// String 返回状态名称
func (s NodeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              Node
// ════════════════════════════════════════════════════════════════════════════

// Node 存储节点的共识消息网络端
//
// Node 组装地址解析、连接管理、发送客户端与入站监听，
// 通过 Transport() 暴露给 Router。
type Node struct {
	// config 节点配置
	config *nodeConfig

	// app Fx 应用
	app *fx.App

	// ────────────────────────────────────────────────────────────────────────
	// 核心组件（由 Fx 注入）
	// ────────────────────────────────────────────────────────────────────────

	client    *raftclient.Client
	transport Transport
	static    *resolver.Static
	directory *resolver.Directory
	metrics   *metrics.Registry
	server    *tcp.Server
	engine    engine.Engine

	mu    sync.Mutex
	state NodeState
}

// New 创建新节点
//
// 创建节点但不启动，需要调用 Start() 启动。
//
// 示例：
//
//	node, err := raftnet.New(ctx,
//	    raftnet.WithStoreSpecs("2@10.0.0.2:20160"),
//	    raftnet.WithUnreachableReporter(router),
//	)
func New(_ context.Context, opts ...Option) (*Node, error) {
	cfg := newNodeConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if err := log.Setup(cfg.config.Log.Level, cfg.config.Log.Format, nil); err != nil {
		return nil, fmt.Errorf("setup log: %w", err)
	}

	node := &Node{config: cfg}
	app, err := buildFxApp(cfg, node)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	node.app = app
	return node, nil
}

// Start 快捷启动函数，等价于 New() + Start()
func Start(ctx context.Context, opts ...Option) (*Node, error) {
	node, err := New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if err := node.Start(ctx); err != nil {
		return nil, fmt.Errorf("start node: %w", err)
	}
	return node, nil
}

// Start 启动节点
//
// 打开存储、开始监听（如已配置）并启动空闲连接回收。
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case StateClosed:
		return ErrNodeClosed
	case StateRunning:
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := n.app.Start(startCtx); err != nil {
		logger.Error("节点启动失败", "error", err)
		return fmt.Errorf("start fx app: %w", err)
	}
	n.state = StateRunning

	logger.Info("节点已启动",
		"listen", n.ListenAddr(),
		"staticStores", n.static.Len(),
		"directory", n.directory != nil)
	return nil
}

// Close 关闭节点并释放所有资源
//
// 未 flush 的消息会被丢弃。可重复调用。
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateClosed {
		return nil
	}
	wasRunning := n.state == StateRunning
	n.state = StateClosed
	if !wasRunning {
		// 未启动：OnStop 不会执行，直接关闭已创建的组件
		var err error
		if n.client != nil {
			err = multierr.Append(err, n.client.Close())
		}
		if n.engine != nil {
			err = multierr.Append(err, n.engine.Close())
		}
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := n.app.Stop(ctx); err != nil {
		logger.Error("节点关闭失败", "error", err)
		return fmt.Errorf("stop fx app: %w", err)
	}
	logger.Info("节点已关闭")
	return nil
}

// State 返回节点状态
func (n *Node) State() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// ════════════════════════════════════════════════════════════════════════════
//                              组件访问
// ════════════════════════════════════════════════════════════════════════════

// Transport 返回供 Router 使用的发送门面
func (n *Node) Transport() Transport {
	return n.transport
}

// Resolver 返回持久化 Store 地址目录，未启用时为 nil
//
// 运行时通过 Put/Tombstone 更新地址；已缓存的地址在连接断开后才会重新解析。
func (n *Node) Resolver() *resolver.Directory {
	return n.directory
}

// Static 返回静态 Store 地址表
func (n *Node) Static() *resolver.Static {
	return n.static
}

// Metrics 返回指标注册表，禁用时为 nil
func (n *Node) Metrics() *metrics.Registry {
	return n.metrics
}

// ListenAddr 返回入站监听地址，未监听时为 nil
func (n *Node) ListenAddr() net.Addr {
	if n.server == nil {
		return nil
	}
	return n.server.Addr()
}

// Stats 返回发送客户端状态快照
func (n *Node) Stats() raftclient.Stats {
	return n.transport.Stats()
}

// Config 返回节点使用的统一配置副本
func (n *Node) Config() *config.Config {
	return n.config.config.Clone()
}
