package raftnet

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-raftnet/internal/core/metrics"
	"github.com/dep2p/go-raftnet/internal/core/raftclient"
	"github.com/dep2p/go-raftnet/internal/core/resolver"
	"github.com/dep2p/go-raftnet/internal/core/storage"
	"github.com/dep2p/go-raftnet/internal/core/storage/engine"
	"github.com/dep2p/go-raftnet/internal/core/transport/tcp"
	"github.com/dep2p/go-raftnet/pkg/interfaces"
	"github.com/dep2p/go-raftnet/pkg/lib/log"
)

var fxLogger = log.Logger("raftnet/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. Storage（仅启用持久化目录时）
//  2. Resolver: 自定义解析器 → 静态地址表 → 持久化目录
//  3. Metrics
//  4. Transport: TCP 拨号器与可选的入站监听
//  5. RaftClient
func buildFxApp(cfg *nodeConfig, node *Node) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(cfg.config),
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 存储与解析
	// ════════════════════════════════════════════════════════════════════════
	if cfg.config.Resolver.EnableDirectory {
		modules = append(modules, storage.Module())
	}
	if cfg.resolver != nil {
		custom := cfg.resolver
		modules = append(modules, fx.Provide(
			fx.Annotate(func() interfaces.Resolver { return custom }, fx.ResultTags(`name:"custom_resolver"`)),
		))
	}
	modules = append(modules, resolver.Module())

	// ════════════════════════════════════════════════════════════════════════
	// 3. 指标
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, metrics.Module())

	// ════════════════════════════════════════════════════════════════════════
	// 4. 传输层
	// ════════════════════════════════════════════════════════════════════════
	if cfg.dialer != nil {
		dialer := cfg.dialer
		modules = append(modules, fx.Provide(
			fx.Annotate(func() interfaces.Dialer { return dialer }, fx.ResultTags(`name:"custom_dialer"`)),
		))
	}
	if cfg.handler != nil {
		handler := cfg.handler
		modules = append(modules, fx.Provide(func() interfaces.BatchHandler { return handler }))
	}
	modules = append(modules, tcp.Module())

	// ════════════════════════════════════════════════════════════════════════
	// 5. 发送客户端
	// ════════════════════════════════════════════════════════════════════════
	if cfg.reporter != nil {
		reporter := cfg.reporter
		modules = append(modules, fx.Provide(func() interfaces.UnreachableReporter { return reporter }))
	}
	modules = append(modules, raftclient.Module())

	// ════════════════════════════════════════════════════════════════════════
	// 6. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(cfg.userFxOptions) > 0 {
		modules = append(modules, cfg.userFxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 7. Node 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.Invoke(injectNodeComponents(node)))

	// ════════════════════════════════════════════════════════════════════════
	// 8. Fx 日志
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.WithLogger(newFxEventLogger(cfg.fxDebug)))

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	fxLogger.Debug("Fx 应用已构建",
		"directory", cfg.config.Resolver.EnableDirectory,
		"customResolver", cfg.resolver != nil,
		"customDialer", cfg.dialer != nil,
		"listen", cfg.config.Transport.ListenAddr)
	return app, nil
}

// newFxEventLogger 默认丢弃 Fx 日志，调试时使用开发模式 zap 输出
func newFxEventLogger(debug bool) func() fxevent.Logger {
	return func() fxevent.Logger {
		if debug {
			if l, err := zap.NewDevelopment(); err == nil {
				return &fxevent.ZapLogger{Logger: l}
			}
		}
		return &fxevent.ZapLogger{Logger: zap.NewNop()}
	}
}

// nodeInjectParams 注入到 Node 的组件
type nodeInjectParams struct {
	fx.In

	Client    *raftclient.Client
	Static    *resolver.Static
	Directory *resolver.Directory `optional:"true"`
	Metrics   *metrics.Registry   `optional:"true"`
	Server    *tcp.Server
	Engine    engine.Engine `optional:"true"`
}

// injectNodeComponents 将 Fx 组件注入到 Node
func injectNodeComponents(node *Node) interface{} {
	return func(p nodeInjectParams) {
		node.client = p.Client
		node.transport = NewTransport(p.Client)
		node.static = p.Static
		node.directory = p.Directory
		node.metrics = p.Metrics
		node.server = p.Server
		node.engine = p.Engine
	}
}
