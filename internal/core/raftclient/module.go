package raftclient

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-raftnet/config"
	"github.com/dep2p/go-raftnet/internal/core/metrics"
	"github.com/dep2p/go-raftnet/pkg/interfaces"
)

// Params raftclient 模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Resolver   interfaces.Resolver
	Dialer     interfaces.Dialer
	Metrics    *metrics.Registry              `optional:"true"`
	Reporter   interfaces.UnreachableReporter `optional:"true"`
}

// Module 返回 raftclient Fx 模块
//
// 生命周期:
//   - OnStart: 启动空闲连接回收
//   - OnStop: 关闭所有连接
func Module() fx.Option {
	return fx.Module("raftclient",
		fx.Provide(ProvideClient),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideClient 创建发送客户端
func ProvideClient(p Params) (*Client, error) {
	return New(p.Resolver, p.Dialer, ConfigFromUnified(p.UnifiedCfg),
		WithMetrics(p.Metrics),
		WithUnreachableReporter(p.Reporter),
	)
}

func registerLifecycle(lc fx.Lifecycle, c *Client) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			return c.Close()
		},
	})
}
