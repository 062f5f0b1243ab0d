package raftnet

import (
	"errors"
	"fmt"

	"go.uber.org/fx"

	"github.com/dep2p/go-raftnet/config"
	"github.com/dep2p/go-raftnet/internal/core/resolver"
	"github.com/dep2p/go-raftnet/pkg/interfaces"
)

// Option 节点配置选项
//
// 选项按传入顺序应用，WithConfig/WithConfigFile 会整体替换此前的配置。
type Option func(*nodeConfig) error

// nodeConfig 节点内部配置
type nodeConfig struct {
	// config 统一配置
	config *config.Config

	// 可替换组件
	resolver interfaces.Resolver
	dialer   interfaces.Dialer
	handler  interfaces.BatchHandler
	reporter interfaces.UnreachableReporter

	// fxDebug 输出 Fx 依赖注入日志
	fxDebug bool

	// userFxOptions 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

func newNodeConfig() *nodeConfig {
	return &nodeConfig{config: config.NewConfig()}
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置来源
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用给定的统一配置（会被复制）
func WithConfig(cfg *config.Config) Option {
	return func(nc *nodeConfig) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		nc.config = cfg.Clone()
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载配置
func WithConfigFile(path string) Option {
	return func(nc *nodeConfig) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		nc.config = cfg
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              地址解析
// ════════════════════════════════════════════════════════════════════════════

// WithStoreSpecs 追加静态 Store 地址，格式 "id@host:port"
func WithStoreSpecs(specs ...string) Option {
	return func(nc *nodeConfig) error {
		if _, err := resolver.ParseStoreSpecs(specs); err != nil {
			return err
		}
		nc.config.Resolver.StoreSpecs = append(nc.config.Resolver.StoreSpecs, specs...)
		return nil
	}
}

// WithResolver 设置自定义解析器
//
// 自定义解析器优先于静态地址表与持久化目录，返回 ErrStoreNotFound 时继续向后查找。
func WithResolver(r interfaces.Resolver) Option {
	return func(nc *nodeConfig) error {
		if r == nil {
			return errors.New("resolver is nil")
		}
		nc.resolver = r
		return nil
	}
}

// WithDirectory 启用或禁用持久化 Store 地址目录
func WithDirectory(enabled bool) Option {
	return func(nc *nodeConfig) error {
		nc.config.Resolver.EnableDirectory = enabled
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              传输
// ════════════════════════════════════════════════════════════════════════════

// WithDialer 替换默认的 TCP 拨号器
func WithDialer(d interfaces.Dialer) Option {
	return func(nc *nodeConfig) error {
		if d == nil {
			return errors.New("dialer is nil")
		}
		nc.dialer = d
		return nil
	}
}

// WithListenAddr 设置入站监听地址（需同时设置 WithBatchHandler）
func WithListenAddr(addr string) Option {
	return func(nc *nodeConfig) error {
		nc.config.Transport.ListenAddr = addr
		return nil
	}
}

// WithBatchHandler 设置入站批量消息处理器
func WithBatchHandler(h interfaces.BatchHandler) Option {
	return func(nc *nodeConfig) error {
		if h == nil {
			return errors.New("batch handler is nil")
		}
		nc.handler = h
		return nil
	}
}

// WithCompression 启用或禁用批量帧压缩
func WithCompression(enabled bool) Option {
	return func(nc *nodeConfig) error {
		nc.config.Transport.EnableCompression = enabled
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              发送客户端
// ════════════════════════════════════════════════════════════════════════════

// WithUnreachableReporter 设置 Store 不可达通知的接收方（通常是 Router）
func WithUnreachableReporter(r interfaces.UnreachableReporter) Option {
	return func(nc *nodeConfig) error {
		if r == nil {
			return errors.New("unreachable reporter is nil")
		}
		nc.reporter = r
		return nil
	}
}

// WithFlushConcurrency 设置并发 flush 的连接数上限
func WithFlushConcurrency(n int) Option {
	return func(nc *nodeConfig) error {
		if n <= 0 {
			return fmt.Errorf("flush concurrency must be positive: %d", n)
		}
		nc.config.RaftClient.FlushConcurrency = n
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              存储
// ════════════════════════════════════════════════════════════════════════════

// WithDataDir 设置数据目录（持久化模式）
func WithDataDir(dir string) Option {
	return func(nc *nodeConfig) error {
		if dir == "" {
			return errors.New("data dir is empty")
		}
		nc.config.Storage.DataDir = dir
		nc.config.Storage.InMemory = false
		return nil
	}
}

// WithInMemory 使用内存存储（测试与临时节点）
func WithInMemory() Option {
	return func(nc *nodeConfig) error {
		nc.config.Storage.InMemory = true
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              其他
// ════════════════════════════════════════════════════════════════════════════

// WithMetrics 启用或禁用 Prometheus 指标
func WithMetrics(enabled bool) Option {
	return func(nc *nodeConfig) error {
		nc.config.Metrics.Enabled = enabled
		return nil
	}
}

// WithLogLevel 设置日志级别
func WithLogLevel(level string) Option {
	return func(nc *nodeConfig) error {
		nc.config.Log.Level = level
		return nil
	}
}

// WithFxDebug 输出 Fx 依赖注入日志
func WithFxDebug(enabled bool) Option {
	return func(nc *nodeConfig) error {
		nc.fxDebug = enabled
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(nc *nodeConfig) error {
		nc.userFxOptions = append(nc.userFxOptions, opts...)
		return nil
	}
}
