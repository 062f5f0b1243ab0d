package resolver

import (
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-raftnet/config"
	"github.com/dep2p/go-raftnet/internal/core/storage/engine"
	"github.com/dep2p/go-raftnet/pkg/interfaces"
	"github.com/dep2p/go-raftnet/pkg/lib/log"
)

var logger = log.Logger("core/resolver")

// Config Resolver 模块配置
type Config struct {
	// StoreSpecs 静态 Store 配置
	StoreSpecs []string

	// EnableDirectory 是否启用持久化目录
	EnableDirectory bool

	// ResolveTimeout 单次解析超时
	ResolveTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		EnableDirectory: true,
		ResolveTimeout:  3 * time.Second,
	}
}

// ConfigFromUnified 从统一配置创建 Resolver 配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		StoreSpecs:      append([]string(nil), cfg.Resolver.StoreSpecs...),
		EnableDirectory: cfg.Resolver.EnableDirectory,
		ResolveTimeout:  cfg.Resolver.ResolveTimeout.Duration(),
	}
}

// Params Resolver 模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config      `optional:"true"`
	Engine     engine.Engine       `optional:"true"`
	Custom     interfaces.Resolver `name:"custom_resolver" optional:"true"`
}

// Result Resolver 模块提供的结果
type Result struct {
	fx.Out

	// Resolver 组装后的解析器
	Resolver interfaces.Resolver

	// Static 静态地址表
	Static *Static

	// Directory 持久化目录，未启用时为 nil
	Directory *Directory
}

// Module 返回 Resolver Fx 模块
func Module() fx.Option {
	return fx.Module("resolver",
		fx.Provide(ProvideResolver),
	)
}

// ProvideResolver 按配置组装解析器
func ProvideResolver(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)

	static, err := NewStaticFromSpecs(cfg.StoreSpecs)
	if err != nil {
		return Result{}, fmt.Errorf("resolver: parse stores: %w", err)
	}

	var dir *Directory
	if cfg.EnableDirectory {
		dir, err = NewDirectory(p.Engine)
		if err != nil {
			return Result{}, err
		}
	}

	// 链中的 nil 会被忽略；*Directory 为 nil 时不能直接放入接口
	links := []interfaces.Resolver{p.Custom, static}
	if dir != nil {
		links = append(links, dir)
	}
	r := WithTimeout(Chain(links...), cfg.ResolveTimeout)

	logger.Debug("解析器已组装",
		"static", static.Len(),
		"directory", dir != nil,
		"custom", p.Custom != nil,
		"timeout", cfg.ResolveTimeout)

	return Result{Resolver: r, Static: static, Directory: dir}, nil
}
