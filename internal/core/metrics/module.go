package metrics

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-raftnet/config"
)

// Config 指标配置
type Config struct {
	// Enabled 是否启用指标收集
	Enabled bool

	// Namespace 指标命名空间
	Namespace string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Namespace: DefaultNamespace,
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:   cfg.Metrics.Enabled,
		Namespace: cfg.Metrics.Namespace,
	}
}

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Module 返回 metrics Fx 模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(NewRegistryFromParams),
	)
}

// NewRegistryFromParams 从参数创建 Registry，禁用时返回 nil
func NewRegistryFromParams(p Params) *Registry {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if !cfg.Enabled {
		return nil
	}
	return NewRegistry(cfg.Namespace)
}
