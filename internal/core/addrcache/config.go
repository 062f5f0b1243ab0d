package addrcache

import (
	"errors"
	"time"

	"github.com/dep2p/go-raftnet/config"
)

// Config 地址缓存配置
type Config struct {
	// MaxEntries 最大条目数
	MaxEntries int

	// ResolveTimeout 单次 Resolver 查询的超时
	ResolveTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxEntries:     4096,
		ResolveTimeout: 3 * time.Second,
	}
}

// ConfigFromUnified 从统一配置创建缓存配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		MaxEntries:     cfg.Resolver.CacheSize,
		ResolveTimeout: cfg.Resolver.ResolveTimeout.Duration(),
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.MaxEntries <= 0 {
		return errors.New("addrcache: max entries must be positive")
	}
	if c.ResolveTimeout <= 0 {
		return errors.New("addrcache: resolve timeout must be positive")
	}
	return nil
}
