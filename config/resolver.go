package config

import (
	"errors"
	"time"
)

// ResolverConfig 地址解析配置
type ResolverConfig struct {
	// StoreSpecs 静态 Store 地址，格式 "id@host:port"
	StoreSpecs []string `json:"stores,omitempty"`

	// EnableDirectory 是否启用持久化 Store 地址目录（BadgerDB）
	//
	// 静态配置中找不到的 Store 会继续查询目录。
	EnableDirectory bool `json:"enable_directory"`

	// ResolveTimeout 单次解析超时
	ResolveTimeout Duration `json:"resolve_timeout"`

	// CacheSize 地址缓存容量
	CacheSize int `json:"cache_size"`
}

// DefaultResolverConfig 返回默认解析配置
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		EnableDirectory: true,
		ResolveTimeout:  Duration(3 * time.Second),
		CacheSize:       4096,
	}
}

// Validate 验证解析配置
func (c ResolverConfig) Validate() error {
	if c.ResolveTimeout <= 0 {
		return errors.New("resolver: resolve timeout must be positive")
	}
	if c.CacheSize <= 0 {
		return errors.New("resolver: cache size must be positive")
	}
	return nil
}
