package storage

import (
	"time"

	"github.com/dep2p/go-raftnet/config"
	"github.com/dep2p/go-raftnet/internal/core/storage/engine"
)

// Config Storage 模块配置
type Config struct {
	// Path BadgerDB 数据库目录
	Path string

	// InMemory 内存模式
	InMemory bool

	// SyncWrites 是否同步写入
	SyncWrites bool

	// GCInterval 垃圾回收间隔，0 表示禁用
	GCInterval time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Path:       "./data/raftnet.db",
		GCInterval: 10 * time.Minute,
	}
}

// ConfigFromUnified 从统一配置创建 Storage 配置
func ConfigFromUnified(cfg *config.Config) Config {
	storageCfg := DefaultConfig()
	if cfg == nil {
		return storageCfg
	}

	if cfg.Storage.DataDir != "" {
		storageCfg.Path = cfg.Storage.DBPath()
	}
	storageCfg.InMemory = cfg.Storage.InMemory
	storageCfg.SyncWrites = cfg.Storage.SyncWrites
	storageCfg.GCInterval = cfg.Storage.GCInterval.Duration()
	return storageCfg
}

// ToEngineConfig 转换为引擎配置
func (c Config) ToEngineConfig() *engine.Config {
	if c.InMemory {
		return engine.InMemoryConfig()
	}
	engineCfg := engine.DefaultConfig(c.Path)
	engineCfg.SyncWrites = c.SyncWrites
	engineCfg.GCInterval = c.GCInterval
	return engineCfg
}

// Validate 验证配置
func (c Config) Validate() error {
	return c.ToEngineConfig().Validate()
}
