package raftclient

import (
	"errors"
	"time"

	"github.com/dep2p/go-raftnet/config"
	"github.com/dep2p/go-raftnet/internal/core/addrcache"
	"github.com/dep2p/go-raftnet/internal/core/connmgr"
)

// Config 发送客户端配置
type Config struct {
	// Cache 地址缓存配置
	Cache addrcache.Config

	// Conn 连接注册表配置
	Conn connmgr.Config

	// FlushConcurrency 一次 Flush 并发刷新的连接数上限
	FlushConcurrency int

	// SendTimeout Send 等待地址解析的上限，0 表示只受调用方 ctx 约束
	SendTimeout time.Duration

	// FlushTimeout 门面 Flush 的整体超时
	FlushTimeout time.Duration

	// ReapInterval 空闲连接回收间隔，0 表示不启动回收
	ReapInterval time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return ConfigFromUnified(nil)
}

// ConfigFromUnified 从统一配置创建客户端配置
func ConfigFromUnified(cfg *config.Config) Config {
	rc := config.DefaultRaftClientConfig()
	if cfg != nil {
		rc = cfg.RaftClient
	}
	return Config{
		Cache:            addrcache.ConfigFromUnified(cfg),
		Conn:             connmgr.ConfigFromUnified(cfg),
		FlushConcurrency: rc.FlushConcurrency,
		SendTimeout:      rc.SendTimeout.Duration(),
		FlushTimeout:     rc.FlushTimeout.Duration(),
		ReapInterval:     rc.ReapInterval.Duration(),
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Conn.Validate(); err != nil {
		return err
	}
	if c.FlushConcurrency <= 0 {
		return errors.New("raftclient: flush concurrency must be positive")
	}
	if c.SendTimeout < 0 || c.FlushTimeout < 0 || c.ReapInterval < 0 {
		return errors.New("raftclient: timeouts must not be negative")
	}
	return nil
}
