package connmgr

import (
	"errors"
	"time"

	"github.com/dep2p/go-raftnet/config"
)

// Config 连接注册表配置
type Config struct {
	// MaxPendingMessages 单个连接未 flush 消息的上限
	MaxPendingMessages int

	// IdleTimeout 连接空闲多久后可被回收，0 表示只回收已断开的连接
	IdleTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxPendingMessages: 4096,
		IdleTimeout:        10 * time.Minute,
	}
}

// ConfigFromUnified 从统一配置创建注册表配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		MaxPendingMessages: cfg.RaftClient.MaxPendingMessages,
		IdleTimeout:        cfg.RaftClient.IdleTimeout.Duration(),
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.MaxPendingMessages <= 0 {
		return errors.New("connmgr: max pending messages must be positive")
	}
	if c.IdleTimeout < 0 {
		return errors.New("connmgr: idle timeout must not be negative")
	}
	return nil
}
