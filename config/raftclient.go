package config

import (
	"errors"
	"time"
)

// RaftClientConfig 发送客户端配置
type RaftClientConfig struct {
	// FlushConcurrency 一次 Flush 中并发刷新的连接数上限
	FlushConcurrency int `json:"flush_concurrency"`

	// MaxPendingMessages 单个连接未 flush 消息的上限
	MaxPendingMessages int `json:"max_pending_messages"`

	// FlushTimeout 单次 Flush 的整体超时
	FlushTimeout Duration `json:"flush_timeout"`

	// SendTimeout Send 等待地址解析的上限
	SendTimeout Duration `json:"send_timeout"`

	// IdleTimeout 连接空闲多久后被回收，0 表示不回收
	IdleTimeout Duration `json:"idle_timeout"`

	// ReapInterval 空闲回收扫描间隔
	ReapInterval Duration `json:"reap_interval"`
}

// DefaultRaftClientConfig 返回默认客户端配置
func DefaultRaftClientConfig() RaftClientConfig {
	return RaftClientConfig{
		FlushConcurrency:   16,
		MaxPendingMessages: 4096,
		FlushTimeout:       Duration(10 * time.Second),
		SendTimeout:        Duration(5 * time.Second),
		IdleTimeout:        Duration(10 * time.Minute),
		ReapInterval:       Duration(time.Minute),
	}
}

// Validate 验证客户端配置
func (c RaftClientConfig) Validate() error {
	if c.FlushConcurrency <= 0 {
		return errors.New("raft_client: flush concurrency must be positive")
	}
	if c.MaxPendingMessages <= 0 {
		return errors.New("raft_client: max pending messages must be positive")
	}
	if c.FlushTimeout <= 0 {
		return errors.New("raft_client: flush timeout must be positive")
	}
	if c.SendTimeout <= 0 {
		return errors.New("raft_client: send timeout must be positive")
	}
	if c.IdleTimeout < 0 {
		return errors.New("raft_client: idle timeout must not be negative")
	}
	if c.IdleTimeout > 0 && c.ReapInterval <= 0 {
		return errors.New("raft_client: reap interval must be positive when idle timeout is set")
	}
	return nil
}
