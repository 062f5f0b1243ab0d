package config

import (
	"errors"
	"fmt"
)

// ValidateAll 验证整个配置的有效性
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并修复可自动纠正的问题
//
// 可修复的问题：
//   - 未配置数据目录 -> 使用内存模式
//   - 指标命名空间为空 -> 使用默认值
//   - 设置了空闲超时但没有回收间隔 -> 使用默认间隔
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	if c.Storage.DataDir == "" {
		c.Storage.InMemory = true
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsConfig().Namespace
	}
	if c.RaftClient.IdleTimeout > 0 && c.RaftClient.ReapInterval <= 0 {
		c.RaftClient.ReapInterval = DefaultRaftClientConfig().ReapInterval
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed after fixes: %w", err)
	}
	return c, nil
}
