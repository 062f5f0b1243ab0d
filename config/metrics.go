package config

import (
	"errors"
	"net"
	"regexp"
)

var namespaceRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否启用指标收集
	Enabled bool `json:"enabled"`

	// Namespace Prometheus 指标命名空间
	Namespace string `json:"namespace"`

	// ListenAddr 指标 HTTP 服务地址（仅命令行使用），为空不启动
	ListenAddr string `json:"listen_addr,omitempty"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "raftnet",
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if !namespaceRe.MatchString(c.Namespace) {
		return errors.New("metrics: invalid namespace")
	}
	if c.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
			return errors.New("metrics: invalid listen_addr")
		}
	}
	return nil
}
