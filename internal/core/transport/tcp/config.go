package tcp

import (
	"io"
	"time"

	"github.com/hashicorp/yamux"

	"github.com/dep2p/go-raftnet/config"
)

// Config TCP 传输配置
type Config struct {
	ListenAddr        string
	DialTimeout       time.Duration
	WriteTimeout      time.Duration
	KeepAlivePeriod   time.Duration
	NoDelay           bool
	EnableCompression bool
	CompressThreshold int
	MaxFrameSize      int

	// yamux 会话
	EnableKeepAlive     bool
	KeepAliveInterval   time.Duration
	MaxStreamWindowSize uint32
	AcceptBacklog       int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return ConfigFromUnified(nil)
}

// ConfigFromUnified 从统一配置创建传输配置
func ConfigFromUnified(cfg *config.Config) Config {
	t := config.DefaultTransportConfig()
	if cfg != nil {
		t = cfg.Transport
	}
	return Config{
		ListenAddr:          t.ListenAddr,
		DialTimeout:         t.DialTimeout.Duration(),
		WriteTimeout:        t.WriteTimeout.Duration(),
		KeepAlivePeriod:     t.KeepAlivePeriod.Duration(),
		NoDelay:             t.NoDelay,
		EnableCompression:   t.EnableCompression,
		CompressThreshold:   t.CompressThreshold,
		MaxFrameSize:        t.MaxFrameSize,
		EnableKeepAlive:     t.Yamux.EnableKeepAlive,
		KeepAliveInterval:   t.Yamux.KeepAliveInterval.Duration(),
		MaxStreamWindowSize: t.Yamux.MaxStreamWindowSize,
		AcceptBacklog:       t.Yamux.AcceptBacklog,
	}
}

// yamuxConfig 构建 yamux 会话配置
func (c Config) yamuxConfig() *yamux.Config {
	cfg := yamux.DefaultConfig()
	cfg.AcceptBacklog = c.AcceptBacklog
	cfg.EnableKeepAlive = c.EnableKeepAlive
	if c.KeepAliveInterval > 0 {
		cfg.KeepAliveInterval = c.KeepAliveInterval
	}
	if c.WriteTimeout > 0 {
		cfg.ConnectionWriteTimeout = c.WriteTimeout
	}
	if c.MaxStreamWindowSize > 0 {
		cfg.MaxStreamWindowSize = c.MaxStreamWindowSize
	}
	cfg.LogOutput = io.Discard
	return cfg
}
