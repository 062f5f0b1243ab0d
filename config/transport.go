package config

import (
	"errors"
	"net"
	"time"
)

// TransportConfig 传输层配置
//
// 出站连接使用 TCP，每条连接上通过 yamux 打开一个发送流，
// 每次 flush 写出一个批量帧。
type TransportConfig struct {
	// ListenAddr 入站监听地址，为空表示不监听（仅发送）
	ListenAddr string `json:"listen_addr,omitempty"`

	// DialTimeout 拨号超时（含 yamux 建流）
	DialTimeout Duration `json:"dial_timeout"`

	// WriteTimeout 单个批量帧写出超时
	WriteTimeout Duration `json:"write_timeout"`

	// KeepAlivePeriod TCP KeepAlive 周期
	KeepAlivePeriod Duration `json:"keep_alive_period"`

	// NoDelay 是否禁用 Nagle 算法
	NoDelay bool `json:"no_delay"`

	// EnableCompression 是否对较大的批量帧启用 snappy 压缩
	EnableCompression bool `json:"enable_compression"`

	// CompressThreshold 触发压缩的最小帧体积（字节）
	CompressThreshold int `json:"compress_threshold"`

	// MaxFrameSize 单帧最大体积（字节），接收端超过即断开
	MaxFrameSize int `json:"max_frame_size"`

	// Yamux 多路复用配置
	Yamux YamuxConfig `json:"yamux"`
}

// YamuxConfig yamux 会话配置
type YamuxConfig struct {
	// EnableKeepAlive 是否启用会话级 KeepAlive
	EnableKeepAlive bool `json:"enable_keep_alive"`

	// KeepAliveInterval 会话 KeepAlive 间隔
	KeepAliveInterval Duration `json:"keep_alive_interval"`

	// MaxStreamWindowSize 流窗口大小（字节）
	MaxStreamWindowSize uint32 `json:"max_stream_window_size"`

	// AcceptBacklog 待接受流的上限
	AcceptBacklog int `json:"accept_backlog"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		DialTimeout:       Duration(5 * time.Second),  // 拨号超时：5 秒
		WriteTimeout:      Duration(10 * time.Second), // 写超时：10 秒
		KeepAlivePeriod:   Duration(15 * time.Second), // TCP KeepAlive：15 秒
		NoDelay:           true,                       // raft 消息对延迟敏感
		EnableCompression: true,
		CompressThreshold: 4 << 10,  // 4 KB
		MaxFrameSize:      64 << 20, // 64 MB，足够容纳快照分片
		Yamux: YamuxConfig{
			EnableKeepAlive:     true,
			KeepAliveInterval:   Duration(30 * time.Second),
			MaxStreamWindowSize: 1 << 20, // 1 MB
			AcceptBacklog:       256,
		},
	}
}

// Validate 验证传输配置
func (c TransportConfig) Validate() error {
	if c.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
			return errors.New("transport: invalid listen_addr")
		}
	}
	if c.DialTimeout <= 0 {
		return errors.New("transport: dial timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("transport: write timeout must be positive")
	}
	if c.CompressThreshold < 0 {
		return errors.New("transport: compress threshold must not be negative")
	}
	if c.MaxFrameSize <= 0 {
		return errors.New("transport: max frame size must be positive")
	}
	if c.Yamux.EnableKeepAlive && c.Yamux.KeepAliveInterval <= 0 {
		return errors.New("transport: yamux keep alive interval must be positive when enabled")
	}
	// yamux 要求窗口不小于 256KB
	if c.Yamux.MaxStreamWindowSize < 256*1024 {
		return errors.New("transport: yamux stream window must be at least 256KB")
	}
	if c.Yamux.AcceptBacklog <= 0 {
		return errors.New("transport: yamux accept backlog must be positive")
	}
	return nil
}
