package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/yamux"

	"github.com/dep2p/go-raftnet/internal/core/metrics"
	"github.com/dep2p/go-raftnet/pkg/interfaces"
	"github.com/dep2p/go-raftnet/pkg/lib/log"
	"github.com/dep2p/go-raftnet/pkg/types"
)

var logger = log.Logger("core/transport/tcp")

// ============================================================================
//                              Dialer
// ============================================================================

// Dialer 建立 TCP + yamux 出站连接
type Dialer struct {
	cfg     Config
	metrics *metrics.Registry
}

var _ interfaces.Dialer = (*Dialer)(nil)

// NewDialer 创建拨号器，reg 可以为 nil
func NewDialer(cfg Config, reg *metrics.Registry) *Dialer {
	return &Dialer{cfg: cfg, metrics: reg}
}

// Dial 实现 interfaces.Dialer
//
// 拨号与 yamux 建流共享 DialTimeout。
func (d *Dialer) Dial(ctx context.Context, storeID types.StoreID, addr types.Address) (interfaces.Conn, error) {
	if d.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.DialTimeout)
		defer cancel()
	}

	nd := &net.Dialer{KeepAlive: d.cfg.KeepAlivePeriod}
	raw, err := nd.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return nil, fmt.Errorf("dial store %s at %s: %w", storeID, addr, err)
	}
	if tcpConn, ok := raw.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(d.cfg.NoDelay)
	}

	// yamux 建流不接受 ctx，用截止时间约束握手
	if deadline, ok := ctx.Deadline(); ok {
		_ = raw.SetDeadline(deadline)
	}
	sess, err := yamux.Client(raw, d.cfg.yamuxConfig())
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("yamux client %s: %w", addr, err)
	}
	stream, err := sess.OpenStream()
	if err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("open stream %s: %w", addr, err)
	}
	_ = raw.SetDeadline(time.Time{})

	logger.Debug("出站连接已建立", "storeID", storeID, "addr", addr, "local", raw.LocalAddr())

	return &conn{
		storeID: storeID,
		addr:    addr,
		sess:    sess,
		stream:  stream,
		enc:     frameEncoder{compress: d.cfg.EnableCompression, threshold: d.cfg.CompressThreshold},
		timeout: d.cfg.WriteTimeout,
		metrics: d.metrics,
	}, nil
}

// ============================================================================
//                              conn
// ============================================================================

// conn 一条出站连接（单发送流）
type conn struct {
	storeID types.StoreID
	addr    types.Address
	sess    *yamux.Session
	stream  *yamux.Stream
	enc     frameEncoder
	timeout time.Duration
	metrics *metrics.Registry

	mu     sync.Mutex
	closed bool
}

var _ interfaces.Conn = (*conn)(nil)

// SendBatch 实现 interfaces.Conn
//
// 写超时取 WriteTimeout 与 ctx 截止时间中较早者。
func (c *conn) SendBatch(ctx context.Context, msgs []*types.RaftMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}

	frame, compressed := c.enc.encode(msgs)

	var deadline time.Time
	if c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := c.stream.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if _, err := c.stream.Write(frame); err != nil {
		return fmt.Errorf("write frame to store %s: %w", c.storeID, err)
	}

	c.metrics.RecordFrameSent(len(frame), compressed)
	return nil
}

// Close 实现 interfaces.Conn
func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	_ = c.stream.Close()
	return c.sess.Close()
}
