package connmgr

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/dep2p/go-raftnet/internal/core/metrics"
	"github.com/dep2p/go-raftnet/pkg/interfaces"
	"github.com/dep2p/go-raftnet/pkg/types"
)

// PeerConn 到单个 Store 的出站连接及其待发送缓冲区
type PeerConn struct {
	storeID    types.StoreID
	addr       types.Address
	id         string
	createdAt  time.Time
	maxPending int

	dialer  interfaces.Dialer
	clock   clock.Clock
	metrics *metrics.Registry

	// onBroken 因失败转为 Broken 时调用，持有 mu
	onBroken func(*PeerConn)

	// flushMu 串行化 Flush，拨号与写出期间持有
	flushMu sync.Mutex

	// mu 保护以下字段，不在 I/O 期间持有
	mu         sync.Mutex
	state      State
	buf        []*types.RaftMessage
	conn       interfaces.Conn
	lastActive time.Time

	// pending 缓冲区非空，供无锁扫描
	pending atomic.Bool
}

func newPeerConn(storeID types.StoreID, addr types.Address, dialer interfaces.Dialer, cfg Config, clk clock.Clock, reg *metrics.Registry) *PeerConn {
	now := clk.Now()
	return &PeerConn{
		storeID:    storeID,
		addr:       addr,
		id:         uuid.NewString(),
		createdAt:  now,
		maxPending: cfg.MaxPendingMessages,
		dialer:     dialer,
		clock:      clk,
		metrics:    reg,
		state:      StateConnecting,
		lastActive: now,
	}
}

// StoreID 返回目标 Store
func (c *PeerConn) StoreID() types.StoreID { return c.storeID }

// Addr 返回创建时解析得到的地址
func (c *PeerConn) Addr() types.Address { return c.addr }

// ID 返回连接标识
func (c *PeerConn) ID() string { return c.id }

// CreatedAt 返回创建时间
func (c *PeerConn) CreatedAt() time.Time { return c.createdAt }

// State 返回当前状态
func (c *PeerConn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsBroken 检查连接是否已断开
func (c *PeerConn) IsBroken() bool {
	return c.State() == StateBroken
}

// HasPending 是否有未 flush 的消息（原子读，不加锁）
func (c *PeerConn) HasPending() bool {
	return c.pending.Load()
}

// Pending 返回未 flush 的消息数
func (c *PeerConn) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

// LastActive 返回最近一次入队或成功发送的时间
func (c *PeerConn) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Enqueue 追加一条消息到待发送缓冲区
//
// 不做任何 I/O。连接已断开返回 ErrConnectionBroken，
// 缓冲区已满返回 ErrBufferFull。
func (c *PeerConn) Enqueue(msg *types.RaftMessage) error {
	if msg.To != c.storeID {
		return fmt.Errorf("%w: to=%s conn=%s", ErrWrongStore, msg.To, c.storeID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateBroken {
		return ErrConnectionBroken
	}
	if len(c.buf) >= c.maxPending {
		return fmt.Errorf("%w: store %s has %d pending", ErrBufferFull, c.storeID, len(c.buf))
	}
	c.buf = append(c.buf, msg)
	c.pending.Store(true)
	c.lastActive = c.clock.Now()
	return nil
}

// Flush 将当前缓冲区作为一个批次发出
//
// 首次 Flush 时拨号。失败后连接进入 Broken，返回 *FlushError，
// 其中 Dropped 包含本批次与失败期间新入队的消息。
// 成功时返回发出的消息数；缓冲区为空时不做任何事。
func (c *PeerConn) Flush(ctx context.Context) (int, error) {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	batch := c.buf
	c.buf = nil
	c.pending.Store(false)
	state := c.state
	conn := c.conn
	c.mu.Unlock()

	if len(batch) == 0 {
		return 0, nil
	}
	if state == StateBroken {
		// 入队后连接被标记断开
		return 0, c.fail(batch, ErrConnectionBroken)
	}

	if conn == nil {
		var err error
		conn, err = c.dialer.Dial(ctx, c.storeID, c.addr)
		if err != nil {
			return 0, c.fail(batch, fmt.Errorf("dial: %w", err))
		}

		c.mu.Lock()
		if c.state == StateBroken {
			c.mu.Unlock()
			_ = conn.Close()
			return 0, c.fail(batch, ErrConnectionBroken)
		}
		c.conn = conn
		c.state = StateOpen
		c.mu.Unlock()
	}

	if err := conn.SendBatch(ctx, batch); err != nil {
		return 0, c.fail(batch, fmt.Errorf("send batch: %w", err))
	}

	c.mu.Lock()
	c.lastActive = c.clock.Now()
	c.mu.Unlock()

	c.metrics.RecordBatch(len(batch))
	return len(batch), nil
}

// fail 将连接置为断开并清空缓冲区，返回丢失统计
func (c *PeerConn) fail(batch []*types.RaftMessage, cause error) error {
	c.mu.Lock()
	leftover := len(c.buf)
	c.buf = nil
	c.pending.Store(false)
	wasBroken := c.breakLocked()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if !wasBroken {
		c.metrics.RecordConnBroken()
	}
	return &FlushError{
		StoreID: c.storeID,
		Addr:    c.addr,
		Dropped: len(batch) + leftover,
		Err:     cause,
	}
}

// MarkBroken 将连接标记为断开
//
// 缓冲区保留，下一次 Flush 会以 *FlushError 报告这些消息。
func (c *PeerConn) MarkBroken() {
	c.mu.Lock()
	wasBroken := c.breakLocked()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if !wasBroken {
		c.metrics.RecordConnBroken()
	}
}

// breakLocked 转为 Broken，返回之前是否已断开
//
// 首次断开时先调用 onBroken，其他 goroutine 看到 Broken 之前回调已完成。
func (c *PeerConn) breakLocked() bool {
	if c.state == StateBroken {
		return true
	}
	if c.onBroken != nil {
		c.onBroken(c)
	}
	c.state = StateBroken
	return false
}

// retireIfIdle 缓冲区为空且已断开或空闲超时时将连接置为 Broken
//
// 判断与状态切换在同一把锁内完成，之后的 Enqueue 返回 ErrConnectionBroken。
// 正在 flush 的连接不回收。
func (c *PeerConn) retireIfIdle(now time.Time, idleTimeout time.Duration) bool {
	if !c.flushMu.TryLock() {
		return false
	}
	defer c.flushMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.buf) > 0 {
		return false
	}
	idle := idleTimeout > 0 && now.Sub(c.lastActive) >= idleTimeout
	if c.state != StateBroken && !idle {
		return false
	}
	c.state = StateBroken
	return true
}

// Close 关闭连接并丢弃缓冲区，返回丢弃的消息数
func (c *PeerConn) Close() (int, error) {
	c.mu.Lock()
	dropped := len(c.buf)
	c.buf = nil
	c.pending.Store(false)
	c.state = StateBroken
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		return dropped, conn.Close()
	}
	return dropped, nil
}

// String 返回连接描述
func (c *PeerConn) String() string {
	return fmt.Sprintf("PeerConn{store=%s addr=%s id=%s state=%s}", c.storeID, c.addr, c.id[:8], c.State())
}
