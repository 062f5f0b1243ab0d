package connmgr

import (
	"errors"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/dep2p/go-raftnet/internal/core/metrics"
	"github.com/dep2p/go-raftnet/pkg/interfaces"
	"github.com/dep2p/go-raftnet/pkg/lib/log"
	"github.com/dep2p/go-raftnet/pkg/types"
)

var logger = log.Logger("core/connmgr")

// Option 注册表选项
type Option func(*Registry)

// WithClock 设置时钟（测试使用 clock.NewMock）
func WithClock(clk clock.Clock) Option {
	return func(r *Registry) {
		if clk != nil {
			r.clock = clk
		}
	}
}

// WithMetrics 设置指标注册表
func WithMetrics(reg *metrics.Registry) Option {
	return func(r *Registry) {
		r.metrics = reg
	}
}

// WithBreakHook 设置连接因失败断开时的回调
//
// fn 在连接状态切换为 Broken 之前、持有连接锁时调用，返回该 Store 新的地址代数。
// 此后 Acquire 拒绝代数更小的地址。fn 不得回调 Registry 或 PeerConn。
func WithBreakHook(fn func(types.StoreID) uint64) Option {
	return func(r *Registry) {
		r.onBroken = fn
	}
}

// Registry StoreID → PeerConn 映射
type Registry struct {
	cfg      Config
	dialer   interfaces.Dialer
	clock    clock.Clock
	metrics  *metrics.Registry
	onBroken func(types.StoreID) uint64

	mu    sync.RWMutex
	conns map[types.StoreID]*PeerConn
	// retired 被替换但仍有待发消息的断开连接，下一次 Flush 报告后回收
	retired []*PeerConn
	closed  bool

	// genMu 保护 minGen，可在持有 PeerConn.mu 时获取
	genMu  sync.Mutex
	minGen map[types.StoreID]uint64
}

// NewRegistry 创建连接注册表
func NewRegistry(dialer interfaces.Dialer, cfg Config, opts ...Option) (*Registry, error) {
	if dialer == nil {
		return nil, errors.New("connmgr: dialer is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Registry{
		cfg:    cfg,
		dialer: dialer,
		clock:  clock.New(),
		conns:  make(map[types.StoreID]*PeerConn),
		minGen: make(map[types.StoreID]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// GetOrCreate 返回 Store 的未断开连接，必要时新建
//
// 已断开的旧连接会被替换。同一 Store 任何时刻至多一个未断开的连接。
// 不检查地址代数，见 Acquire。
func (r *Registry) GetOrCreate(storeID types.StoreID, addr types.Address) (*PeerConn, error) {
	return r.acquire(storeID, addr, 0, false)
}

// Acquire 同 GetOrCreate，但只在 addr 不早于该 Store 最近一次断开时新建连接
//
// gen 是 addr 的地址代数。连接因失败断开后，代数更小的地址视为过期，
// 返回 ErrConnectionBroken，调用方应重新解析。已有的未断开连接照常返回。
func (r *Registry) Acquire(storeID types.StoreID, addr types.Address, gen uint64) (*PeerConn, error) {
	return r.acquire(storeID, addr, gen, true)
}

func (r *Registry) acquire(storeID types.StoreID, addr types.Address, gen uint64, checkGen bool) (*PeerConn, error) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return nil, ErrRegistryClosed
	}
	if c, ok := r.conns[storeID]; ok && !c.IsBroken() {
		r.mu.RUnlock()
		return c, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	old, ok := r.conns[storeID]
	if ok && !old.IsBroken() {
		r.mu.Unlock()
		return old, nil
	}
	if checkGen {
		if floor := r.genFloor(storeID); gen < floor {
			r.mu.Unlock()
			return nil, fmt.Errorf("%w: address %s of store %s predates the last break (gen %d < %d)",
				ErrConnectionBroken, addr, storeID, gen, floor)
		}
	}
	c := r.newConn(storeID, addr)
	r.conns[storeID] = c
	retire := ok && old.HasPending()
	if retire {
		r.retired = append(r.retired, old)
	}
	r.mu.Unlock()

	r.metrics.RecordConnCreated()
	if ok {
		r.metrics.RecordConnRemoved(false)
		if !retire {
			r.closeConn(old, "replaced")
		}
	}
	logger.Debug("创建连接", "storeID", storeID, "addr", addr, "connID", c.ID())
	return c, nil
}

func (r *Registry) newConn(storeID types.StoreID, addr types.Address) *PeerConn {
	c := newPeerConn(storeID, addr, r.dialer, r.cfg, r.clock, r.metrics)
	if r.onBroken != nil {
		c.onBroken = r.connBroken
	}
	return c
}

// connBroken 连接首次因失败断开，持有 c.mu
func (r *Registry) connBroken(c *PeerConn) {
	gen := r.onBroken(c.StoreID())

	r.genMu.Lock()
	if gen > r.minGen[c.StoreID()] {
		r.minGen[c.StoreID()] = gen
	}
	r.genMu.Unlock()
}

func (r *Registry) genFloor(storeID types.StoreID) uint64 {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	return r.minGen[storeID]
}

// Get 返回 Store 当前登记的连接（可能已断开）
func (r *Registry) Get(storeID types.StoreID) (*PeerConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[storeID]
	return c, ok
}

// MarkBroken 将 Store 的连接标记为断开
func (r *Registry) MarkBroken(storeID types.StoreID) {
	if c, ok := r.Get(storeID); ok {
		c.MarkBroken()
	}
}

// Remove 关闭并移除 Store 的连接
func (r *Registry) Remove(storeID types.StoreID) {
	r.mu.Lock()
	c, ok := r.conns[storeID]
	if ok {
		delete(r.conns, storeID)
	}
	r.mu.Unlock()

	if ok {
		r.metrics.RecordConnRemoved(false)
		r.closeConn(c, "removed")
	}
}

// Conns 返回所有连接的快照
func (r *Registry) Conns() []*PeerConn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*PeerConn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// Pending 返回有待发送消息的连接快照
//
// 包含已被替换但缓冲区非空的断开连接，flush 它们会报告丢弃的消息。
func (r *Registry) Pending() []*PeerConn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*PeerConn
	for _, c := range r.retired {
		if c.HasPending() {
			out = append(out, c)
		}
	}
	for _, c := range r.conns {
		if c.HasPending() {
			out = append(out, c)
		}
	}
	return out
}

// HasPending 是否有任一连接持有待发送消息
//
// 只读原子标志，不做 I/O。
func (r *Registry) HasPending() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.retired {
		if c.HasPending() {
			return true
		}
	}
	for _, c := range r.conns {
		if c.HasPending() {
			return true
		}
	}
	return false
}

// Len 返回登记的连接数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// ReapIdle 回收空闲连接，返回回收数量
//
// 回收对象：无待发消息的已断开连接；以及无待发消息、
// 空闲超过 IdleTimeout 的连接（IdleTimeout 为 0 时跳过）。
// 判断在连接自身的锁内完成，与之竞争的 Enqueue 会得到 ErrConnectionBroken。
func (r *Registry) ReapIdle() int {
	now := r.clock.Now()

	r.mu.Lock()
	var reaped []*PeerConn
	for id, c := range r.conns {
		if c.retireIfIdle(now, r.cfg.IdleTimeout) {
			delete(r.conns, id)
			reaped = append(reaped, c)
		}
	}
	var drained []*PeerConn
	kept := r.retired[:0]
	for _, c := range r.retired {
		if c.retireIfIdle(now, 0) {
			drained = append(drained, c)
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(r.retired); i++ {
		r.retired[i] = nil
	}
	r.retired = kept
	r.mu.Unlock()

	for _, c := range reaped {
		r.metrics.RecordConnRemoved(true)
		r.closeConn(c, "idle")
	}
	for _, c := range drained {
		r.closeConn(c, "retired")
	}
	if len(reaped) > 0 {
		logger.Debug("回收空闲连接", "count", len(reaped))
	}
	return len(reaped)
}

// Close 关闭所有连接，之后 GetOrCreate 返回 ErrRegistryClosed
//
// 返回随关闭丢弃的待发送消息总数。
func (r *Registry) Close() (int, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, nil
	}
	r.closed = true
	conns := r.conns
	retired := r.retired
	r.conns = make(map[types.StoreID]*PeerConn)
	r.retired = nil
	r.mu.Unlock()

	var (
		dropped int
		errs    error
	)
	for _, c := range conns {
		n, err := c.Close()
		dropped += n
		errs = multierr.Append(errs, err)
		r.metrics.RecordConnRemoved(false)
	}
	for _, c := range retired {
		n, err := c.Close()
		dropped += n
		errs = multierr.Append(errs, err)
	}
	return dropped, errs
}

func (r *Registry) closeConn(c *PeerConn, reason string) {
	dropped, err := c.Close()
	if err != nil {
		logger.Debug("关闭连接失败", "storeID", c.StoreID(), "reason", reason, "error", err)
	}
	if dropped > 0 {
		logger.Warn("关闭连接时丢弃消息", "storeID", c.StoreID(), "reason", reason, "dropped", dropped)
	}
}
