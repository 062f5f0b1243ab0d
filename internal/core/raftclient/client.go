package raftclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-raftnet/internal/core/addrcache"
	"github.com/dep2p/go-raftnet/internal/core/connmgr"
	"github.com/dep2p/go-raftnet/internal/core/metrics"
	"github.com/dep2p/go-raftnet/pkg/interfaces"
	"github.com/dep2p/go-raftnet/pkg/lib/log"
	"github.com/dep2p/go-raftnet/pkg/types"
)

var logger = log.Logger("core/raftclient")

// Option 客户端选项
type Option func(*options)

type options struct {
	reporter interfaces.UnreachableReporter
	metrics  *metrics.Registry
	clock    clock.Clock
}

// WithUnreachableReporter 设置不可达上报对象
func WithUnreachableReporter(r interfaces.UnreachableReporter) Option {
	return func(o *options) { o.reporter = r }
}

// WithMetrics 设置指标注册表
func WithMetrics(reg *metrics.Registry) Option {
	return func(o *options) { o.metrics = reg }
}

// WithClock 设置时钟（测试使用 clock.NewMock）
func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clock = clk }
}

// Stats 客户端状态快照
type Stats struct {
	// Connections 登记的连接数
	Connections int

	// PendingStores 有待发送消息的 Store 数
	PendingStores int

	// CachedAddresses 地址缓存条目数
	CachedAddresses int
}

// Client raft 消息发送客户端
type Client struct {
	cfg      Config
	cache    *addrcache.Cache
	registry *connmgr.Registry
	reporter interfaces.UnreachableReporter
	metrics  *metrics.Registry
	clock    clock.Clock

	// failureLog 对 flush 失败的 Warn 日志采样
	failureLog rate.Sometimes

	closed    atomic.Bool
	startOnce sync.Once
	closeOnce sync.Once
	stopCh    chan struct{}
	wg        sync.WaitGroup

	// testHookBeforeEnqueue 在 Acquire 与 Enqueue 之间调用，仅测试使用
	testHookBeforeEnqueue func(*connmgr.PeerConn)
}

// New 创建发送客户端
func New(resolver interfaces.Resolver, dialer interfaces.Dialer, cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = clock.New()
	}

	cache, err := addrcache.New(resolver, cfg.Cache, o.metrics)
	if err != nil {
		return nil, err
	}
	registry, err := connmgr.NewRegistry(dialer, cfg.Conn,
		connmgr.WithClock(o.clock),
		connmgr.WithMetrics(o.metrics),
		connmgr.WithBreakHook(cache.Invalidate),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:        cfg,
		cache:      cache,
		registry:   registry,
		reporter:   o.reporter,
		metrics:    o.metrics,
		clock:      o.clock,
		failureLog: rate.Sometimes{First: 3, Interval: 10 * time.Second},
		stopCh:     make(chan struct{}),
	}, nil
}

// Config 返回客户端配置
func (c *Client) Config() Config {
	return c.cfg
}

// ============================================================================
//                              Send
// ============================================================================

// Send 将消息加入目标 Store 的待发送缓冲区
//
// 地址未缓存时等待解析（受 ctx 与 SendTimeout 约束），不做其他网络 I/O。
func (c *Client) Send(ctx context.Context, msg *types.RaftMessage) error {
	if msg == nil {
		return fmt.Errorf("%w: nil message", ErrInvalidMessage)
	}
	if !msg.To.IsValid() {
		return fmt.Errorf("%w: invalid destination store", ErrInvalidMessage)
	}
	if c.closed.Load() {
		return ErrClientClosed
	}
	if c.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.SendTimeout)
		defer cancel()
	}

	to := msg.To
	addr, gen, err := c.cache.ResolveGen(ctx, to)
	if err != nil {
		return c.sendFailed(to, KindResolve, err)
	}

	err = c.enqueue(to, addr, gen, msg)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrClientClosed) {
		return err
	}
	if !errors.Is(err, connmgr.ErrConnectionBroken) {
		return c.sendFailed(to, KindUnreachable, err)
	}

	// 连接已断开：断开时缓存已失效，重新解析并重试一次
	c.metrics.RecordRetry()
	logger.Debug("连接已断开，重新解析后重试", "storeID", to, "oldAddr", addr, "gen", gen)

	addr, gen, err = c.cache.ResolveGen(ctx, to)
	if err != nil {
		return c.sendFailed(to, KindUnreachable, err)
	}
	if err := c.enqueue(to, addr, gen, msg); err != nil {
		if errors.Is(err, ErrClientClosed) {
			return err
		}
		return c.sendFailed(to, KindUnreachable, err)
	}
	return nil
}

func (c *Client) enqueue(to types.StoreID, addr types.Address, gen uint64, msg *types.RaftMessage) error {
	conn, err := c.registry.Acquire(to, addr, gen)
	if err != nil {
		if errors.Is(err, connmgr.ErrRegistryClosed) {
			return ErrClientClosed
		}
		return err
	}
	if hook := c.testHookBeforeEnqueue; hook != nil {
		hook(conn)
	}
	if err := conn.Enqueue(msg); err != nil {
		return err
	}
	c.metrics.RecordEnqueue(msg.Type)
	return nil
}

func (c *Client) sendFailed(to types.StoreID, kind ErrorKind, err error) error {
	c.metrics.RecordSendError(kind.String())
	return &SendError{StoreID: to, Kind: kind, Err: err}
}

// ============================================================================
//                              Flush
// ============================================================================

// Flush 发出所有缓冲的消息
//
// 每个有待发消息的连接独立并发刷新（上限 FlushConcurrency）。
// 返回所有失败 Store 的 *connmgr.FlushError 合并结果；失败已上报，调用方可只记录。
func (c *Client) Flush(ctx context.Context) error {
	conns := c.registry.Pending()
	if len(conns) == 0 {
		return nil
	}
	start := c.clock.Now()

	var (
		mu   sync.Mutex
		errs error
		g    errgroup.Group
	)
	g.SetLimit(c.cfg.FlushConcurrency)
	for _, pc := range conns {
		pc := pc
		g.Go(func() error {
			if _, err := pc.Flush(ctx); err != nil {
				c.handleFlushFailure(pc, err)
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	c.metrics.RecordFlush(c.clock.Since(start))
	return errs
}

// handleFlushFailure 处理单个 Store 的 flush 失败
func (c *Client) handleFlushFailure(pc *connmgr.PeerConn, err error) {
	storeID := pc.StoreID()
	dropped := 0
	var fe *connmgr.FlushError
	if errors.As(err, &fe) {
		dropped = fe.Dropped
	}

	// 连接断开时地址缓存已经失效，这里只做统计与上报
	c.metrics.RecordFlushFailure(dropped)
	if c.reporter != nil {
		c.reporter.ReportUnreachable(storeID, dropped)
	}

	logger.Debug("flush 失败", "storeID", storeID, "addr", pc.Addr(), "dropped", dropped, "error", err)
	c.failureLog.Do(func() {
		logger.Warn("Store 不可达，消息已丢弃", "storeID", storeID, "addr", pc.Addr(), "dropped", dropped, "error", err)
	})
}

// NeedFlush 是否有未发出的消息（不做 I/O）
func (c *Client) NeedFlush() bool {
	return c.registry.HasPending()
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动后台空闲连接回收
func (c *Client) Start() {
	c.startOnce.Do(func() {
		if c.cfg.ReapInterval <= 0 {
			return
		}
		c.wg.Add(1)
		go c.reapLoop()
	})
}

// reapLoop 周期回收空闲连接
func (c *Client) reapLoop() {
	defer c.wg.Done()

	ticker := c.clock.Ticker(c.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			if n := c.registry.ReapIdle(); n > 0 {
				logger.Debug("空闲连接已回收", "count", n, "remaining", c.registry.Len())
			}
		}
	}
}

// Close 关闭客户端与所有连接
//
// 不会 flush，未发出的消息被丢弃并记录日志。之后 Send 返回 ErrClientClosed。
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.stopCh)
		c.wg.Wait()

		var dropped int
		dropped, err = c.registry.Close()
		if dropped > 0 {
			logger.Warn("关闭时丢弃未发出的消息", "dropped", dropped)
		}
		logger.Debug("发送客户端已关闭")
	})
	return err
}

// Stats 返回状态快照
func (c *Client) Stats() Stats {
	return Stats{
		Connections:     c.registry.Len(),
		PendingStores:   len(c.registry.Pending()),
		CachedAddresses: c.cache.Len(),
	}
}
