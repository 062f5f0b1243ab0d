package addrcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-raftnet/internal/core/metrics"
	"github.com/dep2p/go-raftnet/pkg/types"
)

// countingResolver 记录调用次数的解析器
type countingResolver struct {
	calls atomic.Int32
	gate  chan struct{} // 非 nil 时阻塞直到关闭
	addrs map[types.StoreID]types.Address
	err   error
}

func (r *countingResolver) Resolve(ctx context.Context, id types.StoreID) (types.Address, error) {
	r.calls.Add(1)
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if r.err != nil {
		return "", r.err
	}
	addr, ok := r.addrs[id]
	if !ok {
		return "", errors.New("unknown store")
	}
	return addr, nil
}

func newTestCache(t *testing.T, r *countingResolver, cfg Config) *Cache {
	t.Helper()
	c, err := New(r, cfg, nil)
	require.NoError(t, err)
	return c
}

func TestCache_FirstResolveCallsOnce(t *testing.T) {
	r := &countingResolver{addrs: map[types.StoreID]types.Address{7: "10.0.0.7:20160"}}
	c := newTestCache(t, r, DefaultConfig())

	addr, err := c.Resolve(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, types.Address("10.0.0.7:20160"), addr)
	assert.EqualValues(t, 1, r.calls.Load())

	// 后续命中缓存
	for i := 0; i < 10; i++ {
		_, err := c.Resolve(context.Background(), 7)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, r.calls.Load())
}

func TestCache_ConcurrentSingleFlight(t *testing.T) {
	r := &countingResolver{
		gate:  make(chan struct{}),
		addrs: map[types.StoreID]types.Address{7: "10.0.0.7:20160"},
	}
	c := newTestCache(t, r, DefaultConfig())

	const n = 64
	var wg sync.WaitGroup
	errs := make([]error, n)
	addrs := make([]types.Address, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			addrs[i], errs[i] = c.Resolve(context.Background(), 7)
		}(i)
	}

	// 等第一次调用进入解析器后放行
	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(r.gate)
	wg.Wait()

	assert.EqualValues(t, 1, r.calls.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, types.Address("10.0.0.7:20160"), addrs[i])
	}
}

func TestCache_FailureShared(t *testing.T) {
	boom := errors.New("metadata service down")
	r := &countingResolver{gate: make(chan struct{}), err: boom}
	c := newTestCache(t, r, DefaultConfig())

	const n = 8
	var wg sync.WaitGroup
	var failed atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Resolve(context.Background(), 9)
			var re *ResolveError
			if errors.As(err, &re) && re.StoreID == 9 && errors.Is(err, boom) && errors.Is(err, ErrResolve) {
				failed.Add(1)
			}
		}()
	}
	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(r.gate)
	wg.Wait()

	assert.EqualValues(t, n, failed.Load())
	assert.EqualValues(t, 1, r.calls.Load())

	// 失败不缓存
	_, _, ok := c.Peek(9)
	assert.False(t, ok)
	_, err := c.Resolve(context.Background(), 9)
	assert.Error(t, err)
	assert.EqualValues(t, 2, r.calls.Load())
}

func TestCache_ResolveTimeout(t *testing.T) {
	r := &countingResolver{gate: make(chan struct{})}
	defer close(r.gate)

	cfg := DefaultConfig()
	cfg.ResolveTimeout = 30 * time.Millisecond
	c := newTestCache(t, r, cfg)

	_, err := c.Resolve(context.Background(), 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolve)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, c.Len())
}

func TestCache_CallerCancelDoesNotFailOthers(t *testing.T) {
	r := &countingResolver{
		gate:  make(chan struct{}),
		addrs: map[types.StoreID]types.Address{7: "10.0.0.7:20160"},
	}
	c := newTestCache(t, r, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Resolve(ctx, 7)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)

	secondAddr := make(chan types.Address, 1)
	go func() {
		addr, _ := c.Resolve(context.Background(), 7)
		secondAddr <- addr
	}()

	cancel()
	err := <-firstErr
	assert.ErrorIs(t, err, context.Canceled)

	close(r.gate)
	assert.Equal(t, types.Address("10.0.0.7:20160"), <-secondAddr)
	assert.EqualValues(t, 1, r.calls.Load())
}

func TestCache_Invalidate(t *testing.T) {
	r := &countingResolver{addrs: map[types.StoreID]types.Address{3: "10.0.0.3:20160"}}
	c := newTestCache(t, r, DefaultConfig())
	ctx := context.Background()

	_, err := c.Resolve(ctx, 3)
	require.NoError(t, err)

	c.Invalidate(3)
	addr, valid, ok := c.Peek(3)
	assert.True(t, ok)
	assert.False(t, valid)
	assert.Equal(t, types.Address("10.0.0.3:20160"), addr)

	// Store 迁移到新地址
	r.addrs[3] = "10.0.0.33:20160"
	addr, err = c.Resolve(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, types.Address("10.0.0.33:20160"), addr)
	assert.EqualValues(t, 2, r.calls.Load())

	_, valid, _ = c.Peek(3)
	assert.True(t, valid)

	// 未知条目失效是空操作
	c.Invalidate(42)
	assert.Equal(t, 1, c.Len())
}

func TestCache_InvalidateDuringQuery(t *testing.T) {
	r := &countingResolver{
		gate:  make(chan struct{}),
		addrs: map[types.StoreID]types.Address{3: "10.0.0.3:20160"},
	}
	c := newTestCache(t, r, DefaultConfig())
	ctx := context.Background()

	type result struct {
		addr types.Address
		gen  uint64
		err  error
	}
	first := make(chan result, 1)
	go func() {
		addr, gen, err := c.ResolveGen(ctx, 3)
		first <- result{addr, gen, err}
	}()
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)

	// 查询进行中地址失效
	assert.EqualValues(t, 1, c.Invalidate(3))
	close(r.gate)

	res := <-first
	require.NoError(t, res.err)
	assert.Equal(t, types.Address("10.0.0.3:20160"), res.addr)
	assert.Zero(t, res.gen, "结果属于失效前的代数")

	// 失效前发起的查询不写入缓存
	_, valid, _ := c.Peek(3)
	assert.False(t, valid)

	r.addrs[3] = "10.0.0.33:20160"
	addr, gen, err := c.ResolveGen(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, types.Address("10.0.0.33:20160"), addr)
	assert.EqualValues(t, 1, gen)
	assert.EqualValues(t, 2, r.calls.Load())
	assert.EqualValues(t, 1, c.Generation(3))

	// 新地址已缓存
	_, gen, err = c.ResolveGen(ctx, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 1, gen)
	assert.EqualValues(t, 2, r.calls.Load())
}

func TestCache_InvalidAddressNotCached(t *testing.T) {
	r := &countingResolver{addrs: map[types.StoreID]types.Address{5: "no-port"}}
	c := newTestCache(t, r, DefaultConfig())

	_, err := c.Resolve(context.Background(), 5)
	assert.ErrorIs(t, err, types.ErrInvalidAddress)
	assert.Zero(t, c.Len())
}

func TestCache_Eviction(t *testing.T) {
	r := &countingResolver{addrs: map[types.StoreID]types.Address{
		1: "10.0.0.1:1", 2: "10.0.0.2:1", 3: "10.0.0.3:1",
	}}
	cfg := DefaultConfig()
	cfg.MaxEntries = 2
	c := newTestCache(t, r, cfg)
	ctx := context.Background()

	for _, id := range []types.StoreID{1, 2, 3} {
		_, err := c.Resolve(ctx, id)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
	_, _, ok := c.Peek(1)
	assert.False(t, ok)

	// 被淘汰的条目重新解析
	_, err := c.Resolve(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 4, r.calls.Load())
}

func TestCache_Metrics(t *testing.T) {
	reg := metrics.NewRegistry("")
	r := &countingResolver{addrs: map[types.StoreID]types.Address{7: "10.0.0.7:20160"}}
	c, err := New(r, DefaultConfig(), reg)
	require.NoError(t, err)

	ctx := context.Background()
	_, _ = c.Resolve(ctx, 7)
	_, _ = c.Resolve(ctx, 7)
	c.Invalidate(7)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CacheLookupsTotal.WithLabelValues(metrics.LookupMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CacheLookupsTotal.WithLabelValues(metrics.LookupHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.ResolverCallsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CacheInvalidationTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CacheEntries))
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(nil, DefaultConfig(), nil)
	assert.Error(t, err)

	_, err = New(&countingResolver{}, Config{}, nil)
	assert.Error(t, err)
}
