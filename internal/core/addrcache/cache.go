package addrcache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/dep2p/go-raftnet/internal/core/metrics"
	"github.com/dep2p/go-raftnet/pkg/interfaces"
	"github.com/dep2p/go-raftnet/pkg/lib/log"
	"github.com/dep2p/go-raftnet/pkg/types"
)

var logger = log.Logger("core/addrcache")

// entry 缓存条目
type entry struct {
	addr  types.Address
	gen   uint64
	valid bool
}

// resolved 一次查询的结果及其代数
type resolved struct {
	addr types.Address
	gen  uint64
}

// Cache 地址解析缓存
type Cache struct {
	resolver interfaces.Resolver
	timeout  time.Duration
	metrics  *metrics.Registry

	// writeMu 串行化条目写入与代数变更，Resolver 调用期间不持有
	writeMu sync.Mutex
	entries *lru.Cache[types.StoreID, entry]
	// gens 每个 Store 的地址代数，每次 Invalidate 加一
	gens    map[types.StoreID]uint64
	flights singleflight.Group
}

// New 创建地址缓存
//
// reg 可以为 nil。
func New(resolver interfaces.Resolver, cfg Config, reg *metrics.Registry) (*Cache, error) {
	if resolver == nil {
		return nil, errors.New("addrcache: resolver is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	entries, err := lru.New[types.StoreID, entry](cfg.MaxEntries)
	if err != nil {
		return nil, err
	}
	return &Cache{
		resolver: resolver,
		timeout:  cfg.ResolveTimeout,
		metrics:  reg,
		entries:  entries,
		gens:     make(map[types.StoreID]uint64),
	}, nil
}

// Resolve 返回 StoreID 的地址
//
// 有效缓存直接返回；否则加入（或发起）该 StoreID 唯一的进行中查询。
// 失败返回 *ResolveError。ctx 只控制本调用方等待多久。
func (c *Cache) Resolve(ctx context.Context, storeID types.StoreID) (types.Address, error) {
	addr, _, err := c.ResolveGen(ctx, storeID)
	return addr, err
}

// ResolveGen 同 Resolve，另外返回地址所属的代数
//
// 代数是查询发起时该 Store 的 Invalidate 次数。
// 代数小于当前值的结果来自失效之前，不会写入缓存。
func (c *Cache) ResolveGen(ctx context.Context, storeID types.StoreID) (types.Address, uint64, error) {
	if e, ok := c.lookup(storeID); ok {
		c.metrics.RecordLookup(true)
		return e.addr, e.gen, nil
	}
	c.metrics.RecordLookup(false)

	ch := c.flights.DoChan(flightKey(storeID), func() (interface{}, error) {
		// 等待期间可能已有上一次查询写入
		c.writeMu.Lock()
		e, ok := c.lookup(storeID)
		gen := c.gens[storeID]
		c.writeMu.Unlock()
		if ok {
			return resolved{addr: e.addr, gen: e.gen}, nil
		}

		addr, err := c.query(context.WithoutCancel(ctx), storeID, gen)
		if err != nil {
			return nil, err
		}
		return resolved{addr: addr, gen: gen}, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", 0, &ResolveError{StoreID: storeID, Err: res.Err}
		}
		r := res.Val.(resolved)
		return r.addr, r.gen, nil
	case <-ctx.Done():
		return "", 0, &ResolveError{StoreID: storeID, Err: ctx.Err()}
	}
}

// query 调用 Resolver，代数未变时写入缓存
func (c *Cache) query(parent context.Context, storeID types.StoreID, gen uint64) (types.Address, error) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	start := time.Now()
	addr, err := c.resolver.Resolve(ctx, storeID)
	if err == nil {
		err = addr.Validate()
	}
	c.metrics.RecordResolve(time.Since(start), err)
	if err != nil {
		logger.Debug("地址解析失败", "storeID", storeID, "error", err)
		return "", err
	}

	c.writeMu.Lock()
	current := c.gens[storeID] == gen
	if current {
		c.entries.Add(storeID, entry{addr: addr, gen: gen, valid: true})
	}
	n := c.entries.Len()
	c.writeMu.Unlock()

	if !current {
		logger.Debug("解析期间地址已失效，结果不缓存", "storeID", storeID, "addr", addr)
		return addr, nil
	}
	c.metrics.SetCacheEntries(n)
	logger.Debug("地址已解析", "storeID", storeID, "addr", addr, "took", time.Since(start))
	return addr, nil
}

// lookup 返回有效的缓存条目
func (c *Cache) lookup(storeID types.StoreID) (entry, bool) {
	e, ok := c.entries.Get(storeID)
	if !ok || !e.valid {
		return entry{}, false
	}
	return e, true
}

// Invalidate 将条目标记为失效，返回新的代数
//
// 条目保留（Peek 仍可见旧地址），下一次 Resolve 会重新查询。
// 尚未结束的旧查询不再被新调用方复用，其结果也不会写入缓存。
func (c *Cache) Invalidate(storeID types.StoreID) uint64 {
	c.writeMu.Lock()
	c.gens[storeID]++
	gen := c.gens[storeID]
	e, ok := c.entries.Peek(storeID)
	if ok && e.valid {
		e.valid = false
		c.entries.Add(storeID, e)
	}
	c.writeMu.Unlock()

	c.flights.Forget(flightKey(storeID))
	if ok {
		c.metrics.RecordInvalidate()
		logger.Debug("地址缓存已失效", "storeID", storeID, "addr", e.addr, "gen", gen)
	}
	return gen
}

// Generation 返回 Store 当前的地址代数
func (c *Cache) Generation(storeID types.StoreID) uint64 {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.gens[storeID]
}

// Peek 查看条目而不触发解析或改变 LRU 顺序
func (c *Cache) Peek(storeID types.StoreID) (addr types.Address, valid bool, ok bool) {
	e, ok := c.entries.Peek(storeID)
	if !ok {
		return "", false, false
	}
	return e.addr, e.valid, true
}

// Len 返回条目数（含失效条目）
func (c *Cache) Len() int {
	return c.entries.Len()
}

func flightKey(storeID types.StoreID) string {
	return strconv.FormatUint(uint64(storeID), 10)
}
