package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dep2p/go-raftnet/pkg/interfaces"
	"github.com/dep2p/go-raftnet/pkg/types"
)

// chain 依次查询的解析器链
type chain []interfaces.Resolver

// Chain 组合多个解析器
//
// 按顺序查询，第一个不返回 ErrStoreNotFound 的结果（成功或其他错误）即为最终结果。
// nil 解析器被忽略。
func Chain(resolvers ...interfaces.Resolver) interfaces.Resolver {
	c := make(chain, 0, len(resolvers))
	for _, r := range resolvers {
		if r != nil {
			c = append(c, r)
		}
	}
	if len(c) == 1 {
		return c[0]
	}
	return c
}

// Resolve 实现 interfaces.Resolver
func (c chain) Resolve(ctx context.Context, storeID types.StoreID) (types.Address, error) {
	for _, r := range c {
		addr, err := r.Resolve(ctx, storeID)
		if err == nil {
			return addr, nil
		}
		if !errors.Is(err, ErrStoreNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrStoreNotFound, storeID)
}

// ============================================================================
//                              超时
// ============================================================================

type timeoutResolver struct {
	inner   interfaces.Resolver
	timeout time.Duration
}

// WithTimeout 为每次解析加上超时
//
// 即使内部解析器不检查 ctx，调用方也会在超时后返回 ErrResolveTimeout；
// 此时内部查询在后台结束，结果被丢弃。timeout <= 0 时原样返回 r。
func WithTimeout(r interfaces.Resolver, timeout time.Duration) interfaces.Resolver {
	if timeout <= 0 {
		return r
	}
	return &timeoutResolver{inner: r, timeout: timeout}
}

type resolveResult struct {
	addr types.Address
	err  error
}

// Resolve 实现 interfaces.Resolver
func (t *timeoutResolver) Resolve(ctx context.Context, storeID types.StoreID) (types.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan resolveResult, 1)
	go func() {
		addr, err := t.inner.Resolve(ctx, storeID)
		done <- resolveResult{addr: addr, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s after %s: %v", ErrResolveTimeout, storeID, t.timeout, res.err)
		}
		return res.addr, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s after %s", ErrResolveTimeout, storeID, t.timeout)
		}
		return "", ctx.Err()
	}
}
