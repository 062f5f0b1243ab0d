package interfaces

import (
	"context"

	"github.com/dep2p/go-raftnet/pkg/types"
)

// Resolver 将 StoreID 解析为网络地址
//
// 实现可能很慢（访问集群元数据）、可能暂时失败，
// 必须支持对不同 StoreID 的并发调用。
type Resolver interface {
	Resolve(ctx context.Context, storeID types.StoreID) (types.Address, error)
}

// ResolverFunc 函数适配器
type ResolverFunc func(ctx context.Context, storeID types.StoreID) (types.Address, error)

// Resolve 实现 Resolver
func (f ResolverFunc) Resolve(ctx context.Context, storeID types.StoreID) (types.Address, error) {
	return f(ctx, storeID)
}
