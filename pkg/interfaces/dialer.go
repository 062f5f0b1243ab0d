package interfaces

import (
	"context"

	"github.com/dep2p/go-raftnet/pkg/types"
)

// Dialer 建立到某个 Store 的出站连接
type Dialer interface {
	Dial(ctx context.Context, storeID types.StoreID, addr types.Address) (Conn, error)
}

// Conn 一条出站连接
//
// SendBatch 将一批消息作为一次传输写出，失败后连接不可再用。
type Conn interface {
	SendBatch(ctx context.Context, msgs []*types.RaftMessage) error
	Close() error
}
