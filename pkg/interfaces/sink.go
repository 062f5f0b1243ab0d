package interfaces

import (
	"net"

	"github.com/dep2p/go-raftnet/pkg/types"
)

// RaftSink 面向 Router 的发送接口
//
// Send 只入队不发送；Flush 尽力发出所有缓冲的批次，
// 单个 Store 的失败不影响其他 Store；NeedFlush 不做任何 I/O。
type RaftSink interface {
	Send(msg *types.RaftMessage) error
	Flush()
	NeedFlush() bool
}

// UnreachableReporter 接收 Store 不可达的通知
//
// dropped 为随失败一起丢失的消息数。由 Router 决定是否重试。
type UnreachableReporter interface {
	ReportUnreachable(storeID types.StoreID, dropped int)
}

// BatchHandler 处理入站的批量消息
type BatchHandler interface {
	HandleRaftBatch(remote net.Addr, msgs []*types.RaftMessage)
}

// BatchHandlerFunc 函数适配器
type BatchHandlerFunc func(remote net.Addr, msgs []*types.RaftMessage)

// HandleRaftBatch 实现 BatchHandler
func (f BatchHandlerFunc) HandleRaftBatch(remote net.Addr, msgs []*types.RaftMessage) {
	f(remote, msgs)
}
