package raftnet

import (
	"context"
	"errors"

	"go.uber.org/multierr"

	"github.com/dep2p/go-raftnet/internal/core/connmgr"
	"github.com/dep2p/go-raftnet/internal/core/raftclient"
	"github.com/dep2p/go-raftnet/pkg/interfaces"
	"github.com/dep2p/go-raftnet/pkg/lib/log"
	"github.com/dep2p/go-raftnet/pkg/types"
)

var transportLogger = log.Logger("raftnet/transport")

// Transport Router 使用的发送门面
//
// Transport 是值类型，内部只持有共享的发送客户端句柄。
// Clone 得到的副本与原值共享连接、地址缓存和待发缓冲区，可交给不同的 goroutine 使用。
type Transport struct {
	client *raftclient.Client
}

var _ interfaces.RaftSink = Transport{}

// NewTransport 用已有的发送客户端创建 Transport
func NewTransport(client *raftclient.Client) Transport {
	return Transport{client: client}
}

// Clone 返回共享同一发送客户端的副本
func (t Transport) Clone() Transport {
	return Transport{client: t.client}
}

// Send 将消息交给发送客户端
//
// 返回的错误均为 *RouterError，满足 errors.Is(err, ErrTransport)。
func (t Transport) Send(msg *types.RaftMessage) error {
	return t.SendContext(context.Background(), msg)
}

// SendContext 带 context 的 Send，ctx 约束地址解析的等待时间
func (t Transport) SendContext(ctx context.Context, msg *types.RaftMessage) error {
	var to types.StoreID
	if msg != nil {
		to = msg.To
	}
	if t.client == nil {
		return &RouterError{StoreID: to, Err: ErrNoTransport}
	}
	if err := t.client.Send(ctx, msg); err != nil {
		return &RouterError{StoreID: to, Err: err}
	}
	return nil
}

// Flush 发出所有缓冲的消息
//
// 失败的 Store 已通过 UnreachableReporter 上报，这里只记录日志。
// 整体受 FlushTimeout 约束。
func (t Transport) Flush() {
	if t.client == nil {
		return
	}
	ctx := context.Background()
	if timeout := t.client.Config().FlushTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := t.client.Flush(ctx)
	if err == nil {
		return
	}
	for _, e := range multierr.Errors(err) {
		var fe *connmgr.FlushError
		if errors.As(e, &fe) {
			transportLogger.Debug("批次发送失败", "storeID", fe.StoreID, "addr", fe.Addr, "dropped", fe.Dropped, "error", fe.Err)
			continue
		}
		transportLogger.Debug("flush 失败", "error", e)
	}
}

// NeedFlush 报告是否有未发出的消息，不做任何 I/O
func (t Transport) NeedFlush() bool {
	if t.client == nil {
		return false
	}
	return t.client.NeedFlush()
}

// Stats 返回发送客户端状态快照
func (t Transport) Stats() raftclient.Stats {
	if t.client == nil {
		return raftclient.Stats{}
	}
	return t.client.Stats()
}
