package raftnet

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-raftnet/pkg/types"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 节点生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 节点未启动
	ErrNotStarted = errors.New("node not started")

	// ErrAlreadyStarted 节点已启动
	ErrAlreadyStarted = errors.New("node already started")

	// ErrNodeClosed 节点已关闭
	ErrNodeClosed = errors.New("node closed")

	// ────────────────────────────────────────────────────────────────────────
	// 发送错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrTransport Transport 发送失败
	//
	// Transport.Send 返回的所有错误都满足 errors.Is(err, ErrTransport)。
	ErrTransport = errors.New("raft transport error")

	// ErrNoTransport Transport 未绑定发送客户端
	ErrNoTransport = errors.New("transport not initialized")
)

// RouterError 返回给 Router 的发送错误
//
// Err 保留底层原因（*raftclient.SendError 等），可继续用 errors.Is/As 判断。
type RouterError struct {
	StoreID types.StoreID
	Err     error
}

// Error 实现 error
func (e *RouterError) Error() string {
	return fmt.Sprintf("raft transport: store %d: %v", e.StoreID, e.Err)
}

// Unwrap 返回底层错误
func (e *RouterError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrTransport) 成立
func (e *RouterError) Is(target error) bool {
	return target == ErrTransport
}
