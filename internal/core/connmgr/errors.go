package connmgr

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-raftnet/pkg/types"
)

var (
	// ErrConnectionBroken 连接已断开，不能再入队
	ErrConnectionBroken = errors.New("connmgr: connection broken")

	// ErrWrongStore 消息目标与连接的 Store 不一致
	ErrWrongStore = errors.New("connmgr: message addressed to another store")

	// ErrBufferFull 待发送缓冲区已满
	ErrBufferFull = errors.New("connmgr: pending buffer full")

	// ErrRegistryClosed 注册表已关闭
	ErrRegistryClosed = errors.New("connmgr: registry closed")
)

// FlushError 单个连接 flush 失败
//
// Dropped 为随失败丢失的消息数（本批次加上失败期间入队的消息）。
// errors.Is(err, ErrConnectionBroken) 恒成立。
type FlushError struct {
	StoreID types.StoreID
	Addr    types.Address
	Dropped int
	Err     error
}

// Error 实现 error 接口
func (e *FlushError) Error() string {
	return fmt.Sprintf("flush store %s (%s): %d messages dropped: %v", e.StoreID, e.Addr, e.Dropped, e.Err)
}

// Unwrap 返回底层错误
func (e *FlushError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrConnectionBroken) 成立
func (e *FlushError) Is(target error) bool {
	return target == ErrConnectionBroken
}
