package raftclient

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-raftnet/internal/core/addrcache"
	"github.com/dep2p/go-raftnet/pkg/types"
)

var (
	// ErrResolve 地址解析失败
	ErrResolve = addrcache.ErrResolve

	// ErrUnreachable Store 不可达（重试后仍无法入队）
	ErrUnreachable = errors.New("store unreachable")

	// ErrInvalidMessage 消息为空或目标无效
	ErrInvalidMessage = errors.New("raftclient: invalid message")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("raftclient: client closed")
)

// ErrorKind Send 失败类别
type ErrorKind int

const (
	// KindResolve 地址解析失败
	KindResolve ErrorKind = iota + 1

	// KindUnreachable 重试后仍无法入队
	KindUnreachable
)

// String 返回类别名称
func (k ErrorKind) String() string {
	switch k {
	case KindResolve:
		return "resolve"
	case KindUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// SendError Send 失败
//
// KindResolve 时 errors.Is(err, ErrResolve) 成立，
// KindUnreachable 时 errors.Is(err, ErrUnreachable) 成立。
type SendError struct {
	StoreID types.StoreID
	Kind    ErrorKind
	Err     error
}

// Error 实现 error 接口
func (e *SendError) Error() string {
	return fmt.Sprintf("send to store %s: %s: %v", e.StoreID, e.Kind, e.Err)
}

// Unwrap 返回底层错误
func (e *SendError) Unwrap() error {
	return e.Err
}

// Is 按类别匹配哨兵错误
func (e *SendError) Is(target error) bool {
	switch e.Kind {
	case KindResolve:
		return target == ErrResolve
	case KindUnreachable:
		return target == ErrUnreachable
	}
	return false
}
