package types

import "errors"

var (
	// ErrInvalidStoreID 无效的 StoreID
	ErrInvalidStoreID = errors.New("invalid store id")

	// ErrInvalidAddress 无效的地址
	ErrInvalidAddress = errors.New("invalid address")

	// ErrMalformedMessage 消息编码损坏
	ErrMalformedMessage = errors.New("malformed raft message")
)
