package storage

import "github.com/dep2p/go-raftnet/internal/core/storage/engine"

// 重新导出常用的引擎错误，便于使用方判断
var (
	// ErrNotFound 键不存在
	ErrNotFound = engine.ErrNotFound

	// ErrClosed 引擎已关闭
	ErrClosed = engine.ErrClosed
)
