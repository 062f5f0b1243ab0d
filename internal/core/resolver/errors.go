package resolver

import "errors"

var (
	// ErrStoreNotFound 解析器不认识该 Store
	ErrStoreNotFound = errors.New("resolver: store not found")

	// ErrStoreTombstone Store 已下线
	ErrStoreTombstone = errors.New("resolver: store is tombstone")

	// ErrResolveTimeout 解析超时
	ErrResolveTimeout = errors.New("resolver: resolve timeout")

	// ErrInvalidSpec Store 配置格式错误
	ErrInvalidSpec = errors.New("resolver: invalid store spec")

	// ErrDuplicateStore 配置中 StoreID 重复
	ErrDuplicateStore = errors.New("resolver: duplicate store id")

	// ErrNoStorage 目录没有可用的存储引擎
	ErrNoStorage = errors.New("resolver: storage engine required")
)
