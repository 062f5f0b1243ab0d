package engine

// Engine 键值存储引擎
type Engine interface {
	// Get 获取指定键的值，不存在返回 ErrNotFound
	Get(key []byte) ([]byte, error)

	// Put 设置键值对
	Put(key, value []byte) error

	// Delete 删除指定键，键不存在不报错
	Delete(key []byte) error

	// Has 检查键是否存在
	Has(key []byte) (bool, error)

	// PrefixScan 按键序遍历指定前缀的键值对，fn 返回 false 时停止
	//
	// 回调中的 key/value 是副本，可以被调用方持有。
	PrefixScan(prefix []byte, fn func(key, value []byte) bool) error

	// Start 启动后台任务（GC 等）
	Start() error

	// Close 关闭引擎
	Close() error
}
