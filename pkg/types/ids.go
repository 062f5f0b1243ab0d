package types

import (
	"fmt"
	"strconv"
)

// ============================================================================
//                              StoreID - Store 标识
// ============================================================================

// StoreID 集群 Store 的逻辑标识
//
// 在 Store 生命周期内保持不变；0 为无效值。
type StoreID uint64

// InvalidStoreID 无效的 StoreID
const InvalidStoreID StoreID = 0

// String 返回十进制字符串
func (id StoreID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IsValid 检查 StoreID 是否有效
func (id StoreID) IsValid() bool {
	return id != InvalidStoreID
}

// ParseStoreID 从十进制字符串解析 StoreID
func ParseStoreID(s string) (StoreID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return InvalidStoreID, fmt.Errorf("%w: %q", ErrInvalidStoreID, s)
	}
	id := StoreID(v)
	if !id.IsValid() {
		return InvalidStoreID, fmt.Errorf("%w: %q", ErrInvalidStoreID, s)
	}
	return id, nil
}
