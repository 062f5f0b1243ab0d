package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dep2p/go-raftnet/pkg/interfaces"
	"github.com/dep2p/go-raftnet/pkg/types"
)

// Func 函数形式的解析器
type Func = interfaces.ResolverFunc

// ParseStoreSpecs 解析 "id@host:port" 形式的 Store 配置
//
// 空白项被忽略；ID 重复或地址非法时返回错误。
func ParseStoreSpecs(specs []string) (map[types.StoreID]types.Address, error) {
	addrs := make(map[types.StoreID]types.Address, len(specs))
	for _, s := range specs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		at := strings.IndexByte(s, '@')
		if at == -1 {
			return nil, fmt.Errorf("%w: %q missing '@'", ErrInvalidSpec, s)
		}
		id, err := types.ParseStoreID(s[:at])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSpec, s, err)
		}
		addr := types.Address(s[at+1:])
		if err := addr.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSpec, s, err)
		}
		if _, exists := addrs[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStore, id)
		}
		addrs[id] = addr
	}
	return addrs, nil
}

// FormatStoreSpecs 按 StoreID 升序输出规范形式的配置
func FormatStoreSpecs(addrs map[types.StoreID]types.Address) []string {
	ids := make([]types.StoreID, 0, len(addrs))
	for id := range addrs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	specs := make([]string, 0, len(ids))
	for _, id := range ids {
		specs = append(specs, fmt.Sprintf("%s@%s", id, addrs[id]))
	}
	return specs
}

// ============================================================================
//                              Static
// ============================================================================

// Static 静态地址表
type Static struct {
	mu    sync.RWMutex
	addrs map[types.StoreID]types.Address
}

var _ interfaces.Resolver = (*Static)(nil)

// NewStatic 创建静态解析器
func NewStatic(addrs map[types.StoreID]types.Address) *Static {
	s := &Static{addrs: make(map[types.StoreID]types.Address, len(addrs))}
	for id, addr := range addrs {
		s.addrs[id] = addr
	}
	return s
}

// NewStaticFromSpecs 从 "id@host:port" 配置创建静态解析器
func NewStaticFromSpecs(specs []string) (*Static, error) {
	addrs, err := ParseStoreSpecs(specs)
	if err != nil {
		return nil, err
	}
	return NewStatic(addrs), nil
}

// Resolve 实现 interfaces.Resolver
func (s *Static) Resolve(_ context.Context, storeID types.StoreID) (types.Address, error) {
	s.mu.RLock()
	addr, ok := s.addrs[storeID]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrStoreNotFound, storeID)
	}
	return addr, nil
}

// Set 设置 Store 地址
func (s *Static) Set(storeID types.StoreID, addr types.Address) error {
	if !storeID.IsValid() {
		return types.ErrInvalidStoreID
	}
	if err := addr.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.addrs[storeID] = addr
	s.mu.Unlock()
	return nil
}

// Remove 删除 Store 地址
func (s *Static) Remove(storeID types.StoreID) {
	s.mu.Lock()
	delete(s.addrs, storeID)
	s.mu.Unlock()
}

// Len 返回表中的 Store 数量
func (s *Static) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.addrs)
}

// Snapshot 返回地址表副本
func (s *Static) Snapshot() map[types.StoreID]types.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[types.StoreID]types.Address, len(s.addrs))
	for id, addr := range s.addrs {
		out[id] = addr
	}
	return out
}
