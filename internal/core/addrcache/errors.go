package addrcache

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-raftnet/pkg/types"
)

// ErrResolve 地址解析失败
var ErrResolve = errors.New("address resolution failed")

// ResolveError 解析失败，携带 StoreID 与底层原因
type ResolveError struct {
	StoreID types.StoreID
	Err     error
}

// Error 实现 error 接口
func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve store %s: %v", e.StoreID, e.Err)
}

// Unwrap 返回底层错误
func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrResolve) 成立
func (e *ResolveError) Is(target error) bool {
	return target == ErrResolve
}
