package types

import (
	"fmt"
	"net"
)

// Address Store 的网络地址（host:port）
//
// 地址不是永久的，Store 迁移后会变化，因此只在解析缓存中短期持有。
type Address string

// String 返回地址字符串
func (a Address) String() string {
	return string(a)
}

// IsEmpty 检查地址是否为空
func (a Address) IsEmpty() bool {
	return a == ""
}

// Validate 检查地址格式
func (a Address) Validate() error {
	_, port, err := net.SplitHostPort(string(a))
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidAddress, string(a), err)
	}
	if port == "" || port == "0" {
		return fmt.Errorf("%w: %q: missing port", ErrInvalidAddress, string(a))
	}
	return nil
}
