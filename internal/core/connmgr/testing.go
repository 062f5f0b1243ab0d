package connmgr

import (
	"context"
	"errors"
	"sync"

	"github.com/dep2p/go-raftnet/pkg/interfaces"
	"github.com/dep2p/go-raftnet/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

// errMockConnClosed 连接已关闭
var errMockConnClosed = errors.New("mock: connection closed")

// MockDialer 内存拨号器，记录拨号与发送的批次
//
// 可以按 Store 注入拨号失败或发送失败。
type MockDialer struct {
	// BeforeSend 每次 SendBatch 写入前调用（可为 nil）
	BeforeSend func(storeID types.StoreID)

	mu      sync.Mutex
	dials   map[types.StoreID][]types.Address
	dialErr map[types.StoreID]error
	sendErr map[types.StoreID]error
	batches map[types.StoreID][][]*types.RaftMessage
	conns   []*MockConn
}

var _ interfaces.Dialer = (*MockDialer)(nil)

// NewMockDialer 创建 MockDialer
func NewMockDialer() *MockDialer {
	return &MockDialer{
		dials:   make(map[types.StoreID][]types.Address),
		dialErr: make(map[types.StoreID]error),
		sendErr: make(map[types.StoreID]error),
		batches: make(map[types.StoreID][][]*types.RaftMessage),
	}
}

// FailDial 让到 storeID 的拨号返回 err
func (d *MockDialer) FailDial(storeID types.StoreID, err error) {
	d.mu.Lock()
	d.dialErr[storeID] = err
	d.mu.Unlock()
}

// FailSend 让到 storeID 的发送返回 err
func (d *MockDialer) FailSend(storeID types.StoreID, err error) {
	d.mu.Lock()
	d.sendErr[storeID] = err
	d.mu.Unlock()
}

// Heal 清除 storeID 的故障注入
func (d *MockDialer) Heal(storeID types.StoreID) {
	d.mu.Lock()
	delete(d.dialErr, storeID)
	delete(d.sendErr, storeID)
	d.mu.Unlock()
}

// Dial 实现 interfaces.Dialer
func (d *MockDialer) Dial(ctx context.Context, storeID types.StoreID, addr types.Address) (interfaces.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials[storeID] = append(d.dials[storeID], addr)
	if err := d.dialErr[storeID]; err != nil {
		return nil, err
	}
	c := &MockConn{dialer: d, storeID: storeID, addr: addr}
	d.conns = append(d.conns, c)
	return c, nil
}

// DialCount 返回到 storeID 的拨号次数
func (d *MockDialer) DialCount(storeID types.StoreID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials[storeID])
}

// DialAddrs 返回到 storeID 的拨号地址序列
func (d *MockDialer) DialAddrs(storeID types.StoreID) []types.Address {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]types.Address(nil), d.dials[storeID]...)
}

// Batches 返回 storeID 成功收到的批次
func (d *MockDialer) Batches(storeID types.StoreID) [][]*types.RaftMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]*types.RaftMessage(nil), d.batches[storeID]...)
}

// Sent 返回 storeID 成功收到的全部消息（按发送顺序）
func (d *MockDialer) Sent(storeID types.StoreID) []*types.RaftMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*types.RaftMessage
	for _, b := range d.batches[storeID] {
		out = append(out, b...)
	}
	return out
}

// Conns 返回所有拨出的连接
func (d *MockDialer) Conns() []*MockConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*MockConn(nil), d.conns...)
}

// MockConn MockDialer 拨出的连接
type MockConn struct {
	dialer  *MockDialer
	storeID types.StoreID
	addr    types.Address

	mu     sync.Mutex
	closed bool
}

var _ interfaces.Conn = (*MockConn)(nil)

// SendBatch 实现 interfaces.Conn
func (c *MockConn) SendBatch(ctx context.Context, msgs []*types.RaftMessage) error {
	if hook := c.dialer.BeforeSend; hook != nil {
		hook(c.storeID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return errMockConnClosed
	}

	d := c.dialer
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.sendErr[c.storeID]; err != nil {
		return err
	}
	d.batches[c.storeID] = append(d.batches[c.storeID], append([]*types.RaftMessage(nil), msgs...))
	return nil
}

// Close 实现 interfaces.Conn
func (c *MockConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// Closed 连接是否已关闭
func (c *MockConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Addr 返回拨号地址
func (c *MockConn) Addr() types.Address {
	return c.addr
}
