package connmgr

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-raftnet/pkg/types"
)

func msgTo(to types.StoreID, term uint64) *types.RaftMessage {
	return &types.RaftMessage{RegionID: 1, From: 1, To: to, Type: types.MsgAppend, Term: term}
}

func newTestConn(d *MockDialer, storeID types.StoreID) *PeerConn {
	cfg := DefaultConfig()
	cfg.MaxPendingMessages = 8
	return newPeerConn(storeID, "10.0.0.7:20160", d, cfg, clock.NewMock(), nil)
}

func TestPeerConn_EnqueueFlush(t *testing.T) {
	d := NewMockDialer()
	c := newTestConn(d, 7)

	assert.Equal(t, StateConnecting, c.State())
	assert.False(t, c.HasPending())

	require.NoError(t, c.Enqueue(msgTo(7, 1)))
	require.NoError(t, c.Enqueue(msgTo(7, 2)))
	assert.True(t, c.HasPending())
	assert.Equal(t, 2, c.Pending())
	assert.Zero(t, d.DialCount(7), "入队不应拨号")

	n, err := c.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, StateOpen, c.State())
	assert.False(t, c.HasPending())

	batches := d.Batches(7)
	require.Len(t, batches, 1)
	assert.Equal(t, uint64(1), batches[0][0].Term)
	assert.Equal(t, uint64(2), batches[0][1].Term)

	// 空缓冲区 flush 是空操作，复用已有连接
	n, err = c.Flush(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, c.Enqueue(msgTo(7, 3)))
	_, err = c.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, d.DialCount(7))
	assert.Len(t, d.Sent(7), 3)
}

func TestPeerConn_WrongStore(t *testing.T) {
	c := newTestConn(NewMockDialer(), 7)
	assert.ErrorIs(t, c.Enqueue(msgTo(8, 1)), ErrWrongStore)
	assert.False(t, c.HasPending())
}

func TestPeerConn_BufferFull(t *testing.T) {
	c := newTestConn(NewMockDialer(), 7)
	for i := 0; i < 8; i++ {
		require.NoError(t, c.Enqueue(msgTo(7, uint64(i))))
	}
	assert.ErrorIs(t, c.Enqueue(msgTo(7, 9)), ErrBufferFull)
	assert.NotEqual(t, StateBroken, c.State())
}

func TestPeerConn_SendFailure(t *testing.T) {
	d := NewMockDialer()
	boom := errors.New("connection reset")
	d.FailSend(7, boom)
	c := newTestConn(d, 7)

	require.NoError(t, c.Enqueue(msgTo(7, 1)))
	require.NoError(t, c.Enqueue(msgTo(7, 2)))

	n, err := c.Flush(context.Background())
	assert.Zero(t, n)

	var fe *FlushError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, types.StoreID(7), fe.StoreID)
	assert.Equal(t, 2, fe.Dropped)
	assert.ErrorIs(t, err, ErrConnectionBroken)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, StateBroken, c.State())
	assert.False(t, c.HasPending())
	assert.ErrorIs(t, c.Enqueue(msgTo(7, 3)), ErrConnectionBroken)

	// 底层连接已关闭
	conns := d.Conns()
	require.Len(t, conns, 1)
	assert.True(t, conns[0].Closed())
}

func TestPeerConn_DialFailure(t *testing.T) {
	d := NewMockDialer()
	d.FailDial(7, errors.New("connection refused"))
	c := newTestConn(d, 7)

	require.NoError(t, c.Enqueue(msgTo(7, 1)))
	_, err := c.Flush(context.Background())

	var fe *FlushError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Dropped)
	assert.Equal(t, StateBroken, c.State())
}

func TestPeerConn_EnqueueDuringFailedFlush(t *testing.T) {
	d := NewMockDialer()
	d.FailSend(7, errors.New("broken pipe"))
	c := newTestConn(d, 7)

	// 写出前有新消息入队：这些消息也要计入丢失
	d.BeforeSend = func(types.StoreID) {
		require.NoError(t, c.Enqueue(msgTo(7, 100)))
	}

	require.NoError(t, c.Enqueue(msgTo(7, 1)))
	_, err := c.Flush(context.Background())

	var fe *FlushError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 2, fe.Dropped)
	assert.False(t, c.HasPending())
}

func TestPeerConn_MarkBrokenKeepsBuffer(t *testing.T) {
	d := NewMockDialer()
	c := newTestConn(d, 7)
	require.NoError(t, c.Enqueue(msgTo(7, 1)))

	c.MarkBroken()
	assert.True(t, c.HasPending())

	_, err := c.Flush(context.Background())
	var fe *FlushError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Dropped)
	assert.Zero(t, d.DialCount(7))
}

func TestPeerConn_ConcurrentEnqueueOrder(t *testing.T) {
	d := NewMockDialer()
	cfg := DefaultConfig()
	c := newPeerConn(7, "10.0.0.7:20160", d, cfg, clock.New(), nil)

	const writers, perWriter = 4, 200
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				// RegionID 区分写入方，Term 记录写入方内部顺序
				_ = c.Enqueue(&types.RaftMessage{RegionID: uint64(w), To: 7, Term: uint64(i)})
			}
		}(w)
	}

	// 与入队并发地 flush
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_, _ = c.Flush(context.Background())
		}
	}()
	wg.Wait()
	<-done
	_, err := c.Flush(context.Background())
	require.NoError(t, err)

	sent := d.Sent(7)
	require.Len(t, sent, writers*perWriter)
	next := make(map[uint64]uint64)
	for _, m := range sent {
		assert.Equal(t, next[m.RegionID], m.Term, "写入方 %d 的顺序被打乱", m.RegionID)
		next[m.RegionID] = m.Term + 1
	}
}

func TestPeerConn_Close(t *testing.T) {
	d := NewMockDialer()
	c := newTestConn(d, 7)
	require.NoError(t, c.Enqueue(msgTo(7, 1)))
	_, err := c.Flush(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Enqueue(msgTo(7, 2)))

	dropped, err := c.Close()
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, StateBroken, c.State())
	assert.True(t, d.Conns()[0].Closed())
	assert.Contains(t, c.String(), "store=7")
}
