package raftnet

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-raftnet/config"
	"github.com/dep2p/go-raftnet/internal/core/connmgr"
	"github.com/dep2p/go-raftnet/internal/core/resolver"
	"github.com/dep2p/go-raftnet/pkg/interfaces"
	"github.com/dep2p/go-raftnet/pkg/types"
)

func newTestNode(t *testing.T, opts ...Option) *Node {
	t.Helper()

	base := []Option{WithInMemory(), WithLogLevel("error")}
	node, err := New(context.Background(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = node.Close() })
	return node
}

// TestNode_Lifecycle 测试启动与关闭
func TestNode_Lifecycle(t *testing.T) {
	ctx := context.Background()
	dialer := connmgr.NewMockDialer()
	node := newTestNode(t,
		WithStoreSpecs("7@10.0.0.7:20160"),
		WithDialer(dialer),
	)
	assert.Equal(t, StateIdle, node.State())

	require.NoError(t, node.Start(ctx))
	assert.Equal(t, StateRunning, node.State())
	assert.ErrorIs(t, node.Start(ctx), ErrAlreadyStarted)

	trans := node.Transport()
	require.NoError(t, trans.Send(heartbeat(1, 7)))
	assert.True(t, trans.NeedFlush())
	trans.Flush()
	assert.False(t, trans.NeedFlush())
	assert.Len(t, dialer.Sent(7), 1)

	require.NoError(t, node.Close())
	assert.Equal(t, StateClosed, node.State())
	assert.NoError(t, node.Close(), "重复关闭应无错误")
	assert.ErrorIs(t, node.Start(ctx), ErrNodeClosed)

	err := trans.Send(heartbeat(1, 7))
	assert.True(t, errors.Is(err, ErrTransport), "关闭后发送应失败")
}

// TestNode_CloseWithoutStart 测试未启动直接关闭
func TestNode_CloseWithoutStart(t *testing.T) {
	node, err := New(context.Background(), WithInMemory(), WithLogLevel("error"))
	require.NoError(t, err)

	assert.NoError(t, node.Close())
	assert.Equal(t, StateClosed, node.State())
}

// TestNode_InvalidOptions 测试无效选项
func TestNode_InvalidOptions(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, WithStoreSpecs("not-a-spec"))
	assert.Error(t, err)

	_, err = New(ctx, WithConfig(nil))
	assert.Error(t, err)

	_, err = New(ctx, WithFlushConcurrency(0))
	assert.Error(t, err)

	_, err = New(ctx, WithInMemory(), WithListenAddr("bad addr"))
	assert.Error(t, err, "无效监听地址应在构建时失败")

	_, err = New(ctx, WithConfigFile("/nonexistent/raftnet.json"))
	assert.Error(t, err)
}

// TestNode_WithConfig 测试使用统一配置
func TestNode_WithConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Storage.InMemory = true
	cfg.Resolver.EnableDirectory = false
	cfg.Resolver.StoreSpecs = []string{"2@10.0.0.2:20160"}
	cfg.Metrics.Enabled = false
	cfg.Log.Level = "error"

	node, err := New(context.Background(), WithConfig(cfg), WithDialer(connmgr.NewMockDialer()))
	require.NoError(t, err)
	defer node.Close()

	assert.Nil(t, node.Resolver(), "禁用目录时不提供目录")
	assert.Nil(t, node.Metrics(), "禁用指标时不提供注册表")
	assert.Equal(t, 1, node.Static().Len())

	// 修改原配置不影响节点
	cfg.Resolver.StoreSpecs[0] = "3@10.0.0.3:20160"
	assert.Equal(t, []string{"2@10.0.0.2:20160"}, node.Config().Resolver.StoreSpecs)
}

// TestNode_DirectoryResolve 测试运行时写入目录的地址可被解析
func TestNode_DirectoryResolve(t *testing.T) {
	ctx := context.Background()
	dialer := connmgr.NewMockDialer()
	node := newTestNode(t, WithDialer(dialer))
	require.NoError(t, node.Start(ctx))

	dir := node.Resolver()
	require.NotNil(t, dir)
	require.NoError(t, dir.Put(8, "10.0.0.8:20160"))

	trans := node.Transport()
	require.NoError(t, trans.Send(heartbeat(1, 8)))
	trans.Flush()
	assert.Equal(t, []types.Address{"10.0.0.8:20160"}, dialer.DialAddrs(8))

	// 墓碑 Store 无法解析
	require.NoError(t, dir.Tombstone(11))
	err := trans.Send(heartbeat(1, 11))
	require.Error(t, err)
	assert.ErrorIs(t, err, resolver.ErrStoreTombstone)
}

// TestNode_CustomResolver 测试自定义解析器优先
func TestNode_CustomResolver(t *testing.T) {
	ctx := context.Background()
	dialer := connmgr.NewMockDialer()
	custom := resolver.Func(func(_ context.Context, id types.StoreID) (types.Address, error) {
		if id == 4 {
			return "10.9.9.4:20160", nil
		}
		return "", resolver.ErrStoreNotFound
	})
	node := newTestNode(t,
		WithResolver(custom),
		WithStoreSpecs("4@10.0.0.4:20160", "5@10.0.0.5:20160"),
		WithDirectory(false),
		WithDialer(dialer),
	)
	require.NoError(t, node.Start(ctx))

	trans := node.Transport()
	require.NoError(t, trans.Send(heartbeat(1, 4)))
	require.NoError(t, trans.Send(heartbeat(1, 5)))
	trans.Flush()

	assert.Equal(t, []types.Address{"10.9.9.4:20160"}, dialer.DialAddrs(4), "自定义解析器优先")
	assert.Equal(t, []types.Address{"10.0.0.5:20160"}, dialer.DialAddrs(5), "未命中时回落到静态表")

	stats := node.Stats()
	assert.Equal(t, 2, stats.Connections)
	assert.Equal(t, 2, stats.CachedAddresses)
	assert.Zero(t, stats.PendingStores)
}

// TestNode_UnreachableReporter 测试不可达通知
func TestNode_UnreachableReporter(t *testing.T) {
	ctx := context.Background()
	dialer := connmgr.NewMockDialer()
	dialer.FailDial(3, errors.New("connection refused"))
	reporter := newRecordingReporter()

	node := newTestNode(t,
		WithStoreSpecs("3@10.0.0.3:20160"),
		WithDirectory(false),
		WithDialer(dialer),
		WithUnreachableReporter(reporter),
	)
	require.NoError(t, node.Start(ctx))

	trans := node.Transport()
	require.NoError(t, trans.Send(heartbeat(1, 3)))
	trans.Flush()

	dropped, ok := reporter.dropped(3)
	require.True(t, ok)
	assert.Equal(t, 1, dropped)
	assert.False(t, trans.NeedFlush())
}

// batchCollector 收集入站消息
type batchCollector struct {
	ch chan *types.RaftMessage
}

func (c *batchCollector) HandleRaftBatch(_ net.Addr, msgs []*types.RaftMessage) {
	for _, m := range msgs {
		c.ch <- m
	}
}

// TestNode_EndToEnd 测试两个节点之间通过 TCP 回环收发
func TestNode_EndToEnd(t *testing.T) {
	ctx := context.Background()

	collector := &batchCollector{ch: make(chan *types.RaftMessage, 16)}
	var handler interfaces.BatchHandler = collector
	server := newTestNode(t,
		WithListenAddr("127.0.0.1:0"),
		WithBatchHandler(handler),
		WithDirectory(false),
	)
	require.NoError(t, server.Start(ctx))
	addr := server.ListenAddr()
	require.NotNil(t, addr)

	client := newTestNode(t,
		WithStoreSpecs("2@"+addr.String()),
		WithDirectory(false),
	)
	require.NoError(t, client.Start(ctx))
	assert.Nil(t, client.ListenAddr(), "未配置监听地址时不监听")

	trans := client.Transport()
	want := []*types.RaftMessage{
		{RegionID: 10, From: 1, To: 2, Type: types.MsgAppend, Term: 3, Payload: []byte("entry-1")},
		{RegionID: 10, From: 1, To: 2, Type: types.MsgAppend, Term: 3, Payload: []byte("entry-2")},
		{RegionID: 11, From: 1, To: 2, Type: types.MsgVote, Term: 4, Payload: []byte("vote")},
	}
	for _, m := range want {
		require.NoError(t, trans.Send(m))
	}
	trans.Flush()
	assert.False(t, trans.NeedFlush())

	for i, w := range want {
		select {
		case got := <-collector.ch:
			assert.Equal(t, *w, *got, "第 %d 条消息应按序到达", i)
		case <-time.After(5 * time.Second):
			t.Fatalf("等待第 %d 条消息超时", i)
		}
	}
}

// TestStartFunc 测试快捷启动
func TestStartFunc(t *testing.T) {
	node, err := Start(context.Background(), WithInMemory(), WithLogLevel("error"), WithDirectory(false))
	require.NoError(t, err)
	defer node.Close()

	assert.Equal(t, StateRunning, node.State())
	assert.NotNil(t, node.Metrics())
}

// TestVersionInfo 测试版本信息
func TestVersionInfo(t *testing.T) {
	assert.Contains(t, VersionInfo(), Version)
}
