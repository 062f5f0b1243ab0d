// Package raftnet 为存储节点提供出站共识消息传输
//
// Router 通过 Transport 投递消息：Send 只把消息放入目标 Store 的连接缓冲区，
// Flush 把所有缓冲的批次并发写出，NeedFlush 报告是否还有未发出的消息。
// Store 地址按需解析并缓存，连接断开后自动重新解析。
//
// 快速开始：
//
//	node, err := raftnet.New(ctx,
//	    raftnet.WithStoreSpecs("1@10.0.0.1:20160", "2@10.0.0.2:20160"),
//	    raftnet.WithListenAddr("0.0.0.0:20160"),
//	    raftnet.WithBatchHandler(handler),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := node.Start(ctx); err != nil {
//	    return err
//	}
//	defer node.Close()
//
//	trans := node.Transport()
//	_ = trans.Send(&types.RaftMessage{RegionID: 1, From: 1, To: 2, Type: types.MsgHeartbeat})
//	if trans.NeedFlush() {
//	    trans.Flush()
//	}
//
// 组件：
//   - internal/core/addrcache: Store 地址缓存（单飞解析）
//   - internal/core/connmgr: 每个 Store 一条连接及其待发缓冲区
//   - internal/core/raftclient: 发送客户端（重试、并发 flush、空闲回收）
//   - internal/core/resolver: 静态地址表与 BadgerDB 持久化目录
//   - internal/core/transport/tcp: TCP + yamux 批量帧传输
package raftnet

// ════════════════════════════════════════════════════════════════════════════
//                              版本信息
// ════════════════════════════════════════════════════════════════════════════

// Version 当前版本
const Version = "v0.1.0"

// BuildInfo 构建信息（通过 ldflags 注入）
var (
	// GitCommit Git 提交哈希
	GitCommit string

	// BuildDate 构建日期
	BuildDate string
)

// VersionInfo 返回完整版本信息字符串
func VersionInfo() string {
	info := "raftnet " + Version
	if GitCommit != "" {
		info += " (" + GitCommit[:min(8, len(GitCommit))] + ")"
	}
	if BuildDate != "" {
		info += " built " + BuildDate
	}
	return info
}
