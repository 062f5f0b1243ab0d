// Package types 定义 raftnet 的基础类型
//
// 这是整个系统的最底层包，不依赖任何其他 raftnet 内部包。
//
// # 核心类型
//
//   - StoreID: 集群中存储节点的逻辑标识
//   - Address: Store 在某一时刻的网络地址（host:port）
//   - RaftMessage: 一条共识消息，携带目标 StoreID，负载不透明
//
// # 编码
//
// RaftMessage 与批量帧使用 protobuf 线格式编码（protowire），
// 接收端跳过未知字段，便于后续扩展。
package types
