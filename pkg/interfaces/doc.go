// Package interfaces 定义 raftnet 各组件之间的能力接口
//
// 传输核心只依赖这些小接口，不依赖具体实现：
//
//   - Resolver: StoreID → Address 的外部解析（集群元数据）
//   - RaftSink: 面向 Router 的发送接口（Send/Flush/NeedFlush）
//   - Dialer / Conn: 线上传输（连接建立与批量写出）
//   - UnreachableReporter: 向上报告丢失的批次
//   - BatchHandler: 接收端处理入站批次
package interfaces
