// Package raftclient 实现 raft 消息的出站发送客户端
//
// Client 组合地址缓存（addrcache）与连接注册表（connmgr）：
//
//	Send ──▶ Cache.ResolveGen ──▶ Registry.Acquire ──▶ PeerConn.Enqueue
//	Flush ──▶ 并发 PeerConn.Flush（每个有待发消息的 Store 一个）
//
// # Send
//
// Send 只入队，不做网络 I/O（地址未缓存时会等待解析）。
// 连接因失败断开时，注册表在断开生效前回调 Cache.Invalidate，
// 因此入队遇到已断开的连接（或地址代数早于断开）时重新解析一次，
// 建立新连接并再入队一次；仍失败则返回 Kind 为 KindUnreachable 的 *SendError。
// 解析失败返回 Kind 为 KindResolve 的 *SendError，且不会创建连接。
//
// # Flush
//
// Flush 并发刷新所有有待发消息的连接，单个 Store 失败不影响其他 Store。
// 失败的 Store：连接已断开、地址缓存已失效，丢失的消息数上报给
// UnreachableReporter，所有失败合并为一个错误返回。
//
// # NeedFlush
//
// 只读取各连接的原子标志，不加连接锁、不做 I/O，可以在热路径上调用。
package raftclient
