// Package connmgr 管理到各 Store 的出站连接
//
// # PeerConn
//
// 每个 PeerConn 对应一个 Store，持有有序的待发送缓冲区。
// Enqueue 只追加，不做 I/O；Flush 取走整个缓冲区，必要时懒拨号，
// 然后以一个批次写出。同一连接的 Flush 串行执行，入队顺序在批次内外均保持。
//
// 状态迁移：
//
//	Connecting ──拨号成功──▶ Open
//	    │                     │
//	    └──────拨号/发送失败───┴──▶ Broken（终态，永不复用）
//
// Flush 失败时，本批次与失败期间新入队的消息全部计为丢失，
// 通过 *FlushError 报告，不会静默丢弃。
//
// # Registry
//
// Registry 保证每个 Store 至多一个未断开的连接；GetOrCreate 遇到已断开的
// 连接时替换它，旧连接若仍有待发消息则留到下一次 Flush 报告。
// WithBreakHook 在连接因失败断开前回调（通常使地址缓存失效），
// Acquire 拒绝地址代数早于最近一次断开的地址。
// ReapIdle 回收长时间空闲且无待发数据的连接，判断与断开在连接锁内原子完成。
//
// # 并发
//
//   - Registry 映射由读写锁保护，查找不阻塞其他 Store
//   - HasPending 为原子读，NeedFlush 扫描不加连接锁、不做 I/O
//   - 拨号与写出在连接锁之外进行，只持有该连接自己的 flush 锁
package connmgr
