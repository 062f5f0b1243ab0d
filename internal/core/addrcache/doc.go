// Package addrcache 提供 StoreID → 地址的解析缓存
//
// 缓存位于发送路径与外部 Resolver 之间：
//   - 有效条目直接返回，不访问 Resolver
//   - 同一 StoreID 同时最多一个 Resolver 查询（singleflight），并发调用方共享结果
//   - 查询失败不缓存，下次调用重新查询
//   - Invalidate 只把条目标记为失效，下次 Resolve 重新查询
//
// 查询在独立的超时 context 中进行，某个调用方取消等待不会让共享同一次查询的
// 其他调用方失败。容量由 LRU 限制，被淘汰的条目只会导致之后重新解析。
//
// 不同 StoreID 之间互不阻塞，Resolver 调用期间不持有任何全局锁。
package addrcache
