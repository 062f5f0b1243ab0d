// Package resolver 提供 StoreID 到网络地址的解析实现
//
// 包含以下几种解析器：
//   - Static: 由配置 "id@host:port" 构建的静态表，可在运行时增删
//   - Directory: 基于 BadgerDB 的持久化 Store 地址目录
//   - Chain: 依次查询多个解析器，返回第一个已知结果
//   - WithTimeout: 为每次查询加上超时
//
// 解析器本身不做缓存，缓存由 addrcache 负责。
//
// # Fx 模块
//
// Module() 按统一配置组装出最终的 interfaces.Resolver：
//
//	自定义解析器（可选） → Static → Directory（可选）
package resolver
