// Package storage 提供 raftnet 的持久化存储服务
//
// Storage 模块基于 BadgerDB 实现，目前唯一的使用方是持久化
// Store 地址目录（resolver.Directory）。
//
// # 架构
//
//	┌──────────────────────────────────────┐
//	│        resolver.Directory            │
//	└──────────────────────────────────────┘
//	                  │
//	                  ▼
//	┌──────────────────────────────────────┐
//	│   kv.Store（带前缀隔离的 KV 抽象）   │
//	├──────────────────────────────────────┤
//	│   engine/badger（BadgerDB 实现）     │
//	└──────────────────────────────────────┘
//
// # 键空间设计
//
//	前缀     | 模块       | 说明
//	---------|------------|------------------
//	s/a/     | Directory  | Store 地址记录
//
// # 使用示例
//
//	app := fx.New(
//	    storage.Module(),
//	    // ... 其他模块
//	)
package storage
