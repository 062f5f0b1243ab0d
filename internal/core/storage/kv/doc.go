// Package kv 提供带前缀隔离的 KV 存储抽象层
//
// 每个组件使用不同的前缀隔离数据：
//
//	directory := kv.New(eng, []byte("s/a/"))
//	directory.PutJSON([]byte("7"), record) // 实际键: s/a/7
package kv
