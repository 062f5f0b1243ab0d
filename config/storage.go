package config

import (
	"errors"
	"path/filepath"
	"time"
)

// StorageConfig 存储配置
//
// 持久化 Store 地址目录使用 BadgerDB：
//
//	${DataDir}/
//	└── raftnet.db/     # BadgerDB 数据库
type StorageConfig struct {
	// DataDir 数据目录路径
	DataDir string `json:"data_dir"`

	// InMemory 使用内存模式（不落盘，测试与临时节点使用）
	InMemory bool `json:"in_memory"`

	// SyncWrites 是否同步写入
	SyncWrites bool `json:"sync_writes"`

	// GCInterval 值日志垃圾回收间隔，0 表示禁用
	GCInterval Duration `json:"gc_interval"`
}

// DefaultStorageConfig 返回默认的存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir:    "./data",
		GCInterval: Duration(10 * time.Minute),
	}
}

// Validate 验证存储配置的有效性
func (c StorageConfig) Validate() error {
	if !c.InMemory && c.DataDir == "" {
		return errors.New("storage: data_dir cannot be empty")
	}
	if c.GCInterval < 0 {
		return errors.New("storage: gc interval must not be negative")
	}
	return nil
}

// DBPath 返回 BadgerDB 数据库路径
func (c StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "raftnet.db")
}
