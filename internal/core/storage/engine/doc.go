// Package engine 定义存储引擎接口、配置与错误
//
// 所有实现必须保证线程安全。
package engine
