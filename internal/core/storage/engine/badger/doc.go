// Package badger 提供基于 BadgerDB 的存储引擎实现
//
// # 使用示例
//
//	db, err := badger.New(engine.DefaultConfig("/data/raftnet.db"))
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Put([]byte("key"), []byte("value")); err != nil {
//	    return err
//	}
package badger
