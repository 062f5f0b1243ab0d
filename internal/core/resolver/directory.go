package resolver

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dep2p/go-raftnet/internal/core/storage/engine"
	"github.com/dep2p/go-raftnet/internal/core/storage/kv"
	"github.com/dep2p/go-raftnet/pkg/interfaces"
	"github.com/dep2p/go-raftnet/pkg/types"
)

// directoryPrefix Store 地址目录的键前缀
var directoryPrefix = []byte("s/a/")

// storeRecord 目录中持久化的 Store 记录
type storeRecord struct {
	Addr      types.Address `json:"addr"`
	Tombstone bool          `json:"tombstone,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Directory 持久化 Store 地址目录
//
// 记录以 JSON 存放在 BadgerDB 中，键为 "s/a/" + 大端序 StoreID。
// 已下线的 Store 保留墓碑记录，解析时返回 ErrStoreTombstone。
type Directory struct {
	store *kv.Store
	now   func() time.Time
}

var _ interfaces.Resolver = (*Directory)(nil)

// NewDirectory 创建地址目录
func NewDirectory(eng engine.Engine) (*Directory, error) {
	if eng == nil {
		return nil, ErrNoStorage
	}
	return &Directory{
		store: kv.New(eng, directoryPrefix),
		now:   time.Now,
	}, nil
}

func storeKey(storeID types.StoreID) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(storeID))
	return key[:]
}

// Resolve 实现 interfaces.Resolver
func (d *Directory) Resolve(ctx context.Context, storeID types.StoreID) (types.Address, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var rec storeRecord
	if err := d.store.GetJSON(storeKey(storeID), &rec); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrStoreNotFound, storeID)
		}
		return "", fmt.Errorf("resolver: read store %s: %w", storeID, err)
	}
	if rec.Tombstone {
		return "", fmt.Errorf("%w: %s", ErrStoreTombstone, storeID)
	}
	return rec.Addr, nil
}

// Put 写入或更新 Store 地址（同时清除墓碑）
func (d *Directory) Put(storeID types.StoreID, addr types.Address) error {
	if !storeID.IsValid() {
		return types.ErrInvalidStoreID
	}
	if err := addr.Validate(); err != nil {
		return err
	}
	return d.store.PutJSON(storeKey(storeID), storeRecord{
		Addr:      addr,
		UpdatedAt: d.now(),
	})
}

// Tombstone 将 Store 标记为已下线，保留最后已知地址
func (d *Directory) Tombstone(storeID types.StoreID) error {
	var rec storeRecord
	if err := d.store.GetJSON(storeKey(storeID), &rec); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrStoreNotFound, storeID)
		}
		return err
	}
	rec.Tombstone = true
	rec.UpdatedAt = d.now()
	return d.store.PutJSON(storeKey(storeID), rec)
}

// Delete 删除 Store 记录
func (d *Directory) Delete(storeID types.StoreID) error {
	return d.store.Delete(storeKey(storeID))
}

// List 返回所有未下线 Store 的地址
func (d *Directory) List() (map[types.StoreID]types.Address, error) {
	out := make(map[types.StoreID]types.Address)
	var scanErr error
	err := d.store.PrefixScan(nil, func(key, value []byte) bool {
		if len(key) != 8 {
			return true
		}
		rec, err := decodeRecord(value)
		if err != nil {
			scanErr = err
			return false
		}
		if !rec.Tombstone {
			out[types.StoreID(binary.BigEndian.Uint64(key))] = rec.Addr
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return out, nil
}

func decodeRecord(value []byte) (storeRecord, error) {
	var rec storeRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", engine.ErrCorrupted, err)
	}
	return rec, nil
}
