package storage

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-raftnet/config"
	"github.com/dep2p/go-raftnet/internal/core/storage/engine"
	"github.com/dep2p/go-raftnet/internal/core/storage/engine/badger"
	"github.com/dep2p/go-raftnet/internal/core/storage/kv"
	"github.com/dep2p/go-raftnet/pkg/lib/log"
)

var logger = log.Logger("core/storage")

// engineIn 打开地址目录存储所需的输入
type engineIn struct {
	fx.In

	Lifecycle  fx.Lifecycle
	UnifiedCfg *config.Config `optional:"true"`
}

// engineOut 地址目录存储对外提供的组件
type engineOut struct {
	fx.Out

	Engine engine.Engine
	Config Config
}

// Module 地址目录的 BadgerDB 存储
//
// 节点启动时开启 GC 等后台任务，节点停止时关闭数据库。
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(provideEngine),
	)
}

func provideEngine(in engineIn) (engineOut, error) {
	cfg := ConfigFromUnified(in.UnifiedCfg)
	if err := cfg.Validate(); err != nil {
		return engineOut{}, err
	}
	eng, err := Open(cfg)
	if err != nil {
		return engineOut{}, err
	}

	in.Lifecycle.Append(fx.StartStopHook(
		func(context.Context) error {
			if err := eng.Start(); err != nil {
				logger.Error("地址目录存储启动失败", "path", cfg.Path, "error", err)
				return err
			}
			return nil
		},
		func(context.Context) error {
			if err := eng.Close(); err != nil {
				logger.Warn("地址目录存储关闭失败", "path", cfg.Path, "error", err)
				return err
			}
			logger.Debug("地址目录存储已关闭", "path", cfg.Path)
			return nil
		},
	))
	return engineOut{Engine: eng, Config: cfg}, nil
}

// Open 打开 BadgerDB，InMemory 时不落盘
func Open(cfg Config) (engine.Engine, error) {
	eng, err := badger.New(cfg.ToEngineConfig())
	if err != nil {
		logger.Error("打开地址目录存储失败", "path", cfg.Path, "inMemory", cfg.InMemory, "error", err)
		return nil, err
	}
	logger.Debug("地址目录存储已打开", "path", cfg.Path, "inMemory", cfg.InMemory)
	return eng, nil
}

// Prefixed 返回只读写 prefix 键空间的视图
func Prefixed(eng engine.Engine, prefix []byte) *kv.Store {
	return kv.New(eng, prefix)
}
