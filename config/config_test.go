package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig 测试创建默认配置
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())

	t.Log("✅ NewConfig 测试通过")
}

// TestTransportConfig 测试传输配置
func TestTransportConfig(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		cfg := DefaultTransportConfig()
		assert.Equal(t, 5*time.Second, cfg.DialTimeout.Duration())
		assert.True(t, cfg.NoDelay)
		assert.True(t, cfg.EnableCompression)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("InvalidListenAddr", func(t *testing.T) {
		cfg := DefaultTransportConfig()
		cfg.ListenAddr = "no-port"
		assert.Error(t, cfg.Validate())
	})

	t.Run("SmallYamuxWindow", func(t *testing.T) {
		cfg := DefaultTransportConfig()
		cfg.Yamux.MaxStreamWindowSize = 1024
		assert.Error(t, cfg.Validate())
	})

	t.Run("ZeroDialTimeout", func(t *testing.T) {
		cfg := DefaultTransportConfig()
		cfg.DialTimeout = 0
		assert.Error(t, cfg.Validate())
	})
}

// TestRaftClientConfig 测试客户端配置
func TestRaftClientConfig(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		cfg := DefaultRaftClientConfig()
		assert.Equal(t, 16, cfg.FlushConcurrency)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("ZeroConcurrency", func(t *testing.T) {
		cfg := DefaultRaftClientConfig()
		cfg.FlushConcurrency = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("IdleWithoutReap", func(t *testing.T) {
		cfg := DefaultRaftClientConfig()
		cfg.ReapInterval = 0
		assert.Error(t, cfg.Validate())

		cfg.IdleTimeout = 0
		assert.NoError(t, cfg.Validate())
	})
}

// TestStorageConfig 测试存储配置
func TestStorageConfig(t *testing.T) {
	cfg := DefaultStorageConfig()
	assert.Equal(t, filepath.Join("./data", "raftnet.db"), cfg.DBPath())

	cfg.DataDir = ""
	assert.Error(t, cfg.Validate())

	cfg.InMemory = true
	assert.NoError(t, cfg.Validate())
}

// TestMetricsConfig 测试指标配置
func TestMetricsConfig(t *testing.T) {
	cfg := DefaultMetricsConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Namespace = "bad-name"
	assert.Error(t, cfg.Validate())

	cfg.Enabled = false
	assert.NoError(t, cfg.Validate())
}

// TestLogConfig 测试日志配置
func TestLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Level = "loud"
	assert.Error(t, cfg.Validate())

	cfg = DefaultLogConfig()
	cfg.Format = "xml"
	assert.Error(t, cfg.Validate())
}

// TestFromJSON 测试 JSON 加载
func TestFromJSON(t *testing.T) {
	data := []byte(`{
		"transport": {"listen_addr": "127.0.0.1:20160", "dial_timeout": "2s"},
		"resolver": {"stores": ["1@10.0.0.1:20160"], "resolve_timeout": 1000000000},
		"raft_client": {"flush_concurrency": 4}
	}`)

	cfg, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:20160", cfg.Transport.ListenAddr)
	assert.Equal(t, 2*time.Second, cfg.Transport.DialTimeout.Duration())
	assert.Equal(t, time.Second, cfg.Resolver.ResolveTimeout.Duration())
	assert.Equal(t, []string{"1@10.0.0.1:20160"}, cfg.Resolver.StoreSpecs)
	assert.Equal(t, 4, cfg.RaftClient.FlushConcurrency)

	// 未出现的字段保持默认值
	assert.Equal(t, DefaultRaftClientConfig().MaxPendingMessages, cfg.RaftClient.MaxPendingMessages)
	assert.NoError(t, cfg.Validate())
}

// TestFromJSON_InvalidDuration 测试无效时间字符串
func TestFromJSON_InvalidDuration(t *testing.T) {
	_, err := FromJSON([]byte(`{"transport": {"dial_timeout": "soon"}}`))
	assert.Error(t, err)
}

// TestLoadFile 测试配置文件加载与往返
func TestLoadFile(t *testing.T) {
	cfg := NewConfig()
	cfg.Resolver.StoreSpecs = []string{"7@10.0.0.7:20160"}
	data, err := cfg.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"dial_timeout": "5s"`)

	path := filepath.Join(t.TempDir(), "raftnet.json")
	require.NoError(t, os.WriteFile(path, data, 0600))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Resolver.StoreSpecs, loaded.Resolver.StoreSpecs)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// TestValidateAndFix 测试自动修复
func TestValidateAndFix(t *testing.T) {
	cfg := NewConfig()
	cfg.Storage.DataDir = ""
	cfg.Metrics.Namespace = ""

	fixed, err := ValidateAndFix(cfg)
	require.NoError(t, err)
	assert.True(t, fixed.Storage.InMemory)
	assert.Equal(t, "raftnet", fixed.Metrics.Namespace)

	assert.Error(t, ValidateAll(nil))
}

// TestClone 测试深拷贝
func TestClone(t *testing.T) {
	cfg := NewConfig()
	cfg.Resolver.StoreSpecs = []string{"1@a:1"}

	clone := cfg.Clone()
	clone.Resolver.StoreSpecs[0] = "2@b:2"
	assert.Equal(t, "1@a:1", cfg.Resolver.StoreSpecs[0])
}

// TestDuration_JSON 测试时长的两种写法
func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.NoError(t, json.Unmarshal([]byte(`2000000`), &d))
	assert.Equal(t, 2*time.Millisecond, d.Duration())

	assert.Error(t, json.Unmarshal([]byte(`true`), &d))
	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))

	out, err := json.Marshal(Duration(1500 * time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(out))
}
