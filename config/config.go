// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义，带 DefaultXxxConfig() 与 Validate()
//   - 支持从 JSON 加载和保存配置
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Resolver.StoreSpecs = []string{"1@10.0.0.1:20160", "2@10.0.0.2:20160"}
//	cfg.RaftClient.FlushConcurrency = 32
//
//	// 从 JSON 加载
//	cfg, err := config.FromJSON(data)
package config

// Config 是 raftnet 的完整配置结构
//
// 配置按照功能模块组织：
//   - Transport: 出站连接与帧编码（TCP + yamux）
//   - RaftClient: 发送客户端（批量、并发 flush、空闲回收）
//   - Resolver: Store 地址解析与缓存
//   - Storage: 持久化 Store 地址目录（BadgerDB）
//   - Metrics: Prometheus 指标
//   - Log: 日志
type Config struct {
	// Transport 传输层配置
	Transport TransportConfig `json:"transport"`

	// RaftClient 发送客户端配置
	RaftClient RaftClientConfig `json:"raft_client"`

	// Resolver 地址解析配置
	Resolver ResolverConfig `json:"resolver"`

	// Storage 存储配置
	Storage StorageConfig `json:"storage"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Transport:  DefaultTransportConfig(),
		RaftClient: DefaultRaftClientConfig(),
		Resolver:   DefaultResolverConfig(),
		Storage:    DefaultStorageConfig(),
		Metrics:    DefaultMetricsConfig(),
		Log:        DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置，返回第一个发现的错误。
func (c *Config) Validate() error {
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.RaftClient.Validate(); err != nil {
		return err
	}
	if err := c.Resolver.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}

// Clone 深拷贝配置
func (c *Config) Clone() *Config {
	clone := *c
	clone.Resolver.StoreSpecs = append([]string(nil), c.Resolver.StoreSpecs...)
	return &clone
}
