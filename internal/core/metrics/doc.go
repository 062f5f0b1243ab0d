// Package metrics 提供 raftnet 的 Prometheus 指标
//
// Registry 持有独立的 prometheus.Registry，所有指标通过 promauto.With(reg) 注册，
// 多个节点实例（例如测试中）互不干扰。
//
// # 指标分组
//
//   - addr_cache_*: 地址缓存命中、未命中、解析失败与解析耗时
//   - conn_*: 连接创建、断开、空闲回收与当前连接数
//   - messages_*: 入队、发出、丢弃的消息数
//   - flush_*: 批量大小、flush 耗时与失败次数
//   - transport_*: 线上字节数与入站批次
//
// # 禁用
//
// 所有 Record 方法对 nil *Registry 安全，禁用指标时模块提供 nil。
//
// # Fx 模块
//
//	app := fx.New(
//	    metrics.Module(),
//	    fx.Invoke(func(reg *metrics.Registry) {
//	        http.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))
//	    }),
//	)
package metrics
