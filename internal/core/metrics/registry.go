package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace 默认指标命名空间
const DefaultNamespace = "raftnet"

// Registry 指标注册表
type Registry struct {
	registry *prometheus.Registry

	// 地址缓存
	CacheLookupsTotal      *prometheus.CounterVec
	ResolverCallsTotal     prometheus.Counter
	ResolveFailuresTotal   prometheus.Counter
	ResolveDuration        prometheus.Histogram
	CacheInvalidationTotal prometheus.Counter
	CacheEntries           prometheus.Gauge

	// 连接
	Connections             prometheus.Gauge
	ConnectionsCreatedTotal prometheus.Counter
	ConnectionsBrokenTotal  prometheus.Counter
	ConnectionsReapedTotal  prometheus.Counter

	// 消息
	MessagesEnqueuedTotal *prometheus.CounterVec
	MessagesSentTotal     prometheus.Counter
	MessagesDroppedTotal  prometheus.Counter
	SendErrorsTotal       *prometheus.CounterVec
	SendRetriesTotal      prometheus.Counter

	// Flush
	FlushDuration      prometheus.Histogram
	FlushFailuresTotal prometheus.Counter
	BatchSize          prometheus.Histogram

	// 传输
	BytesSentTotal       prometheus.Counter
	BytesReceivedTotal   prometheus.Counter
	BatchesReceivedTotal prometheus.Counter
	CompressedFrames     prometheus.Counter
}

// NewRegistry 创建指标注册表
func NewRegistry(namespace string) *Registry {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initCacheMetrics(namespace)
	r.initConnMetrics(namespace)
	r.initMessageMetrics(namespace)
	r.initFlushMetrics(namespace)
	r.initTransportMetrics(namespace)
	return r
}

// Gatherer 返回用于导出的 Gatherer
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Registerer 返回底层 Registerer，便于注册额外的收集器
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

func (r *Registry) initCacheMetrics(ns string) {
	f := promauto.With(r.registry)

	r.CacheLookupsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "addr_cache_lookups_total",
			Help:      "Address cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)
	r.ResolverCallsTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "addr_cache_resolver_calls_total",
		Help:      "Queries issued to the underlying resolver",
	})
	r.ResolveFailuresTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "addr_cache_resolve_failures_total",
		Help:      "Resolver queries that failed",
	})
	r.ResolveDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "addr_cache_resolve_duration_seconds",
		Help:      "Resolver query latency",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
	})
	r.CacheInvalidationTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "addr_cache_invalidations_total",
		Help:      "Cached addresses invalidated after a connection failure",
	})
	r.CacheEntries = f.NewGauge(prometheus.GaugeOpts{
		Namespace: ns,
		Name:      "addr_cache_entries",
		Help:      "Entries held by the address cache",
	})
}

func (r *Registry) initConnMetrics(ns string) {
	f := promauto.With(r.registry)

	r.Connections = f.NewGauge(prometheus.GaugeOpts{
		Namespace: ns,
		Name:      "conn_active",
		Help:      "Peer connections currently registered",
	})
	r.ConnectionsCreatedTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "conn_created_total",
		Help:      "Peer connections created",
	})
	r.ConnectionsBrokenTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "conn_broken_total",
		Help:      "Peer connections marked broken",
	})
	r.ConnectionsReapedTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "conn_reaped_total",
		Help:      "Idle peer connections closed by the reaper",
	})
}

func (r *Registry) initMessageMetrics(ns string) {
	f := promauto.With(r.registry)

	r.MessagesEnqueuedTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "messages_enqueued_total",
			Help:      "Raft messages accepted by Send, by message type",
		},
		[]string{"type"},
	)
	r.MessagesSentTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "messages_sent_total",
		Help:      "Raft messages handed to the wire",
	})
	r.MessagesDroppedTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "messages_dropped_total",
		Help:      "Raft messages lost with a failed flush",
	})
	r.SendErrorsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "send_errors_total",
			Help:      "Send failures by kind",
		},
		[]string{"kind"},
	)
	r.SendRetriesTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "send_retries_total",
		Help:      "Sends retried after hitting a broken connection",
	})
}

func (r *Registry) initFlushMetrics(ns string) {
	f := promauto.With(r.registry)

	r.FlushDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "flush_duration_seconds",
		Help:      "Duration of a full Flush across all peers",
		Buckets:   prometheus.DefBuckets,
	})
	r.FlushFailuresTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "flush_failures_total",
		Help:      "Per-peer flush failures",
	})
	r.BatchSize = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "flush_batch_size",
		Help:      "Messages per transmitted batch",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
}

func (r *Registry) initTransportMetrics(ns string) {
	f := promauto.With(r.registry)

	r.BytesSentTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "transport_bytes_sent_total",
		Help:      "Frame bytes written to peers",
	})
	r.BytesReceivedTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "transport_bytes_received_total",
		Help:      "Frame bytes read from peers",
	})
	r.BatchesReceivedTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "transport_batches_received_total",
		Help:      "Inbound batches delivered to the handler",
	})
	r.CompressedFrames = f.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "transport_compressed_frames_total",
		Help:      "Outbound frames sent snappy-compressed",
	})
}
