package metrics

import (
	"time"

	"github.com/dep2p/go-raftnet/pkg/types"
)

// Lookup 结果标签
const (
	LookupHit  = "hit"
	LookupMiss = "miss"
)

// RecordLookup 记录一次缓存查询
func (r *Registry) RecordLookup(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.CacheLookupsTotal.WithLabelValues(LookupHit).Inc()
	} else {
		r.CacheLookupsTotal.WithLabelValues(LookupMiss).Inc()
	}
}

// RecordResolve 记录一次解析器调用
func (r *Registry) RecordResolve(duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.ResolverCallsTotal.Inc()
	r.ResolveDuration.Observe(duration.Seconds())
	if err != nil {
		r.ResolveFailuresTotal.Inc()
	}
}

// RecordInvalidate 记录一次缓存失效
func (r *Registry) RecordInvalidate() {
	if r == nil {
		return
	}
	r.CacheInvalidationTotal.Inc()
}

// SetCacheEntries 设置缓存条目数
func (r *Registry) SetCacheEntries(n int) {
	if r == nil {
		return
	}
	r.CacheEntries.Set(float64(n))
}

// RecordConnCreated 记录新建连接
func (r *Registry) RecordConnCreated() {
	if r == nil {
		return
	}
	r.ConnectionsCreatedTotal.Inc()
	r.Connections.Inc()
}

// RecordConnRemoved 记录连接移出注册表
func (r *Registry) RecordConnRemoved(reaped bool) {
	if r == nil {
		return
	}
	r.Connections.Dec()
	if reaped {
		r.ConnectionsReapedTotal.Inc()
	}
}

// RecordConnBroken 记录连接断开
func (r *Registry) RecordConnBroken() {
	if r == nil {
		return
	}
	r.ConnectionsBrokenTotal.Inc()
}

// RecordEnqueue 记录一条消息入队
func (r *Registry) RecordEnqueue(t types.MessageType) {
	if r == nil {
		return
	}
	r.MessagesEnqueuedTotal.WithLabelValues(t.String()).Inc()
}

// RecordSendError 记录 Send 失败
func (r *Registry) RecordSendError(kind string) {
	if r == nil {
		return
	}
	r.SendErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordRetry 记录一次重试
func (r *Registry) RecordRetry() {
	if r == nil {
		return
	}
	r.SendRetriesTotal.Inc()
}

// RecordBatch 记录一个成功发出的批次
func (r *Registry) RecordBatch(size int) {
	if r == nil {
		return
	}
	r.MessagesSentTotal.Add(float64(size))
	r.BatchSize.Observe(float64(size))
}

// RecordFlushFailure 记录单个连接 flush 失败及丢失的消息数
func (r *Registry) RecordFlushFailure(dropped int) {
	if r == nil {
		return
	}
	r.FlushFailuresTotal.Inc()
	r.MessagesDroppedTotal.Add(float64(dropped))
}

// RecordFlush 记录一次完整 Flush 的耗时
func (r *Registry) RecordFlush(duration time.Duration) {
	if r == nil {
		return
	}
	r.FlushDuration.Observe(duration.Seconds())
}

// RecordFrameSent 记录写出的帧
func (r *Registry) RecordFrameSent(bytes int, compressed bool) {
	if r == nil {
		return
	}
	r.BytesSentTotal.Add(float64(bytes))
	if compressed {
		r.CompressedFrames.Inc()
	}
}

// RecordFrameReceived 记录读入的帧
func (r *Registry) RecordFrameReceived(bytes int) {
	if r == nil {
		return
	}
	r.BytesReceivedTotal.Add(float64(bytes))
	r.BatchesReceivedTotal.Inc()
}
