package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-raftnet/config"
	"github.com/dep2p/go-raftnet/pkg/types"
)

func TestNewRegistry_Isolated(t *testing.T) {
	r1 := NewRegistry("")
	r2 := NewRegistry("")

	r1.RecordLookup(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(r1.CacheLookupsTotal.WithLabelValues(LookupHit)))
	assert.Equal(t, 0.0, testutil.ToFloat64(r2.CacheLookupsTotal.WithLabelValues(LookupHit)))
}

func TestRegistry_Record(t *testing.T) {
	r := NewRegistry("test")

	r.RecordLookup(false)
	r.RecordResolve(time.Millisecond, nil)
	r.RecordResolve(time.Millisecond, errors.New("boom"))
	r.RecordInvalidate()
	r.SetCacheEntries(3)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CacheLookupsTotal.WithLabelValues(LookupMiss)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.ResolverCallsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ResolveFailuresTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CacheInvalidationTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.CacheEntries))

	r.RecordConnCreated()
	r.RecordConnCreated()
	r.RecordConnRemoved(true)
	r.RecordConnBroken()
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Connections))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.ConnectionsCreatedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ConnectionsReapedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ConnectionsBrokenTotal))

	r.RecordEnqueue(types.MsgAppend)
	r.RecordBatch(4)
	r.RecordFlushFailure(2)
	r.RecordSendError("resolve")
	r.RecordRetry()
	assert.Equal(t, 1.0, testutil.ToFloat64(r.MessagesEnqueuedTotal.WithLabelValues("append")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.MessagesSentTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.MessagesDroppedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SendErrorsTotal.WithLabelValues("resolve")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SendRetriesTotal))

	r.RecordFrameSent(100, true)
	r.RecordFrameReceived(50)
	assert.Equal(t, 100.0, testutil.ToFloat64(r.BytesSentTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CompressedFrames))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.BatchesReceivedTotal))
}

func TestRegistry_Namespace(t *testing.T) {
	r := NewRegistry("node_a")
	r.RecordRetry()

	expected := `
# HELP node_a_send_retries_total Sends retried after hitting a broken connection
# TYPE node_a_send_retries_total counter
node_a_send_retries_total 1
`
	require.NoError(t, testutil.GatherAndCompare(r.Gatherer(), strings.NewReader(expected), "node_a_send_retries_total"))
}

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.RecordLookup(true)
		r.RecordResolve(time.Second, nil)
		r.RecordInvalidate()
		r.SetCacheEntries(1)
		r.RecordConnCreated()
		r.RecordConnRemoved(false)
		r.RecordConnBroken()
		r.RecordEnqueue(types.MsgVote)
		r.RecordSendError("unreachable")
		r.RecordRetry()
		r.RecordBatch(1)
		r.RecordFlushFailure(1)
		r.RecordFlush(time.Second)
		r.RecordFrameSent(1, false)
		r.RecordFrameReceived(1)
	})
}

func TestModule(t *testing.T) {
	var reg *Registry
	app := fxtest.New(t,
		fx.Supply(config.NewConfig()),
		Module(),
		fx.Populate(&reg),
	)
	defer app.RequireStart().RequireStop()
	require.NotNil(t, reg)
}

func TestModule_Disabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Metrics.Enabled = false

	var reg *Registry
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module(),
		fx.Populate(&reg),
	)
	defer app.RequireStart().RequireStop()
	assert.Nil(t, reg)
}
