package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/lirriel/RBTree/lib/tree"
)

// collectInt64 returns the data points of the named metric keyed by
// the attribute key value (empty if the point lacks the attribute).
func collectInt64(t *testing.T, reader sdkmetric.Reader, name string, key attribute.Key) map[string]int64 {
	t.Helper()
	rm := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &rm))

	res := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			var points []metricdata.DataPoint[int64]
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				points = data.DataPoints
			case metricdata.Gauge[int64]:
				points = data.DataPoints
			default:
				t.Fatalf("unexpected metric data %T", m.Data)
			}
			for _, dp := range points {
				v, _ := dp.Attributes.Value(key)
				res[v.AsString()] += dp.Value
			}
		}
	}
	return res
}

func TestStatsObserver_AscendingRun(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() {
		require.NoError(t, mp.Shutdown(context.Background()))
	}()

	stats := NewStatsObserver[int](
		WithStatsMeterProvider(mp),
		WithStatsTreeName("orders"),
		WithStatsHeight(),
	)
	rbtree := tree.NewRBTree[int](tree.WithRBTreeObserver[int](stats))
	for _, key := range []int{10, 20, 30} {
		require.NoError(t, rbtree.Insert(key))
	}

	events := collectInt64(t, reader, "rbtree.events", "rbtree.event")
	require.Equal(t, map[string]int64{
		"AfterBSTInsert": 3,
		"AfterInsert":    3,
		"RecolorParent":  1,
		"RecolorGrandpa": 1,
		"LeftRotate":     1,
	}, events)
	require.Equal(t, map[string]int64{"orders": 3}, collectInt64(t, reader, "rbtree.size", "rbtree.name"))
	require.Equal(t, map[string]int64{"orders": 2}, collectInt64(t, reader, "rbtree.height", "rbtree.name"))

	require.NoError(t, rbtree.Remove(20))
	require.ErrorIs(t, rbtree.Remove(20), tree.ErrKeyNotFound)
	events = collectInt64(t, reader, "rbtree.events", "rbtree.event")
	require.Equal(t, int64(1), events["AfterBSTRemove"])
	require.Equal(t, int64(1), events["AfterRemove"])
	require.Equal(t, map[string]int64{"orders": 2}, collectInt64(t, reader, "rbtree.size", "rbtree.name"))

	require.NoError(t, stats.Close())
}

func TestStatsObserver_RefreshAfterRelease(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() {
		require.NoError(t, mp.Shutdown(context.Background()))
	}()

	stats := NewStatsObserver[int](WithStatsMeterProvider(mp), WithStatsHeight())
	rbtree := tree.NewRBTree[int](tree.WithRBTreeObserver[int](stats))
	for _, key := range []int{10, 20, 30} {
		require.NoError(t, rbtree.Insert(key))
	}
	rbtree.Release()
	require.Equal(t, int64(0), rbtree.Len())
	// No event on teardown, the gauges still hold the last sample.
	require.Equal(t, map[string]int64{defaultTreeName: 3}, collectInt64(t, reader, "rbtree.size", "rbtree.name"))

	stats.Refresh(rbtree)
	require.Equal(t, map[string]int64{defaultTreeName: 0}, collectInt64(t, reader, "rbtree.size", "rbtree.name"))
	require.Equal(t, map[string]int64{defaultTreeName: 0}, collectInt64(t, reader, "rbtree.height", "rbtree.name"))

	var nilStats *StatsObserver[int]
	nilStats.Refresh(rbtree)
	require.NoError(t, stats.Close())
}

func TestStatsObserver_Defaults(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() {
		require.NoError(t, mp.Shutdown(context.Background()))
	}()

	stats := NewStatsObserver[string](nil, WithStatsMeterProvider(mp))
	rbtree := tree.NewRBTree[string](tree.WithRBTreeObserver[string](stats))
	require.NoError(t, rbtree.Insert("a"))

	require.Equal(t, map[string]int64{defaultTreeName: 1}, collectInt64(t, reader, "rbtree.size", "rbtree.name"))
	require.Empty(t, collectInt64(t, reader, "rbtree.height", "rbtree.name"))

	var nilStats *StatsObserver[string]
	nilStats.OnEvent(rbtree, rbtree.Root(), tree.EventAfterInsert)
	require.NoError(t, nilStats.Close())
}
