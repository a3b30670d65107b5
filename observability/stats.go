package observability

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/lirriel/RBTree/lib/infra"
	"github.com/lirriel/RBTree/lib/tree"
)

const (
	RBTreeStatsName = "rbtree"
	defaultTreeName = "default"
)

var _ tree.Observer[int] = (*StatsObserver[int])(nil)

// StatsObserver counts the tree events and samples the tree size (and
// optionally the height) after every completed insert or remove.
//
// The gauges are read from atomics, the metric reader never touches
// the tree.
type StatsObserver[K infra.OrderedKey] struct {
	events       metric.Int64Counter
	size         metric.Int64ObservableGauge
	height       metric.Int64ObservableGauge
	registration metric.Registration
	eventAttrs   map[tree.RBEvent]metric.AddOption
	treeAttr     attribute.KeyValue
	lastSize     atomic.Int64
	lastHeight   atomic.Int64
	trackHeight  bool
}

type statsCfg struct {
	mp          metric.MeterProvider
	name        string
	trackHeight bool
}

type StatsOption func(*statsCfg)

// WithStatsMeterProvider replaces the otel global meter provider.
func WithStatsMeterProvider(mp metric.MeterProvider) StatsOption {
	return func(cfg *statsCfg) {
		cfg.mp = mp
	}
}

// WithStatsTreeName labels every metric with the tree name.
func WithStatsTreeName(name string) StatsOption {
	return func(cfg *statsCfg) {
		cfg.name = name
	}
}

// WithStatsHeight samples the tree height as well. The height is a walk
// over the whole tree on every insert and remove.
func WithStatsHeight() StatsOption {
	return func(cfg *statsCfg) {
		cfg.trackHeight = true
	}
}

func NewStatsObserver[K infra.OrderedKey](opts ...StatsOption) *StatsObserver[K] {
	cfg := &statsCfg{}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o(cfg)
	}
	if cfg.mp == nil {
		cfg.mp = otel.GetMeterProvider()
	}
	if len(strings.TrimSpace(cfg.name)) == 0 {
		cfg.name = defaultTreeName
	}

	stats := &StatsObserver[K]{
		treeAttr:    attribute.String("rbtree.name", cfg.name),
		trackHeight: cfg.trackHeight,
	}
	stats.eventAttrs = lo.SliceToMap(tree.RBEvents(), func(e tree.RBEvent) (tree.RBEvent, metric.AddOption) {
		return e, metric.WithAttributeSet(attribute.NewSet(
			stats.treeAttr,
			attribute.String("rbtree.event", e.String()),
		))
	})

	meter := cfg.mp.Meter(RBTreeStatsName)
	stats.events = lo.Must[metric.Int64Counter](meter.Int64Counter(
		"rbtree.events",
		metric.WithDescription(`The rbtree insert, remove, rotate and recolor events.`),
	))
	stats.size = lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
		"rbtree.size",
		metric.WithDescription(`The rbtree keys number.`),
	))
	instruments := []metric.Observable{stats.size}
	if stats.trackHeight {
		stats.height = lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
			"rbtree.height",
			metric.WithDescription(`The rbtree longest root to leaf path.`),
		))
		instruments = append(instruments, stats.height)
	}
	stats.registration = lo.Must[metric.Registration](meter.RegisterCallback(
		func(ctx context.Context, ob metric.Observer) error {
			attrs := metric.WithAttributes(stats.treeAttr)
			ob.ObserveInt64(stats.size, stats.lastSize.Load(), attrs)
			if stats.trackHeight {
				ob.ObserveInt64(stats.height, stats.lastHeight.Load(), attrs)
			}
			return nil
		},
		instruments...,
	))
	return stats
}

func (stats *StatsObserver[K]) OnEvent(t tree.RBTree[K], _ tree.RBNode[K], event tree.RBEvent) {
	if stats == nil {
		return
	}
	if attrs, ok := stats.eventAttrs[event]; ok {
		stats.events.Add(context.Background(), 1, attrs)
	}
	switch event {
	case tree.EventAfterInsert, tree.EventAfterRemove:
		stats.Refresh(t)
	default:
	}
}

// Refresh samples the size and height of t into the gauges.
// Release emits no event, call Refresh after a teardown.
func (stats *StatsObserver[K]) Refresh(t tree.RBTree[K]) {
	if stats == nil || t == nil {
		return
	}
	stats.lastSize.Store(t.Len())
	if stats.trackHeight {
		stats.lastHeight.Store(int64(t.Height()))
	}
}

// Close unregisters the gauge callback.
func (stats *StatsObserver[K]) Close() error {
	if stats == nil || stats.registration == nil {
		return nil
	}
	return stats.registration.Unregister()
}
