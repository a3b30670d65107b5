package observability

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/lirriel/RBTree/lib/infra"
	"github.com/lirriel/RBTree/lib/tree"
	"github.com/lirriel/RBTree/xlog"
)

var _ tree.Observer[int] = (*LogObserver[int])(nil)

// LogObserver writes one debug entry per selected tree event.
type LogObserver[K infra.OrderedKey] struct {
	logger xlog.XLogger
	events map[tree.RBEvent]struct{}
}

// NewLogObserver logs the events through the "rbtree" component logger.
// No events means all of them.
func NewLogObserver[K infra.OrderedKey](logger xlog.XLogger, events ...tree.RBEvent) *LogObserver[K] {
	if len(events) == 0 {
		events = tree.RBEvents()
	}
	return &LogObserver[K]{
		logger: xlog.NewComponentXLogger(logger, RBTreeStatsName),
		events: eventSet(events),
	}
}

func (o *LogObserver[K]) OnEvent(t tree.RBTree[K], node tree.RBNode[K], event tree.RBEvent) {
	if o == nil || o.logger == nil {
		return
	}
	if _, ok := o.events[event]; !ok {
		return
	}
	fields := []zap.Field{
		zap.Stringer("event", event),
		zap.Any("key", node.Key()),
		zap.Stringer("color", node.Color()),
		zap.Int64("len", t.Len()),
	}
	if p := node.Parent(); p != nil {
		fields = append(fields, zap.Any("parent", p.Key()))
	}
	o.logger.Debug("rbtree event", fields...)
}

func eventSet(events []tree.RBEvent) map[tree.RBEvent]struct{} {
	return lo.SliceToMap(events, func(e tree.RBEvent) (tree.RBEvent, struct{}) {
		return e, struct{}{}
	})
}
