package observability

import (
	"context"

	"go.uber.org/fx"

	"github.com/lirriel/RBTree/lib/infra"
	"github.com/lirriel/RBTree/lib/tree"
	"github.com/lirriel/RBTree/xlog"
)

type observersParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *Config
	Logger    xlog.XLogger `optional:"true"`
}

// Module provides the observers built from the supplied *Config and an
// rbtree of K keys wired to them. The observers are shut down when the
// application stops.
//
//	fx.New(
//		fx.Supply(cfg),
//		observability.Module[int64](),
//		fx.Invoke(func(t tree.RBTree[int64]) { ... }),
//	)
func Module[K infra.OrderedKey](opts ...tree.RBTreeOpt[K]) fx.Option {
	return fx.Module("rbtree",
		fx.Provide(
			func(p observersParams) (*Observers[K], error) {
				observers, err := Build[K](p.Config, p.Logger)
				if err != nil {
					return nil, err
				}
				p.Lifecycle.Append(fx.Hook{
					OnStop: func(ctx context.Context) error {
						return observers.Shutdown(ctx)
					},
				})
				return observers, nil
			},
			func(observers *Observers[K]) tree.RBTree[K] {
				treeOpts := make([]tree.RBTreeOpt[K], 0, len(opts)+1)
				treeOpts = append(treeOpts, opts...)
				treeOpts = append(treeOpts, tree.WithRBTreeObserver[K](observers.Observer))
				return tree.NewRBTree[K](treeOpts...)
			},
		),
	)
}
