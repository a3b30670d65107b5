package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/lirriel/RBTree/lib/infra"
	"github.com/lirriel/RBTree/lib/tree"
	"github.com/lirriel/RBTree/xlog"
)

const (
	ExporterGlobal     = "global"
	ExporterConsole    = "console"
	ExporterPrometheus = "prometheus"

	dotStdOut = "-"
)

// Config selects the observers attached to a tree.
//
//	log:
//	  enabled: true
//	  level: info
//	  encoder: json
//	  events: [AfterInsert, AfterRemove]
//	metrics:
//	  enabled: true
//	  name: orders
//	  exporter: prometheus
//	  interval: 10s
//	  height: true
//	dot:
//	  enabled: true
//	  path: /tmp/rbtree.dot
//	  events: [AfterInsert]
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Dot     DotConfig     `yaml:"dot"`
}

// LogConfig selects the logged events. Level and Encoder configure the
// stdout logger Build creates when no logger is given.
type LogConfig struct {
	Enabled bool     `yaml:"enabled"`
	Level   string   `yaml:"level"`
	Encoder string   `yaml:"encoder"`
	Events  []string `yaml:"events"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
	// Exporter is one of global (default), console or prometheus.
	Exporter string        `yaml:"exporter"`
	Interval time.Duration `yaml:"interval"`
	Height   bool          `yaml:"height"`
}

type DotConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path "-" or empty writes to stdout.
	Path   string   `yaml:"path"`
	Events []string `yaml:"events"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[observability] read config")
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[observability] parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseEvents(names []string) ([]tree.RBEvent, error) {
	var err error
	events := make([]tree.RBEvent, 0, len(names))
	for _, name := range names {
		e, ok := tree.ParseRBEvent(name)
		if !ok {
			err = multierr.Append(err, fmt.Errorf("unknown rbtree event %q", name))
			continue
		}
		events = append(events, e)
	}
	return events, err
}

// Validate reports every invalid field at once.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return nil
	}
	var err error
	if cfg.Log.Enabled {
		if _, ok := xlog.ParseLogEncoder(cfg.Log.Encoder); !ok {
			err = multierr.Append(err, fmt.Errorf("unknown log encoder %q", cfg.Log.Encoder))
		}
		_, evErr := parseEvents(cfg.Log.Events)
		err = multierr.Append(err, evErr)
	}
	if cfg.Metrics.Enabled {
		switch strings.ToLower(cfg.Metrics.Exporter) {
		case "", ExporterGlobal, ExporterConsole, ExporterPrometheus:
		default:
			err = multierr.Append(err, fmt.Errorf("unknown metrics exporter %q", cfg.Metrics.Exporter))
		}
		if cfg.Metrics.Interval < 0 {
			err = multierr.Append(err, fmt.Errorf("negative metrics interval %s", cfg.Metrics.Interval))
		}
	}
	if cfg.Dot.Enabled {
		_, evErr := parseEvents(cfg.Dot.Events)
		err = multierr.Append(err, evErr)
	}
	return err
}

// Observers is the built observer chain and the shutdown of what it
// opened (meter provider, dot file, gauge callback).
type Observers[K infra.OrderedKey] struct {
	Observer tree.Observer[K]
	closers  []func(ctx context.Context) error
}

// Shutdown runs every closer and combines their errors.
func (o *Observers[K]) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	var err error
	for i := len(o.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, o.closers[i](ctx))
	}
	o.closers = nil
	return err
}

// Build creates the observers enabled in cfg. A nil logger is replaced
// by a stdout logger configured by the log section. The log level and
// encoder only apply to that stdout logger, a caller supplied logger
// keeps its own.
func Build[K infra.OrderedKey](cfg *Config, logger xlog.XLogger) (*Observers[K], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	res := &Observers[K]{}
	if cfg == nil {
		return res, nil
	}
	observers := make([]tree.Observer[K], 0, 3)

	if cfg.Log.Enabled {
		if logger == nil {
			enc, _ := xlog.ParseLogEncoder(cfg.Log.Encoder)
			logger = xlog.NewXLogger(
				xlog.WithXLoggerLevel(xlog.ParseLogLevel(cfg.Log.Level)),
				xlog.WithXLoggerEncoder(enc),
				xlog.WithXLoggerStdOutWriter(),
			)
		}
		events, _ := parseEvents(cfg.Log.Events)
		observers = append(observers, NewLogObserver[K](logger, events...))
		res.closers = append(res.closers, func(context.Context) error {
			// Sync of stdout/stderr fails with EINVAL on some platforms.
			_ = logger.Sync()
			return nil
		})
	}

	if cfg.Metrics.Enabled {
		opts := []StatsOption{WithStatsTreeName(cfg.Metrics.Name)}
		if cfg.Metrics.Height {
			opts = append(opts, WithStatsHeight())
		}
		var (
			mp  *metric.MeterProvider
			err error
		)
		switch strings.ToLower(cfg.Metrics.Exporter) {
		case ExporterConsole:
			mp, err = NewConsoleMetricsExporter(cfg.Metrics.Interval, 0)
		case ExporterPrometheus:
			mp, err = NewPrometheusMetricsExporter()
		default:
		}
		if err != nil {
			return nil, multierr.Append(err, res.Shutdown(context.Background()))
		}
		if mp != nil {
			opts = append(opts, WithStatsMeterProvider(mp))
			res.closers = append(res.closers, mp.Shutdown)
		}
		stats := NewStatsObserver[K](opts...)
		observers = append(observers, stats)
		res.closers = append(res.closers, func(context.Context) error {
			return stats.Close()
		})
	}

	if cfg.Dot.Enabled {
		var w io.Writer = os.Stdout
		if path := strings.TrimSpace(cfg.Dot.Path); path != "" && path != dotStdOut {
			f, err := os.Create(path)
			if err != nil {
				return nil, multierr.Append(
					infra.WrapErrorStackWithMessage(err, "[observability] create dot file"),
					res.Shutdown(context.Background()),
				)
			}
			w = f
			res.closers = append(res.closers, func(context.Context) error {
				return f.Close()
			})
		}
		events, _ := parseEvents(cfg.Dot.Events)
		dumper := NewDotDumper[K](w, events...)
		observers = append(observers, dumper)
		res.closers = append(res.closers, func(context.Context) error {
			return dumper.Err()
		})
	}

	if len(observers) > 0 {
		res.Observer = tree.MultiObserver[K](observers...)
	}
	return res, nil
}
