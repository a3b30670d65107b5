package xlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFxXLogger_LogEvent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewXLogger(
		WithXLoggerLevel(LogLevelDebug),
		WithXLoggerWriter(&testMemOutWriter{}),
		WithXLoggerCore(core),
	)
	fxLogger := NewFxXLogger(logger)

	errHook := errors.New("hook")
	events := []fxevent.Event{
		&fxevent.OnStartExecuting{FunctionName: "start", CallerName: "caller"},
		&fxevent.OnStartExecuted{FunctionName: "start", CallerName: "caller", Runtime: time.Millisecond},
		&fxevent.OnStartExecuted{FunctionName: "start", CallerName: "caller", Err: errHook},
		&fxevent.OnStopExecuting{FunctionName: "stop", CallerName: "caller"},
		&fxevent.OnStopExecuted{FunctionName: "stop", CallerName: "caller"},
		&fxevent.OnStopExecuted{FunctionName: "stop", CallerName: "caller", Err: errHook},
		&fxevent.Supplied{TypeName: "int"},
		&fxevent.Supplied{TypeName: "int", ModuleName: "rbtree"},
		&fxevent.Supplied{TypeName: "int", Err: errHook},
		&fxevent.Provided{OutputTypeNames: []string{"a", "b"}, ConstructorName: "ctor"},
		&fxevent.Provided{Err: errHook},
		&fxevent.Replaced{OutputTypeNames: []string{"a"}},
		&fxevent.Replaced{Err: errHook},
		&fxevent.Decorated{OutputTypeNames: []string{"a"}, DecoratorName: "deco", ModuleName: "rbtree"},
		&fxevent.Decorated{Err: errHook},
		&fxevent.Invoking{FunctionName: "invoke"},
		&fxevent.Invoked{FunctionName: "invoke"},
		&fxevent.Invoked{FunctionName: "invoke", Err: errHook},
		&fxevent.Stopped{},
		&fxevent.Stopped{Err: errHook},
		&fxevent.RollingBack{StartErr: errHook},
		&fxevent.RolledBack{},
		&fxevent.RolledBack{Err: errHook},
		&fxevent.Started{},
		&fxevent.Started{Err: errHook},
		&fxevent.LoggerInitialized{ConstructorName: "ctor"},
		&fxevent.LoggerInitialized{Err: errHook},
	}
	for _, e := range events {
		fxLogger.LogEvent(e)
	}

	require.Equal(t, 1, logs.FilterMessage("HOOK OnStart").Len())
	require.Equal(t, 1, logs.FilterMessage("HOOK OnStart failed").Len())
	require.Equal(t, 2, logs.FilterMessage("PROVIDE").Len())
	require.Equal(t, "rbtree", logs.FilterMessage("DECORATE").All()[0].ContextMap()["module"])
	require.Equal(t, 1, logs.FilterMessage("INVOKE failed").Len())
	require.Equal(t, 1, logs.FilterMessage("START failed, rolling back").Len())
	for _, entry := range logs.All() {
		require.Equal(t, "Fx", entry.LoggerName)
	}
	require.Equal(t, 11, logs.FilterLevelExact(zapcore.ErrorLevel).Len())

	var nilLogger *FxXLogger
	nilLogger.LogEvent(&fxevent.Started{})
}

func TestFxXLogger_App(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewXLogger(
		WithXLoggerLevel(LogLevelDebug),
		WithXLoggerWriter(&testMemOutWriter{}),
		WithXLoggerCore(core),
	)

	started := false
	app := fxtest.New(t,
		fx.Provide(func() XLogger { return logger }),
		fx.WithLogger(func(l XLogger) fxevent.Logger {
			return NewFxXLogger(l)
		}),
		fx.Invoke(func(lc fx.Lifecycle) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					started = true
					return nil
				},
			})
		}),
	)
	app.RequireStart()
	app.RequireStop()

	require.True(t, started)
	require.Positive(t, logs.FilterMessage("RUNNING").Len())
	require.Positive(t, logs.FilterMessage("HOOK OnStart successfully").Len())
}
