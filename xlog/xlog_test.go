package xlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	randv2 "math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lirriel/RBTree/lib/infra"
)

func TestLogLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", LogLevelDebug.String())
	require.Equal(t, "INFO", LogLevelInfo.String())
	require.Equal(t, "WARN", LogLevelWarn.String())
	require.Equal(t, "ERROR", LogLevelError.String())
	require.Equal(t, zapcore.DebugLevel, LogLevelDebug.zapLevel())
	require.Equal(t, zapcore.InfoLevel, LogLevelInfo.zapLevel())
	require.Equal(t, zapcore.WarnLevel, LogLevelWarn.zapLevel())
	require.Equal(t, zapcore.ErrorLevel, LogLevelError.zapLevel())

	require.Equal(t, LogLevelWarn, ParseLogLevel(" warn "))
	require.Equal(t, LogLevelDebug, ParseLogLevel(""))
	require.Equal(t, LogLevelDebug, ParseLogLevel("verbose"))
	require.Equal(t, zapcore.ErrorLevel, getLogLevelOrDefault("error"))

	enc, ok := ParseLogEncoder("Console")
	require.True(t, ok)
	require.Equal(t, PlainText, enc)
	enc, ok = ParseLogEncoder("")
	require.True(t, ok)
	require.Equal(t, JSON, enc)
	_, ok = ParseLogEncoder("xml")
	require.False(t, ok)
}

type testMemOutWriter struct {
	mu   sync.Mutex
	data bytes.Buffer
}

func (w *testMemOutWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.data.Write(p)
}

func (w *testMemOutWriter) Sync() error {
	return nil
}

func (w *testMemOutWriter) lines(t *testing.T) []map[string]any {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	res := make([]map[string]any, 0, 8)
	for _, line := range strings.Split(strings.TrimSpace(w.data.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		res = append(res, m)
	}
	return res
}

func (w *testMemOutWriter) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.data.Reset()
}

func TestXLogger_Zap_AllAPIs(t *testing.T) {
	w := &testMemOutWriter{}
	logger := NewXLogger(
		WithXLoggerLevel(LogLevelDebug),
		WithXLoggerEncoder(JSON),
		WithXLoggerWriter(w),
		WithXLoggerContextFieldExtract("traceId", "TraceID"),
		WithXLoggerContextFieldExtract("service"),
		WithXLoggerContextFieldExtract("abc", ContextKeyMapToOmitempty),
		WithXLoggerContextFieldExtract("missing"),
		WithXLoggerContextFieldExtract(""),
	)

	ctx := ContextWithValue(context.TODO(), "traceId", "1234567890")
	ctx = context.WithValue(ctx, "service", "rbtree") //nolint:staticcheck
	ctx = ContextWithValue(ctx, "abc", "omitted")

	logger.Debug("debug message 1")
	logger.DebugContext(ctx, "debug message 2")
	logger.Info("info message 1", zap.Int("n", 1))
	logger.InfoContext(ctx, "info message 2")
	logger.Warn("warn message 1")
	logger.WarnContext(ctx, "warn message 2")
	err1 := infra.WrapErrorStack(errors.New("error 1"))
	logger.Error(err1, "error message 1")
	logger.ErrorContext(ctx, err1, "error message 2")
	logger.ErrorStack(err1, "error message 3")
	logger.ErrorStackContext(ctx, err1, "error message 4")
	logger.ErrorStack(errors.New("plain"), "error message 5")
	require.NoError(t, logger.Sync())

	lines := w.lines(t)
	require.Len(t, lines, 11)
	require.Equal(t, "DEBUG", lines[0]["lvl"])
	require.Equal(t, "debug message 1", lines[0]["msg"])
	require.Contains(t, lines[0]["callAt"], "xlog_test.go")

	require.Equal(t, "1234567890", lines[1]["TraceID"])
	require.Equal(t, "rbtree", lines[1]["service"])
	require.Equal(t, "nil", lines[1]["missing"])
	require.NotContains(t, lines[1], "abc")

	require.Equal(t, float64(1), lines[2]["n"])
	require.Equal(t, "WARN", lines[4]["lvl"])
	require.Equal(t, "error 1", lines[6]["error"])
	require.Equal(t, "1234567890", lines[7]["TraceID"])

	require.Equal(t, "error 1", lines[8]["error"])
	frames, ok := lines[8]["errorStack"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, frames)
	require.Contains(t, frames[0], "xlog_test.go")
	require.Contains(t, lines[9], "errorStack")
	require.Equal(t, "plain", lines[10]["error"])
	require.NotContains(t, lines[10], "errorStack")

	w.Reset()
	logger.IncreaseLogLevel(zapcore.WarnLevel)
	require.Equal(t, zapcore.WarnLevel.String(), logger.Level())
	logger.Logf(getLogLevelOrDefault(""), "unprintable debug message %d", 3)
	logger.Logf(getLogLevelOrDefault(LogLevelInfo.String()), "unprintable info message %d", 4)
	logger.Logf(getLogLevelOrDefault(LogLevelWarn.String()), "printable warn message %d", 5)
	logger.ErrorStackf(err1, "error message %d", 6)
	lines = w.lines(t)
	require.Len(t, lines, 2)
	require.Equal(t, "printable warn message 5", lines[0]["msg"])
	require.Equal(t, "error message 6", lines[1]["msg"])
	require.Contains(t, lines[1], "errorStack")

	w.Reset()
	logger.IncreaseLogLevel(zapcore.DebugLevel)
	logger.Logf(zapcore.DebugLevel, "dynamic printable debug message")
	require.Len(t, w.lines(t), 1)
}

func TestXLogger_PlainText(t *testing.T) {
	w := &testMemOutWriter{}
	logger := NewXLogger(
		WithXLoggerLevel(LogLevelInfo),
		WithXLoggerEncoder(PlainText),
		WithXLoggerWriter(w),
	)
	logger.Debug("hidden")
	logger.Info("shown", zap.String("key", "value"))
	out := w.data.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "INFO")
	require.Contains(t, out, "shown")
	require.Contains(t, out, `{"key": "value"}`)
}

func TestXLogger_Options(t *testing.T) {
	require.Panics(t, func() {
		NewXLogger(WithXLoggerEncoder(_encMax))
	})
	require.Panics(t, func() {
		NewXLogger(WithXLoggerWriter(nil))
	})
	require.Panics(t, func() {
		NewXLogger(WithXLoggerCore(nil))
	})

	t.Setenv("XLOG_LVL", "error")
	logger := NewXLogger(nil, WithXLoggerStdOutWriter(), WithXLoggerLevelEncoder(nil), WithXLoggerTimeEncoder(nil))
	require.Equal(t, zapcore.ErrorLevel.String(), logger.Level())
	_ = logger.Sync()
}

func TestXLogger_ObservedCore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w := &testMemOutWriter{}
	logger := NewXLogger(
		WithXLoggerLevel(LogLevelInfo),
		WithXLoggerWriter(w),
		WithXLoggerCore(core),
	)

	logger.Debug("filtered by the logger level")
	logger.Info("tee", zap.String("key", "value"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, "tee", entry.Message)
	require.Equal(t, "value", entry.ContextMap()["key"])
	require.Len(t, w.lines(t), 1)

	named := logger.Named("rbtree")
	named.Warn("named")
	require.Equal(t, 1, logs.FilterMessage("named").Len())
	require.Equal(t, "rbtree", logs.FilterMessage("named").All()[0].LoggerName)

	logger.IncreaseLogLevel(zapcore.DebugLevel)
	named.Debug("shared level")
	require.Equal(t, 1, logs.FilterMessage("shared level").Len())
}

func TestXLogger_ComponentLogger(t *testing.T) {
	w := &testMemOutWriter{}
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewXLogger(
		WithXLoggerLevel(LogLevelDebug),
		WithXLoggerWriter(w),
		WithXLoggerCore(core),
	)
	component := NewComponentXLogger(logger, "rbtree")
	component.Info("component message")

	lines := w.lines(t)
	require.Len(t, lines, 1)
	require.Equal(t, "rbtree", lines[0]["component"])
	require.NotContains(t, lines[0], "callAt")
	require.NotContains(t, lines[0], "fn")
	// The external core is kept as is.
	require.Equal(t, 1, logs.FilterMessage("component message").Len())
}

func TestXLogger_Zap_DataRace(t *testing.T) {
	w := &testMemOutWriter{}
	logger := NewXLogger(WithXLoggerWriter(w))
	lvls := []zapcore.Level{
		zapcore.DebugLevel,
		zapcore.InfoLevel,
		zapcore.WarnLevel,
		zapcore.ErrorLevel,
	}
	n := int32(len(lvls))
	var wg sync.WaitGroup
	total := 10
	wg.Add(total)
	for i := 0; i < total; i++ {
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rng := randv2.Int32N(n)
				if i*total+j == 666 {
					logger.IncreaseLogLevel(lvls[rng])
				}
				logger.Logf(lvls[rng], "message i: %d; j: %d", i, j)
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, logger.Sync())
}

func BenchmarkXLogger_Zap(b *testing.B) {
	logger := NewXLogger(WithXLoggerWriter(zapcore.AddSync(&bytes.Buffer{})))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("message")
	}
	b.ReportAllocs()
}
