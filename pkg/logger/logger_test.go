package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"smallbiznis-stampcard/pkg/config"
)

func TestNewInstallsGlobalLogger(t *testing.T) {
	cfg := &config.Config{AppEnv: "production", AppName: "stampcard"}

	log, err := New(ConfigParams{Cfg: cfg})
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestTraceFieldsWithoutSpan(t *testing.T) {
	require.Empty(t, TraceFields(context.Background()))
}

func TestTraceFieldsWithSpan(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1, 2, 3},
		SpanID:  trace.SpanID{4, 5, 6},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	fields := TraceFields(ctx)
	require.Len(t, fields, 2)
	require.Equal(t, "trace_id", fields[0].Key)
	require.Equal(t, sc.TraceID().String(), fields[0].String)
}
