package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		" error ": slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for raw, want := range cases {
		assert.Equal(t, want, logLevel(raw), "LOG_LEVEL=%q", raw)
	}
}

func TestExporterKind(t *testing.T) {
	assert.Equal(t, ExporterOTLP, exporterKind(""))
	assert.Equal(t, ExporterOTLP, exporterKind("jaeger"))
	assert.Equal(t, ExporterStdout, exporterKind(" Stdout "))
	assert.Equal(t, ExporterNone, exporterKind("none"))
}

func TestInitWithoutExporter(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "none")
	instruments, shutdown, err := Init(context.Background(), "fulfillment-test")
	require.NoError(t, err)
	assert.NotNil(t, instruments.Logger)
	assert.NotNil(t, instruments.Tracer("test"))
	require.NoError(t, shutdown(context.Background()))
}

func TestInstrumentsFallBackWithoutProviders(t *testing.T) {
	var instruments *Instruments
	assert.NotNil(t, instruments.Tracer("test"))
	assert.NotNil(t, instruments.Meter("test"))
}
