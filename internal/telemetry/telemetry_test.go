package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		config        *Config
		errorContains string
	}{
		{name: "nil config", config: nil},
		{name: "disabled", config: &Config{Enabled: false}},
		{name: "both signals disabled", config: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: false},
			Metrics: &MetricsConfig{Enabled: false},
		}},
		{name: "invalid sampling", config: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true, Sampling: 1.5},
		}, errorContains: "invalid telemetry configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tel, err := New(context.Background(), tt.config)
			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)

			assert.IsType(t, tracenoop.TracerProvider{}, tel.TracerProvider())
			assert.IsType(t, metricnoop.MeterProvider{}, tel.MeterProvider())
			assert.NotNil(t, tel.Tracer("test"))
			assert.NoError(t, tel.Shutdown(context.Background()))
		})
	}
}

func TestNew_SDKProviders(t *testing.T) {
	t.Parallel()

	// exporters connect lazily, so no collector is needed
	tel, err := New(context.Background(), &Config{
		Enabled:  true,
		Endpoint: "127.0.0.1:1",
		Insecure: true,
		Tracing:  &TracingConfig{Enabled: true, Sampling: 0.5},
		Metrics:  &MetricsConfig{Enabled: true},
	})
	require.NoError(t, err)

	assert.IsType(t, &sdktrace.TracerProvider{}, tel.TracerProvider())
	assert.IsType(t, &sdkmetric.MeterProvider{}, tel.MeterProvider())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// flushing towards an unreachable collector with a cancelled context may fail; it must not hang
	_ = tel.Shutdown(ctx)
}
