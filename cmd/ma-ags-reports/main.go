// Package main is the entry point for the ma-ags-reports command line tool.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/cmd/ma-ags-reports/app"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
)

// getLogLevel parses MA_AGS_REPORTS_LOG_LEVEL and returns the corresponding slog.Level.
// Falls back to LOG_LEVEL, then to slog.LevelInfo.
func getLogLevel() slog.Level {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	levelStr := v.GetString("LOG_LEVEL")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("Invalid LOG_LEVEL, using INFO", "value", levelStr)
		return slog.LevelInfo
	}
}

// traceHandler wraps an slog.Handler to inject the OpenTelemetry trace_id and
// span_id into every record logged within a span.
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

// newHandler builds the base handler for format. Logs go to stderr so stdout
// stays clean for dry-run summaries and version --format json.
func newHandler(format string, level slog.Level) slog.Handler {
	if format == app.LogFormatJSON {
		return slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
	})
}

// setupLogging installs the default logger. debug overrides the configured level.
func setupLogging(format string, debug bool) {
	level := getLogLevel()
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(&traceHandler{Handler: newHandler(format, level)}))
}

func main() {
	setupLogging(app.LogFormatText, false)

	if err := app.NewRootCmd(setupLogging).Execute(); err != nil {
		os.Exit(1)
	}
}
