package observability

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, testLogger)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}

	_, span := Tracer().Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("noop provider produced a valid span context")
	}
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInitTracingStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(context.Background(), TracingConfig{
		Enabled:  true,
		Exporter: "stdout",
		Writer:   &buf,
	}, testLogger)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	t.Cleanup(func() {
		_, _ = InitTracing(context.Background(), TracingConfig{}, testLogger)
	})

	_, span := Tracer().Start(context.Background(), "groundtrack.Sample")
	if !span.SpanContext().IsValid() {
		t.Error("expected a recording span")
	}
	span.End()

	ShutdownWithTimeout(context.Background(), shutdown, testLogger)

	if !strings.Contains(buf.String(), "groundtrack.Sample") {
		t.Errorf("exported spans missing span name:\n%s", buf.String())
	}
}

func TestInitTracingUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, testLogger)
	if err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
}

func TestShutdownWithTimeoutNil(t *testing.T) {
	ShutdownWithTimeout(context.Background(), nil, testLogger)
}
