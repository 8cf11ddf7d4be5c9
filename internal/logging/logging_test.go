package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestContextHandlerAddsTraceIDs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "info", "json", "order-service")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.With("component", "test").InfoContext(ctx, "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if rec["trace_id"] != traceID.String() {
		t.Errorf("trace_id = %v, want %s", rec["trace_id"], traceID)
	}
	if rec["span_id"] != spanID.String() {
		t.Errorf("span_id = %v, want %s", rec["span_id"], spanID)
	}
	if rec["service"] != "order-service" || rec["component"] != "test" {
		t.Errorf("missing attrs in %v", rec)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, level, format string
	}{
		{"bad level", "loud", "json"},
		{"bad format", "info", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := New(&bytes.Buffer{}, tt.level, tt.format, ""); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "INFO", "text", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("noise")
	if buf.Len() != 0 {
		t.Errorf("debug record written at info level: %q", buf.String())
	}
}
