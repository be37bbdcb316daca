package trace

import (
	"context"
	"testing"
)

func TestStartSpanPassThroughWhenUninitialized(t *testing.T) {
	ctx := context.Background()

	gotCtx, span := StartSpan(ctx, "test-span")
	if gotCtx != ctx {
		t.Error("expected the original context back when no tracer is installed")
	}
	if span.IsRecording() {
		t.Error("expected a non-recording span when no tracer is installed")
	}
	if span.SpanContext().IsValid() {
		t.Error("expected an invalid span context when no tracer is installed")
	}
}

func TestShutdownWithoutInit(t *testing.T) {
	if err := Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown without Init returned %v, want nil", err)
	}
}
