package tracing

import (
	"context"
	"testing"
)

func TestInitTracingWithoutEndpoint(t *testing.T) {
	t.Setenv(EndpointEnv, "")

	shutdown, err := InitTracing(context.Background(), "dicom-archive-test")
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
