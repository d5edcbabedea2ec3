package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace/noop"
)

func TestInitProviderDisabled(t *testing.T) {
	config := DefaultConfig()
	config.Enabled = false

	ctx := context.Background()
	shutdown, err := InitProvider(ctx, config)
	if err != nil {
		t.Fatalf("InitProvider failed: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected shutdown function, got nil")
	}

	if _, ok := GetTracerProvider().(noop.TracerProvider); !ok {
		t.Errorf("expected noop provider, got %T", GetTracerProvider())
	}

	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
}

func TestInitProviderEnabled(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		insecure bool
	}{
		{name: "no exporter"},
		{name: "host and port", endpoint: "collector.example.com:4318", insecure: true},
		{name: "full url", endpoint: "https://collector.example.com/v1/traces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Enabled = true
			config.Endpoint = tt.endpoint
			config.Insecure = tt.insecure
			config.SampleRate = 0.5

			ctx := context.Background()
			shutdown, err := InitProvider(ctx, config)
			if err != nil {
				t.Fatalf("InitProvider failed: %v", err)
			}
			if shutdown == nil {
				t.Fatal("expected shutdown function, got nil")
			}

			// Nothing was recorded, so shutdown does not contact the collector.
			if err := shutdown(ctx); err != nil {
				t.Fatalf("shutdown returned error: %v", err)
			}
		})
	}
}

func TestShutdownForceFlush(t *testing.T) {
	ctx := context.Background()
	if err := Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if err := ForceFlush(ctx); err != nil {
		t.Fatalf("ForceFlush failed: %v", err)
	}
}

func TestCreateResource(t *testing.T) {
	res := createResource(DefaultConfig())

	found := false
	for _, kv := range res.Attributes() {
		if string(kv.Key) == "service.name" && kv.Value.AsString() == "adminctl" {
			found = true
		}
	}
	if !found {
		t.Errorf("service.name attribute missing: %v", res.Attributes())
	}
}
