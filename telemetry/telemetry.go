// Package telemetry configures OpenTelemetry tracing for training runs
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config controls tracing initialization
type Config struct {
	ServiceName    string // Defaults to minidqn
	ServiceVersion string // Defaults to $MINIDQN_VERSION
	RunID          string
	Seed           uint64

	// Writer receives pretty printed spans. If nil, spans are recorded
	// but not exported.
	Writer io.Writer
}

// resource describes a single training run
func (c Config) resource() *sdkresource.Resource {
	name := c.ServiceName
	if name == "" {
		name = "minidqn"
	}
	version := c.ServiceVersion
	if version == "" {
		version = os.Getenv("MINIDQN_VERSION")
	}

	return sdkresource.NewWithAttributes(semconv.SchemaURL,
		semconv.ServiceName(name),
		semconv.ServiceVersion(version),
		attribute.String("run.id", c.RunID),
		attribute.Int64("run.seed", int64(c.Seed)),
	)
}

// Init installs a global tracer provider for a training run and returns
// a function which flushes pending spans and shuts the provider down.
// Spans are exported synchronously so that a run killed between
// episodes loses no finished episode.
func Init(_ context.Context, cfg Config) (func(context.Context) error,
	error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(cfg.resource()),
	}

	if cfg.Writer != nil {
		exp, err := stdouttrace.New(
			stdouttrace.WithWriter(cfg.Writer),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return nil, fmt.Errorf("init: could not create exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithSyncer(exp))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
