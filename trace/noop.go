// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trace

import (
	"context"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ava-labs/avalanchego/trace"
)

var (
	_ trace.Tracer = (*noOpTracer)(nil)

	// Noop is used by components constructed without a tracer.
	Noop = newNoop("computeledger")
)

// noOpTracer is an implementation of trace.Tracer that does nothing.
type noOpTracer struct {
	oteltrace.Tracer
}

func newNoop(name string) trace.Tracer {
	return &noOpTracer{
		Tracer: oteltrace.NewNoopTracerProvider().Tracer(name),
	}
}

func (n noOpTracer) Start(
	ctx context.Context,
	spanName string,
	opts ...oteltrace.SpanStartOption,
) (context.Context, oteltrace.Span) {
	return n.Tracer.Start(ctx, spanName, opts...)
}

func (noOpTracer) Close() error {
	return nil
}
