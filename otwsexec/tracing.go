// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otwsexec

import (
	"context"

	"github.com/petenewcomb/wsexec-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracedFuture wraps f in a span with the given operation name. The span is
// started as a child of any span in ctx when f is first polled, records a
// "suspended" event every time f is pending, and ends when f completes.
func TracedFuture[T any](
	ctx context.Context,
	operationName string,
	f wsexec.Future[T],
) wsexec.Future[T] {
	return observe(f, &spanObserver{ctx: ctx, name: operationName})
}

// TracedAsync is like [TracedFuture] applied to [wsexec.Async], except that
// the body receives a context carrying the span so that it can start child
// spans of its own, for instance by passing it to TracedFuture.
func TracedAsync[T any](
	ctx context.Context,
	operationName string,
	body func(ctx context.Context, aw *wsexec.Awaiter) T,
) wsexec.Future[T] {
	so := &spanObserver{ctx: ctx, name: operationName}
	return observe(wsexec.Async(func(aw *wsexec.Awaiter) T {
		return body(so.spanCtx, aw)
	}), so)
}

type spanObserver struct {
	ctx     context.Context
	name    string
	spanCtx context.Context
	span    trace.Span
}

func (o *spanObserver) start(id string) {
	tracer := otel.Tracer(component)
	o.spanCtx, o.span = tracer.Start(o.ctx, o.name,
		trace.WithAttributes(attribute.String(InvocationIDKey, id)))
}

func (o *spanObserver) suspend(polls int) {
	o.span.AddEvent("suspended", trace.WithAttributes(attribute.Int("wsexec.poll", polls)))
}

func (o *spanObserver) finish(polls int, err error) {
	o.span.SetAttributes(attribute.Int("wsexec.polls", polls))
	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	}
	o.span.End()
}
