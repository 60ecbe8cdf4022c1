package compiler

import (
	"context"
	"reflect"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/leapstack-labs/leapmodel/pkg/compiler"

// observer records compile spans and metrics.
type observer struct {
	tracer trace.Tracer

	compileCounter  metric.Int64Counter
	compileErrors   metric.Int64Counter
	compileDuration metric.Float64Histogram
	cacheHits       metric.Int64Counter
}

func newObserver(tp trace.TracerProvider, mp metric.MeterProvider) (*observer, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	obs := &observer{tracer: tp.Tracer(instrumentationName)}

	var err error
	obs.compileCounter, err = meter.Int64Counter(
		"leapmodel.compile.count",
		metric.WithDescription("Number of contracts compiled"),
		metric.WithUnit("{contract}"),
	)
	if err != nil {
		return nil, err
	}

	obs.compileErrors, err = meter.Int64Counter(
		"leapmodel.compile.errors",
		metric.WithDescription("Number of failed compiles"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	obs.compileDuration, err = meter.Float64Histogram(
		"leapmodel.compile.duration",
		metric.WithDescription("Contract compile duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	obs.cacheHits, err = meter.Int64Counter(
		"leapmodel.cache.hits",
		metric.WithDescription("Number of compile requests served from the cache"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return obs, nil
}

func noopObserver() *observer {
	obs, _ := newObserver(tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	return obs
}

func contractAttr(t reflect.Type) attribute.KeyValue {
	return attribute.String("contract", t.String())
}

func (o *observer) start(ctx context.Context, t reflect.Type) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, "leapmodel.compile", trace.WithAttributes(contractAttr(t)))
}

func (o *observer) compiled(ctx context.Context, span trace.Span, t reflect.Type, d time.Duration) {
	defer span.End()
	attrs := metric.WithAttributes(contractAttr(t))
	o.compileCounter.Add(ctx, 1, attrs)
	o.compileDuration.Record(ctx, float64(d.Microseconds())/1000, attrs)
	span.SetStatus(codes.Ok, "")
}

func (o *observer) failed(ctx context.Context, span trace.Span, t reflect.Type, err error) {
	defer span.End()
	o.compileErrors.Add(ctx, 1, metric.WithAttributes(contractAttr(t)))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (o *observer) hit(ctx context.Context, t reflect.Type) {
	o.cacheHits.Add(ctx, 1, metric.WithAttributes(contractAttr(t)))
}
