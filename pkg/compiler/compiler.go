// Package compiler compiles contract types into model types and caches them.
//
// A contract is compiled at most once per Compiler: the first successful
// compile is published with sync.Map.LoadOrStore and every later request,
// from any goroutine, gets that same *model.Type. Concurrent first requests
// for one contract are collapsed with singleflight; a redundant compile that
// loses the publication race is discarded. Failed compiles are not cached.
package compiler

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/leapstack-labs/leapmodel/internal/contract"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/leapstack-labs/leapmodel/pkg/model"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Factory creates fresh instances of one compiled contract.
type Factory func() *model.Instance

// Compiler is a concurrency-safe cache of compiled contracts.
type Compiler struct {
	types  sync.Map // reflect.Type -> *model.Type
	flight singleflight.Group
	hosts  map[reflect.Type]reflect.Type
	logger *slog.Logger
	obs    *observer

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithExtensionHost resolves the extension functions and singleton factories
// of contractType on host instead of on the contract itself.
func WithExtensionHost(contractType, host reflect.Type) Option {
	return func(c *Compiler) {
		c.hosts[deref(contractType)] = host
	}
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Compiler) {
		c.tracerProvider = provider
	}
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(c *Compiler) {
		c.meterProvider = provider
	}
}

// New creates an empty compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		hosts:  make(map[reflect.Type]reflect.Type),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	obs, err := newObserver(c.tracerProvider, c.meterProvider)
	if err != nil {
		c.logger.Warn("compiler instrumentation disabled", "error", err)
		obs = noopObserver()
	}
	c.obs = obs
	return c
}

// Compile returns the factory of a contract type, compiling it on first use.
// Pointer types are treated as their element type.
func (c *Compiler) Compile(t reflect.Type) (Factory, error) {
	return c.CompileContext(context.Background(), t)
}

// CompileContext is Compile with a context for tracing.
func (c *Compiler) CompileContext(ctx context.Context, t reflect.Type) (Factory, error) {
	mt, err := c.load(ctx, t)
	if err != nil {
		return nil, err
	}
	return mt.New, nil
}

// Type returns the compiled model type of a contract, compiling it on first use.
func (c *Compiler) Type(t reflect.Type) (*model.Type, error) {
	return c.load(context.Background(), t)
}

// Len returns the number of compiled contracts.
func (c *Compiler) Len() int {
	n := 0
	c.types.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (c *Compiler) load(ctx context.Context, t reflect.Type) (*model.Type, error) {
	if t == nil {
		return nil, core.NewContractError("<nil>", "", core.ErrInvalidContract, "contract type is nil")
	}
	t = deref(t)

	if v, ok := c.types.Load(t); ok {
		c.obs.hit(ctx, t)
		return v.(*model.Type), nil
	}

	v, err, shared := c.flight.Do(flightKey(t), func() (any, error) {
		return c.compile(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	mt := v.(*model.Type)
	if mt.Contract() != t {
		// distinct types with the same key; compile this one on its own
		return c.compile(ctx, t)
	}
	if shared {
		c.logger.Debug("joined in-flight compile", "contract", t.String())
	}
	return mt, nil
}

func (c *Compiler) compile(ctx context.Context, t reflect.Type) (*model.Type, error) {
	ctx, span := c.obs.start(ctx, t)
	start := time.Now()

	opts := []contract.Option{contract.WithLogger(c.logger)}
	if host, ok := c.hosts[t]; ok {
		opts = append(opts, contract.WithHost(host))
	}

	ct, err := contract.Inspect(t, opts...)
	if err == nil {
		var mt *model.Type
		if mt, err = model.Build(ct); err == nil {
			actual, loaded := c.types.LoadOrStore(t, mt)
			mt = actual.(*model.Type)
			c.obs.compiled(ctx, span, t, time.Since(start))

			c.logger.Debug("compiled contract",
				"contract", mt.Name(),
				"properties", len(ct.Properties),
				"mask", mt.Plan().GoType(),
				"reused", loaded)
			return mt, nil
		}
	}

	c.obs.failed(ctx, span, t, err)
	c.logger.Debug("compile failed", "contract", t.String(), "error", err)
	return nil, err
}

func deref(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// flightKey names a type for singleflight. Unnamed types can share a key,
// which load detects and resolves.
func flightKey(t reflect.Type) string {
	if t.Name() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}
