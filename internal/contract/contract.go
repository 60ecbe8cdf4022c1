// Package contract extracts property descriptors from contract types.
//
// A contract is a Go struct type. Its exported fields are properties in
// declaration order; embedded structs are inherited sub-contracts and are
// walked breadth-first after the contract's own fields. Per-property
// metadata comes from the `model` and `default` struct tags, see core.Tag.
package contract

import (
	"log/slog"
	"reflect"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

var (
	modelType  = reflect.TypeFor[core.Model]()
	markerType = reflect.TypeFor[core.NotifyPropertyChanged]()
)

// Property describes one contract property.
type Property struct {
	// Name is the exposed property name (alias when Alias is set).
	Name string
	// Field is the Go field name in the declaring contract.
	Field string
	// Index is the field index path from the root contract.
	Index []int
	// Type is the declared property type.
	Type reflect.Type
	// Writable is false for read-only and singleton properties.
	Writable bool
	// Mode is the implementation mode.
	Mode core.Mode
	// Alias reports whether Name was set explicitly with name=.
	Alias bool
	// Default is the converted default value, valid when HasDefault.
	Default    reflect.Value
	HasDefault bool
	// Declarer is the contract type that declares the field.
	Declarer reflect.Type

	// Getter is the extension getter bound to the host:
	// func(core.Model) T or func(core.Model, T) T.
	Getter             reflect.Value
	GetterTakesCurrent bool
	// Setter is the extension setter bound to the host:
	// func(core.Model, current, value T) (T, bool). Invalid for read-only extensions.
	Setter reflect.Value
	// Factory is the singleton factory bound to the host: func() T.
	// Invalid when the singleton is constructed from its kind.
	Factory reflect.Value
}

// Stored reports whether the property needs a storage field.
func (p *Property) Stored() bool {
	switch p.Mode {
	case core.ModeExtension:
		return p.Writable || p.GetterTakesCurrent || p.HasDefault
	default:
		return true
	}
}

// Contract is the introspected form of a contract type.
type Contract struct {
	// Type is the contract struct type.
	Type reflect.Type
	// Host is the type extension functions and factories are resolved on.
	Host reflect.Type
	// Properties in descriptor order.
	Properties []Property
	// Notify is set when the contract embeds core.NotifyPropertyChanged.
	Notify bool
	// OnChanged is the host method func(core.Model, string), when present.
	OnChanged reflect.Value
	// Inherited lists the embedded sub-contracts in visiting order.
	Inherited []reflect.Type
}

// Name returns the qualified contract name.
func (c *Contract) Name() string {
	return c.Type.String()
}

// Writable returns the writability of each property in descriptor order.
func (c *Contract) Writable() []bool {
	out := make([]bool, len(c.Properties))
	for i := range c.Properties {
		out[i] = c.Properties[i].Writable
	}
	return out
}

// Notifies reports whether writes raise change notification in any form.
func (c *Contract) Notifies() bool {
	return c.Notify || c.OnChanged.IsValid()
}

// Lookup returns the property with the given exposed name.
func (c *Contract) Lookup(name string) (*Property, bool) {
	for i := range c.Properties {
		if c.Properties[i].Name == name {
			return &c.Properties[i], true
		}
	}
	return nil, false
}

// Option configures Inspect.
type Option func(*options)

type options struct {
	host   reflect.Type
	logger *slog.Logger
}

// WithHost resolves extension functions and factories on host instead of the
// contract type itself.
func WithHost(host reflect.Type) Option {
	return func(o *options) {
		o.host = host
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
