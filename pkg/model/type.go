// Package model synthesizes concrete model types from introspected contracts.
//
// Build turns a contract into a Type: a record struct created with
// reflect.StructOf (mask field, one field per stored property, one sync.Once
// per singleton) plus a token table binding every property name to its
// ordinal, getter and setter. The table is built once and shared read-only by
// every Instance of the type.
package model

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapmodel/internal/contract"
	"github.com/leapstack-labs/leapmodel/internal/layout"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/leapstack-labs/leapmodel/pkg/notify"
)

var onceType = reflect.TypeFor[sync.Once]()

// Token is the dispatch record of one property.
type Token struct {
	// Name is the exposed property name.
	Name string
	// Ordinal is the mask bit, -1 for read-only properties.
	Ordinal int
	// Mode is the implementation mode.
	Mode core.Mode
	// Type is the declared property type.
	Type reflect.Type
	// Get reads the live value.
	Get func(*Instance) any
	// Set writes through the property's setter logic. Nil when read-only.
	Set func(*Instance, any) bool
}

// Writable reports whether the token has a setter.
func (t *Token) Writable() bool {
	return t.Set != nil
}

type defaultValue struct {
	field int
	value reflect.Value
}

// Type is a compiled contract.
type Type struct {
	contract  *contract.Contract
	plan      layout.Plan
	record    reflect.Type
	defaults  []defaultValue
	bindMask  func(rec reflect.Value) layout.Mask
	tokens    map[string]*Token
	ordered   []*Token
	byOrdinal []*Token
	writable  []string
	fields    []int // record field per descriptor, -1 when not stored
	singleton []int // sync.Once field per descriptor, -1 otherwise
	onChanged reflect.Value
}

// Build synthesizes the model type of an introspected contract.
func Build(c *contract.Contract) (*Type, error) {
	t := &Type{
		contract:  c,
		plan:      layout.NewPlan(c.Writable()),
		tokens:    make(map[string]*Token, len(c.Properties)),
		fields:    make([]int, len(c.Properties)),
		singleton: make([]int, len(c.Properties)),
		onChanged: c.OnChanged,
	}

	fields := []reflect.StructField{{
		Name: "Mask",
		Type: t.plan.MaskType(),
		Tag:  `model:"-"`,
	}}
	for i := range c.Properties {
		p := &c.Properties[i]
		t.fields[i], t.singleton[i] = -1, -1

		if p.Stored() {
			t.fields[i] = len(fields)
			fields = append(fields, reflect.StructField{
				Name: fmt.Sprintf("F%d", i),
				Type: p.Type,
				Tag:  reflect.StructTag(fmt.Sprintf("model:%q", p.Name)),
			})
		}
		if p.Mode == core.ModeSingleton {
			t.singleton[i] = len(fields)
			fields = append(fields, reflect.StructField{
				Name: fmt.Sprintf("O%d", i),
				Type: onceType,
			})
		}
		if p.HasDefault && t.fields[i] >= 0 {
			t.defaults = append(t.defaults, defaultValue{field: t.fields[i], value: p.Default})
		}
	}
	t.record = reflect.StructOf(fields)

	bind, err := maskBinder(t.plan)
	if err != nil {
		return nil, core.WrapContractError(c.Name(), "", core.ErrInvalidContract, "mask layout", err)
	}
	if _, err := bind(reflect.New(t.record).Elem()); err != nil {
		return nil, core.WrapContractError(c.Name(), "", core.ErrInvalidContract, "mask layout", err)
	}
	t.bindMask = func(rec reflect.Value) layout.Mask {
		m, _ := bind(rec)
		return m
	}

	t.byOrdinal = make([]*Token, t.plan.Writable)
	t.writable = make([]string, t.plan.Writable)
	notifies := c.Notifies()
	for i := range c.Properties {
		p := &c.Properties[i]
		tok := &Token{
			Name:    p.Name,
			Ordinal: t.plan.Ordinals[i],
			Mode:    p.Mode,
			Type:    p.Type,
		}
		synthesize(tok, p, t.fields[i], t.singleton[i], notifies)

		t.tokens[tok.Name] = tok
		t.ordered = append(t.ordered, tok)
		if tok.Ordinal >= 0 {
			t.byOrdinal[tok.Ordinal] = tok
			t.writable[tok.Ordinal] = tok.Name
		}
	}
	return t, nil
}

func maskBinder(plan layout.Plan) (func(rec reflect.Value) (layout.Mask, error), error) {
	width := plan.Width
	if width == layout.WidthBytes {
		n := plan.Bytes()
		return func(rec reflect.Value) (layout.Mask, error) {
			return layout.Bind(width, rec.Field(0).Slice(0, n).Interface())
		}, nil
	}
	switch width {
	case layout.Width8, layout.Width16, layout.Width32, layout.Width64:
		return func(rec reflect.Value) (layout.Mask, error) {
			return layout.Bind(width, rec.Field(0).Addr().Interface())
		}, nil
	}
	return nil, fmt.Errorf("unknown mask width %s", width)
}

// New returns a fresh instance: defaults applied, nothing marked changed.
func (t *Type) New() *Instance {
	rec := reflect.New(t.record).Elem()
	for _, d := range t.defaults {
		rec.Field(d.field).Set(cloneValue(d.value))
	}
	in := &Instance{typ: t, rec: rec}
	in.self = reflect.ValueOf(in)
	in.mask = t.bindMask(rec)
	if t.contract.Notify {
		in.changed = new(notify.Slot)
	}
	return in
}

// cloneValue copies slices and maps so instances never share backing storage.
func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(out, v)
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out
	default:
		return v
	}
}

// Contract returns the contract struct type.
func (t *Type) Contract() reflect.Type { return t.contract.Type }

// Name returns the qualified contract name.
func (t *Type) Name() string { return t.contract.Name() }

// Plan returns the dirty-mask layout.
func (t *Type) Plan() layout.Plan { return t.plan }

// Record returns the synthesized storage struct type.
func (t *Type) Record() reflect.Type { return t.record }

// Notifies reports whether instances raise change notification.
func (t *Type) Notifies() bool { return t.contract.Notifies() }

// Tokens returns the shared name-keyed token table. It must not be modified.
func (t *Type) Tokens() map[string]*Token { return t.tokens }

// Token returns the token of one property.
func (t *Type) Token(name string) (*Token, bool) {
	tok, ok := t.tokens[name]
	return tok, ok
}

// Properties returns the tokens in descriptor order.
func (t *Type) Properties() []*Token {
	return append([]*Token(nil), t.ordered...)
}

// Writable returns the writable property names in ordinal order.
func (t *Type) Writable() []string {
	return append([]string(nil), t.writable...)
}

// Describe returns a one-line summary of the compiled layout.
func (t *Type) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d properties, %d tracked, mask %s (%d bytes)",
		t.Name(), len(t.ordered), t.plan.Writable, t.plan.GoType(), t.plan.Bytes())
	if t.Notifies() {
		b.WriteString(", notifies")
	}
	return b.String()
}
