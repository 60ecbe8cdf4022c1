package model

import (
	"reflect"
	"sync"

	"github.com/leapstack-labs/leapmodel/internal/contract"
	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// synthesize fills in tok.Get and tok.Set for the property's mode.
// field is the storage field index (-1 when not stored), once the
// sync.Once field index of a singleton.
func synthesize(tok *Token, p *contract.Property, field, once int, notifies bool) {
	switch p.Mode {
	case core.ModeExtension:
		extensionAccessors(tok, p, field, notifies)
	case core.ModeSingleton:
		tok.Get = singletonGetter(p, field, once)
	default:
		tok.Get = fieldGetter(field)
		if p.Writable {
			tok.Set = fieldSetter(tok, field, notifies)
		}
	}
}

func fieldGetter(field int) func(*Instance) any {
	return func(in *Instance) any {
		return in.rec.Field(field).Interface()
	}
}

// fieldSetter stores unconditionally and marks the bit; notification is
// raised only when the stored value actually differs.
func fieldSetter(tok *Token, field int, notifies bool) func(*Instance, any) bool {
	var equal func(a, b reflect.Value) bool
	if notifies {
		equal = equalFunc(tok.Type)
	}
	name, ordinal, typ := tok.Name, tok.Ordinal, tok.Type

	return func(in *Instance, v any) bool {
		nv, ok := assign(v, typ)
		if !ok {
			return false
		}
		f := in.rec.Field(field)
		changed := notifies && !equal(f, nv)
		f.Set(nv)
		in.mask.Set(ordinal)
		if changed {
			in.raise(name)
		}
		return true
	}
}

func extensionAccessors(tok *Token, p *contract.Property, field int, notifies bool) {
	get := p.Getter
	if p.GetterTakesCurrent {
		tok.Get = func(in *Instance) any {
			return get.Call([]reflect.Value{in.self, in.rec.Field(field)})[0].Interface()
		}
	} else {
		tok.Get = func(in *Instance) any {
			return get.Call([]reflect.Value{in.self})[0].Interface()
		}
	}

	if !p.Writable {
		return
	}
	set := p.Setter
	name, ordinal, typ := tok.Name, tok.Ordinal, tok.Type

	// The setter decides: only an accepted value is stored, marked and announced.
	tok.Set = func(in *Instance, v any) bool {
		nv, ok := assign(v, typ)
		if !ok {
			return false
		}
		f := in.rec.Field(field)
		out := set.Call([]reflect.Value{in.self, f, nv})
		if !out[1].Bool() {
			return true
		}
		f.Set(out[0])
		in.mask.Set(ordinal)
		if notifies {
			in.raise(name)
		}
		return true
	}
}

func singletonGetter(p *contract.Property, field, once int) func(*Instance) any {
	construct := constructor(p)
	return func(in *Instance) any {
		f := in.rec.Field(field)
		o := in.rec.Field(once).Addr().Interface().(*sync.Once)
		o.Do(func() {
			f.Set(construct())
		})
		return f.Interface()
	}
}

func constructor(p *contract.Property) func() reflect.Value {
	if p.Factory.IsValid() {
		fn := p.Factory
		return func() reflect.Value {
			return fn.Call(nil)[0]
		}
	}
	t := p.Type
	switch t.Kind() {
	case reflect.Map:
		return func() reflect.Value { return reflect.MakeMap(t) }
	case reflect.Slice:
		return func() reflect.Value { return reflect.MakeSlice(t, 0, 0) }
	case reflect.Chan:
		return func() reflect.Value { return reflect.MakeChan(t, 0) }
	default:
		return func() reflect.Value { return reflect.New(t.Elem()) }
	}
}

// assign converts v to a value of type t. Untyped nil is accepted for
// nillable kinds; everything else must be assignable.
func assign(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
			return reflect.Zero(t), true
		default:
			return reflect.Value{}, false
		}
	}
	rv := reflect.ValueOf(v)
	if rv.Type() == t {
		return rv, true
	}
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, false
	}
	out := reflect.New(t).Elem()
	out.Set(rv)
	return out, true
}
