package contract

import (
	"reflect"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// acceptsModel reports whether a parameter of type p can receive a compiled instance.
func acceptsModel(p reflect.Type) bool {
	return p.Kind() == reflect.Interface && modelType.Implements(p)
}

// resolveExtension binds Get<Name> and, for writable properties, Set<Name>.
//
// Accepted signatures (receiver bound to the host):
//
//	Get<Name>(m core.Model) T
//	Get<Name>(m core.Model, current T) T
//	Set<Name>(m core.Model, current T, value T) (T, bool)
func (c *Contract) resolveExtension(host reflect.Value, p *Property) error {
	getName := "Get" + p.Field
	get := host.MethodByName(getName)
	if !get.IsValid() {
		return core.NewContractError(c.Name(), p.Name, core.ErrExtensionNotFound,
			"%s has no method %s", c.Host, getName)
	}

	gt := get.Type()
	okResult := gt.NumOut() == 1 && gt.Out(0) == p.Type
	switch {
	case okResult && gt.NumIn() == 1 && acceptsModel(gt.In(0)):
		p.Getter = get
	case okResult && gt.NumIn() == 2 && acceptsModel(gt.In(0)) && gt.In(1) == p.Type:
		p.Getter = get
		p.GetterTakesCurrent = true
	default:
		return core.NewContractError(c.Name(), p.Name, core.ErrExtensionNotFound,
			"%s.%s has signature %s, want func(core.Model) %s or func(core.Model, %s) %s",
			c.Host, getName, gt, p.Type, p.Type, p.Type)
	}

	if !p.Writable {
		return nil
	}

	setName := "Set" + p.Field
	set := host.MethodByName(setName)
	if !set.IsValid() {
		return core.NewContractError(c.Name(), p.Name, core.ErrExtensionNotFound,
			"%s has no method %s for writable extension property", c.Host, setName)
	}
	st := set.Type()
	if st.NumIn() != 3 || !acceptsModel(st.In(0)) || st.In(1) != p.Type || st.In(2) != p.Type ||
		st.NumOut() != 2 || st.Out(0) != p.Type || st.Out(1).Kind() != reflect.Bool {
		return core.NewContractError(c.Name(), p.Name, core.ErrExtensionNotFound,
			"%s.%s has signature %s, want func(core.Model, %s, %s) (%s, bool)",
			c.Host, setName, st, p.Type, p.Type, p.Type)
	}
	p.Setter = set
	return nil
}

// resolveSingleton checks that the singleton can be constructed, either by a
// factory method on the host or from a reference kind.
func (c *Contract) resolveSingleton(host reflect.Value, p *Property, factory string) error {
	if factory != "" {
		fn := host.MethodByName(factory)
		if !fn.IsValid() {
			return core.NewContractError(c.Name(), p.Name, core.ErrSingletonNotReference,
				"%s has no factory method %s", c.Host, factory)
		}
		ft := fn.Type()
		if ft.NumIn() != 0 || ft.NumOut() != 1 || !ft.Out(0).AssignableTo(p.Type) {
			return core.NewContractError(c.Name(), p.Name, core.ErrSingletonNotReference,
				"%s.%s has signature %s, want func() %s", c.Host, factory, ft, p.Type)
		}
		p.Factory = fn
		return nil
	}

	if !Constructible(p.Type) {
		return core.NewContractError(c.Name(), p.Name, core.ErrSingletonNotReference,
			"%s is not a pointer, map, slice or chan; declare factory=", p.Type)
	}
	return nil
}

// Constructible reports whether a singleton of type t can be built without a factory.
func Constructible(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan:
		return true
	default:
		return false
	}
}

// resolveOnChanged binds the optional OnPropertyChanged host method.
func (c *Contract) resolveOnChanged(host reflect.Value) error {
	fn := host.MethodByName(core.OnPropertyChangedMethod)
	if !fn.IsValid() {
		return nil
	}
	ft := fn.Type()
	if ft.NumIn() != 2 || !acceptsModel(ft.In(0)) || ft.In(1).Kind() != reflect.String || ft.NumOut() != 0 {
		return core.NewContractError(c.Name(), "", core.ErrInvalidContract,
			"%s.%s has signature %s, want func(core.Model, string)", c.Host, core.OnPropertyChangedMethod, ft)
	}
	c.OnChanged = fn
	return nil
}
