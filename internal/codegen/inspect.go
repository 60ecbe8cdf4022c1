package codegen

import (
	"go/types"
	"reflect"

	"github.com/leapstack-labs/leapmodel/internal/layout"
	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// reserved method names of the generated surface.
var reserved = map[string]bool{
	"GetCount": true, "HasChanges": true, "GetChanges": true, "ChangedNames": true,
	"Reset": true, "ResetMany": true, "TryGetValue": true, "TrySetValue": true,
	"AddPropertyChanged": true, "RemovePropertyChanged": true,
}

type inspector struct {
	pkg     *types.Package
	named   *types.Named
	name    string
	imports *importSet
	host    *types.MethodSet
	model   types.Type // core.Model, nil when the package never reaches pkg/core
	c       *Contract
}

func inspect(pkg *types.Package, named *types.Named, imports *importSet) (*Contract, error) {
	in := &inspector{
		pkg:     pkg,
		named:   named,
		name:    pkg.Name() + "." + named.Obj().Name(),
		imports: imports,
		host:    types.NewMethodSet(types.NewPointer(named)),
		model:   findModel(pkg),
		c:       &Contract{Name: named.Obj().Name()},
	}

	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil, core.NewContractError(in.name, "", core.ErrInvalidContract,
			"contract must be a struct, got %s", named.Underlying())
	}
	if err := in.walk(st); err != nil {
		return nil, err
	}
	if err := in.resolveOnChanged(); err != nil {
		return nil, err
	}
	if err := in.checkMethods(); err != nil {
		return nil, err
	}

	writable := make([]bool, len(in.c.Properties))
	for i, p := range in.c.Properties {
		writable[i] = p.Writable
	}
	in.c.Plan = layout.NewPlan(writable)
	for i, p := range in.c.Properties {
		p.Ordinal = in.c.Plan.Ordinals[i]
	}
	return in.c, nil
}

// findModel locates core.Model among the transitive imports of pkg.
func findModel(pkg *types.Package) types.Type {
	seen := map[*types.Package]bool{pkg: true}
	queue := []*types.Package{pkg}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if p.Path() == corePath {
			if obj := p.Scope().Lookup("Model"); obj != nil {
				return obj.Type()
			}
			return nil
		}
		for _, imp := range p.Imports() {
			if !seen[imp] {
				seen[imp] = true
				queue = append(queue, imp)
			}
		}
	}
	return nil
}

type node struct {
	st       *types.Struct
	declarer types.Type
}

func (in *inspector) walk(root *types.Struct) error {
	queue := []node{{st: root, declarer: in.named}}
	visited := map[types.Type]bool{in.named: true}
	seen := make(map[string]int)

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		for i := 0; i < n.st.NumFields(); i++ {
			f := n.st.Field(i)
			rawTag := reflect.StructTag(n.st.Tag(i))

			tag, err := core.ParseTag(rawTag.Get(core.TagKey))
			if err != nil {
				return core.WrapContractError(in.name, f.Name(), core.ErrInvalidContract, "bad tag", err)
			}
			if tag.Skip {
				continue
			}

			if f.Embedded() {
				embedded := f.Type()
				if ptr, ok := embedded.(*types.Pointer); ok {
					embedded = ptr.Elem()
				}
				if isMarker(embedded) {
					in.c.Notify = true
					continue
				}
				est, ok := embedded.Underlying().(*types.Struct)
				if !ok {
					return core.NewContractError(in.name, f.Name(), core.ErrInvalidContract,
						"embedded contract %s is not a struct", f.Type())
				}
				if !visited[embedded] {
					visited[embedded] = true
					in.c.Inherited = append(in.c.Inherited, types.TypeString(embedded, types.RelativeTo(in.pkg)))
					queue = append(queue, node{st: est, declarer: embedded})
				}
				continue
			}

			if !f.Exported() {
				continue
			}

			p, err := in.resolve(f, tag, rawTag)
			if err != nil {
				return err
			}
			if at, dup := seen[p.Name]; dup {
				prev := in.c.Properties[at]
				if prev.TypeExpr != p.TypeExpr {
					return core.NewContractError(in.name, p.Name, core.ErrInvalidContract,
						"declared as %s and as %s by %s", prev.TypeExpr, p.TypeExpr, n.declarer)
				}
				continue
			}
			seen[p.Name] = len(in.c.Properties)
			in.c.Properties = append(in.c.Properties, p)
		}
	}
	return nil
}

func isMarker(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == corePath && obj.Name() == "NotifyPropertyChanged"
}

func (in *inspector) resolve(f *types.Var, tag core.Tag, rawTag reflect.StructTag) (*Property, error) {
	t := f.Type()
	p := &Property{
		Name:     f.Name(),
		Field:    f.Name(),
		TypeExpr: types.TypeString(t, in.imports.qualify),
		Writable: !tag.ReadOnly,
		Mode:     tag.Mode,
		Compare:  comparison(t),
		Nillable: nillable(t),
	}
	if tag.Name != "" {
		p.Name = tag.Name
	}

	if raw, ok := rawTag.Lookup(core.DefaultTagKey); ok {
		if p.Mode == core.ModeSingleton {
			return nil, core.NewContractError(in.name, p.Name, core.ErrInvalidContract,
				"singleton properties cannot declare a default value")
		}
		expr, err := defaultExpr(raw, t, in.imports.qualify)
		if err != nil {
			return nil, core.WrapContractError(in.name, p.Name, core.ErrDefaultConversion,
				"cannot convert \""+raw+"\" to "+p.TypeExpr, err)
		}
		p.Default = expr
	}

	switch p.Mode {
	case core.ModeExtension:
		if err := in.resolveExtension(p, t); err != nil {
			return nil, err
		}
	case core.ModeSingleton:
		if err := in.resolveSingleton(p, t, tag.Factory); err != nil {
			return nil, err
		}
	}

	switch p.Mode {
	case core.ModeExtension:
		p.Stored = p.Writable || p.GetterTakesCurrent || p.Default != ""
	default:
		p.Stored = true
	}
	return p, nil
}

func (in *inspector) method(name string) *types.Signature {
	sel := in.host.Lookup(in.pkg, name)
	if sel == nil {
		return nil
	}
	sig, _ := sel.Type().(*types.Signature)
	return sig
}

func (in *inspector) acceptsModel(t types.Type) bool {
	iface, ok := t.Underlying().(*types.Interface)
	if !ok {
		return false
	}
	if iface.Empty() {
		return true
	}
	return in.model != nil && types.AssignableTo(in.model, t)
}

func (in *inspector) resolveExtension(p *Property, t types.Type) error {
	getName := "Get" + p.Field
	get := in.method(getName)
	if get == nil {
		return core.NewContractError(in.name, p.Name, core.ErrExtensionNotFound,
			"%s has no method %s", in.named.Obj().Name(), getName)
	}

	params, results := get.Params(), get.Results()
	okResult := results.Len() == 1 && types.Identical(results.At(0).Type(), t)
	switch {
	case okResult && params.Len() == 1 && in.acceptsModel(params.At(0).Type()):
	case okResult && params.Len() == 2 && in.acceptsModel(params.At(0).Type()) && types.Identical(params.At(1).Type(), t):
		p.GetterTakesCurrent = true
	default:
		return core.NewContractError(in.name, p.Name, core.ErrExtensionNotFound,
			"%s has signature %s, want func(core.Model) %s or func(core.Model, %s) %s",
			getName, get, p.TypeExpr, p.TypeExpr, p.TypeExpr)
	}

	if !p.Writable {
		return nil
	}

	setName := "Set" + p.Field
	set := in.method(setName)
	if set == nil {
		return core.NewContractError(in.name, p.Name, core.ErrExtensionNotFound,
			"%s has no method %s for writable extension property", in.named.Obj().Name(), setName)
	}
	params, results = set.Params(), set.Results()
	if params.Len() != 3 || !in.acceptsModel(params.At(0).Type()) ||
		!types.Identical(params.At(1).Type(), t) || !types.Identical(params.At(2).Type(), t) ||
		results.Len() != 2 || !types.Identical(results.At(0).Type(), t) || !isBool(results.At(1).Type()) {
		return core.NewContractError(in.name, p.Name, core.ErrExtensionNotFound,
			"%s has signature %s, want func(core.Model, %s, %s) (%s, bool)",
			setName, set, p.TypeExpr, p.TypeExpr, p.TypeExpr)
	}
	return nil
}

func (in *inspector) resolveSingleton(p *Property, t types.Type, factory string) error {
	if factory != "" {
		fn := in.method(factory)
		if fn == nil {
			return core.NewContractError(in.name, p.Name, core.ErrSingletonNotReference,
				"%s has no factory method %s", in.named.Obj().Name(), factory)
		}
		if fn.Params().Len() != 0 || fn.Results().Len() != 1 || !types.AssignableTo(fn.Results().At(0).Type(), t) {
			return core.NewContractError(in.name, p.Name, core.ErrSingletonNotReference,
				"%s has signature %s, want func() %s", factory, fn, p.TypeExpr)
		}
		p.Factory = factory
		p.Construct = constructFactory
		return nil
	}

	switch u := t.Underlying().(type) {
	case *types.Pointer:
		p.Construct = constructNew
		p.Elem = types.TypeString(u.Elem(), in.imports.qualify)
	case *types.Map:
		p.Construct = constructMap
	case *types.Slice:
		p.Construct = constructSlice
	case *types.Chan:
		p.Construct = constructChan
	default:
		return core.NewContractError(in.name, p.Name, core.ErrSingletonNotReference,
			"%s is not a pointer, map, slice or chan; declare factory=", p.TypeExpr)
	}
	return nil
}

func (in *inspector) resolveOnChanged() error {
	fn := in.method(core.OnPropertyChangedMethod)
	if fn == nil {
		return nil
	}
	params := fn.Params()
	if params.Len() != 2 || !in.acceptsModel(params.At(0).Type()) ||
		!isString(params.At(1).Type()) || fn.Results().Len() != 0 {
		return core.NewContractError(in.name, "", core.ErrInvalidContract,
			"%s has signature %s, want func(core.Model, string)", core.OnPropertyChangedMethod, fn)
	}
	in.c.OnChanged = true
	return nil
}

// checkMethods rejects properties whose accessor names collide with each
// other or with the generated surface.
func (in *inspector) checkMethods() error {
	owner := make(map[string]string)
	claim := func(method, prop string) error {
		if reserved[method] {
			return core.NewContractError(in.name, prop, core.ErrInvalidContract,
				"accessor %s collides with a core.Model method", method)
		}
		if other, ok := owner[method]; ok {
			return core.NewContractError(in.name, prop, core.ErrInvalidContract,
				"accessor %s is also generated for %s", method, other)
		}
		owner[method] = prop
		return nil
	}
	for _, p := range in.c.Properties {
		if err := claim(p.Field, p.Name); err != nil {
			return err
		}
		if p.Writable {
			if err := claim("Set"+p.Field, p.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func comparison(t types.Type) compare {
	if hasEqualMethod(t) {
		if _, ok := t.Underlying().(*types.Pointer); ok {
			return compareEqualMethodPtr
		}
		return compareEqualMethod
	}
	if !strictlyComparable(t) {
		return compareDeep
	}
	return compareEqual
}

// strictlyComparable reports whether == on t can never panic: t is comparable
// and no interface is reachable through its struct fields or array elements.
func strictlyComparable(t types.Type) bool {
	switch u := t.Underlying().(type) {
	case *types.Interface:
		return false
	case *types.Array:
		return strictlyComparable(u.Elem())
	case *types.Struct:
		for i := range u.NumFields() {
			if !strictlyComparable(u.Field(i).Type()) {
				return false
			}
		}
		return true
	default:
		return types.Comparable(t)
	}
}

func hasEqualMethod(t types.Type) bool {
	if types.IsInterface(t) {
		return false
	}
	sel := types.NewMethodSet(t).Lookup(nil, "Equal")
	if sel == nil {
		return false
	}
	sig, ok := sel.Type().(*types.Signature)
	return ok && sig.Params().Len() == 1 && types.Identical(sig.Params().At(0).Type(), t) &&
		sig.Results().Len() == 1 && isBool(sig.Results().At(0).Type())
}

func nillable(t types.Type) bool {
	switch t.Underlying().(type) {
	case *types.Pointer, *types.Map, *types.Slice, *types.Chan, *types.Signature, *types.Interface:
		return true
	default:
		return false
	}
}

func isBool(t types.Type) bool {
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Kind() == types.Bool
}

func isString(t types.Type) bool {
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Kind() == types.String
}
