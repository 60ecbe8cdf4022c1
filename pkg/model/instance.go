package model

import (
	"reflect"

	"github.com/leapstack-labs/leapmodel/internal/layout"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/leapstack-labs/leapmodel/pkg/notify"
)

var (
	_ core.Model    = (*Instance)(nil)
	_ core.Notifier = (*Instance)(nil)
)

// Instance is one compiled model value.
//
// Writes, resets and reads are not synchronized; an instance shared between
// goroutines needs external locking. Singleton initialization and observer
// registration are the exceptions and are safe for concurrent use.
type Instance struct {
	typ     *Type
	rec     reflect.Value
	self    reflect.Value
	mask    layout.Mask
	changed *notify.Slot
}

// Type returns the compiled type shared by all instances of the contract.
func (in *Instance) Type() *Type {
	return in.typ
}

// GetCount implements core.Model.
func (in *Instance) GetCount() int {
	return in.mask.Count()
}

// HasChanges implements core.Model.
func (in *Instance) HasChanges(names ...string) bool {
	if len(names) == 0 {
		return in.mask.Any()
	}
	for _, name := range names {
		if tok, ok := in.typ.tokens[name]; ok && tok.Ordinal >= 0 && in.mask.Test(tok.Ordinal) {
			return true
		}
	}
	return false
}

// GetChanges implements core.Model.
func (in *Instance) GetChanges() map[string]any {
	ordinals := in.mask.Ordinals()
	if len(ordinals) == 0 {
		return nil
	}
	changes := make(map[string]any, len(ordinals))
	for _, o := range ordinals {
		tok := in.typ.byOrdinal[o]
		changes[tok.Name] = tok.Get(in)
	}
	return changes
}

// ChangedNames returns the changed property names in ordinal order.
func (in *Instance) ChangedNames() []string {
	ordinals := in.mask.Ordinals()
	if len(ordinals) == 0 {
		return nil
	}
	names := make([]string, len(ordinals))
	for i, o := range ordinals {
		names[i] = in.typ.writable[o]
	}
	return names
}

// Reset implements core.Model.
func (in *Instance) Reset(name string) (any, bool) {
	tok, ok := in.typ.tokens[name]
	if !ok || tok.Ordinal < 0 || !in.mask.Test(tok.Ordinal) {
		return nil, false
	}
	old := tok.Get(in)
	in.mask.Clear(tok.Ordinal)
	return old, true
}

// ResetMany implements core.Model.
func (in *Instance) ResetMany(names ...string) {
	for _, name := range names {
		if tok, ok := in.typ.tokens[name]; ok && tok.Ordinal >= 0 {
			in.mask.Clear(tok.Ordinal)
		}
	}
}

// TryGetValue implements core.Model.
func (in *Instance) TryGetValue(name string) (any, bool) {
	tok, ok := in.typ.tokens[name]
	if !ok {
		return nil, false
	}
	return tok.Get(in), true
}

// TrySetValue implements core.Model.
func (in *Instance) TrySetValue(name string, value any) bool {
	tok, ok := in.typ.tokens[name]
	if !ok || tok.Set == nil {
		return false
	}
	return tok.Set(in, value)
}

// AddPropertyChanged implements core.Notifier. Instances of contracts that did
// not opt into notification accept nothing and return the zero Subscription.
func (in *Instance) AddPropertyChanged(fn core.PropertyChangedFunc) core.Subscription {
	if in.changed == nil {
		return 0
	}
	return in.changed.Add(fn)
}

// RemovePropertyChanged implements core.Notifier.
func (in *Instance) RemovePropertyChanged(sub core.Subscription) bool {
	if in.changed == nil {
		return false
	}
	return in.changed.Remove(sub)
}

func (in *Instance) raise(name string) {
	if in.changed != nil {
		in.changed.Fire(in, name)
	}
	if in.typ.onChanged.IsValid() {
		in.typ.onChanged.Call([]reflect.Value{in.self, reflect.ValueOf(name)})
	}
}

// Clone returns a copy carrying the stored values and the changed set.
// Slice and map values are copied one level deep. Singletons are rebuilt
// lazily on the copy and observers are not copied.
func (in *Instance) Clone() *Instance {
	out := in.typ.New()
	out.rec.Field(0).Set(in.rec.Field(0))
	for i, field := range in.typ.fields {
		if field < 0 || in.typ.singleton[i] >= 0 {
			continue
		}
		out.rec.Field(field).Set(cloneValue(in.rec.Field(field)))
	}
	return out
}
