package model

import "reflect"

// equalFunc picks the comparison used to suppress redundant notification:
// an Equal(T) bool method when T declares one, == when == cannot panic on T,
// reflect.DeepEqual otherwise.
func equalFunc(t reflect.Type) func(a, b reflect.Value) bool {
	if m, ok := t.MethodByName("Equal"); ok && t.Kind() != reflect.Interface {
		mt := m.Type
		if mt.NumIn() == 2 && mt.In(1) == t && mt.NumOut() == 1 && mt.Out(0).Kind() == reflect.Bool {
			fn := m.Func
			nillable := t.Kind() == reflect.Pointer
			return func(a, b reflect.Value) bool {
				if nillable && (a.IsNil() || b.IsNil()) {
					return a.IsNil() && b.IsNil()
				}
				return fn.Call([]reflect.Value{a, b})[0].Bool()
			}
		}
	}

	switch {
	case t.Kind() == reflect.Interface:
		return func(a, b reflect.Value) bool {
			return equalDynamic(a.Interface(), b.Interface())
		}
	case strictlyComparable(t):
		return func(a, b reflect.Value) bool {
			return a.Interface() == b.Interface()
		}
	default:
		return func(a, b reflect.Value) bool {
			return reflect.DeepEqual(a.Interface(), b.Interface())
		}
	}
}

func equalDynamic(x, y any) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	tx := reflect.TypeOf(x)
	if tx != reflect.TypeOf(y) {
		return false
	}
	if strictlyComparable(tx) {
		return x == y
	}
	return reflect.DeepEqual(x, y)
}

// strictlyComparable reports whether t is comparable and holds no interface
// values. == on a comparable struct or array still panics when an interface
// inside it carries a slice, map or func.
func strictlyComparable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface:
		return false
	case reflect.Array:
		return strictlyComparable(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !strictlyComparable(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return t.Comparable()
	}
}
