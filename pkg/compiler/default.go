package compiler

import (
	"reflect"
)

// Default is the process-wide compiler used by the package-level functions.
var Default = New()

// Compile compiles t with Default.
func Compile(t reflect.Type) (Factory, error) {
	return Default.Compile(t)
}

// Of returns the factory of contract T from Default.
func Of[T any]() (Factory, error) {
	return Default.Compile(reflect.TypeFor[T]())
}

// MustOf is like Of but panics if T is not a valid contract.
// It is intended for package-level variable initialization.
func MustOf[T any]() Factory {
	f, err := Of[T]()
	if err != nil {
		panic(err)
	}
	return f
}
