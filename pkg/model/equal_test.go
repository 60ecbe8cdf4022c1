package model

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type version struct{ major, minor int }

type box struct{ V any }

func (v *version) Equal(o *version) bool {
	return v.major == o.major
}

func TestEqualFunc(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		a, b any
		want bool
	}{
		{"int equal", reflect.TypeFor[int](), 1, 1, true},
		{"int differ", reflect.TypeFor[int](), 1, 2, false},
		{"slice deep", reflect.TypeFor[[]int](), []int{1, 2}, []int{1, 2}, true},
		{"slice differ", reflect.TypeFor[[]int](), []int{1}, []int{2}, false},
		{"map deep", reflect.TypeFor[map[string]int](), map[string]int{"a": 1}, map[string]int{"a": 1}, true},
		{"equal method", reflect.TypeFor[Money](), Money{1, "eur"}, Money{1, "EUR"}, true},
		{"pointer equal method", reflect.TypeFor[*version](), &version{1, 0}, &version{1, 5}, true},
		{"pointer nil", reflect.TypeFor[*version](), (*version)(nil), &version{1, 0}, false},
		{"pointer both nil", reflect.TypeFor[*version](), (*version)(nil), (*version)(nil), true},
		{"interface uncomparable", reflect.TypeFor[any](), []int{1}, []int{1}, true},
		{"interface types differ", reflect.TypeFor[any](), 1, int64(1), false},
		{"interface nil", reflect.TypeFor[any](), nil, 1, false},
		{"struct with slice in interface", reflect.TypeFor[box](), box{[]int{1}}, box{[]int{1}}, true},
		{"struct with map in interface", reflect.TypeFor[box](), box{map[string]int{"a": 1}}, box{map[string]int{"a": 2}}, false},
		{"struct with scalar in interface", reflect.TypeFor[box](), box{1}, box{1}, true},
		{"array of interfaces", reflect.TypeFor[[2]any](), [2]any{[]int{1}, 2}, [2]any{[]int{1}, 2}, true},
		{"interface holding such struct", reflect.TypeFor[any](), box{[]int{1}}, box{[]int{2}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eq := equalFunc(tt.typ)
			a, b := reflect.New(tt.typ).Elem(), reflect.New(tt.typ).Elem()
			if tt.a != nil {
				a.Set(reflect.ValueOf(tt.a))
			}
			if tt.b != nil {
				b.Set(reflect.ValueOf(tt.b))
			}
			assert.Equal(t, tt.want, eq(a, b))
		})
	}
}

func TestStrictlyComparable(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want bool
	}{
		{reflect.TypeFor[int](), true},
		{reflect.TypeFor[string](), true},
		{reflect.TypeFor[*int](), true},
		{reflect.TypeFor[Money](), true},
		{reflect.TypeFor[[3]int](), true},
		{reflect.TypeFor[any](), false},
		{reflect.TypeFor[box](), false},
		{reflect.TypeFor[[2]any](), false},
		{reflect.TypeFor[struct{ B box }](), false},
		{reflect.TypeFor[[]int](), false},
		{reflect.TypeFor[map[string]int](), false},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, strictlyComparable(tt.typ))
		})
	}
}
