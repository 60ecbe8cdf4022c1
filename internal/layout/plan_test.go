package layout

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWidthFor_Boundaries(t *testing.T) {
	tests := []struct {
		writable int
		want     Width
	}{
		{0, Width8},
		{8, Width8},
		{9, Width16},
		{16, Width16},
		{17, Width32},
		{32, Width32},
		{33, Width64},
		{64, Width64},
		{65, WidthBytes},
		{200, WidthBytes},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, WidthFor(tt.writable), "writable=%d", tt.writable)
		})
	}
}

func TestWidth_Type(t *testing.T) {
	assert.Equal(t, reflect.TypeFor[uint8](), Width8.Type(3))
	assert.Equal(t, reflect.TypeFor[uint16](), Width16.Type(9))
	assert.Equal(t, reflect.TypeFor[uint32](), Width32.Type(20))
	assert.Equal(t, reflect.TypeFor[uint64](), Width64.Type(64))
	assert.Equal(t, reflect.TypeFor[[9]byte](), WidthBytes.Type(65))
	assert.Equal(t, reflect.TypeFor[[9]byte](), WidthBytes.Type(72))
	assert.Equal(t, reflect.TypeFor[[10]byte](), WidthBytes.Type(73))
}

func TestWidth_GoType(t *testing.T) {
	assert.Equal(t, "uint8", Width8.GoType(1))
	assert.Equal(t, "uint64", Width64.GoType(40))
	assert.Equal(t, "[9]byte", WidthBytes.GoType(65))
}

func TestNewPlan(t *testing.T) {
	plan := NewPlan([]bool{true, false, true, true, false})

	assert.Equal(t, 3, plan.Writable)
	assert.Equal(t, Width8, plan.Width)
	assert.Equal(t, []int{0, -1, 1, 2, -1}, plan.Ordinals)
	assert.Equal(t, 1, plan.Bytes())
}

func TestNewPlan_ReadOnlyDoesNotWiden(t *testing.T) {
	flags := make([]bool, 20)
	for i := 0; i < 8; i++ {
		flags[i] = true
	}

	plan := NewPlan(flags)
	assert.Equal(t, 8, plan.Writable)
	assert.Equal(t, Width8, plan.Width, "read-only descriptors must not occupy mask bits")
}

func TestNewPlan_Wide(t *testing.T) {
	flags := make([]bool, 65)
	for i := range flags {
		flags[i] = true
	}

	plan := NewPlan(flags)
	assert.Equal(t, WidthBytes, plan.Width)
	assert.Equal(t, 9, plan.Bytes())
	assert.Equal(t, "[9]byte", plan.GoType())
	assert.Equal(t, 64, plan.Ordinals[64])
}
