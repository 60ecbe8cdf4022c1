// Package layout plans the dirty-mask representation of a compiled model.
//
// The smallest unsigned integer that fits every writable property is used;
// contracts with more than 64 writable properties fall back to a byte array.
// Ordinals are assigned to writable properties in descriptor order and map
// ordinal i to bit i (byte i/8, bit i%8 for the array form).
package layout

import (
	"fmt"
	"reflect"
)

// Width is the storage class of a dirty mask.
type Width int

// Mask width classes.
const (
	Width8 Width = iota
	Width16
	Width32
	Width64
	WidthBytes
)

// String returns the Go name of the width class.
func (w Width) String() string {
	switch w {
	case Width8:
		return "uint8"
	case Width16:
		return "uint16"
	case Width32:
		return "uint32"
	case Width64:
		return "uint64"
	case WidthBytes:
		return "[]byte"
	default:
		return fmt.Sprintf("width(%d)", int(w))
	}
}

// WidthFor returns the smallest width class that holds n bits.
func WidthFor(n int) Width {
	switch {
	case n <= 8:
		return Width8
	case n <= 16:
		return Width16
	case n <= 32:
		return Width32
	case n <= 64:
		return Width64
	default:
		return WidthBytes
	}
}

// ByteLen returns the number of bytes the mask occupies for n bits.
func (w Width) ByteLen(n int) int {
	switch w {
	case Width8:
		return 1
	case Width16:
		return 2
	case Width32:
		return 4
	case Width64:
		return 8
	default:
		return (n + 7) / 8
	}
}

// Type returns the reflect type of a mask field holding n bits.
func (w Width) Type(n int) reflect.Type {
	switch w {
	case Width8:
		return reflect.TypeFor[uint8]()
	case Width16:
		return reflect.TypeFor[uint16]()
	case Width32:
		return reflect.TypeFor[uint32]()
	case Width64:
		return reflect.TypeFor[uint64]()
	default:
		return reflect.ArrayOf(w.ByteLen(n), reflect.TypeFor[byte]())
	}
}

// GoType returns the Go source spelling of a mask field holding n bits.
func (w Width) GoType(n int) string {
	if w == WidthBytes {
		return fmt.Sprintf("[%d]byte", w.ByteLen(n))
	}
	return w.String()
}

// Plan is the dirty-mask layout of one contract.
type Plan struct {
	// Writable is the number of properties that occupy a mask bit.
	Writable int
	// Width is the mask storage class.
	Width Width
	// Ordinals holds the bit of each descriptor, -1 for read-only descriptors.
	Ordinals []int
}

// NewPlan assigns ordinals to the writable descriptors, in order.
func NewPlan(writable []bool) Plan {
	ordinals := make([]int, len(writable))
	next := 0
	for i, w := range writable {
		if !w {
			ordinals[i] = -1
			continue
		}
		ordinals[i] = next
		next++
	}
	return Plan{
		Writable: next,
		Width:    WidthFor(next),
		Ordinals: ordinals,
	}
}

// Bytes returns the size of the mask in bytes.
func (p Plan) Bytes() int {
	return p.Width.ByteLen(p.Writable)
}

// MaskType returns the reflect type of the mask field.
func (p Plan) MaskType() reflect.Type {
	return p.Width.Type(p.Writable)
}

// GoType returns the Go source spelling of the mask field.
func (p Plan) GoType() string {
	return p.Width.GoType(p.Writable)
}
