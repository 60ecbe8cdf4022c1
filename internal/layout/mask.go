package layout

import (
	"fmt"
	"math/bits"
)

// Mask is a dirty mask bound to storage owned by a model instance.
// Ordinals outside the planned range are ignored by Set and Clear and report
// false from Test.
type Mask interface {
	Set(ordinal int)
	Clear(ordinal int)
	Test(ordinal int) bool
	Count() int
	Any() bool
	// Ordinals returns the set ordinals in ascending order, nil when none are set.
	Ordinals() []int
}

type word interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// wordMask is the fixed-width form. bits is the width of W.
type wordMask[W word] struct {
	p    *W
	bits int
}

func (m wordMask[W]) Set(ordinal int) {
	if ordinal < 0 || ordinal >= m.bits {
		return
	}
	*m.p |= W(1) << uint(ordinal)
}

func (m wordMask[W]) Clear(ordinal int) {
	if ordinal < 0 || ordinal >= m.bits {
		return
	}
	*m.p &^= W(1) << uint(ordinal)
}

func (m wordMask[W]) Test(ordinal int) bool {
	if ordinal < 0 || ordinal >= m.bits {
		return false
	}
	return *m.p&(W(1)<<uint(ordinal)) != 0
}

func (m wordMask[W]) Count() int {
	return bits.OnesCount64(uint64(*m.p))
}

func (m wordMask[W]) Any() bool {
	return *m.p != 0
}

func (m wordMask[W]) Ordinals() []int {
	v := uint64(*m.p)
	if v == 0 {
		return nil
	}
	out := make([]int, 0, bits.OnesCount64(v))
	for v != 0 {
		i := bits.TrailingZeros64(v)
		out = append(out, i)
		v &= v - 1
	}
	return out
}

// byteMask is the array form used beyond 64 writable properties.
type byteMask struct {
	b []byte
}

func (m byteMask) Set(ordinal int) {
	if ordinal < 0 || ordinal/8 >= len(m.b) {
		return
	}
	m.b[ordinal/8] |= 1 << uint(ordinal%8)
}

func (m byteMask) Clear(ordinal int) {
	if ordinal < 0 || ordinal/8 >= len(m.b) {
		return
	}
	m.b[ordinal/8] &^= 1 << uint(ordinal%8)
}

func (m byteMask) Test(ordinal int) bool {
	if ordinal < 0 || ordinal/8 >= len(m.b) {
		return false
	}
	return m.b[ordinal/8]&(1<<uint(ordinal%8)) != 0
}

func (m byteMask) Count() int {
	n := 0
	for _, b := range m.b {
		n += bits.OnesCount8(b)
	}
	return n
}

func (m byteMask) Any() bool {
	for _, b := range m.b {
		if b != 0 {
			return true
		}
	}
	return false
}

func (m byteMask) Ordinals() []int {
	var out []int
	for i, b := range m.b {
		for b != 0 {
			bit := bits.TrailingZeros8(b)
			out = append(out, i*8+bit)
			b &= b - 1
		}
	}
	return out
}

// Bind returns a Mask operating on storage. storage must be a pointer to the
// mask field planned for width: *uint8, *uint16, *uint32, *uint64 or a byte
// slice aliasing the byte array.
func Bind(width Width, storage any) (Mask, error) {
	switch p := storage.(type) {
	case *uint8:
		if width == Width8 {
			return wordMask[uint8]{p: p, bits: 8}, nil
		}
	case *uint16:
		if width == Width16 {
			return wordMask[uint16]{p: p, bits: 16}, nil
		}
	case *uint32:
		if width == Width32 {
			return wordMask[uint32]{p: p, bits: 32}, nil
		}
	case *uint64:
		if width == Width64 {
			return wordMask[uint64]{p: p, bits: 64}, nil
		}
	case []byte:
		if width == WidthBytes {
			return byteMask{b: p}, nil
		}
	}
	return nil, fmt.Errorf("mask storage %T does not match width %s", storage, width)
}
