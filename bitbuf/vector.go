// Package bitbuf provides the bit-level buffer primitives used by the
// transport stream codecs: an immutable bit Vector, an MSB-first Reader and
// a growable Writer. Fields narrower than a byte are read and written through
// these types rather than by shifting bytes at each call site.
package bitbuf

import (
	"encoding/hex"
	"fmt"
)

// Vector is an immutable sequence of bits. Bits are stored MSB-first and any
// bits past Len in the final byte are always zero, so two vectors holding
// the same bits compare equal with reflect.DeepEqual.
type Vector struct {
	data []byte
	n    int
}

// FromBytes returns a vector holding a copy of b.
func FromBytes(b []byte) Vector {
	if len(b) == 0 {
		return Vector{}
	}
	data := make([]byte, len(b))
	copy(data, b)
	return Vector{data: data, n: len(b) * 8}
}

// High returns a vector of n one bits. One bits are the stuffing value used
// to pad packet payloads.
func High(n int) Vector {
	if n <= 0 {
		return Vector{}
	}
	data := make([]byte, (n+7)/8)
	for i := range data {
		data[i] = 0xFF
	}
	clearTail(data, n)
	return Vector{data: data, n: n}
}

// Low returns a vector of n zero bits.
func Low(n int) Vector {
	if n <= 0 {
		return Vector{}
	}
	return Vector{data: make([]byte, (n+7)/8), n: n}
}

// Len returns the number of bits in v.
func (v Vector) Len() int { return v.n }

// IsEmpty reports whether v holds no bits.
func (v Vector) IsEmpty() bool { return v.n == 0 }

// Bit returns the bit at index i. It panics if i is out of range.
func (v Vector) Bit(i int) bool {
	if i < 0 || i >= v.n {
		panic(fmt.Sprintf("bitbuf: bit index %d out of range [0,%d)", i, v.n))
	}
	return v.data[i/8]&(0x80>>uint(i%8)) != 0
}

// Take returns the first n bits of v, or all of v if it is shorter.
func (v Vector) Take(n int) Vector {
	return v.slice(0, clamp(n, v.n))
}

// Drop returns v without its first n bits.
func (v Vector) Drop(n int) Vector {
	return v.slice(clamp(n, v.n), v.n)
}

// SplitAt is equivalent to (v.Take(n), v.Drop(n)).
func (v Vector) SplitAt(n int) (Vector, Vector) {
	n = clamp(n, v.n)
	return v.slice(0, n), v.slice(n, v.n)
}

// Concat returns the bits of v followed by the bits of o.
func (v Vector) Concat(o Vector) Vector {
	if o.n == 0 {
		return v
	}
	if v.n == 0 {
		return o
	}
	var w Writer
	w.Bits(v)
	w.Bits(o)
	return w.Vector()
}

// Bytes returns a copy of the bits of v, zero-padded to a byte boundary.
func (v Vector) Bytes() []byte {
	out := make([]byte, len(v.data))
	copy(out, v.data)
	return out
}

// ByteAligned reports whether Len is a multiple of 8.
func (v Vector) ByteAligned() bool { return v.n%8 == 0 }

// Equal reports whether v and o hold the same bits.
func (v Vector) Equal(o Vector) bool {
	if v.n != o.n {
		return false
	}
	for i := range v.data {
		if v.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// String renders v as hex followed by its bit length.
func (v Vector) String() string {
	return fmt.Sprintf("0x%s (%d bits)", hex.EncodeToString(v.data), v.n)
}

func (v Vector) slice(from, to int) Vector {
	n := to - from
	if n <= 0 {
		return Vector{}
	}
	out := make([]byte, (n+7)/8)
	base := from / 8
	shift := uint(from % 8)
	for i := range out {
		b := v.data[base+i] << shift
		if shift > 0 && base+i+1 < len(v.data) {
			b |= v.data[base+i+1] >> (8 - shift)
		}
		out[i] = b
	}
	clearTail(out, n)
	return Vector{data: out, n: n}
}

func clearTail(b []byte, n int) {
	if r := n % 8; r != 0 {
		b[len(b)-1] &= 0xFF << uint(8-r)
	}
}

func clamp(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}
