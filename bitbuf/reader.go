package bitbuf

import "errors"

// ErrOverflow is reported by Reader.Err after a read past the end of input.
var ErrOverflow = errors.New("bitbuf: read past end of input")

// Reader reads bits MSB-first. Reads past the end of the input do not
// panic: they return zero values and set a sticky overflow flag that is
// reported by Err, so a record can be decoded field by field and checked
// once at the end.
type Reader struct {
	data     []byte
	total    int
	pos      int
	overflow bool
}

// NewReader returns a Reader over all bits of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, total: len(data) * 8}
}

// NewVectorReader returns a Reader over the bits of v.
func NewVectorReader(v Vector) *Reader {
	return &Reader{data: v.data, total: v.n}
}

// BitsLeft returns the number of unread bits.
func (r *Reader) BitsLeft() int {
	if r.pos > r.total {
		return 0
	}
	return r.total - r.pos
}

// Pos returns the number of bits consumed so far.
func (r *Reader) Pos() int { return r.pos }

// Err returns ErrOverflow if any read ran past the end of input.
func (r *Reader) Err() error {
	if r.overflow {
		return ErrOverflow
	}
	return nil
}

func (r *Reader) claim(n int) bool {
	if n < 0 || n > r.BitsLeft() {
		r.overflow = true
		r.pos = r.total
		return false
	}
	return true
}

// Bool reads a single bit.
func (r *Reader) Bool() bool {
	if !r.claim(1) {
		return false
	}
	b := r.data[r.pos/8]&(0x80>>uint(r.pos%8)) != 0
	r.pos++
	return b
}

// Uint reads an n-bit unsigned value, 0 <= n <= 64.
func (r *Reader) Uint(n int) uint64 {
	if n > 64 || !r.claim(n) {
		r.overflow = true
		return 0
	}
	var val uint64
	for n > 0 {
		off := r.pos % 8
		avail := 8 - off
		take := avail
		if take > n {
			take = n
		}
		b := uint64(r.data[r.pos/8]>>uint(avail-take)) & (1<<uint(take) - 1)
		val = val<<uint(take) | b
		r.pos += take
		n -= take
	}
	return val
}

// Uint8 reads an n-bit value, n <= 8.
func (r *Reader) Uint8(n int) uint8 { return uint8(r.Uint(n)) }

// Uint16 reads an n-bit value, n <= 16.
func (r *Reader) Uint16(n int) uint16 { return uint16(r.Uint(n)) }

// Uint32 reads an n-bit value, n <= 32.
func (r *Reader) Uint32(n int) uint32 { return uint32(r.Uint(n)) }

// Skip discards n bits, typically a reserved field.
func (r *Reader) Skip(n int) {
	if r.claim(n) {
		r.pos += n
	}
}

// Bytes reads n whole bytes. It returns nil when n is zero or on overflow.
func (r *Reader) Bytes(n int) []byte {
	if n == 0 || !r.claim(n*8) {
		return nil
	}
	v := r.vectorAt(r.pos, n*8)
	r.pos += n * 8
	return v.data
}

// Vector reads the next n bits as a vector.
func (r *Reader) Vector(n int) Vector {
	if !r.claim(n) {
		return Vector{}
	}
	v := r.vectorAt(r.pos, n)
	r.pos += n
	return v
}

// Rest consumes and returns all unread bits.
func (r *Reader) Rest() Vector {
	return r.Vector(r.BitsLeft())
}

// RestBytes consumes all unread bits, which must be a whole number of bytes.
func (r *Reader) RestBytes() []byte {
	left := r.BitsLeft()
	if left%8 != 0 {
		r.overflow = true
		r.pos = r.total
		return nil
	}
	return r.Bytes(left / 8)
}

func (r *Reader) vectorAt(from, n int) Vector {
	return Vector{data: r.data, n: r.total}.slice(from, from+n)
}
