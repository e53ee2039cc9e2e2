package bitbuf

// Writer appends bits MSB-first into a growable buffer. The zero value is
// ready to use.
type Writer struct {
	buf []byte
	n   int
}

// NewWriter returns a Writer with capacity for sizeHint bytes.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Len returns the number of bits written.
func (w *Writer) Len() int { return w.n }

// Bool appends a single bit.
func (w *Writer) Bool(v bool) {
	if w.n%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if v {
		w.buf[len(w.buf)-1] |= 0x80 >> uint(w.n%8)
	}
	w.n++
}

// Uint appends the low n bits of v, most significant first.
func (w *Writer) Uint(n int, v uint64) {
	for i := n - 1; i >= 0; i-- {
		w.Bool((v>>uint(i))&1 == 1)
	}
}

// Zero appends n zero bits, used for reserved fields.
func (w *Writer) Zero(n int) {
	for i := 0; i < n; i++ {
		w.Bool(false)
	}
}

// Bytes appends b.
func (w *Writer) Bytes(b []byte) {
	w.append(b, len(b)*8)
}

// Bits appends the bits of v.
func (w *Writer) Bits(v Vector) {
	w.append(v.data, v.n)
}

// Vector returns the bits written so far.
func (w *Writer) Vector() Vector {
	if w.n == 0 {
		return Vector{}
	}
	data := make([]byte, len(w.buf))
	copy(data, w.buf)
	return Vector{data: data, n: w.n}
}

// BytesOut returns the bits written so far, zero-padded to a byte boundary.
func (w *Writer) BytesOut() []byte {
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out
}

// append requires that bits of src past n are zero.
func (w *Writer) append(src []byte, n int) {
	if n == 0 {
		return
	}
	size := (n + 7) / 8
	off := uint(w.n % 8)
	if off == 0 {
		w.buf = append(w.buf, src[:size]...)
		w.n += n
		return
	}
	for _, b := range src[:size] {
		w.buf[len(w.buf)-1] |= b >> off
		w.buf = append(w.buf, b<<(8-off))
	}
	w.n += n
	w.buf = w.buf[:(w.n+7)/8]
}
