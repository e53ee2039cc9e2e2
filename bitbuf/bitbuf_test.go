package bitbuf

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReaderSingleBits(t *testing.T) {
	t.Parallel()
	r := NewReader([]byte{0xA5}) // 10100101
	expected := []bool{true, false, true, false, false, true, false, true}
	for i, want := range expected {
		if got := r.Bool(); got != want {
			t.Errorf("bit %d: got %v, want %v", i, got, want)
		}
	}
	if r.BitsLeft() != 0 {
		t.Errorf("BitsLeft: got %d, want 0", r.BitsLeft())
	}
	require.NoError(t, r.Err())
}

func TestReaderUint(t *testing.T) {
	t.Parallel()
	r := NewReader([]byte{0xAB, 0xCD})
	if got := r.Uint(12); got != 0xABC {
		t.Errorf("Uint(12): got 0x%X, want 0xABC", got)
	}
	if got := r.Uint(4); got != 0xD {
		t.Errorf("Uint(4): got 0x%X, want 0xD", got)
	}
}

func TestReaderUnalignedWidths(t *testing.T) {
	t.Parallel()
	// 3 | 13 | 2 | 14 bits: 101 0000000000011 01 11111111111111
	w := &Writer{}
	w.Uint(3, 0x5)
	w.Uint(13, 0x3)
	w.Uint(2, 0x1)
	w.Uint(14, 0x3FFF)
	r := NewReader(w.BytesOut())
	require.Equal(t, uint64(0x5), r.Uint(3))
	require.Equal(t, uint64(0x3), r.Uint(13))
	require.Equal(t, uint64(0x1), r.Uint(2))
	require.Equal(t, uint64(0x3FFF), r.Uint(14))
	require.Equal(t, 0, r.BitsLeft())
	require.NoError(t, r.Err())
}

func TestReaderUint64(t *testing.T) {
	t.Parallel()
	r := NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x80})
	if got := r.Uint(33); got != 0x1FFFFFFFF {
		t.Errorf("Uint(33): got 0x%X, want 0x1FFFFFFFF", got)
	}
}

func TestReaderBytes(t *testing.T) {
	t.Parallel()
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04})
	r.Skip(8)
	got := r.Bytes(2)
	require.Equal(t, []byte{0x02, 0x03}, got)
	require.Equal(t, []byte{0x04}, r.RestBytes())
}

func TestReaderBytesDoNotAliasInput(t *testing.T) {
	t.Parallel()
	in := []byte{0x10, 0x20}
	got := NewReader(in).Bytes(2)
	in[0] = 0xFF
	require.Equal(t, []byte{0x10, 0x20}, got)
}

func TestReaderOverflow(t *testing.T) {
	t.Parallel()
	r := NewReader([]byte{0xFF})
	r.Skip(8)
	r.Bool()
	if !errors.Is(r.Err(), ErrOverflow) {
		t.Error("expected overflow after reading past end")
	}
	require.Equal(t, uint64(0), r.Uint(4))
}

func TestReaderRestBytesUnaligned(t *testing.T) {
	t.Parallel()
	r := NewReader([]byte{0xFF, 0x00})
	r.Skip(3)
	require.Nil(t, r.RestBytes())
	require.ErrorIs(t, r.Err(), ErrOverflow)
}

func TestWriterSingleBits(t *testing.T) {
	t.Parallel()
	w := NewWriter(1)
	for _, b := range []bool{true, false, true, false, false, true, false, true} {
		w.Bool(b)
	}
	if w.BytesOut()[0] != 0xA5 {
		t.Errorf("got 0x%02X, want 0xA5", w.BytesOut()[0])
	}
}

func TestWriterUnalignedAppend(t *testing.T) {
	t.Parallel()
	w := &Writer{}
	w.Uint(4, 0xA)
	w.Bytes([]byte{0xBC, 0xDE})
	w.Zero(4)
	require.Equal(t, []byte{0xAB, 0xCD, 0xE0}, w.BytesOut())
	require.Equal(t, 24, w.Len())
}

func TestVectorTakeDrop(t *testing.T) {
	t.Parallel()
	v := FromBytes([]byte{0xAB, 0xCD, 0xEF})

	head, tail := v.SplitAt(12)
	require.Equal(t, 12, head.Len())
	require.Equal(t, []byte{0xAB, 0xC0}, head.Bytes())
	require.Equal(t, 12, tail.Len())
	require.Equal(t, []byte{0xDE, 0xF0}, tail.Bytes())
	require.True(t, head.Concat(tail).Equal(v))

	require.Equal(t, v, v.Take(100))
	require.True(t, v.Drop(100).IsEmpty())
	require.True(t, v.Take(-1).IsEmpty())
}

func TestVectorConcatDeepEqual(t *testing.T) {
	t.Parallel()
	a := FromBytes([]byte{0xF0}).Take(5)
	b := FromBytes([]byte{0x0F, 0xFF}).Drop(4)
	got := a.Concat(b)
	require.Equal(t, 17, got.Len())

	var w Writer
	w.Uint(5, 0x1E)
	w.Uint(12, 0xFFF)
	if !reflect.DeepEqual(got, w.Vector()) {
		t.Errorf("got %v, want %v", got, w.Vector())
	}
}

func TestVectorHighLow(t *testing.T) {
	t.Parallel()
	h := High(12)
	require.Equal(t, []byte{0xFF, 0xF0}, h.Bytes())
	for i := 0; i < h.Len(); i++ {
		require.True(t, h.Bit(i))
	}
	require.Equal(t, []byte{0x00, 0x00}, Low(9).Bytes())
	require.True(t, High(0).IsEmpty())
	require.Equal(t, Vector{}, Low(0))
}

func TestVectorReaderRoundTrip(t *testing.T) {
	t.Parallel()
	v := FromBytes([]byte{0x12, 0x34, 0x56}).Drop(3)
	r := NewVectorReader(v)
	require.Equal(t, 21, r.BitsLeft())
	got := r.Vector(10).Concat(r.Rest())
	require.True(t, got.Equal(v))
	require.NoError(t, r.Err())
}

func TestVectorString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "0xabc0 (12 bits)", FromBytes([]byte{0xAB, 0xCD}).Take(12).String())
}
