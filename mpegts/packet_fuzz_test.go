package mpegts

import (
	"bytes"
	"testing"
)

func FuzzDecode(f *testing.F) {
	f.Add(makePacket(0x100, 0, false, []byte{0x01, 0x02}))
	f.Add(makePacket(0x000, 3, true, []byte{0x00, 0x00, 0xB0, 0x0D}))
	f.Add(makePacketWithAF(0x1FFF, 7, 183, nil))
	f.Add(makePacketWithAF(0x101, 1, 0, []byte{0xFF}))
	f.Add([]byte{0x47})

	f.Fuzz(func(t *testing.T, data []byte) {
		p, err := Decode(data)
		if err != nil {
			return
		}
		buf, err := Encode(p)
		if err != nil {
			// Frames with bits the header does not account for cannot be
			// reproduced.
			return
		}
		if !bytes.Equal(buf, data[:PacketSize]) {
			t.Fatalf("round trip mismatch:\n got %x\nwant %x", buf, data[:PacketSize])
		}
	})
}
