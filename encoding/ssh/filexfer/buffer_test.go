package filexfer

import (
	"bytes"
	"testing"
)

func TestBufferRoundTrip(t *testing.T) {
	b := new(Buffer)

	b.AppendUint8(7)
	b.AppendUint16(0x1234)
	b.AppendUint32(0xDEADBEEF)
	b.AppendUint64(0x0102030405060708)
	b.AppendString("foo")
	b.AppendByteSlice([]byte{0xFF, 0x00})

	if v, err := b.ConsumeUint8(); err != nil || v != 7 {
		t.Errorf("ConsumeUint8() = %d, %v, but wanted 7, nil", v, err)
	}
	if v, err := b.ConsumeUint16(); err != nil || v != 0x1234 {
		t.Errorf("ConsumeUint16() = %x, %v, but wanted 1234, nil", v, err)
	}
	if v, err := b.ConsumeUint32(); err != nil || v != 0xDEADBEEF {
		t.Errorf("ConsumeUint32() = %x, %v, but wanted deadbeef, nil", v, err)
	}
	if v, err := b.ConsumeUint64(); err != nil || v != 0x0102030405060708 {
		t.Errorf("ConsumeUint64() = %x, %v, but wanted 102030405060708, nil", v, err)
	}
	if v, err := b.ConsumeString(); err != nil || v != "foo" {
		t.Errorf("ConsumeString() = %q, %v, but wanted foo, nil", v, err)
	}
	if v, err := b.ConsumeByteSlice(); err != nil || !bytes.Equal(v, []byte{0xFF, 0x00}) {
		t.Errorf("ConsumeByteSlice() = %X, %v, but wanted FF00, nil", v, err)
	}

	if b.Len() != 0 {
		t.Errorf("Len() = %d after consuming everything, but wanted 0", b.Len())
	}
}

func TestBufferShortPacket(t *testing.T) {
	b := NewBuffer([]byte{0x00})

	if _, err := b.ConsumeUint32(); err != ErrShortPacket {
		t.Errorf("ConsumeUint32() on 1 byte: err = %v, but wanted ErrShortPacket", err)
	}

	// A string whose declared length exceeds the remainder is short too.
	b = NewBuffer([]byte{0x00, 0x00, 0x00, 0x05, 'a', 'b'})
	if _, err := b.ConsumeString(); err != ErrShortPacket {
		t.Errorf("ConsumeString() with truncated body: err = %v, but wanted ErrShortPacket", err)
	}
}

func TestBufferStringIsBinarySafe(t *testing.T) {
	b := new(Buffer)
	raw := []byte{0x00, 0xFF, 'x', 0x00}
	b.AppendByteSlice(raw)

	got, err := b.ConsumeByteSlice()
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("ConsumeByteSlice() = %X, but wanted %X", got, raw)
	}
}

func TestBufferSubBlock(t *testing.T) {
	b := new(Buffer)

	b.AppendUint8(200)
	mark := b.SubBegin()
	b.AppendUint32(42)
	b.AppendString("ext")
	b.SubEnd(mark)

	want := []byte{
		200,
		0x00, 0x00, 0x00, 11, // back-patched sub-block length
		0x00, 0x00, 0x00, 42,
		0x00, 0x00, 0x00, 3, 'e', 'x', 't',
	}

	if !bytes.Equal(b.Bytes(), want) {
		t.Errorf("sub-block encoding = %X, but wanted %X", b.Bytes(), want)
	}
}

func TestBufferNestedSubBlock(t *testing.T) {
	b := new(Buffer)

	outer := b.SubBegin()
	b.AppendUint8(1)
	inner := b.SubBegin()
	b.AppendUint16(0xBEEF)
	b.SubEnd(inner)
	b.SubEnd(outer)

	want := []byte{
		0x00, 0x00, 0x00, 7, // outer: 1 + 4 + 2
		1,
		0x00, 0x00, 0x00, 2, // inner: 2
		0xBE, 0xEF,
	}

	if !bytes.Equal(b.Bytes(), want) {
		t.Errorf("nested sub-block encoding = %X, but wanted %X", b.Bytes(), want)
	}
}

func TestPacketLengthPrefix(t *testing.T) {
	b := NewPacketBuffer(64)
	b.AppendUint8(101)
	b.AppendUint32(9)
	b.AppendString("hello")

	pkt := b.Packet()

	want := []byte{
		0x00, 0x00, 0x00, 14, // 1 + 4 + 4+5
		101,
		0x00, 0x00, 0x00, 9,
		0x00, 0x00, 0x00, 5, 'h', 'e', 'l', 'l', 'o',
	}
	if !bytes.Equal(pkt, want) {
		t.Errorf("Packet() = %X, but wanted %X", pkt, want)
	}

	// Reset must restore the placeholder so the buffer can frame again.
	b.Reset()
	b.AppendUint8(1)
	if got := b.Packet(); !bytes.Equal(got, []byte{0x00, 0x00, 0x00, 1, 1}) {
		t.Errorf("Packet() after Reset = %X, but wanted 00000001 01", got)
	}
}
