package sftpd

import (
	"bytes"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newTestConn(in []byte) (*conn, *bytes.Buffer) {
	var out bytes.Buffer
	return &conn{
		Reader:      bytes.NewReader(in),
		WriteCloser: nopWriteCloser{&out},
	}, &out
}

func TestRecvPacket(t *testing.T) {
	alloc := newAllocator()

	c, _ := newTestConn([]byte{0, 0, 0, 3, 1, 2, 3})
	b, err := c.recvPacket(alloc, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)

	// Clean EOF before any length byte is the normal termination.
	_, err = c.recvPacket(alloc, 1)
	assert.Equal(t, io.EOF, err)
}

func TestRecvPacketZeroLength(t *testing.T) {
	c, _ := newTestConn([]byte{0, 0, 0, 0})
	_, err := c.recvPacket(newAllocator(), 0)
	assert.ErrorIs(t, err, ErrZeroLengthPacket)
}

func TestRecvPacketTruncated(t *testing.T) {
	// Length header cut short after one byte.
	c, _ := newTestConn([]byte{0})
	_, err := c.recvPacket(newAllocator(), 0)
	assert.True(t, errors.Is(err, ErrTruncatedPacket), "err = %v", err)

	// Payload shorter than the announced length.
	c, _ = newTestConn([]byte{0, 0, 0, 4, 1, 2})
	_, err = c.recvPacket(newAllocator(), 0)
	assert.True(t, errors.Is(err, ErrTruncatedPacket), "err = %v", err)
}

func TestRecvPacketTooLong(t *testing.T) {
	c, _ := newTestConn([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	_, err := c.recvPacket(newAllocator(), 0)
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestWritePacketIsWhole(t *testing.T) {
	c, out := newTestConn(nil)
	require.NoError(t, c.writePacket([]byte{0, 0, 0, 1, 42}))
	assert.Equal(t, []byte{0, 0, 0, 1, 42}, out.Bytes())
}
