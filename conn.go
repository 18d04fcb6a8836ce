package sftpd

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Wire-framing errors. Both are fatal: once framing is lost the stream
// cannot be resynchronized.
var (
	ErrZeroLengthPacket = errors.New("zero length packet")
	ErrTruncatedPacket  = errors.New("truncated packet")
)

// conn is the bidirectional byte stream the server speaks on. The mutex
// serialises whole-packet writes from concurrent workers.
type conn struct {
	io.Reader
	io.WriteCloser
	sync.Mutex
}

// recvPacket reads one length-prefixed packet payload into a page drawn
// from alloc. Clean EOF before any byte of the length header is the normal
// termination condition and comes back as io.EOF; a short read anywhere
// after that means the peer is not framing correctly and is fatal.
func (c *conn) recvPacket(alloc *allocator, orderID uint32) ([]byte, error) {
	var lb [4]byte
	if _, err := io.ReadFull(c, lb[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, errors.Wrap(ErrTruncatedPacket, "reading packet length")
		}
		return nil, err
	}

	length := binary.BigEndian.Uint32(lb[:])
	if length == 0 {
		return nil, ErrZeroLengthPacket
	}
	if length > maxMsgLength {
		return nil, errors.Errorf("packet length %d exceeds maximum %d", length, maxMsgLength)
	}

	b := alloc.GetPage(orderID)[:length]
	if _, err := io.ReadFull(c, b); err != nil {
		return nil, errors.Wrap(ErrTruncatedPacket, "reading packet payload")
	}
	return b, nil
}

// writePacket writes one complete framed packet, length prefix included.
func (c *conn) writePacket(b []byte) error {
	c.Lock()
	defer c.Unlock()
	_, err := c.Write(b)
	return errors.Wrap(err, "writing packet")
}
