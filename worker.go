package sftpd

import (
	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
	"golang.org/x/text/encoding"
)

// worker is a long-lived processing slot: a reusable output buffer plus the
// two character-set converters between wire UTF-8 and the local encoding.
// One worker processes many jobs serially; its buffers are never shared
// across workers.
type worker struct {
	s   *Server
	out *sshfx.Buffer

	// Converter state is not safe for concurrent use, which is exactly why
	// each worker owns its own pair. Both are nil when the locale is UTF-8
	// and no conversion is needed.
	utf8ToLocal *encoding.Encoder
	localToUTF8 *encoding.Decoder
}

func (s *Server) newWorker() *worker {
	w := &worker{
		s:   s,
		out: sshfx.NewPacketBuffer(512),
	}
	if enc := s.localeEnc; enc != nil {
		w.utf8ToLocal = enc.NewEncoder()
		w.localToUTF8 = enc.NewDecoder()
	}
	return w
}

// sendBegin starts a fresh response frame in the worker's output buffer,
// leaving the length placeholder to be back-patched by sendEnd.
func (w *worker) sendBegin() *sshfx.Buffer {
	w.out.Reset()
	return w.out
}

// sendEnd back-patches the frame length and flushes the buffer to the
// stream as one complete packet.
func (w *worker) sendEnd() error {
	return w.s.conn.writePacket(w.out.Packet())
}

// toLocal converts a wire string to the local encoding. The wire mandates
// UTF-8 from protocol version 4 on; version 3 strings pass through
// untouched.
func (w *worker) toLocal(s string) (string, error) {
	if w.utf8ToLocal == nil || w.s.proto.version <= 3 {
		return s, nil
	}
	out, err := w.utf8ToLocal.String(s)
	if err != nil {
		return "", sshfx.StatusInvalidFilename
	}
	return out, nil
}

// toWire converts a local-encoding string for the wire.
func (w *worker) toWire(s string) (string, error) {
	if w.localToUTF8 == nil || w.s.proto.version <= 3 {
		return s, nil
	}
	out, err := w.localToUTF8.String(s)
	if err != nil {
		return "", sshfx.StatusInvalidFilename
	}
	return out, nil
}
