package sftpd

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"

	"github.com/xqyjlj/sftpd/internal/logger"

	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

// Server runs one SFTP session over a byte stream. It owns the reader loop,
// the negotiated protocol descriptor, the serializer, the handle table, and
// the worker pool. One Server serves one connection; create a new one per
// accepted stream.
type Server struct {
	conn    conn
	proto   *protocol
	backend Backend

	handles *handleTable
	sz      *serializer
	alloc   *allocator

	// queue is nil until initialization completes: requests are processed
	// inline on the reader goroutine by the inline worker, then transition
	// to the pool. One-shot transition, written only on the reader
	// goroutine; atomic so observers on other goroutines see it safely.
	queue  atomic.Pointer[workQueue]
	inline *worker

	localeEnc  encoding.Encoding
	extensions map[string]HandlerFunc

	readOnly       bool
	reverseSymlink bool
	workers        int
	log            *slog.Logger

	orderID uint32 // reader-local request order counter
}

// A ServerOption configures a Server.
type ServerOption func(*Server) error

// ReadOnly rejects every request that would modify the filesystem.
func ReadOnly() ServerOption {
	return func(s *Server) error {
		s.readOnly = true
		return nil
	}
}

// ReverseSymlink flips the SSH_FXP_SYMLINK argument order for version 3
// clients that follow OpenSSH rather than the draft, and adjusts the
// advertised symlink-order extension to match.
func ReverseSymlink() ServerOption {
	return func(s *Server) error {
		s.reverseSymlink = true
		return nil
	}
}

// WithWorkerCount sets the size of the worker pool.
func WithWorkerCount(n int) ServerOption {
	return func(s *Server) error {
		if n < 1 {
			return errors.Errorf("invalid worker count %d", n)
		}
		s.workers = n
		return nil
	}
}

// WithLogger sets the logger used for packet tracing and stream errors.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) error {
		if l == nil {
			return errors.New("nil logger")
		}
		s.log = l
		return nil
	}
}

// WithExtension registers a handler for a SSH_FXP_EXTENDED request by
// extension name, replacing any built-in handler of that name. This is also
// the registration point for version-select on protocol 6 sessions; the
// engine keeps such sessions single-threaded until the first follow-up
// request completes so a registered handler cannot race newly sent
// requests.
func WithExtension(name string, fn HandlerFunc) ServerOption {
	return func(s *Server) error {
		if name == "" || fn == nil {
			return errors.New("invalid extension registration")
		}
		s.extensions[name] = fn
		return nil
	}
}

// NewServer creates a server speaking on rwc against the given backend. The
// locale's character encoding is resolved here, so a misconfigured locale
// fails the session up front rather than at the first conversion.
func NewServer(rwc io.ReadWriteCloser, backend Backend, opts ...ServerOption) (*Server, error) {
	enc, err := localeEncoding()
	if err != nil {
		return nil, err
	}

	s := &Server{
		conn: conn{
			Reader:      rwc,
			WriteCloser: rwc,
		},
		proto:     protoPreinit,
		backend:   backend,
		handles:   newHandleTable(),
		sz:        newSerializer(),
		alloc:     newAllocator(),
		localeEnc: enc,
		extensions: map[string]HandlerFunc{
			extPosixRename:    sftpPosixRename,
			extSpaceAvailable: sftpSpaceAvailable,
		},
		workers: defaultWorkerCount,
		log:     logger.Discard(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Serve reads frames until the stream ends, dispatching each to the pool
// when it exists and inline otherwise. On clean EOF it drains the pool,
// joins the workers, and returns nil; framing errors are returned as-is.
func (s *Server) Serve() error {
	s.inline = s.newWorker()

	defer func() {
		if q := s.queue.Load(); q != nil {
			q.stop()
		}
		s.handles.closeAll()
		s.alloc.Free()
	}()

	for {
		orderID := s.orderID
		s.orderID++

		data, err := s.conn.recvPacket(s.alloc, orderID)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			s.log.Error("receive failed", "error", err)
			return err
		}

		if s.log.Enabled(context.Background(), slog.LevelDebug) {
			s.log.Debug("request", "len", len(data), "data", logger.Hex(data))
		}

		j := &Job{data: data, orderID: orderID}
		s.sz.register(j)

		if q := s.queue.Load(); q != nil {
			q.add(j)
		} else {
			s.process(j, s.inline)
		}
	}
}

// process runs one job to completion on the given worker: parse the header,
// dispatch through the current descriptor, and emit the STATUS response for
// any handler that did not respond itself.
func (s *Server) process(j *Job, w *worker) {
	j.w = w
	j.buf = sshfx.NewBuffer(j.data)

	defer s.finish(j)

	// Empty messages are never valid.
	if j.buf.Len() == 0 {
		s.SendStatus(j, uint32(sshfx.StatusBadMessage), "empty request")
		return
	}

	t, _ := j.buf.ConsumeUint8()
	j.typ = sshfx.PacketType(t)

	// Everything but SSH_FXP_INIT carries an id.
	if j.typ != sshfx.PacketTypeInit {
		id, err := j.buf.ConsumeUint32()
		if err != nil {
			s.SendStatus(j, uint32(sshfx.StatusBadMessage), "missing ID field")
			return
		}
		j.id = id
	}

	fn := s.proto.lookup(j.typ)
	if fn == nil {
		s.SendStatus(j, uint32(sshfx.StatusOPUnsupported), "")
		return
	}

	s.sz.wait(j)
	if status := fn(s, j); status != HandlerResponded {
		s.SendStatus(j, status, "")
	}
}

// finish releases the job's registration and pages, and performs the
// deferred pool creation after the first post-INIT job when none exists yet
// (the version 6 case: that job might have been version-select, so it had
// to run single-threaded).
func (s *Server) finish(j *Job) {
	s.sz.remove(j)
	s.alloc.ReleasePages(j.orderID)

	if j.typ != sshfx.PacketTypeInit && s.queue.Load() == nil && s.proto != protoPreinit {
		s.startQueue()
	}
}

// startQueue instantiates the worker pool. Only ever called on the reader
// goroutine, before any parallel execution exists.
func (s *Server) startQueue() {
	s.queue.Store(newWorkQueue(queueDetails{
		init:    s.newWorker,
		process: s.process,
		cleanup: func(*worker) {},
	}, s.workers))
}

// poolActive reports whether the worker pool has been instantiated. Test
// hook for the deferred-activation contract.
func (s *Server) poolActive() bool {
	return s.queue.Load() != nil
}

// sftpInit is the only entry of the pre-init dispatch table. It negotiates
// the protocol version, swaps the descriptor, and emits the VERSION
// response with the capability blocks of the chosen version.
func sftpInit(s *Server, j *Job) uint32 {
	// Cannot initialize more than once.
	if s.proto != protoPreinit {
		return uint32(sshfx.StatusFailure)
	}

	version, err := j.buf.ConsumeUint32()
	if err != nil {
		return uint32(sshfx.StatusBadMessage)
	}

	switch version {
	case 0, 1, 2:
		return uint32(sshfx.StatusOPUnsupported)
	case 3:
		s.proto = protoV3
	case 4:
		s.proto = protoV4
	case 5:
		s.proto = protoV5
	default:
		// We do not negotiate down from 6; the client may issue
		// version-select later.
		s.proto = protoV6
	}
	p := s.proto

	buf := j.Reply()
	buf.AppendUint8(uint8(sshfx.PacketTypeVersion))
	buf.AppendUint32(p.version)

	if p.version >= 4 {
		// The client promises to always send \n, freeing us from
		// translating text files.
		buf.AppendString("newline")
		buf.AppendString("\n")
	}

	if p.version == 5 {
		buf.AppendString("supported")
		mark := buf.SubBegin()
		buf.AppendUint32(p.attrMask)
		buf.AppendUint32(0) // supported-attribute-bits
		buf.AppendUint32(p.openFlags)
		buf.AppendUint32(p.accessMask)
		// A non-zero max-read-size promises exact-length reads, which
		// cannot be honoured when serving from a pipe: a short read before
		// EOF would be misread as EOF. Always advertise 0.
		buf.AppendUint32(0)
		for _, name := range p.extensions {
			buf.AppendString(name)
		}
		buf.SubEnd(mark)
	}

	if p.version >= 6 {
		buf.AppendString("supported2")
		mark := buf.SubBegin()
		buf.AppendUint32(p.attrMask)
		buf.AppendUint32(0) // supported-attribute-bits
		buf.AppendUint32(p.openFlags)
		buf.AppendUint32(p.accessMask)
		buf.AppendUint32(0) // max-read-size, see above
		buf.AppendUint16(0) // supported-open-block-vector
		buf.AppendUint16(0) // supported-block-vector
		buf.AppendUint32(0) // attrib-extension-count
		buf.AppendUint32(uint32(len(p.extensions)))
		for _, name := range p.extensions {
			buf.AppendString(name)
		}
		buf.SubEnd(mark)

		buf.AppendString("versions")
		buf.AppendString("3,4,5,6")
	}

	buf.AppendString("vendor-id")
	mark := buf.SubBegin()
	buf.AppendString(vendorName)
	buf.AppendString(productName)
	buf.AppendString(productVersion)
	buf.AppendUint64(0)
	buf.SubEnd(mark)

	buf.AppendString(extSymlinkOrder)
	if p.version == 3 && s.reverseSymlink {
		buf.AppendString("targetpath-linkpath")
	} else {
		buf.AppendString("linkpath-targetpath")
	}

	if p.version >= 6 {
		buf.AppendString(extLinkOrder)
		buf.AppendString("linkpath-targetpath")
	}

	if err := j.Flush(); err != nil {
		s.log.Error("sending VERSION failed", "error", err)
		return HandlerResponded
	}

	if p.version < 6 {
		// Initialized; safe to process further jobs in the background. Not
		// for 6, where the first request might be version-select.
		s.startQueue()
	}

	return HandlerResponded
}
