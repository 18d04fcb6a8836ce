package sftpd

import (
	"bytes"
	"path"
	"sync"

	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

// serializer enforces ordering among jobs that contend on shared resources.
// Jobs are registered in wire order on the reader goroutine; a job may not
// start while an earlier-registered job with an overlapping key set is still
// in flight. From the client's viewpoint, two requests issued in order
// against the same handle or path therefore appear to execute in that order;
// unrelated jobs run in any order.
type serializer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []*Job // registration order; jobs leave on completion
}

func newSerializer() *serializer {
	s := &serializer{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// register derives the job's serialization keys and appends it to the
// registration list. Must be called on the reader goroutine, in wire order,
// before any parallel execution of the job can begin.
func (s *serializer) register(j *Job) {
	j.keys = deriveKeys(j.data)

	s.mu.Lock()
	s.pending = append(s.pending, j)
	s.mu.Unlock()
}

// wait blocks until no earlier-registered job with an overlapping key set is
// still in flight. Called immediately before the job's handler runs.
func (s *serializer) wait(j *Job) {
	if len(j.keys) == 0 {
		return
	}

	s.mu.Lock()
	for s.conflicts(j) {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

func (s *serializer) conflicts(j *Job) bool {
	for _, p := range s.pending {
		if p == j {
			return false
		}
		if overlap(p.keys, j.keys) {
			return true
		}
	}
	return false
}

// remove drops a completed job from the registration list and wakes any
// jobs blocked behind it.
func (s *serializer) remove(j *Job) {
	s.mu.Lock()
	for i, p := range s.pending {
		if p == j {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.cond.Broadcast()
}

func overlap(a, b [][]byte) bool {
	for _, ka := range a {
		for _, kb := range b {
			if bytes.Equal(ka, kb) {
				return true
			}
		}
	}
	return false
}

// deriveKeys peeks at a raw frame and extracts the opaque resources the
// request may mutate: the handle bytes of handle-carrying operations, and
// the cleaned paths of namespace-affecting ones. Stat-only requests and
// INIT derive no keys. Handles and paths share one key namespace; a
// collision between the two only over-serializes, it never under-serializes.
func deriveKeys(data []byte) [][]byte {
	buf := sshfx.NewBuffer(data)

	t, err := buf.ConsumeUint8()
	if err != nil {
		return nil
	}
	typ := sshfx.PacketType(t)
	if typ == sshfx.PacketTypeInit {
		return nil
	}
	if _, err := buf.ConsumeUint32(); err != nil { // request id
		return nil
	}

	switch typ {
	case sshfx.PacketTypeClose,
		sshfx.PacketTypeRead,
		sshfx.PacketTypeWrite,
		sshfx.PacketTypeFstat,
		sshfx.PacketTypeFsetstat,
		sshfx.PacketTypeReaddir:
		return handleKey(buf)

	case sshfx.PacketTypeOpen,
		sshfx.PacketTypeSetstat,
		sshfx.PacketTypeRemove,
		sshfx.PacketTypeMkdir,
		sshfx.PacketTypeRmdir:
		return pathKeys(buf, 1)

	case sshfx.PacketTypeRename,
		sshfx.PacketTypeSymlink,
		sshfx.PacketTypeLink:
		return pathKeys(buf, 2)

	case sshfx.PacketTypeExtended:
		name, err := buf.ConsumeString()
		if err != nil {
			return nil
		}
		if name == extPosixRename {
			return pathKeys(buf, 2)
		}
		return nil
	}

	return nil
}

func handleKey(buf *sshfx.Buffer) [][]byte {
	h, err := buf.ConsumeByteSlice()
	if err != nil {
		return nil
	}
	return [][]byte{append([]byte(nil), h...)}
}

func pathKeys(buf *sshfx.Buffer, n int) [][]byte {
	keys := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		p, err := buf.ConsumeString()
		if err != nil {
			return keys
		}
		keys = append(keys, []byte(path.Clean(p)))
	}
	return keys
}
