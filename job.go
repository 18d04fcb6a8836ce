package sftpd

import (
	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

// Job is a single in-flight request: the owned inbound frame, a cursor over
// its remaining bytes, the parsed header, and the serialization keys derived
// when the frame was registered. A job's frame outlives its handler
// invocation; its pages are released only after the response has been sent.
type Job struct {
	data []byte
	buf  *sshfx.Buffer

	typ sshfx.PacketType
	id  uint32 // zero for SSH_FXP_INIT, which carries no id

	orderID uint32   // allocator page key
	keys    [][]byte // resources this job contends on

	w   *worker
	err error // host error saved by Fail for the errno sentinel
}

// Type returns the request type byte.
func (j *Job) Type() sshfx.PacketType { return j.typ }

// ID returns the request id. INIT requests have no id and report zero.
func (j *Job) ID() uint32 { return j.id }

// Buffer returns the unconsumed remainder of the request body.
func (j *Job) Buffer() *sshfx.Buffer { return j.buf }

// Reply starts a fresh response frame in the job's worker output buffer.
func (j *Job) Reply() *sshfx.Buffer {
	return j.w.sendBegin()
}

// Flush emits the response frame started by Reply as one complete packet.
func (j *Job) Flush() error {
	return j.w.sendEnd()
}

// Fail records the host error behind a failed operation and returns the
// errno sentinel, instructing the dispatcher to map the error through the
// status table.
func (j *Job) Fail(err error) uint32 {
	j.err = err
	return StatusFromErrno
}
