package sftpd

import (
	"io"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

// errnoTable is the fixed ordered mapping from host errno values to SFTP
// status codes. Codes a protocol version does not define are laundered by
// the clamp in SendStatus, so the table can always map to the most precise
// code.
var errnoTable = []struct {
	errno  syscall.Errno
	status sshfx.Status
}{
	{0, sshfx.StatusOK},
	{unix.EPERM, sshfx.StatusPermissionDenied},
	{unix.EACCES, sshfx.StatusPermissionDenied},
	{unix.ENOENT, sshfx.StatusNoSuchFile},
	{unix.EIO, sshfx.StatusFileCorrupt},
	{unix.ENOSPC, sshfx.StatusNoSpaceOnFilesystem},
	{unix.ENOTDIR, sshfx.StatusNotADirectory},
	{unix.EISDIR, sshfx.StatusFileIsADirectory},
	{unix.EEXIST, sshfx.StatusFileAlreadyExists},
	{unix.EROFS, sshfx.StatusWriteProtect},
	{unix.ELOOP, sshfx.StatusLinkLoop},
	{unix.ENAMETOOLONG, sshfx.StatusInvalidFilename},
	{unix.ENOTEMPTY, sshfx.StatusDirNotEmpty},
	{unix.EDQUOT, sshfx.StatusQuotaExceeded},
}

// statusFromError maps a host error to a status code and human-readable
// message. Backends may return sshfx.Status values directly; OS errors are
// unwrapped (through fs.PathError, os.LinkError and friends) down to the
// errno, whose error string becomes the message.
func statusFromError(err error) (uint32, string) {
	if err == nil {
		return uint32(sshfx.StatusOK), ""
	}

	var st sshfx.Status
	if errors.As(err, &st) {
		return uint32(st), st.Error()
	}

	if errors.Is(err, io.EOF) {
		return uint32(sshfx.StatusEOF), sshfx.StatusEOF.Error()
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		for _, e := range errnoTable {
			if e.errno == errno {
				return uint32(e.status), errno.Error()
			}
		}
		return uint32(sshfx.StatusFailure), errno.Error()
	}

	return uint32(sshfx.StatusFailure), err.Error()
}

// statusText is the default message for a status code.
func statusText(status uint32) string {
	return sshfx.Status(status).Error()
}

// SendStatus emits the STATUS response for a job. The errno sentinel is
// resolved through statusFromError; a missing message is filled in from the
// code; and codes unknown to the negotiated version are clamped to
// SSH_FX_FAILURE so older clients never see them.
func (s *Server) SendStatus(j *Job, status uint32, msg string) error {
	if status == StatusFromErrno {
		status, msg = statusFromError(j.err)
	}
	if msg == "" {
		msg = statusText(status)
	}
	if status > s.proto.maxStatus {
		status = uint32(sshfx.StatusFailure)
	}

	buf := j.Reply()
	buf.AppendUint8(uint8(sshfx.PacketTypeStatus))
	buf.AppendUint32(j.id)
	buf.AppendUint32(status)
	buf.AppendString(msg)
	buf.AppendString("en") // not localized
	return j.Flush()
}
