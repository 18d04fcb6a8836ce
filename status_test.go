package sftpd

import (
	"io"
	"io/fs"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"

	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

func TestStatusFromErrno(t *testing.T) {
	cases := []struct {
		errno syscall.Errno
		want  sshfx.Status
	}{
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
		{unix.ECONNRESET, sshfx.StatusFailure}, // not in the table
	}

	for _, c := range cases {
		st, msg := statusFromError(c.errno)
		assert.Equal(t, uint32(c.want), st, "errno %v", c.errno)
		assert.Equal(t, c.errno.Error(), msg)
	}
}

func TestStatusFromWrappedError(t *testing.T) {
	// The errno must be dug out of PathError/LinkError chains.
	err := &fs.PathError{Op: "open", Path: "/nope", Err: syscall.ENOENT}
	st, _ := statusFromError(err)
	assert.Equal(t, uint32(sshfx.StatusNoSuchFile), st)

	st, _ = statusFromError(errors.Wrap(err, "opening"))
	assert.Equal(t, uint32(sshfx.StatusNoSuchFile), st)

	// Status values returned by backends pass straight through.
	st, msg := statusFromError(sshfx.StatusLockConflict)
	assert.Equal(t, uint32(sshfx.StatusLockConflict), st)
	assert.Equal(t, "file is locked", msg)

	st, _ = statusFromError(io.EOF)
	assert.Equal(t, uint32(sshfx.StatusEOF), st)

	st, msg = statusFromError(errors.New("weird"))
	assert.Equal(t, uint32(sshfx.StatusFailure), st)
	assert.Equal(t, "weird", msg)
}
