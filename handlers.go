package sftpd

import (
	"io"
	"io/fs"
	"os"

	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

// readPath consumes a path argument and converts it to the local encoding.
func (j *Job) readPath() (string, error) {
	p, err := j.buf.ConsumeString()
	if err != nil {
		return "", sshfx.StatusBadMessage
	}
	return j.w.toLocal(p)
}

// readHandle consumes a handle argument.
func (j *Job) readHandle() (string, error) {
	h, err := j.buf.ConsumeString()
	if err != nil {
		return "", sshfx.StatusBadMessage
	}
	return h, nil
}

// readAttrs consumes an attribute block in the negotiated version's format.
func (j *Job) readAttrs(s *Server) (*sshfx.Attributes, error) {
	attrs := new(sshfx.Attributes)
	if err := attrs.UnmarshalFrom(j.buf, s.proto.version); err != nil {
		return nil, sshfx.StatusBadMessage
	}
	return attrs, nil
}

// readStatFlags consumes the desired-attributes mask present on stat-class
// requests from version 4 on. The mask is advisory; we always return the
// attributes we have.
func (j *Job) readStatFlags(s *Server) error {
	if s.proto.version < 4 {
		return nil
	}
	if _, err := j.buf.ConsumeUint32(); err != nil {
		return sshfx.StatusBadMessage
	}
	return nil
}

func (s *Server) sendHandle(j *Job, h string) uint32 {
	buf := j.Reply()
	buf.AppendUint8(uint8(sshfx.PacketTypeHandle))
	buf.AppendUint32(j.id)
	buf.AppendString(h)
	if err := j.Flush(); err != nil {
		s.log.Error("sending HANDLE failed", "error", err)
	}
	return HandlerResponded
}

func (s *Server) sendData(j *Job, data []byte) uint32 {
	buf := j.Reply()
	buf.AppendUint8(uint8(sshfx.PacketTypeData))
	buf.AppendUint32(j.id)
	buf.AppendByteSlice(data)
	if err := j.Flush(); err != nil {
		s.log.Error("sending DATA failed", "error", err)
	}
	return HandlerResponded
}

func (s *Server) sendAttrs(j *Job, attrs *sshfx.Attributes) uint32 {
	buf := j.Reply()
	buf.AppendUint8(uint8(sshfx.PacketTypeAttrs))
	buf.AppendUint32(j.id)
	attrs.MarshalInto(buf, s.proto.version)
	if err := j.Flush(); err != nil {
		s.log.Error("sending ATTRS failed", "error", err)
	}
	return HandlerResponded
}

// sendNames emits a NAME response. Version 3 rows carry the longname
// column; later versions dropped it. Names are converted back to the wire
// encoding.
func (s *Server) sendNames(j *Job, entries []NameEntry) uint32 {
	buf := j.Reply()
	buf.AppendUint8(uint8(sshfx.PacketTypeName))
	buf.AppendUint32(j.id)
	buf.AppendUint32(uint32(len(entries)))
	for i := range entries {
		name, err := j.w.toWire(entries[i].Name)
		if err != nil {
			return j.Fail(err)
		}
		buf.AppendString(name)
		if s.proto.version <= 3 {
			buf.AppendString(entries[i].Longname)
		}
		entries[i].Attrs.MarshalInto(buf, s.proto.version)
	}
	if err := j.Flush(); err != nil {
		s.log.Error("sending NAME failed", "error", err)
	}
	return HandlerResponded
}

// openFlagsToOS translates version 3/4 pflags to os.OpenFile flags.
func openFlagsToOS(pflags uint32) (int, bool) {
	var flags int
	switch {
	case pflags&sshfx.FlagRead != 0 && pflags&sshfx.FlagWrite != 0:
		flags = os.O_RDWR
	case pflags&sshfx.FlagRead != 0:
		flags = os.O_RDONLY
	case pflags&sshfx.FlagWrite != 0:
		flags = os.O_WRONLY
	default:
		return 0, false
	}
	if pflags&sshfx.FlagAppend != 0 {
		flags |= os.O_APPEND
	}
	if pflags&sshfx.FlagCreate != 0 {
		flags |= os.O_CREATE
	}
	if pflags&sshfx.FlagTruncate != 0 {
		flags |= os.O_TRUNC
	}
	if pflags&sshfx.FlagExclusive != 0 {
		flags |= os.O_EXCL
	}
	return flags, true
}

func attrPerm(attrs *sshfx.Attributes) fs.FileMode {
	if attrs.Has(sshfx.AttrPermissions) {
		return fs.FileMode(attrs.Permissions).Perm()
	}
	return 0666
}

func sftpOpen(s *Server, j *Job) uint32 {
	path, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	pflags, err := j.buf.ConsumeUint32()
	if err != nil {
		return uint32(sshfx.StatusBadMessage)
	}
	attrs, aerr := j.readAttrs(s)
	if aerr != nil {
		return j.Fail(aerr)
	}

	flags, ok := openFlagsToOS(pflags)
	if !ok {
		return uint32(sshfx.StatusBadMessage)
	}
	if s.readOnly && flags&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC) != 0 {
		return uint32(sshfx.StatusPermissionDenied)
	}

	f, err := s.backend.Open(path, flags, attrPerm(attrs))
	if err != nil {
		return j.Fail(err)
	}
	return s.sendHandle(j, s.handles.addFile(f))
}

// sftpOpenV5 handles the version 5/6 OPEN shape: desired-access ACE mask
// plus flags whose low bits are the access disposition.
func sftpOpenV5(s *Server, j *Job) uint32 {
	path, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	access, err := j.buf.ConsumeUint32()
	if err != nil {
		return uint32(sshfx.StatusBadMessage)
	}
	oflags, err := j.buf.ConsumeUint32()
	if err != nil {
		return uint32(sshfx.StatusBadMessage)
	}
	attrs, aerr := j.readAttrs(s)
	if aerr != nil {
		return j.Fail(aerr)
	}

	wantRead := access&(sshfx.ACEReadData|sshfx.ACEReadAttrs) != 0
	wantWrite := access&(sshfx.ACEWriteData|sshfx.ACEAppendData|sshfx.ACEWriteAttrs) != 0

	var flags int
	switch {
	case wantRead && wantWrite:
		flags = os.O_RDWR
	case wantWrite:
		flags = os.O_WRONLY
	default:
		flags = os.O_RDONLY
	}

	switch oflags & sshfx.FlagAccessDisposition {
	case sshfx.FlagCreateNew:
		flags |= os.O_CREATE | os.O_EXCL
	case sshfx.FlagCreateTruncate:
		flags |= os.O_CREATE | os.O_TRUNC
	case sshfx.FlagOpenExisting:
		// plain open
	case sshfx.FlagOpenOrCreate:
		flags |= os.O_CREATE
	case sshfx.FlagTruncateExisting:
		flags |= os.O_TRUNC
	default:
		return uint32(sshfx.StatusInvalidParameter)
	}

	if oflags&(sshfx.FlagAppendData|sshfx.FlagAppendDataAtomic) != 0 {
		flags |= os.O_APPEND
	}

	if s.readOnly && (wantWrite || flags&(os.O_CREATE|os.O_TRUNC) != 0) {
		return uint32(sshfx.StatusPermissionDenied)
	}

	f, err := s.backend.Open(path, flags, attrPerm(attrs))
	if err != nil {
		return j.Fail(err)
	}
	return s.sendHandle(j, s.handles.addFile(f))
}

func sftpClose(s *Server, j *Job) uint32 {
	h, err := j.readHandle()
	if err != nil {
		return j.Fail(err)
	}
	cerr, ok := s.handles.close(h)
	if !ok {
		return uint32(sshfx.StatusInvalidHandle)
	}
	if cerr != nil {
		return j.Fail(cerr)
	}
	return uint32(sshfx.StatusOK)
}

func sftpRead(s *Server, j *Job) uint32 {
	h, err := j.readHandle()
	if err != nil {
		return j.Fail(err)
	}
	offset, err := j.buf.ConsumeUint64()
	if err != nil {
		return uint32(sshfx.StatusBadMessage)
	}
	length, err := j.buf.ConsumeUint32()
	if err != nil {
		return uint32(sshfx.StatusBadMessage)
	}

	f, ok := s.handles.file(h)
	if !ok {
		return uint32(sshfx.StatusInvalidHandle)
	}

	// Leave room for the frame header around the data string.
	if max := uint32(maxMsgLength - 1024); length > max {
		length = max
	}
	page := s.alloc.GetPage(j.orderID)[:length]

	n, rerr := f.ReadAt(page, int64(offset))
	if n > 0 {
		return s.sendData(j, page[:n])
	}
	if rerr == nil || rerr == io.EOF {
		return uint32(sshfx.StatusEOF)
	}
	return j.Fail(rerr)
}

func sftpWrite(s *Server, j *Job) uint32 {
	h, err := j.readHandle()
	if err != nil {
		return j.Fail(err)
	}
	offset, err := j.buf.ConsumeUint64()
	if err != nil {
		return uint32(sshfx.StatusBadMessage)
	}
	data, err := j.buf.ConsumeByteSlice()
	if err != nil {
		return uint32(sshfx.StatusBadMessage)
	}

	f, ok := s.handles.file(h)
	if !ok {
		return uint32(sshfx.StatusInvalidHandle)
	}
	if s.readOnly {
		return uint32(sshfx.StatusPermissionDenied)
	}

	if _, werr := f.WriteAt(data, int64(offset)); werr != nil {
		return j.Fail(werr)
	}
	return uint32(sshfx.StatusOK)
}

func sftpLstat(s *Server, j *Job) uint32 {
	path, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	if err := j.readStatFlags(s); err != nil {
		return j.Fail(err)
	}
	attrs, serr := s.backend.Lstat(path)
	if serr != nil {
		return j.Fail(serr)
	}
	return s.sendAttrs(j, attrs)
}

func sftpStat(s *Server, j *Job) uint32 {
	path, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	if err := j.readStatFlags(s); err != nil {
		return j.Fail(err)
	}
	attrs, serr := s.backend.Stat(path)
	if serr != nil {
		return j.Fail(serr)
	}
	return s.sendAttrs(j, attrs)
}

func sftpFstat(s *Server, j *Job) uint32 {
	h, err := j.readHandle()
	if err != nil {
		return j.Fail(err)
	}
	if err := j.readStatFlags(s); err != nil {
		return j.Fail(err)
	}
	f, ok := s.handles.file(h)
	if !ok {
		return uint32(sshfx.StatusInvalidHandle)
	}
	attrs, serr := f.Stat()
	if serr != nil {
		return j.Fail(serr)
	}
	return s.sendAttrs(j, attrs)
}

func sftpSetstat(s *Server, j *Job) uint32 {
	path, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	attrs, aerr := j.readAttrs(s)
	if aerr != nil {
		return j.Fail(aerr)
	}
	if s.readOnly {
		return uint32(sshfx.StatusPermissionDenied)
	}
	if serr := s.backend.SetStat(path, attrs); serr != nil {
		return j.Fail(serr)
	}
	return uint32(sshfx.StatusOK)
}

func sftpFsetstat(s *Server, j *Job) uint32 {
	h, err := j.readHandle()
	if err != nil {
		return j.Fail(err)
	}
	attrs, aerr := j.readAttrs(s)
	if aerr != nil {
		return j.Fail(aerr)
	}
	f, ok := s.handles.file(h)
	if !ok {
		return uint32(sshfx.StatusInvalidHandle)
	}
	if s.readOnly {
		return uint32(sshfx.StatusPermissionDenied)
	}
	if serr := f.SetStat(attrs); serr != nil {
		return j.Fail(serr)
	}
	return uint32(sshfx.StatusOK)
}

func sftpOpendir(s *Server, j *Job) uint32 {
	path, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	d, oerr := s.backend.OpenDir(path)
	if oerr != nil {
		return j.Fail(oerr)
	}
	return s.sendHandle(j, s.handles.addDir(d))
}

func sftpReaddir(s *Server, j *Job) uint32 {
	h, err := j.readHandle()
	if err != nil {
		return j.Fail(err)
	}
	d, ok := s.handles.dir(h)
	if !ok {
		return uint32(sshfx.StatusInvalidHandle)
	}

	entries, rerr := d.ReadEntries(maxReaddirEntries)
	if len(entries) > 0 {
		return s.sendNames(j, entries)
	}
	if rerr == nil || rerr == io.EOF {
		return uint32(sshfx.StatusEOF)
	}
	return j.Fail(rerr)
}

func sftpRemove(s *Server, j *Job) uint32 {
	path, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	if s.readOnly {
		return uint32(sshfx.StatusPermissionDenied)
	}
	if rerr := s.backend.Remove(path); rerr != nil {
		return j.Fail(rerr)
	}
	return uint32(sshfx.StatusOK)
}

func sftpMkdir(s *Server, j *Job) uint32 {
	path, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	attrs, aerr := j.readAttrs(s)
	if aerr != nil {
		return j.Fail(aerr)
	}
	if s.readOnly {
		return uint32(sshfx.StatusPermissionDenied)
	}
	if merr := s.backend.Mkdir(path, attrs); merr != nil {
		return j.Fail(merr)
	}
	return uint32(sshfx.StatusOK)
}

func sftpRmdir(s *Server, j *Job) uint32 {
	path, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	if s.readOnly {
		return uint32(sshfx.StatusPermissionDenied)
	}
	if rerr := s.backend.Rmdir(path); rerr != nil {
		return j.Fail(rerr)
	}
	return uint32(sshfx.StatusOK)
}

func sftpRealpath(s *Server, j *Job) uint32 {
	path, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	// Version 6 appends an optional control byte and compose paths; we
	// resolve the path as given and ignore the composition request.
	if s.proto.version >= 6 && j.buf.Len() > 0 {
		j.buf.ConsumeUint8()
	}

	resolved, rerr := s.backend.Realpath(path)
	if rerr != nil {
		return j.Fail(rerr)
	}
	return s.sendNames(j, []NameEntry{{
		Name:     resolved,
		Longname: resolved,
	}})
}

func sftpRename(s *Server, j *Job) uint32 {
	oldpath, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	newpath, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	if s.readOnly {
		return uint32(sshfx.StatusPermissionDenied)
	}
	if rerr := s.backend.Rename(oldpath, newpath, false); rerr != nil {
		return j.Fail(rerr)
	}
	return uint32(sshfx.StatusOK)
}

func sftpRenameV5(s *Server, j *Job) uint32 {
	oldpath, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	newpath, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	flags, err := j.buf.ConsumeUint32()
	if err != nil {
		return uint32(sshfx.StatusBadMessage)
	}
	if s.readOnly {
		return uint32(sshfx.StatusPermissionDenied)
	}
	overwrite := flags&sshfx.RenameOverwrite != 0
	if rerr := s.backend.Rename(oldpath, newpath, overwrite); rerr != nil {
		return j.Fail(rerr)
	}
	return uint32(sshfx.StatusOK)
}

func sftpReadlink(s *Server, j *Job) uint32 {
	path, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	target, rerr := s.backend.Readlink(path)
	if rerr != nil {
		return j.Fail(rerr)
	}
	return s.sendNames(j, []NameEntry{{
		Name:     target,
		Longname: target,
	}})
}

// sftpSymlink serves versions 3 through 5. The draft names linkpath first,
// but OpenSSH clients send targetpath first; the reverseSymlink option
// flips the version 3 parse to match them, as documented by the advertised
// symlink-order extension.
func sftpSymlink(s *Server, j *Job) uint32 {
	first, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	second, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}

	linkpath, targetpath := first, second
	if s.proto.version == 3 && s.reverseSymlink {
		targetpath, linkpath = first, second
	}

	if s.readOnly {
		return uint32(sshfx.StatusPermissionDenied)
	}
	if serr := s.backend.Symlink(targetpath, linkpath); serr != nil {
		return j.Fail(serr)
	}
	return uint32(sshfx.StatusOK)
}

// sftpLink is the version 6 LINK request: symbolic or hard.
func sftpLink(s *Server, j *Job) uint32 {
	newlinkpath, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	existingpath, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	symlink, err := j.buf.ConsumeUint8()
	if err != nil {
		return uint32(sshfx.StatusBadMessage)
	}

	if s.readOnly {
		return uint32(sshfx.StatusPermissionDenied)
	}

	var lerr error
	if symlink != 0 {
		lerr = s.backend.Symlink(existingpath, newlinkpath)
	} else {
		lerr = s.backend.Link(existingpath, newlinkpath)
	}
	if lerr != nil {
		return j.Fail(lerr)
	}
	return uint32(sshfx.StatusOK)
}

// sftpExtended dispatches SSH_FXP_EXTENDED requests by extension name.
func sftpExtended(s *Server, j *Job) uint32 {
	name, err := j.buf.ConsumeString()
	if err != nil {
		return uint32(sshfx.StatusBadMessage)
	}
	fn, ok := s.extensions[name]
	if !ok {
		return uint32(sshfx.StatusOPUnsupported)
	}
	return fn(s, j)
}

func sftpPosixRename(s *Server, j *Job) uint32 {
	oldpath, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	newpath, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	if s.readOnly {
		return uint32(sshfx.StatusPermissionDenied)
	}
	if rerr := s.backend.Rename(oldpath, newpath, true); rerr != nil {
		return j.Fail(rerr)
	}
	return uint32(sshfx.StatusOK)
}

func sftpSpaceAvailable(s *Server, j *Job) uint32 {
	path, err := j.readPath()
	if err != nil {
		return j.Fail(err)
	}
	space, serr := s.backend.SpaceAvailable(path)
	if serr != nil {
		return j.Fail(serr)
	}

	buf := j.Reply()
	buf.AppendUint8(uint8(sshfx.PacketTypeExtendedReply))
	buf.AppendUint32(j.id)
	buf.AppendUint64(space.BytesOnDevice)
	buf.AppendUint64(space.UnusedBytesOnDevice)
	buf.AppendUint64(space.BytesAvailableToUser)
	buf.AppendUint64(space.UnusedBytesAvailableToUser)
	buf.AppendUint32(space.BytesPerAllocationUnit)
	if err := j.Flush(); err != nil {
		s.log.Error("sending EXTENDED_REPLY failed", "error", err)
	}
	return HandlerResponded
}
