package localfs

import (
	"io/fs"
	"os"
	"os/user"
	"strconv"
	"time"

	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

// POSIX mode bits, which the wire format uses regardless of host.
const (
	modeRegular   = 0x8000
	modeDirectory = 0x4000
	modeSymlink   = 0xA000
	modeSocket    = 0xC000
	modeCharDev   = 0x2000
	modeBlockDev  = 0x6000
	modeFIFO      = 0x1000

	modeSetuid = 0x800
	modeSetgid = 0x400
	modeSticky = 0x200
)

// toPosixMode converts a Go file mode to POSIX mode bits.
func toPosixMode(m fs.FileMode) uint32 {
	p := uint32(m.Perm())

	switch {
	case m.IsRegular():
		p |= modeRegular
	case m.IsDir():
		p |= modeDirectory
	case m&fs.ModeSymlink != 0:
		p |= modeSymlink
	case m&fs.ModeSocket != 0:
		p |= modeSocket
	case m&fs.ModeCharDevice != 0:
		p |= modeCharDev
	case m&fs.ModeDevice != 0:
		p |= modeBlockDev
	case m&fs.ModeNamedPipe != 0:
		p |= modeFIFO
	}

	if m&fs.ModeSetuid != 0 {
		p |= modeSetuid
	}
	if m&fs.ModeSetgid != 0 {
		p |= modeSetgid
	}
	if m&fs.ModeSticky != 0 {
		p |= modeSticky
	}

	return p
}

// applyAttrs applies a SETSTAT/FSETSTAT attribute block to a path, honoring
// each present field in turn.
func applyAttrs(path string, a *sshfx.Attributes) error {
	if a.Has(sshfx.AttrCTime) {
		// The change time cannot be set; reject rather than silently
		// ignore.
		return sshfx.StatusOPUnsupported
	}

	if a.Has(sshfx.AttrSize) {
		if err := os.Truncate(path, int64(a.Size)); err != nil {
			return err
		}
	}

	if a.Has(sshfx.AttrPermissions) {
		if err := os.Chmod(path, fs.FileMode(a.Permissions).Perm()); err != nil {
			return err
		}
	}

	switch {
	case a.Has(sshfx.AttrUIDGID):
		if err := os.Chown(path, int(a.UID), int(a.GID)); err != nil {
			return err
		}
	case a.Has(sshfx.AttrOwnerGroup):
		uid, gid, err := resolveOwnerGroup(a.Owner, a.Group)
		if err != nil {
			return err
		}
		if err := os.Chown(path, uid, gid); err != nil {
			return err
		}
	}

	if a.Has(sshfx.AttrAccessTime) || a.Has(sshfx.AttrModifyTime) {
		return applyTimes(path, a)
	}

	return nil
}

func applyTimes(path string, a *sshfx.Attributes) error {
	atime := time.Unix(a.ATime, int64(a.ATimeNsec))
	mtime := time.Unix(a.MTime, int64(a.MTimeNsec))

	// Chtimes needs both; fill whichever the client left out from the
	// file's current times.
	if !a.Has(sshfx.AttrAccessTime) || !a.Has(sshfx.AttrModifyTime) {
		fi, err := os.Stat(path)
		if err != nil {
			return err
		}
		cur := fileInfoAttrs(fi)
		if !a.Has(sshfx.AttrAccessTime) {
			atime = time.Unix(cur.ATime, int64(cur.ATimeNsec))
		}
		if !a.Has(sshfx.AttrModifyTime) {
			mtime = fi.ModTime()
		}
	}

	return os.Chtimes(path, atime, mtime)
}

func resolveOwnerGroup(owner, group string) (uid, gid int, err error) {
	u, err := user.Lookup(owner)
	if err != nil {
		return 0, 0, sshfx.StatusOwnerInvalid
	}
	g, err := user.LookupGroup(group)
	if err != nil {
		return 0, 0, sshfx.StatusGroupInvalid
	}

	uid, err = strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, sshfx.StatusOwnerInvalid
	}
	gid, err = strconv.Atoi(g.Gid)
	if err != nil {
		return 0, 0, sshfx.StatusGroupInvalid
	}
	return uid, gid, nil
}
