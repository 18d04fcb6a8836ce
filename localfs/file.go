package localfs

import (
	"io"
	"io/fs"
	"os"

	"github.com/xqyjlj/sftpd"

	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

// file adapts an *os.File to sftpd.File.
type file struct {
	*os.File
}

func (f *file) Stat() (*sshfx.Attributes, error) {
	fi, err := f.File.Stat()
	if err != nil {
		return nil, err
	}
	return fileInfoAttrs(fi), nil
}

func (f *file) SetStat(attrs *sshfx.Attributes) error {
	if attrs.Has(sshfx.AttrCTime) {
		return sshfx.StatusOPUnsupported
	}

	if attrs.Has(sshfx.AttrSize) {
		if err := f.Truncate(int64(attrs.Size)); err != nil {
			return err
		}
	}
	if attrs.Has(sshfx.AttrPermissions) {
		if err := f.Chmod(fs.FileMode(attrs.Permissions).Perm()); err != nil {
			return err
		}
	}

	switch {
	case attrs.Has(sshfx.AttrUIDGID):
		if err := f.Chown(int(attrs.UID), int(attrs.GID)); err != nil {
			return err
		}
	case attrs.Has(sshfx.AttrOwnerGroup):
		uid, gid, err := resolveOwnerGroup(attrs.Owner, attrs.Group)
		if err != nil {
			return err
		}
		if err := f.Chown(uid, gid); err != nil {
			return err
		}
	}

	if attrs.Has(sshfx.AttrAccessTime) || attrs.Has(sshfx.AttrModifyTime) {
		return applyTimes(f.Name(), attrs)
	}
	return nil
}

// dir adapts an open directory to sftpd.Dir, scanning it in batches.
type dir struct {
	f *os.File
}

func (d *dir) Close() error {
	return d.f.Close()
}

func (d *dir) ReadEntries(max int) ([]sftpd.NameEntry, error) {
	des, err := d.f.ReadDir(max)

	entries := make([]sftpd.NameEntry, 0, len(des))
	for _, de := range des {
		fi, ierr := de.Info()
		if ierr != nil {
			// Entry vanished between scan and stat; skip it.
			continue
		}
		entries = append(entries, sftpd.NameEntry{
			Name:     de.Name(),
			Longname: formatLongname(fi),
			Attrs:    *fileInfoAttrs(fi),
		})
	}

	if err != nil {
		if err == io.EOF && len(entries) > 0 {
			return entries, nil
		}
		return entries, err
	}
	return entries, nil
}
