// Package localfs provides an sftpd.Backend serving the local filesystem.
//
// NOTE: exposing the local filesystem is only safe behind whatever
// sandboxing the caller arranges (chroot, containers, dedicated users).
package localfs

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"syscall"

	"github.com/xqyjlj/sftpd"

	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

// Backend implements sftpd.Backend against the local filesystem.
type Backend struct {
	// WorkDir is joined in front of relative client paths. Empty means the
	// process working directory.
	WorkDir string
}

// New returns a Backend rooted at workDir.
func New(workDir string) *Backend {
	return &Backend{WorkDir: workDir}
}

func (b *Backend) resolve(p string) (string, error) {
	if b.WorkDir != "" && !path.IsAbs(p) {
		p = path.Join(b.WorkDir, p)
	} else {
		p = path.Clean(p)
	}
	if p == "" {
		return "", sshfx.StatusNoSuchFile
	}
	return p, nil
}

// Realpath implements sftpd.Backend.
func (b *Backend) Realpath(p string) (string, error) {
	lp, err := b.resolve(p)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(lp) {
		abs, err := filepath.Abs(lp)
		if err != nil {
			return "", err
		}
		lp = abs
	}
	return filepath.Clean(lp), nil
}

// Stat implements sftpd.Backend.
func (b *Backend) Stat(p string) (*sshfx.Attributes, error) {
	lp, err := b.resolve(p)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(lp)
	if err != nil {
		return nil, err
	}
	return fileInfoAttrs(fi), nil
}

// Lstat implements sftpd.Backend.
func (b *Backend) Lstat(p string) (*sshfx.Attributes, error) {
	lp, err := b.resolve(p)
	if err != nil {
		return nil, err
	}
	fi, err := os.Lstat(lp)
	if err != nil {
		return nil, err
	}
	return fileInfoAttrs(fi), nil
}

// SetStat implements sftpd.Backend.
func (b *Backend) SetStat(p string, attrs *sshfx.Attributes) error {
	lp, err := b.resolve(p)
	if err != nil {
		return err
	}
	return applyAttrs(lp, attrs)
}

// Open implements sftpd.Backend.
func (b *Backend) Open(p string, flags int, perm fs.FileMode) (sftpd.File, error) {
	lp, err := b.resolve(p)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(lp, flags, perm)
	if err != nil {
		return nil, err
	}
	return &file{f}, nil
}

// OpenDir implements sftpd.Backend.
func (b *Backend) OpenDir(p string) (sftpd.Dir, error) {
	lp, err := b.resolve(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(lp)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !fi.IsDir() {
		f.Close()
		return nil, &fs.PathError{Op: "opendir", Path: lp, Err: syscall.ENOTDIR}
	}
	return &dir{f}, nil
}

// Remove implements sftpd.Backend. Directories are rejected so the client
// cannot remove them through the file-removal request.
func (b *Backend) Remove(p string) error {
	lp, err := b.resolve(p)
	if err != nil {
		return err
	}
	fi, err := os.Lstat(lp)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return &fs.PathError{Op: "remove", Path: lp, Err: syscall.EISDIR}
	}
	return os.Remove(lp)
}

// Mkdir implements sftpd.Backend.
func (b *Backend) Mkdir(p string, attrs *sshfx.Attributes) error {
	lp, err := b.resolve(p)
	if err != nil {
		return err
	}
	perm := fs.FileMode(0777)
	if attrs.Has(sshfx.AttrPermissions) {
		perm = fs.FileMode(attrs.Permissions).Perm()
	}
	return os.Mkdir(lp, perm)
}

// Rmdir implements sftpd.Backend.
func (b *Backend) Rmdir(p string) error {
	lp, err := b.resolve(p)
	if err != nil {
		return err
	}
	fi, err := os.Lstat(lp)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return &fs.PathError{Op: "rmdir", Path: lp, Err: syscall.ENOTDIR}
	}
	return os.Remove(lp)
}

// Rename implements sftpd.Backend. The non-overwriting form fails with
// EEXIST when the target is present; the check-then-rename is the common
// compromise on hosts without a no-replace rename.
func (b *Backend) Rename(oldpath, newpath string, overwrite bool) error {
	from, err := b.resolve(oldpath)
	if err != nil {
		return err
	}
	to, err := b.resolve(newpath)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Lstat(to); err == nil {
			return &os.LinkError{Op: "rename", Old: from, New: to, Err: syscall.EEXIST}
		}
	}
	return os.Rename(from, to)
}

// Readlink implements sftpd.Backend.
func (b *Backend) Readlink(p string) (string, error) {
	lp, err := b.resolve(p)
	if err != nil {
		return "", err
	}
	return os.Readlink(lp)
}

// Symlink implements sftpd.Backend.
func (b *Backend) Symlink(targetpath, linkpath string) error {
	lp, err := b.resolve(linkpath)
	if err != nil {
		return err
	}
	// The target is stored verbatim; resolving it would change the link's
	// meaning.
	return os.Symlink(targetpath, lp)
}

// Link implements sftpd.Backend.
func (b *Backend) Link(existingpath, newlinkpath string) error {
	from, err := b.resolve(existingpath)
	if err != nil {
		return err
	}
	to, err := b.resolve(newlinkpath)
	if err != nil {
		return err
	}
	return os.Link(from, to)
}
