package sftpd

import (
	"io"
	"io/fs"
	"strconv"
	"sync"

	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

// Backend is the file-system collaborator the engine dispatches into. Paths
// arrive in the local encoding, exactly as the client named them (after any
// wire charset conversion). Errors flow back through the status mapper, so
// implementations can return plain OS errors or sshfx.Status values.
type Backend interface {
	Realpath(path string) (string, error)
	Stat(path string) (*sshfx.Attributes, error)
	Lstat(path string) (*sshfx.Attributes, error)
	SetStat(path string, attrs *sshfx.Attributes) error

	Open(path string, flags int, perm fs.FileMode) (File, error)
	OpenDir(path string) (Dir, error)

	Remove(path string) error
	Mkdir(path string, attrs *sshfx.Attributes) error
	Rmdir(path string) error
	// Rename moves oldpath to newpath. Unless overwrite is set it must fail
	// with an exists error when newpath is already present.
	Rename(oldpath, newpath string, overwrite bool) error

	Readlink(path string) (string, error)
	Symlink(targetpath, linkpath string) error
	Link(existingpath, newlinkpath string) error

	SpaceAvailable(path string) (*SpaceAvailable, error)
}

// File is an open file issued by Backend.Open and referenced by later
// requests through an opaque handle.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer

	Stat() (*sshfx.Attributes, error)
	SetStat(attrs *sshfx.Attributes) error
}

// Dir is an open directory scan. ReadEntries returns at most max entries,
// and io.EOF once the listing is exhausted.
type Dir interface {
	io.Closer

	ReadEntries(max int) ([]NameEntry, error)
}

// NameEntry is one row of a SSH_FXP_NAME response. Longname is the `ls -l`
// style line used by protocol version 3 only.
type NameEntry struct {
	Name     string
	Longname string
	Attrs    sshfx.Attributes
}

// SpaceAvailable mirrors the reply of the space-available extension.
type SpaceAvailable struct {
	BytesOnDevice              uint64
	UnusedBytesOnDevice        uint64
	BytesAvailableToUser       uint64
	UnusedBytesAvailableToUser uint64
	BytesPerAllocationUnit     uint32
}

// handleTable owns the opaque handle strings issued to the client. Handles
// are decimal counters; their bytes double as serialization keys.
type handleTable struct {
	mu    sync.RWMutex
	next  uint64
	files map[string]File
	dirs  map[string]Dir
}

func newHandleTable() *handleTable {
	return &handleTable{
		files: make(map[string]File),
		dirs:  make(map[string]Dir),
	}
}

func (t *handleTable) addFile(f File) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	h := strconv.FormatUint(t.next, 10)
	t.files[h] = f
	return h
}

func (t *handleTable) addDir(d Dir) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	h := strconv.FormatUint(t.next, 10)
	t.dirs[h] = d
	return h
}

func (t *handleTable) file(h string) (File, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	f, ok := t.files[h]
	return f, ok
}

func (t *handleTable) dir(h string) (Dir, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.dirs[h]
	return d, ok
}

// close removes the handle and closes the underlying file or directory.
func (t *handleTable) close(h string) (error, bool) {
	t.mu.Lock()
	f, okf := t.files[h]
	d, okd := t.dirs[h]
	delete(t.files, h)
	delete(t.dirs, h)
	t.mu.Unlock()

	switch {
	case okf:
		return f.Close(), true
	case okd:
		return d.Close(), true
	}
	return nil, false
}

// closeAll releases every outstanding handle, for connection teardown.
func (t *handleTable) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for h, f := range t.files {
		f.Close()
		delete(t.files, h)
	}
	for h, d := range t.dirs {
		d.Close()
		delete(t.dirs, h)
	}
}
