package localfs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

func TestOpenWriteRead(t *testing.T) {
	b := New(t.TempDir())

	f, err := b.Open("hello.txt", os.O_RDWR|os.O_CREATE, 0644)
	require.NoError(t, err)

	_, err = f.WriteAt([]byte("hello world"), 0)
	require.NoError(t, err)

	attrs, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, uint64(11), attrs.Size)
	assert.Equal(t, sshfx.FileTypeRegular, attrs.Type)
	assert.True(t, attrs.Has(sshfx.AttrPermissions))

	buf := make([]byte, 5)
	_, err = f.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "world", string(buf))

	require.NoError(t, f.Close())
}

func TestStatVsLstat(t *testing.T) {
	root := t.TempDir()
	b := New(root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "file"), []byte("x"), 0644))
	require.NoError(t, os.Symlink("file", filepath.Join(root, "link")))

	st, err := b.Stat("link")
	require.NoError(t, err)
	assert.Equal(t, sshfx.FileTypeRegular, st.Type, "Stat follows the link")

	lst, err := b.Lstat("link")
	require.NoError(t, err)
	assert.Equal(t, sshfx.FileTypeSymlink, lst.Type, "Lstat does not")

	target, err := b.Readlink("link")
	require.NoError(t, err)
	assert.Equal(t, "file", target)
}

func TestReadEntries(t *testing.T) {
	root := t.TempDir()
	b := New(root)

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(name), 0644))
	}

	d, err := b.OpenDir(".")
	require.NoError(t, err)
	defer d.Close()

	var names []string
	for {
		entries, err := d.ReadEntries(2)
		for _, e := range entries {
			names = append(names, e.Name)
			assert.NotEmpty(t, e.Longname)
			assert.True(t, e.Attrs.Has(sshfx.AttrSize))
		}
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, names)
}

func TestOpenDirOnFile(t *testing.T) {
	root := t.TempDir()
	b := New(root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "f"), nil, 0644))

	_, err := b.OpenDir("f")
	assert.Error(t, err)
}

func TestRenameNoOverwrite(t *testing.T) {
	root := t.TempDir()
	b := New(root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "src"), []byte("1"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dst"), []byte("2"), 0644))

	err := b.Rename("src", "dst", false)
	require.Error(t, err, "non-overwriting rename onto an existing target must fail")

	require.NoError(t, b.Rename("src", "dst", true))
	data, err := os.ReadFile(filepath.Join(root, "dst"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestRemoveRejectsDirectories(t *testing.T) {
	root := t.TempDir()
	b := New(root)

	require.NoError(t, b.Mkdir("d", &sshfx.Attributes{}))
	assert.Error(t, b.Remove("d"))
	require.NoError(t, b.Rmdir("d"))
}

func TestSetStat(t *testing.T) {
	root := t.TempDir()
	b := New(root)
	p := filepath.Join(root, "f")
	require.NoError(t, os.WriteFile(p, []byte("0123456789"), 0644))

	err := b.SetStat("f", &sshfx.Attributes{
		Flags:       sshfx.AttrSize | sshfx.AttrPermissions,
		Size:        4,
		Permissions: 0600,
	})
	require.NoError(t, err)

	fi, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, int64(4), fi.Size())
	assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())
}

func TestSetStatRejectsCTime(t *testing.T) {
	root := t.TempDir()
	b := New(root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "f"), nil, 0644))

	err := b.SetStat("f", &sshfx.Attributes{Flags: sshfx.AttrCTime, CTime: 1})
	assert.ErrorIs(t, err, sshfx.StatusOPUnsupported)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "-rw-r--r--", modeString(0x81A4))
	assert.Equal(t, "drwxr-xr-x", modeString(0x41ED))
	assert.Equal(t, "lrwxrwxrwx", modeString(0xA1FF))
	assert.Equal(t, "-rwsr-xr-x", modeString(0x8000|modeSetuid|0755))
	assert.Equal(t, "drwxrwxrwt", modeString(0x4000|modeSticky|0777))
}
