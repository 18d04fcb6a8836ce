//go:build linux

package localfs

import (
	"golang.org/x/sys/unix"

	"github.com/xqyjlj/sftpd"
)

// SpaceAvailable implements sftpd.Backend via statfs.
func (b *Backend) SpaceAvailable(p string) (*sftpd.SpaceAvailable, error) {
	lp, err := b.resolve(p)
	if err != nil {
		return nil, err
	}

	var st unix.Statfs_t
	if err := unix.Statfs(lp, &st); err != nil {
		return nil, err
	}

	bsize := uint64(st.Bsize)
	return &sftpd.SpaceAvailable{
		BytesOnDevice:              bsize * st.Blocks,
		UnusedBytesOnDevice:        bsize * st.Bfree,
		BytesAvailableToUser:       bsize * st.Blocks,
		UnusedBytesAvailableToUser: bsize * st.Bavail,
		BytesPerAllocationUnit:     uint32(st.Bsize),
	}, nil
}
