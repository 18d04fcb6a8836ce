//go:build !linux

package localfs

import (
	"github.com/xqyjlj/sftpd"

	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

// SpaceAvailable implements sftpd.Backend on hosts without statfs support.
func (b *Backend) SpaceAvailable(string) (*sftpd.SpaceAvailable, error) {
	return nil, sshfx.StatusOPUnsupported
}
