//go:build aix || darwin || freebsd || linux || netbsd || solaris

package localfs

import (
	"os"
	"syscall"

	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

// fileInfoAttrs builds the full attribute block for a stat result. Flags
// cover both the version 3 fields (numeric uid/gid, second-resolution
// times) and the version 4+ fields (owner/group names, subsecond times,
// ctime); the codec masks to whatever the negotiated version can carry.
func fileInfoAttrs(fi os.FileInfo) *sshfx.Attributes {
	perm := toPosixMode(fi.Mode())

	a := &sshfx.Attributes{
		Flags: sshfx.AttrSize |
			sshfx.AttrPermissions |
			sshfx.AttrAccessTime |
			sshfx.AttrModifyTime |
			sshfx.AttrSubsecondTimes,
		Type:        sshfx.TypeFromPermissions(perm),
		Size:        uint64(fi.Size()),
		Permissions: perm,
		MTime:       fi.ModTime().Unix(),
		MTimeNsec:   uint32(fi.ModTime().Nanosecond()),
	}
	a.ATime, a.ATimeNsec = a.MTime, a.MTimeNsec

	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		a.Flags |= sshfx.AttrUIDGID | sshfx.AttrOwnerGroup | sshfx.AttrCTime
		a.UID, a.GID = st.Uid, st.Gid
		a.Owner = lookupUserName(st.Uid)
		a.Group = lookupGroupName(st.Gid)

		atim, ctim := statTimes(st)
		sec, nsec := atim.Unix()
		a.ATime, a.ATimeNsec = sec, uint32(nsec)
		sec, nsec = ctim.Unix()
		a.CTime, a.CTimeNsec = sec, uint32(nsec)
	}

	return a
}
