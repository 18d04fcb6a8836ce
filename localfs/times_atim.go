//go:build aix || linux || solaris

package localfs

import "syscall"

func statTimes(st *syscall.Stat_t) (atime, ctime syscall.Timespec) {
	return st.Atim, st.Ctim
}
