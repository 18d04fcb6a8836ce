package localfs

import (
	"fmt"
	"os"
	"syscall"
	"time"
)

// formatLongname renders the `ls -l` style line carried in the longname
// field of version 3 NAME entries. Close enough to openssh's output for the
// clients that parse it.
//
// example:
// -rw-r--r--    1 alice    staff        4096 Jul 31 20:52 notes.txt
func formatLongname(fi os.FileInfo) string {
	perm := toPosixMode(fi.Mode())

	numLinks := uint64(1)
	owner := "0"
	group := "0"
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		numLinks = uint64(st.Nlink)
		owner = lookupUserName(st.Uid)
		group = lookupGroupName(st.Gid)
	}

	mtime := fi.ModTime()
	monthDay := mtime.Format("Jan _2")

	// Old entries show the year where recent ones show the time of day.
	var yearOrTime string
	if mtime.Before(time.Now().AddDate(0, -6, 0)) {
		yearOrTime = mtime.Format("2006")
	} else {
		yearOrTime = mtime.Format("15:04")
	}

	return fmt.Sprintf("%s %4d %-8s %-8s %8d %s %5s %s",
		modeString(perm), numLinks, owner, group, fi.Size(), monthDay, yearOrTime, fi.Name())
}

// modeString renders POSIX mode bits symbolically, "drwxr-xr-x" style.
func modeString(perm uint32) string {
	b := []byte("----------")

	switch perm & 0xF000 {
	case modeDirectory:
		b[0] = 'd'
	case modeSymlink:
		b[0] = 'l'
	case modeSocket:
		b[0] = 's'
	case modeCharDev:
		b[0] = 'c'
	case modeBlockDev:
		b[0] = 'b'
	case modeFIFO:
		b[0] = 'p'
	}

	rwx := []byte("rwxrwxrwx")
	for i := 0; i < 9; i++ {
		if perm&(1<<uint(8-i)) != 0 {
			b[1+i] = rwx[i]
		}
	}

	if perm&modeSetuid != 0 {
		if b[3] == 'x' {
			b[3] = 's'
		} else {
			b[3] = 'S'
		}
	}
	if perm&modeSetgid != 0 {
		if b[6] == 'x' {
			b[6] = 's'
		} else {
			b[6] = 'S'
		}
	}
	if perm&modeSticky != 0 {
		if b[9] == 'x' {
			b[9] = 't'
		} else {
			b[9] = 'T'
		}
	}

	return string(b)
}
