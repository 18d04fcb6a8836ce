package localfs

import (
	"os/user"
	"strconv"
	"sync"
)

// Name lookups hit NSS, which can be slow; ids repeat constantly in
// directory listings, so cache them per process.
var (
	idMu       sync.Mutex
	userNames  = map[uint32]string{}
	groupNames = map[uint32]string{}
)

func lookupUserName(uid uint32) string {
	idMu.Lock()
	defer idMu.Unlock()

	if name, ok := userNames[uid]; ok {
		return name
	}

	name := strconv.FormatUint(uint64(uid), 10)
	if u, err := user.LookupId(name); err == nil {
		name = u.Username
	}
	userNames[uid] = name
	return name
}

func lookupGroupName(gid uint32) string {
	idMu.Lock()
	defer idMu.Unlock()

	if name, ok := groupNames[gid]; ok {
		return name
	}

	name := strconv.FormatUint(uint64(gid), 10)
	if g, err := user.LookupGroupId(name); err == nil {
		name = g.Name
	}
	groupNames[gid] = name
	return name
}
