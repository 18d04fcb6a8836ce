package sftpd

import (
	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

// HandlerFunc processes one parsed request. It either responds by itself,
// returning HandlerResponded, or returns the status code the dispatcher
// should send.
type HandlerFunc func(s *Server, j *Job) uint32

// Sentinel handler results, outside the range of valid status codes.
const (
	// StatusFromErrno tells the dispatcher to map the job's saved host
	// error through the status table. It is the all-ones "consult errno"
	// value, and passes through the same version clamp as any other status.
	StatusFromErrno = ^uint32(0)

	// HandlerResponded signals that the handler already wrote its own
	// response and no STATUS should be emitted.
	HandlerResponded = ^uint32(0) - 1
)

type command struct {
	typ sshfx.PacketType
	fn  HandlerFunc
}

// protocol describes one negotiated version: its dispatch table, the
// version number to advertise, the highest status code the version defines
// (anything above it is clamped to SSH_FX_FAILURE), the extension names to
// advertise, and the capability masks sent in the VERSION response.
//
// The command tables are kept in ascending order of type byte so lookup can
// binary-search them.
type protocol struct {
	commands   []command
	version    uint32
	maxStatus  uint32
	extensions []string
	attrMask   uint32
	openFlags  uint32
	accessMask uint32
}

// lookup finds the handler for a type byte, or nil.
func (p *protocol) lookup(t sshfx.PacketType) HandlerFunc {
	lo, hi := 0, len(p.commands)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch m := p.commands[mid]; {
		case t < m.typ:
			hi = mid - 1
		case t > m.typ:
			lo = mid + 1
		default:
			return m.fn
		}
	}
	return nil
}

// Attribute bits common to the supported and supported2 capability blocks.
const supportedAttrMask = sshfx.AttrSize |
	sshfx.AttrPermissions |
	sshfx.AttrAccessTime |
	sshfx.AttrModifyTime |
	sshfx.AttrOwnerGroup |
	sshfx.AttrSubsecondTimes

const v5OpenFlagMask = sshfx.FlagAccessDisposition |
	sshfx.FlagAppendData |
	sshfx.FlagAppendDataAtomic |
	sshfx.FlagTextMode

const v6OpenFlagMask = v5OpenFlagMask |
	sshfx.FlagNoFollow |
	sshfx.FlagDeleteOnClose

var serverExtensions = []string{extPosixRename, extSpaceAvailable}

// protoPreinit is the sentinel descriptor in force before initialization;
// it knows only SSH_FXP_INIT.
var protoPreinit = &protocol{
	commands: []command{
		{sshfx.PacketTypeInit, sftpInit},
	},
	version:   3,
	maxStatus: uint32(sshfx.StatusOPUnsupported),
}

// Every post-init table keeps the INIT entry so a repeated INIT reaches
// sftpInit, whose re-initialization guard answers it with FAILURE instead of
// the generic OP_UNSUPPORTED an unknown type would get.
var v34Commands = []command{
	{sshfx.PacketTypeInit, sftpInit},
	{sshfx.PacketTypeOpen, sftpOpen},
	{sshfx.PacketTypeClose, sftpClose},
	{sshfx.PacketTypeRead, sftpRead},
	{sshfx.PacketTypeWrite, sftpWrite},
	{sshfx.PacketTypeLstat, sftpLstat},
	{sshfx.PacketTypeFstat, sftpFstat},
	{sshfx.PacketTypeSetstat, sftpSetstat},
	{sshfx.PacketTypeFsetstat, sftpFsetstat},
	{sshfx.PacketTypeOpendir, sftpOpendir},
	{sshfx.PacketTypeReaddir, sftpReaddir},
	{sshfx.PacketTypeRemove, sftpRemove},
	{sshfx.PacketTypeMkdir, sftpMkdir},
	{sshfx.PacketTypeRmdir, sftpRmdir},
	{sshfx.PacketTypeRealpath, sftpRealpath},
	{sshfx.PacketTypeStat, sftpStat},
	{sshfx.PacketTypeRename, sftpRename},
	{sshfx.PacketTypeReadlink, sftpReadlink},
	{sshfx.PacketTypeSymlink, sftpSymlink},
	{sshfx.PacketTypeExtended, sftpExtended},
}

var v5Commands = []command{
	{sshfx.PacketTypeInit, sftpInit},
	{sshfx.PacketTypeOpen, sftpOpenV5},
	{sshfx.PacketTypeClose, sftpClose},
	{sshfx.PacketTypeRead, sftpRead},
	{sshfx.PacketTypeWrite, sftpWrite},
	{sshfx.PacketTypeLstat, sftpLstat},
	{sshfx.PacketTypeFstat, sftpFstat},
	{sshfx.PacketTypeSetstat, sftpSetstat},
	{sshfx.PacketTypeFsetstat, sftpFsetstat},
	{sshfx.PacketTypeOpendir, sftpOpendir},
	{sshfx.PacketTypeReaddir, sftpReaddir},
	{sshfx.PacketTypeRemove, sftpRemove},
	{sshfx.PacketTypeMkdir, sftpMkdir},
	{sshfx.PacketTypeRmdir, sftpRmdir},
	{sshfx.PacketTypeRealpath, sftpRealpath},
	{sshfx.PacketTypeStat, sftpStat},
	{sshfx.PacketTypeRename, sftpRenameV5},
	{sshfx.PacketTypeReadlink, sftpReadlink},
	{sshfx.PacketTypeSymlink, sftpSymlink},
	{sshfx.PacketTypeExtended, sftpExtended},
}

var v6Commands = []command{
	{sshfx.PacketTypeInit, sftpInit},
	{sshfx.PacketTypeOpen, sftpOpenV5},
	{sshfx.PacketTypeClose, sftpClose},
	{sshfx.PacketTypeRead, sftpRead},
	{sshfx.PacketTypeWrite, sftpWrite},
	{sshfx.PacketTypeLstat, sftpLstat},
	{sshfx.PacketTypeFstat, sftpFstat},
	{sshfx.PacketTypeSetstat, sftpSetstat},
	{sshfx.PacketTypeFsetstat, sftpFsetstat},
	{sshfx.PacketTypeOpendir, sftpOpendir},
	{sshfx.PacketTypeReaddir, sftpReaddir},
	{sshfx.PacketTypeRemove, sftpRemove},
	{sshfx.PacketTypeMkdir, sftpMkdir},
	{sshfx.PacketTypeRmdir, sftpRmdir},
	{sshfx.PacketTypeRealpath, sftpRealpath},
	{sshfx.PacketTypeStat, sftpStat},
	{sshfx.PacketTypeRename, sftpRenameV5},
	{sshfx.PacketTypeReadlink, sftpReadlink},
	{sshfx.PacketTypeLink, sftpLink},
	{sshfx.PacketTypeExtended, sftpExtended},
}

var protoV3 = &protocol{
	commands:   v34Commands,
	version:    3,
	maxStatus:  uint32(sshfx.StatusOPUnsupported),
	extensions: serverExtensions,
	attrMask:   supportedAttrMask,
	accessMask: 0xFFFFFFFF,
}

var protoV4 = &protocol{
	commands:   v34Commands,
	version:    4,
	maxStatus:  uint32(sshfx.StatusNoMedia),
	extensions: serverExtensions,
	attrMask:   supportedAttrMask,
	accessMask: 0xFFFFFFFF,
}

var protoV5 = &protocol{
	commands:   v5Commands,
	version:    5,
	maxStatus:  uint32(sshfx.StatusLinkLoop),
	extensions: serverExtensions,
	attrMask:   supportedAttrMask,
	openFlags:  v5OpenFlagMask,
	accessMask: 0xFFFFFFFF,
}

var protoV6 = &protocol{
	commands:   v6Commands,
	version:    6,
	maxStatus:  uint32(sshfx.StatusNoMatchingByteRangeLock),
	extensions: serverExtensions,
	attrMask:   supportedAttrMask,
	openFlags:  v6OpenFlagMask,
	accessMask: 0xFFFFFFFF,
}
