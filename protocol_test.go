package sftpd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

func TestCommandTablesAreSorted(t *testing.T) {
	for name, p := range map[string]*protocol{
		"preinit": protoPreinit,
		"v3":      protoV3,
		"v4":      protoV4,
		"v5":      protoV5,
		"v6":      protoV6,
	} {
		for i := 1; i < len(p.commands); i++ {
			assert.Less(t, p.commands[i-1].typ, p.commands[i].typ,
				"%s command table must ascend by type byte", name)
		}
	}
}

func TestLookup(t *testing.T) {
	for _, c := range protoV3.commands {
		fn := protoV3.lookup(c.typ)
		assert.NotNil(t, fn, "lookup(%s)", c.typ)
	}

	assert.Nil(t, protoV3.lookup(sshfx.PacketType(0xFE)))
	assert.NotNil(t, protoV3.lookup(sshfx.PacketTypeInit),
		"every table routes INIT to the re-initialization guard")
	assert.Nil(t, protoPreinit.lookup(sshfx.PacketTypeOpen), "preinit table only knows INIT")
	assert.NotNil(t, protoPreinit.lookup(sshfx.PacketTypeInit))
}

func TestVersionTableShape(t *testing.T) {
	assert.Equal(t, uint32(3), protoV3.version)
	assert.Equal(t, uint32(4), protoV4.version)
	assert.Equal(t, uint32(5), protoV5.version)
	assert.Equal(t, uint32(6), protoV6.version)

	assert.Equal(t, uint32(sshfx.StatusOPUnsupported), protoV3.maxStatus)
	assert.Equal(t, uint32(sshfx.StatusNoMedia), protoV4.maxStatus)
	assert.Equal(t, uint32(sshfx.StatusLinkLoop), protoV5.maxStatus)
	assert.Equal(t, uint32(sshfx.StatusNoMatchingByteRangeLock), protoV6.maxStatus)

	// v6 replaced SYMLINK with LINK.
	assert.Nil(t, protoV6.lookup(sshfx.PacketTypeSymlink))
	assert.NotNil(t, protoV6.lookup(sshfx.PacketTypeLink))
	assert.Nil(t, protoV5.lookup(sshfx.PacketTypeLink))

	// v6 advertises the NOFOLLOW and DELETE_ON_CLOSE open flags; v5 not.
	assert.Zero(t, protoV5.openFlags&sshfx.FlagNoFollow)
	assert.NotZero(t, protoV6.openFlags&sshfx.FlagNoFollow)
	assert.NotZero(t, protoV6.openFlags&sshfx.FlagDeleteOnClose)
}
