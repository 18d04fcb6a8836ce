package sftpd

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	sshfx "github.com/xqyjlj/sftpd/encoding/ssh/filexfer"
)

func frameWithHandle(typ sshfx.PacketType, id uint32, handle string) []byte {
	b := new(sshfx.Buffer)
	b.AppendUint8(uint8(typ))
	b.AppendUint32(id)
	b.AppendString(handle)
	b.AppendUint64(0) // offset, where applicable
	return b.Bytes()
}

func framePath(typ sshfx.PacketType, id uint32, paths ...string) []byte {
	b := new(sshfx.Buffer)
	b.AppendUint8(uint8(typ))
	b.AppendUint32(id)
	for _, p := range paths {
		b.AppendString(p)
	}
	return b.Bytes()
}

func TestDeriveKeys(t *testing.T) {
	keys := deriveKeys(frameWithHandle(sshfx.PacketTypeWrite, 1, "h1"))
	assert.Equal(t, [][]byte{[]byte("h1")}, keys)

	keys = deriveKeys(framePath(sshfx.PacketTypeRename, 2, "a/../b", "c"))
	assert.Equal(t, [][]byte{[]byte("b"), []byte("c")}, keys, "paths must be cleaned")

	keys = deriveKeys(frameWithHandle(sshfx.PacketTypeFstat, 5, "h2"))
	assert.Equal(t, [][]byte{[]byte("h2")}, keys, "fstat orders behind writes on its handle")

	assert.Nil(t, deriveKeys([]byte{uint8(sshfx.PacketTypeInit), 0, 0, 0, 3}))
	assert.Nil(t, deriveKeys(framePath(sshfx.PacketTypeLstat, 3, "x")), "path stats carry no keys")

	keys = deriveKeys(framePath(sshfx.PacketTypeExtended, 4, extPosixRename, "old", "new"))
	assert.Equal(t, [][]byte{[]byte("old"), []byte("new")}, keys)
}

func TestSerializerOrdersConflictingJobs(t *testing.T) {
	sz := newSerializer()

	j1 := &Job{data: frameWithHandle(sshfx.PacketTypeWrite, 1, "h")}
	j2 := &Job{data: frameWithHandle(sshfx.PacketTypeWrite, 2, "h")}
	sz.register(j1)
	sz.register(j2)

	var mu sync.Mutex
	var order []uint32

	var wg sync.WaitGroup
	wg.Add(2)

	// j2 starts waiting first, but must not run until j1 is removed.
	go func() {
		defer wg.Done()
		sz.wait(j2)
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		sz.remove(j2)
	}()

	time.Sleep(20 * time.Millisecond)

	go func() {
		defer wg.Done()
		sz.wait(j1)
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		sz.remove(j1)
	}()

	wg.Wait()
	assert.Equal(t, []uint32{1, 2}, order)
}

func TestSerializerUnrelatedJobsDoNotBlock(t *testing.T) {
	sz := newSerializer()

	j1 := &Job{data: frameWithHandle(sshfx.PacketTypeWrite, 1, "h1")}
	j2 := &Job{data: frameWithHandle(sshfx.PacketTypeWrite, 2, "h2")}
	sz.register(j1)
	sz.register(j2)

	done := make(chan struct{})
	go func() {
		sz.wait(j2) // j1 still in flight, but keys are disjoint
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job with disjoint keys blocked behind an unrelated predecessor")
	}
}
