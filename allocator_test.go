package sftpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocator(t *testing.T) {
	allocator := newAllocatorWithPageSize(64)
	// get a page for request order id 1
	page := allocator.GetPage(1)
	page[1] = uint8(1)
	assert.Equal(t, 64, len(page))
	assert.Equal(t, 1, allocator.countUsedPages())
	// get another page for request order id 1, we now have 2 used pages
	page = allocator.GetPage(1)
	page[0] = uint8(2)
	assert.Equal(t, 2, allocator.countUsedPages())
	// release the pages for request order id 1
	allocator.ReleasePages(1)
	assert.False(t, allocator.isRequestOrderIDUsed(1))
	assert.Equal(t, 2, allocator.countAvailablePages())
	// the last released page is the first one handed back out
	page = allocator.GetPage(2)
	assert.Equal(t, uint8(2), page[0])
	assert.Equal(t, 1, allocator.countAvailablePages())
	assert.Equal(t, 1, allocator.countUsedPages())
	assert.True(t, allocator.isRequestOrderIDUsed(2))
	// releasing an unknown order id has no effect
	allocator.ReleasePages(3)
	assert.Equal(t, 1, allocator.countAvailablePages())
	assert.Equal(t, 1, allocator.countUsedPages())
	// Free drops everything
	allocator.Free()
	assert.Equal(t, 0, allocator.countUsedPages())
	assert.Equal(t, 0, allocator.countAvailablePages())
}

func TestAllocatorDefaultPageSize(t *testing.T) {
	allocator := newAllocator()
	assert.Equal(t, maxMsgLength, len(allocator.GetPage(1)))
}
