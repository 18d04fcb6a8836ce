package sftpd

import (
	"sync"
)

// allocator is the per-job arena behind the engine: it hands out fixed-size
// pages keyed by the request order id of the job that needs them. A job's
// pages back its inbound frame and any handler scratch space (file read
// buffers in particular), and ReleasePages at job end frees them all in one
// go for the next frame to reuse.
type allocator struct {
	pageSize int

	mu        sync.Mutex
	available [][]byte
	used      map[uint32][][]byte // keyed by request order id
}

func newAllocator() *allocator {
	return newAllocatorWithPageSize(maxMsgLength)
}

func newAllocatorWithPageSize(pageSize int) *allocator {
	return &allocator{
		pageSize: pageSize,
		used:     make(map[uint32][][]byte),
	}
}

// GetPage returns a recycled page or allocates a fresh one, and records it
// against the given request order id. Pages are pageSize long, enough for a
// full inbound packet or an outbound read.
func (a *allocator) GetPage(requestOrderID uint32) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	var page []byte

	if n := len(a.available); n > 0 {
		page = a.available[n-1]
		a.available[n-1] = nil // clear out the internal pointer
		a.available = a.available[:n-1]
	}

	if page == nil {
		page = make([]byte, a.pageSize)
	}

	a.used[requestOrderID] = append(a.used[requestOrderID], page)

	return page
}

// ReleasePages recycles every page held by the given request order id.
func (a *allocator) ReleasePages(requestOrderID uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if pages := a.used[requestOrderID]; len(pages) > 0 {
		a.available = append(a.available, pages...)
	}
	delete(a.used, requestOrderID)
}

// Free drops every used and available page. Called at session teardown.
func (a *allocator) Free() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.available = nil
	a.used = make(map[uint32][][]byte)
}

func (a *allocator) countUsedPages() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	num := 0
	for _, pages := range a.used {
		num += len(pages)
	}
	return num
}

func (a *allocator) countAvailablePages() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.available)
}

func (a *allocator) isRequestOrderIDUsed(requestOrderID uint32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.used[requestOrderID]
	return ok
}
