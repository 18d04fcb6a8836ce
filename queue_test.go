package sftpd

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkQueueProcessesAndDrains(t *testing.T) {
	var processed atomic.Int32
	var inits, cleanups atomic.Int32

	q := newWorkQueue(queueDetails{
		init: func() *worker {
			inits.Add(1)
			return &worker{}
		},
		process: func(j *Job, w *worker) {
			processed.Add(1)
		},
		cleanup: func(w *worker) {
			cleanups.Add(1)
		},
	}, 4)

	for i := 0; i < 100; i++ {
		q.add(&Job{})
	}
	q.stop()

	assert.Equal(t, int32(100), processed.Load(), "every submitted job must finish before stop returns")
	assert.Equal(t, int32(4), inits.Load())
	assert.Equal(t, int32(4), cleanups.Load())
}

func TestWorkQueueBackpressure(t *testing.T) {
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)

	q := newWorkQueue(queueDetails{
		init: func() *worker { return &worker{} },
		process: func(j *Job, w *worker) {
			started.Done()
			<-release
		},
		cleanup: func(*worker) {},
	}, 1)

	q.add(&Job{})  // picked up by the single worker
	started.Wait() // worker is now blocked in process
	q.add(&Job{})  // fills the queue

	blocked := make(chan struct{})
	go func() {
		q.add(&Job{}) // must block until the worker drains one
		close(blocked)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-blocked:
		t.Fatal("add on a full queue did not block")
	default:
	}

	close(release)
	<-blocked
	q.stop()
}
