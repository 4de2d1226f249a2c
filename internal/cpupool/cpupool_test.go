package cpupool

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_SubmitRunsAndBlocks(t *testing.T) {
	p := New(2)
	defer p.Close()

	var n int32
	p.Submit(func() { atomic.AddInt32(&n, 1) })
	assert.EqualValues(t, 1, atomic.LoadInt32(&n))
}

func TestPool_ConcurrentSubmitsAllComplete(t *testing.T) {
	p := New(4)
	defer p.Close()

	var n int32
	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func() {
			p.Submit(func() { atomic.AddInt32(&n, 1) })
			done <- struct{}{}
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}
	assert.EqualValues(t, 20, atomic.LoadInt32(&n))
}

func TestThreadsFromEnv(t *testing.T) {
	t.Setenv("GALILEO_RAYON_THREADS", "3")
	assert.Equal(t, 3, threadsFromEnv())

	t.Setenv("GALILEO_RAYON_THREADS", "")
	assert.Greater(t, threadsFromEnv(), 0)

	t.Setenv("GALILEO_RAYON_THREADS", "not-a-number")
	assert.Greater(t, threadsFromEnv(), 0)

	t.Setenv("GALILEO_RAYON_THREADS", "-1")
	assert.Greater(t, threadsFromEnv(), 0)
}
