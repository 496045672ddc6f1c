package handler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncScheduler_LastWriteInWindowWins(t *testing.T) {
	sched := NewSyncScheduler(30 * time.Millisecond)
	defer sched.Close()

	var mu sync.Mutex
	var applied []int

	// GIVEN: three rapid mutations for the same agent
	for _, v := range []int{1, 2, 3} {
		v := v
		sched.Schedule(7, func() {
			mu.Lock()
			applied = append(applied, v)
			mu.Unlock()
		})
	}

	// WHEN: the window elapses
	time.Sleep(120 * time.Millisecond)

	// THEN: only the most recent mutation ran
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3}, applied)
}

func TestSyncScheduler_IndependentAgentsDoNotCoalesce(t *testing.T) {
	sched := NewSyncScheduler(20 * time.Millisecond)
	defer sched.Close()

	var count int32
	sched.Schedule(1, func() { atomic.AddInt32(&count, 1) })
	sched.Schedule(2, func() { atomic.AddInt32(&count, 1) })
	sched.Schedule(3, func() { atomic.AddInt32(&count, 1) })

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&count))
}

func TestSyncScheduler_CancelDropsPendingFlush(t *testing.T) {
	sched := NewSyncScheduler(30 * time.Millisecond)
	defer sched.Close()

	var count int32
	sched.Schedule(7, func() { atomic.AddInt32(&count, 1) })
	sched.Cancel(7)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&count))
	assert.Equal(t, 0, sched.Pending())
}

func TestSyncScheduler_CloseRejectsNewWork(t *testing.T) {
	sched := NewSyncScheduler(10 * time.Millisecond)

	var count int32
	sched.Schedule(1, func() { atomic.AddInt32(&count, 1) })
	sched.Close()
	sched.Schedule(2, func() { atomic.AddInt32(&count, 1) })

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&count))
}

func TestSyncScheduler_RescheduleAfterFlush(t *testing.T) {
	sched := NewSyncScheduler(10 * time.Millisecond)
	defer sched.Close()

	var count int32
	sched.Schedule(7, func() { atomic.AddInt32(&count, 1) })
	time.Sleep(60 * time.Millisecond)
	sched.Schedule(7, func() { atomic.AddInt32(&count, 1) })
	time.Sleep(60 * time.Millisecond)

	// Two separate windows, two flushes.
	assert.Equal(t, int32(2), atomic.LoadInt32(&count))
}
