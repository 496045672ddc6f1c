package handler

import (
	"sync"
	"time"
)

// SyncScheduler coalesces rapid-fire aggregate syncs per agent: scheduling a
// flush for an agent cancels that agent's pending flush, so only the last
// mutation inside the trailing window is applied. A per-agent run lock keeps
// at most one flush in flight per agent.
type SyncScheduler struct {
	mu       sync.Mutex
	window   time.Duration
	timers   map[int64]*time.Timer
	runLocks map[int64]*sync.Mutex
	closed   bool
}

func NewSyncScheduler(window time.Duration) *SyncScheduler {
	return &SyncScheduler{
		window:   window,
		timers:   make(map[int64]*time.Timer),
		runLocks: make(map[int64]*sync.Mutex),
	}
}

// Schedule queues fn to run after the debounce window, superseding any flush
// still pending for the same agent.
func (s *SyncScheduler) Schedule(agentID int64, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if existing, ok := s.timers[agentID]; ok {
		existing.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(s.window, func() {
		s.mu.Lock()
		if s.timers[agentID] == timer {
			delete(s.timers, agentID)
		}
		runLock := s.runLockFor(agentID)
		s.mu.Unlock()

		runLock.Lock()
		defer runLock.Unlock()
		fn()
	})
	s.timers[agentID] = timer
}

// Cancel drops the pending flush for one agent, if any.
func (s *SyncScheduler) Cancel(agentID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[agentID]; ok {
		timer.Stop()
		delete(s.timers, agentID)
	}
}

// Close cancels every pending flush and rejects further scheduling.
func (s *SyncScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	s.closed = true
}

// Pending reports how many agents have a flush waiting.
func (s *SyncScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// caller must hold s.mu
func (s *SyncScheduler) runLockFor(agentID int64) *sync.Mutex {
	lock, ok := s.runLocks[agentID]
	if !ok {
		lock = &sync.Mutex{}
		s.runLocks[agentID] = lock
	}
	return lock
}
