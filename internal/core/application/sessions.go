package application

import (
	"bytes"
	"sort"
	"sync"
	"time"

	"github.com/vulpemventures/softwallet/internal/core/ports"
)

// session holds the decrypted seed phrase of an unlocked wallet group and
// its optional inactivity timer.
type session struct {
	seed []byte
	task ports.Task
}

func (s *session) stop() {
	if s.task != nil {
		s.task.Cancel()
		s.task = nil
	}
}

func (s *session) wipe() {
	s.stop()
	clear(s.seed)
	s.seed = nil
}

// sessionStore is the in-memory map of unlocked wallet groups, the primary
// one included. It is the only owner of decrypted seeds: they are copied in
// on install and copied out on read, and zeroed on eviction.
type sessionStore struct {
	scheduler ports.Scheduler
	sessions  map[string]*session
	lock      *sync.RWMutex
}

func newSessionStore(scheduler ports.Scheduler) *sessionStore {
	return &sessionStore{
		scheduler: scheduler,
		sessions:  make(map[string]*session),
		lock:      &sync.RWMutex{},
	}
}

// install replaces any existing session of the group with a new one. If
// timeout is positive, the session is evicted after it and onExpire is
// called. The timer of a replaced session is cancelled before the new one
// is started and can never evict its successor.
func (s *sessionStore) install(
	groupID string, seed []byte, timeout time.Duration, onExpire func(),
) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if prev, ok := s.sessions[groupID]; ok {
		prev.wipe()
	}

	sess := &session{seed: bytes.Clone(seed)}
	s.schedule(groupID, sess, timeout, onExpire)
	s.sessions[groupID] = sess
}

// resetTimer restarts the inactivity timer of an existing session. Returns
// false if the group is not unlocked.
func (s *sessionStore) resetTimer(
	groupID string, timeout time.Duration, onExpire func(),
) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	sess, ok := s.sessions[groupID]
	if !ok {
		return false
	}
	sess.stop()
	s.schedule(groupID, sess, timeout, onExpire)
	return true
}

// evict removes the session of the group. Returns false if there was none.
func (s *sessionStore) evict(groupID string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	sess, ok := s.sessions[groupID]
	if !ok {
		return false
	}
	sess.wipe()
	delete(s.sessions, groupID)
	return true
}

// evictUnless removes the session of the group unless keep returns true.
// keep is called with the lock held, so no session can be installed for the
// group while it runs.
func (s *sessionStore) evictUnless(groupID string, keep func() bool) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	sess, ok := s.sessions[groupID]
	if !ok || keep() {
		return false
	}
	sess.wipe()
	delete(s.sessions, groupID)
	return true
}

// evictAll removes every session and returns the ids of the evicted groups.
func (s *sessionStore) evictAll() []string {
	s.lock.Lock()
	defer s.lock.Unlock()

	ids := make([]string, 0, len(s.sessions))
	for id, sess := range s.sessions {
		sess.wipe()
		ids = append(ids, id)
	}
	s.sessions = make(map[string]*session)
	sort.Strings(ids)
	return ids
}

func (s *sessionStore) has(groupID string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	_, ok := s.sessions[groupID]
	return ok
}

// seed returns a copy of the seed phrase of an unlocked group. The caller
// owns the copy and should clear it once done.
func (s *sessionStore) seed(groupID string) ([]byte, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	sess, ok := s.sessions[groupID]
	if !ok {
		return nil, false
	}
	return bytes.Clone(sess.seed), true
}

func (s *sessionStore) ids() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *sessionStore) count() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.sessions)
}

// schedule must be called with the lock held.
func (s *sessionStore) schedule(
	groupID string, sess *session, timeout time.Duration, onExpire func(),
) {
	if timeout <= 0 || s.scheduler == nil {
		return
	}
	sess.task = s.scheduler.Schedule(timeout, func() {
		if s.evictIf(groupID, sess) && onExpire != nil {
			onExpire()
		}
	})
}

// evictIf removes the session of the group only if it's still sess.
func (s *sessionStore) evictIf(groupID string, sess *session) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	current, ok := s.sessions[groupID]
	if !ok || current != sess {
		return false
	}
	current.task = nil
	current.wipe()
	delete(s.sessions, groupID)
	return true
}
