package application_test

import (
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vulpemventures/softwallet/internal/core/application"
	"github.com/vulpemventures/softwallet/internal/core/domain"
	"github.com/vulpemventures/softwallet/internal/core/ports"
)

// ports.Scheduler
type manualScheduler struct {
	tasks []*manualTask
	lock  sync.Mutex
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{}
}

func (s *manualScheduler) Schedule(d time.Duration, fn func()) ports.Task {
	s.lock.Lock()
	defer s.lock.Unlock()

	task := &manualTask{delay: d, fn: fn}
	s.tasks = append(s.tasks, task)
	return task
}

// fire runs every pending task as if its delay elapsed and returns how many
// tasks ran.
func (s *manualScheduler) fire() int {
	s.lock.Lock()
	tasks := make([]*manualTask, len(s.tasks))
	copy(tasks, s.tasks)
	s.lock.Unlock()

	count := 0
	for _, task := range tasks {
		if task.trigger() {
			count++
		}
	}
	return count
}

func (s *manualScheduler) pending() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	count := 0
	for _, task := range s.tasks {
		if task.isPending() {
			count++
		}
	}
	return count
}

func (s *manualScheduler) task(i int) *manualTask {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.tasks[i]
}

type manualTask struct {
	delay     time.Duration
	fn        func()
	cancelled bool
	done      bool
	lock      sync.Mutex
}

func (t *manualTask) Cancel() bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.cancelled || t.done {
		return false
	}
	t.cancelled = true
	return true
}

func (t *manualTask) trigger() bool {
	t.lock.Lock()
	if t.cancelled || t.done {
		t.lock.Unlock()
		return false
	}
	t.done = true
	t.lock.Unlock()

	t.fn()
	return true
}

// forceRun runs the task even if cancelled, like a timer that already fired
// while being cancelled.
func (t *manualTask) forceRun() {
	t.lock.Lock()
	t.done = true
	t.lock.Unlock()

	t.fn()
}

func (t *manualTask) isPending() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return !t.cancelled && !t.done
}

func (t *manualTask) isCancelled() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.cancelled
}

// domain.SeedCipher
type mockSeedCipher struct {
	mock.Mock
}

func (m *mockSeedCipher) Encrypt(seed, pin []byte) ([]byte, error) {
	args := m.Called(seed, pin)

	var res []byte
	if a := args.Get(0); a != nil {
		res = a.([]byte)
	}
	return res, args.Error(1)
}

func (m *mockSeedCipher) Decrypt(blob, pin []byte) ([]byte, error) {
	args := m.Called(blob, pin)

	var res []byte
	if a := args.Get(0); a != nil {
		res = a.([]byte)
	}
	return res, args.Error(1)
}

func (m *mockSeedCipher) HashPin(pin, salt []byte) ([]byte, []byte, error) {
	args := m.Called(pin, salt)

	var hash, usedSalt []byte
	if a := args.Get(0); a != nil {
		hash = a.([]byte)
	}
	if a := args.Get(1); a != nil {
		usedSalt = a.([]byte)
	}
	return hash, usedSalt, args.Error(2)
}

func (m *mockSeedCipher) VerifyPin(pin, hash, salt []byte) bool {
	args := m.Called(pin, hash, salt)
	return args.Bool(0)
}

type eventRecorder struct {
	events []domain.WalletEvent
	lock   sync.Mutex
}

func newEventRecorder(svc *application.WalletService) (*eventRecorder, func()) {
	r := &eventRecorder{}
	unsubscribe := svc.Subscribe(func(event domain.WalletEvent) {
		r.lock.Lock()
		defer r.lock.Unlock()
		r.events = append(r.events, event)
	})
	return r, unsubscribe
}

func (r *eventRecorder) types() []domain.WalletEventType {
	r.lock.Lock()
	defer r.lock.Unlock()

	types := make([]domain.WalletEventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.EventType)
	}
	return types
}

func (r *eventRecorder) last() domain.WalletEvent {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.events[len(r.events)-1]
}

func (r *eventRecorder) reset() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = nil
}
