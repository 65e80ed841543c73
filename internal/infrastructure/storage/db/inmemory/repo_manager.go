package inmemory

import (
	"sync"
	"time"

	"github.com/vulpemventures/softwallet/internal/core/domain"
	"github.com/vulpemventures/softwallet/internal/core/ports"
)

type repoManager struct {
	seedRecordRepository *seedRecordRepository

	seedRecordEventHandlers *handlerMap
}

func NewRepoManager() ports.RepoManager {
	seedRecordRepo := newSeedRecordRepository()

	rm := &repoManager{
		seedRecordRepository:    seedRecordRepo,
		seedRecordEventHandlers: newHandlerMap(),
	}

	go rm.listenToSeedRecordEvents()

	return rm
}

func (rm *repoManager) SeedRecordRepository() domain.SeedRecordRepository {
	return rm.seedRecordRepository
}

func (rm *repoManager) RegisterHandlerForSeedRecordEvent(
	eventType domain.SeedRecordEventType, handler ports.SeedRecordEventHandler,
) {
	rm.seedRecordEventHandlers.set(int(eventType), handler)
}

func (rm *repoManager) listenToSeedRecordEvents() {
	for event := range rm.seedRecordRepository.chEvents {
		time.Sleep(time.Millisecond)

		if handlers, ok := rm.seedRecordEventHandlers.get(int(event.EventType)); ok {
			for i := range handlers {
				handler := handlers[i]
				go handler.(ports.SeedRecordEventHandler)(event)
			}
		}
	}
}

func (rm *repoManager) Close() {
	rm.seedRecordRepository.close()
}

// handlerMap is a util type to prevent race conditions when registering
// or retrieving handlers for events.
type handlerMap struct {
	handlersByEventType map[int][]interface{}
	lock                *sync.RWMutex
}

func newHandlerMap() *handlerMap {
	return &handlerMap{
		handlersByEventType: make(map[int][]interface{}),
		lock:                &sync.RWMutex{},
	}
}

func (m *handlerMap) set(key int, val interface{}) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.handlersByEventType[key] = append(m.handlersByEventType[key], val)
}

func (m *handlerMap) get(key int) ([]interface{}, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	val, ok := m.handlersByEventType[key]
	return val, ok
}
