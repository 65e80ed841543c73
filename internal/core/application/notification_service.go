package application

import (
	"context"
	"sort"
	"sync"

	"github.com/vulpemventures/softwallet/internal/core/domain"
	"github.com/vulpemventures/softwallet/internal/core/ports"
)

// Notification service lets external clients observe the state transitions
// of the wallet (setup, unlock, lock, expiry, errors and signing requests)
// via handlers, and makes the event channel of the seed record repository
// accessible for real-time updates about the persisted wallet groups.
//
// Handlers are called synchronously in the order they were subscribed, never
// while any lock of the wallet services is held, so they can safely call back
// into the services.
type NotificationService struct {
	repoManager ports.RepoManager

	handlers map[int]WalletEventHandler
	nextID   int
	lock     *sync.RWMutex
}

func NewNotificationService(
	repoManager ports.RepoManager,
) *NotificationService {
	return &NotificationService{
		repoManager: repoManager,
		handlers:    make(map[int]WalletEventHandler),
		lock:        &sync.RWMutex{},
	}
}

// Subscribe registers the handler for every wallet event. The returned
// function removes it and can be called more than once.
func (ns *NotificationService) Subscribe(
	handler WalletEventHandler,
) (unsubscribe func()) {
	ns.lock.Lock()
	defer ns.lock.Unlock()

	id := ns.nextID
	ns.nextID++
	ns.handlers[id] = handler

	return func() {
		ns.lock.Lock()
		defer ns.lock.Unlock()
		delete(ns.handlers, id)
	}
}

func (ns *NotificationService) GetSeedRecordChannel(
	ctx context.Context,
) (chan domain.SeedRecordEvent, error) {
	return ns.repoManager.SeedRecordRepository().GetEventChannel(), nil
}

func (ns *NotificationService) publish(event domain.WalletEvent) {
	ns.lock.RLock()
	ids := make([]int, 0, len(ns.handlers))
	for id := range ns.handlers {
		ids = append(ids, id)
	}
	handlers := make([]WalletEventHandler, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		handlers = append(handlers, ns.handlers[id])
	}
	ns.lock.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
