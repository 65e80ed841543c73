package ports

import (
	"github.com/vulpemventures/softwallet/internal/core/domain"
)

type SeedRecordEventHandler func(event domain.SeedRecordEvent)

// RepoManager is the abstraction for any kind of service intended to manage
// domain repositories implementations of the same concrete type.
type RepoManager interface {
	// SeedRecordRepository returns the encrypted seed store.
	SeedRecordRepository() domain.SeedRecordRepository

	// RegisterHandlerForSeedRecordEvent registers an handler function,
	// executed whenever the given event type occurs.
	RegisterHandlerForSeedRecordEvent(
		eventType domain.SeedRecordEventType, handler SeedRecordEventHandler,
	)

	// Close closes the connection with all concrete repositories
	// implementations.
	Close()
}
