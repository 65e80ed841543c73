package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/vulpemventures/softwallet/internal/core/domain"
)

type seedRecordInmemoryStore struct {
	records map[string]domain.SeedRecord
	lock    *sync.RWMutex
}

type seedRecordRepository struct {
	store            *seedRecordInmemoryStore
	chEvents         chan domain.SeedRecordEvent
	externalChEvents chan domain.SeedRecordEvent
	chLock           *sync.Mutex
	closed           bool
}

func newSeedRecordRepository() *seedRecordRepository {
	return &seedRecordRepository{
		store: &seedRecordInmemoryStore{
			records: make(map[string]domain.SeedRecord),
			lock:    &sync.RWMutex{},
		},
		chEvents:         make(chan domain.SeedRecordEvent),
		externalChEvents: make(chan domain.SeedRecordEvent),
		chLock:           &sync.Mutex{},
	}
}

func (r *seedRecordRepository) HasRecord(
	_ context.Context, groupID string,
) (bool, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	_, ok := r.store.records[groupID]
	return ok, nil
}

func (r *seedRecordRepository) GetRecord(
	_ context.Context, groupID string,
) (*domain.SeedRecord, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	record, ok := r.store.records[groupID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyRecord(record), nil
}

func (r *seedRecordRepository) PutRecord(
	_ context.Context, record *domain.SeedRecord,
) error {
	if record == nil || record.GroupID == "" {
		return domain.ErrMissingGroupID
	}

	r.store.lock.Lock()
	_, exists := r.store.records[record.GroupID]
	r.store.records[record.GroupID] = *copyRecord(*record)
	r.store.lock.Unlock()

	eventType := domain.SeedRecordCreated
	if exists {
		eventType = domain.SeedRecordUpdated
	}
	go r.publishEvent(domain.SeedRecordEvent{
		EventType: eventType,
		GroupID:   record.GroupID,
	})

	return nil
}

func (r *seedRecordRepository) DeleteRecord(
	_ context.Context, groupID string,
) error {
	r.store.lock.Lock()
	_, exists := r.store.records[groupID]
	delete(r.store.records, groupID)
	r.store.lock.Unlock()

	if exists {
		go r.publishEvent(domain.SeedRecordEvent{
			EventType: domain.SeedRecordDeleted,
			GroupID:   groupID,
		})
	}
	return nil
}

func (r *seedRecordRepository) ListRecords(
	_ context.Context,
) ([]domain.SeedRecord, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	records := make([]domain.SeedRecord, 0, len(r.store.records))
	for _, record := range r.store.records {
		records = append(records, *copyRecord(record))
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt == records[j].CreatedAt {
			return records[i].GroupID < records[j].GroupID
		}
		return records[i].CreatedAt < records[j].CreatedAt
	})
	return records, nil
}

func (r *seedRecordRepository) GetEventChannel() chan domain.SeedRecordEvent {
	return r.externalChEvents
}

func (r *seedRecordRepository) publishEvent(event domain.SeedRecordEvent) {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	if r.closed {
		return
	}

	r.chEvents <- event
	// send over channel without blocking in case nobody is listening.
	select {
	case r.externalChEvents <- event:
	default:
	}
}

func (r *seedRecordRepository) close() {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	close(r.chEvents)
	close(r.externalChEvents)
}

// copyRecord makes sure callers never share the byte slices of the store.
func copyRecord(record domain.SeedRecord) *domain.SeedRecord {
	return &domain.SeedRecord{
		GroupID:    record.GroupID,
		Label:      record.Label,
		Ciphertext: append([]byte(nil), record.Ciphertext...),
		PinHash:    append([]byte(nil), record.PinHash...),
		PinSalt:    append([]byte(nil), record.PinSalt...),
		CreatedAt:  record.CreatedAt,
	}
}
