package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vulpemventures/softwallet/internal/core/domain"
)

type seedRecordRepository struct {
	store            *badgerhold.Store
	chEvents         chan domain.SeedRecordEvent
	externalChEvents chan domain.SeedRecordEvent
	lock             *sync.Mutex
	closed           bool

	log func(format string, a ...interface{})
}

func newSeedRecordRepository(store *badgerhold.Store) *seedRecordRepository {
	chEvents := make(chan domain.SeedRecordEvent, 10)
	externalChEvents := make(chan domain.SeedRecordEvent, 10)
	lock := &sync.Mutex{}
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("seed record repository: %s", format)
		log.Debugf(format, a...)
	}
	return &seedRecordRepository{
		store, chEvents, externalChEvents, lock, false, logFn,
	}
}

func (r *seedRecordRepository) HasRecord(
	ctx context.Context, groupID string,
) (bool, error) {
	if _, err := r.getRecord(ctx, groupID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *seedRecordRepository) GetRecord(
	ctx context.Context, groupID string,
) (*domain.SeedRecord, error) {
	return r.getRecord(ctx, groupID)
}

func (r *seedRecordRepository) PutRecord(
	ctx context.Context, record *domain.SeedRecord,
) error {
	if record == nil || record.GroupID == "" {
		return domain.ErrMissingGroupID
	}

	exists, err := r.HasRecord(ctx, record.GroupID)
	if err != nil {
		return err
	}
	if err := r.upsertRecord(ctx, record); err != nil {
		return err
	}

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
	ctx context.Context, groupID string,
) error {
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxDelete(tx, groupID, domain.SeedRecord{})
	} else {
		err = r.store.Delete(groupID, domain.SeedRecord{})
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return err
	}

	go r.publishEvent(domain.SeedRecordEvent{
		EventType: domain.SeedRecordDeleted,
		GroupID:   groupID,
	})

	return nil
}

func (r *seedRecordRepository) ListRecords(
	ctx context.Context,
) ([]domain.SeedRecord, error) {
	var err error
	records := make([]domain.SeedRecord, 0)

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxFind(tx, &records, nil)
	} else {
		err = r.store.Find(&records, nil)
	}
	if err != nil {
		return nil, err
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

func (r *seedRecordRepository) getRecord(
	ctx context.Context, groupID string,
) (*domain.SeedRecord, error) {
	var err error
	var record domain.SeedRecord

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxGet(tx, groupID, &record)
	} else {
		err = r.store.Get(groupID, &record)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &record, nil
}

func (r *seedRecordRepository) upsertRecord(
	ctx context.Context, record *domain.SeedRecord,
) error {
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return r.store.TxUpsert(tx, record.GroupID, *record)
	}
	return r.store.Upsert(record.GroupID, *record)
}

func (r *seedRecordRepository) publishEvent(event domain.SeedRecordEvent) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return
	}

	r.log("publish event %s for group %s", event.EventType, event.GroupID)
	r.chEvents <- event

	// send over channel without blocking in case nobody is listening.
	select {
	case r.externalChEvents <- event:
	default:
	}
}

func (r *seedRecordRepository) close() {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.store.Close()
	close(r.chEvents)
	close(r.externalChEvents)
}
