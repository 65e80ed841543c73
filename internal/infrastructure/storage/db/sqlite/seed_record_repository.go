package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/softwallet/internal/core/domain"
)

const (
	selectRecordQuery = `SELECT group_id, label, ciphertext, pin_hash, pin_salt, created_at
FROM seed_record WHERE group_id = ?`
	selectAllRecordsQuery = `SELECT group_id, label, ciphertext, pin_hash, pin_salt, created_at
FROM seed_record ORDER BY created_at, group_id`
	existsRecordQuery = `SELECT COUNT(*) FROM seed_record WHERE group_id = ?`
	upsertRecordQuery = `INSERT INTO seed_record (group_id, label, ciphertext, pin_hash, pin_salt, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(group_id) DO UPDATE SET
label = excluded.label, ciphertext = excluded.ciphertext,
pin_hash = excluded.pin_hash, pin_salt = excluded.pin_salt`
	deleteRecordQuery = `DELETE FROM seed_record WHERE group_id = ?`
)

type seedRecordRepository struct {
	db               *sql.DB
	chEvents         chan domain.SeedRecordEvent
	externalChEvents chan domain.SeedRecordEvent
	chLock           *sync.Mutex
	closed           bool

	log func(format string, a ...interface{})
}

func newSeedRecordRepository(db *sql.DB) *seedRecordRepository {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("seed record repository: %s", format)
		log.Debugf(format, a...)
	}
	return &seedRecordRepository{
		db:               db,
		chEvents:         make(chan domain.SeedRecordEvent, 10),
		externalChEvents: make(chan domain.SeedRecordEvent, 10),
		chLock:           &sync.Mutex{},
		log:              logFn,
	}
}

func (r *seedRecordRepository) HasRecord(
	ctx context.Context, groupID string,
) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(
		ctx, existsRecordQuery, groupID,
	).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *seedRecordRepository) GetRecord(
	ctx context.Context, groupID string,
) (*domain.SeedRecord, error) {
	row := r.db.QueryRowContext(ctx, selectRecordQuery, groupID)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *seedRecordRepository) PutRecord(
	ctx context.Context, record *domain.SeedRecord,
) error {
	if record == nil || record.GroupID == "" {
		return domain.ErrMissingGroupID
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// nolint
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(
		ctx, existsRecordQuery, record.GroupID,
	).Scan(&count); err != nil {
		return err
	}
	if _, err := tx.ExecContext(
		ctx, upsertRecordQuery,
		record.GroupID, record.Label, record.Ciphertext,
		record.PinHash, record.PinSalt, record.CreatedAt,
	); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	eventType := domain.SeedRecordCreated
	if count > 0 {
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
	res, err := r.db.ExecContext(ctx, deleteRecordQuery, groupID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if count > 0 {
		go r.publishEvent(domain.SeedRecordEvent{
			EventType: domain.SeedRecordDeleted,
			GroupID:   groupID,
		})
	}
	return nil
}

func (r *seedRecordRepository) ListRecords(
	ctx context.Context,
) ([]domain.SeedRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectAllRecordsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.SeedRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
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

	r.log("publish event %s for group %s", event.EventType, event.GroupID)
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

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*domain.SeedRecord, error) {
	var record domain.SeedRecord
	if err := row.Scan(
		&record.GroupID, &record.Label, &record.Ciphertext,
		&record.PinHash, &record.PinSalt, &record.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &record, nil
}
