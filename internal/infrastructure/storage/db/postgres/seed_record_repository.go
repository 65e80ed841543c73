package postgresdb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/vulpemventures/softwallet/internal/core/domain"
)

const (
	selectRecordQuery = `SELECT group_id, label, ciphertext, pin_hash, pin_salt, created_at
FROM seed_record WHERE group_id = $1`
	selectAllRecordsQuery = `SELECT group_id, label, ciphertext, pin_hash, pin_salt, created_at
FROM seed_record ORDER BY created_at, group_id`
	// xmax is 0 only for freshly inserted rows.
	upsertRecordQuery = `INSERT INTO seed_record (group_id, label, ciphertext, pin_hash, pin_salt, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (group_id) DO UPDATE SET
label = EXCLUDED.label, ciphertext = EXCLUDED.ciphertext,
pin_hash = EXCLUDED.pin_hash, pin_salt = EXCLUDED.pin_salt
RETURNING (xmax = 0) AS inserted`
	deleteRecordQuery = `DELETE FROM seed_record WHERE group_id = $1`
)

type seedRecordRepositoryPg struct {
	pgxPool          *pgxpool.Pool
	chLock           *sync.Mutex
	chEvents         chan domain.SeedRecordEvent
	externalChEvents chan domain.SeedRecordEvent
	closed           bool
}

func NewSeedRecordRepositoryPgImpl(
	pgxPool *pgxpool.Pool,
) domain.SeedRecordRepository {
	return newSeedRecordRepositoryPgImpl(pgxPool)
}

func newSeedRecordRepositoryPgImpl(pgxPool *pgxpool.Pool) *seedRecordRepositoryPg {
	return &seedRecordRepositoryPg{
		pgxPool:          pgxPool,
		chLock:           &sync.Mutex{},
		chEvents:         make(chan domain.SeedRecordEvent),
		externalChEvents: make(chan domain.SeedRecordEvent),
	}
}

func (r *seedRecordRepositoryPg) HasRecord(
	ctx context.Context, groupID string,
) (bool, error) {
	if _, err := r.GetRecord(ctx, groupID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *seedRecordRepositoryPg) GetRecord(
	ctx context.Context, groupID string,
) (*domain.SeedRecord, error) {
	row := r.pgxPool.QueryRow(ctx, selectRecordQuery, groupID)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, wrapPgError(err)
	}
	return record, nil
}

func (r *seedRecordRepositoryPg) PutRecord(
	ctx context.Context, record *domain.SeedRecord,
) error {
	if record == nil || record.GroupID == "" {
		return domain.ErrMissingGroupID
	}

	var inserted bool
	if err := r.pgxPool.QueryRow(
		ctx, upsertRecordQuery,
		record.GroupID, record.Label, record.Ciphertext,
		record.PinHash, record.PinSalt, record.CreatedAt,
	).Scan(&inserted); err != nil {
		return wrapPgError(err)
	}

	eventType := domain.SeedRecordUpdated
	if inserted {
		eventType = domain.SeedRecordCreated
	}
	go r.publishEvent(domain.SeedRecordEvent{
		EventType: eventType,
		GroupID:   record.GroupID,
	})

	return nil
}

func (r *seedRecordRepositoryPg) DeleteRecord(
	ctx context.Context, groupID string,
) error {
	tag, err := r.pgxPool.Exec(ctx, deleteRecordQuery, groupID)
	if err != nil {
		return wrapPgError(err)
	}

	if tag.RowsAffected() > 0 {
		go r.publishEvent(domain.SeedRecordEvent{
			EventType: domain.SeedRecordDeleted,
			GroupID:   groupID,
		})
	}
	return nil
}

func (r *seedRecordRepositoryPg) ListRecords(
	ctx context.Context,
) ([]domain.SeedRecord, error) {
	rows, err := r.pgxPool.Query(ctx, selectAllRecordsQuery)
	if err != nil {
		return nil, wrapPgError(err)
	}
	defer rows.Close()

	records := make([]domain.SeedRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, wrapPgError(err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError(err)
	}
	return records, nil
}

func (r *seedRecordRepositoryPg) GetEventChannel() chan domain.SeedRecordEvent {
	return r.externalChEvents
}

func (r *seedRecordRepositoryPg) publishEvent(event domain.SeedRecordEvent) {
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

func (r *seedRecordRepositoryPg) close() {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	close(r.chEvents)
	close(r.externalChEvents)
}

func scanRecord(row pgx.Row) (*domain.SeedRecord, error) {
	var record domain.SeedRecord
	if err := row.Scan(
		&record.GroupID, &record.Label, &record.Ciphertext,
		&record.PinHash, &record.PinSalt, &record.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &record, nil
}

// wrapPgError replaces driver errors with their code and message, without
// leaking the query parameters.
func wrapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("postgres error %s: %s", pgErr.Code, pgErr.Message)
	}
	return err
}
