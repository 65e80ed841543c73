package postgresdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/vulpemventures/softwallet/internal/core/domain"
	"github.com/vulpemventures/softwallet/internal/core/ports"

	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	postgresDriver             = "pgx"
	insecureDataSourceTemplate = "postgresql://%s:%s@%s:%d/%s?sslmode=disable"
)

type repoManager struct {
	pgxPool *pgxpool.Pool

	seedRecordRepository *seedRecordRepositoryPg

	seedRecordEventHandlers *handlerMap
}

type DbConfig struct {
	DbUser             string
	DbPassword         string
	DbHost             string
	DbPort             int
	DbName             string
	MigrationSourceURL string
}

func NewRepoManager(dbConfig DbConfig) (ports.RepoManager, error) {
	return NewRepoManagerFromDataSource(
		insecureDataSourceStr(dbConfig), dbConfig.MigrationSourceURL,
	)
}

// NewRepoManagerFromDataSource connects to the db at the given url, and
// applies the migrations found at migrationSourceURL.
func NewRepoManagerFromDataSource(
	dataSource, migrationSourceURL string,
) (ports.RepoManager, error) {
	pgxPool, err := connect(dataSource)
	if err != nil {
		return nil, err
	}

	if err = migrateDb(dataSource, migrationSourceURL); err != nil {
		pgxPool.Close()
		return nil, err
	}

	rm := &repoManager{
		pgxPool:                 pgxPool,
		seedRecordRepository:    newSeedRecordRepositoryPgImpl(pgxPool),
		seedRecordEventHandlers: newHandlerMap(),
	}

	go rm.listenToSeedRecordEvents()

	return rm, nil
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

	rm.pgxPool.Close()
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

func connect(dataSource string) (*pgxpool.Pool, error) {
	return pgxpool.Connect(context.Background(), dataSource)
}

func migrateDb(dataSource, migrationSourceUrl string) error {
	pg := postgres.Postgres{}

	d, err := pg.Open(dataSource)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationSourceUrl,
		postgresDriver,
		d,
	)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

// insecureDataSourceStr converts database configuration params to connection string
func insecureDataSourceStr(dbConfig DbConfig) string {
	return fmt.Sprintf(
		insecureDataSourceTemplate,
		dbConfig.DbUser,
		dbConfig.DbPassword,
		dbConfig.DbHost,
		dbConfig.DbPort,
		dbConfig.DbName,
	)
}
