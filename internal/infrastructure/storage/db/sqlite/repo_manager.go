package sqlitedb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vulpemventures/softwallet/internal/core/domain"
	"github.com/vulpemventures/softwallet/internal/core/ports"

	_ "modernc.org/sqlite"
)

const (
	sqliteDriver = "sqlite"
	inMemoryDsn  = ":memory:"
	dbFile       = "softwallet.db"

	schema = `
CREATE TABLE IF NOT EXISTS seed_record (
	group_id   TEXT PRIMARY KEY,
	label      TEXT NOT NULL DEFAULT '',
	ciphertext BLOB NOT NULL,
	pin_hash   BLOB NOT NULL,
	pin_salt   BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS seed_record_created_at_idx ON seed_record(created_at);
`
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=FULL",
	"PRAGMA busy_timeout=5000",
}

type repoManager struct {
	db *sql.DB

	seedRecordRepository *seedRecordRepository

	seedRecordEventHandlers *handlerMap
}

// NewRepoManager opens (and creates if missing) the sqlite db file in the
// given dir, or an in-memory db if no dir is provided - to be used only for
// testing purposes.
func NewRepoManager(dbDir string) (ports.RepoManager, error) {
	dsn := inMemoryDsn
	if len(dbDir) > 0 {
		if err := os.MkdirAll(dbDir, os.ModeDir|0700); err != nil {
			return nil, err
		}
		dsn = filepath.Join(dbDir, dbFile)
	}

	db, err := sql.Open(sqliteDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// Every connection to :memory: would get its own empty db.
	db.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if dsn == inMemoryDsn && pragma == pragmas[0] {
			continue
		}
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	rm := &repoManager{
		db:                      db,
		seedRecordRepository:    newSeedRecordRepository(db),
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
	rm.db.Close()
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
