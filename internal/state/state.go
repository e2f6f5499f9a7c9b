package state

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/llehouerou/openspot/internal/logging"
	"github.com/llehouerou/openspot/internal/playlist"
)

const (
	appName      = "openspot"
	dbFileName   = "openspot.db"
	saveDebounce = 500 * time.Millisecond
)

type Manager struct {
	db        *sql.DB
	log       *log.Logger
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *playlist.Snapshot
	writes    sync.WaitGroup // debounced saves in flight
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger that reports failed background saves.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// Open opens the state database in the XDG data directory.
func Open(opts ...Option) (*Manager, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath, opts...)
}

// OpenPath opens the state database at path. ":memory:" opens a private
// in-memory database.
func OpenPath(dbPath string, opts ...Option) (*Manager, error) {
	if dbPath != ":memory:" {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if dbPath == ":memory:" {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	m := &Manager{db: db}
	for _, opt := range opts {
		opt(m)
	}
	m.log = logging.Component(m.log, "state")
	return m, nil
}

// Close flushes any pending queue save and closes the database.
func (m *Manager) Close() error {
	flushErr := m.Flush()
	return errors.Join(flushErr, m.db.Close())
}

// Flush writes a pending debounced queue save immediately. It also waits for
// a debounced save that has already started.
func (m *Manager) Flush() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
		m.saveTimer = nil
	}
	pending := m.pending
	m.pending = nil
	m.saveMu.Unlock()

	m.writes.Wait()
	if pending == nil {
		return nil
	}
	return SetJSON(m, KeyQueue, pending)
}

func (m *Manager) DB() *sql.DB {
	return m.db
}

func (m *Manager) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := m.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (m *Manager) Set(key string, value []byte) error {
	return m.SetMany(map[string][]byte{key: value})
}

// SetMany writes all values in a single transaction.
func (m *Manager) SetMany(values map[string][]byte) error {
	now := time.Now().Unix()
	return withTx(m.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for k, v := range values {
			if _, err := stmt.Exec(k, v, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *Manager) Delete(key string) error {
	_, err := m.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Keys returns the stored keys starting with prefix, sorted.
func (m *Manager) Keys(prefix string) ([]string, error) {
	rows, err := m.db.Query(`SELECT key FROM kv`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// withTx runs fn in a transaction, committing only if fn succeeds.
func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
