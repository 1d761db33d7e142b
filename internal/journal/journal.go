// Package journal keeps an audit trail of the events a session applied and the
// text it sent. The trail is write-only from the session's point of view:
// nothing is ever replayed into the message log.
//
// Records go to SQLite when a path is configured. The database is opened
// lazily on first use; if opening it or running a query fails, the journal
// falls back to in-memory storage.
package journal

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/chatclient/internal/logger"
)

// Journal stores records in SQLite with an in-memory fallback.
type Journal struct {
	path string

	mu      sync.Mutex
	records []Record // in-memory fallback
	nextID  int64

	dbOnce  sync.Once
	db      *sql.DB
	initErr error
}

// Open returns a journal backed by the SQLite file at path. An empty path
// keeps records in memory only.
func Open(path string) *Journal {
	return &Journal{path: path}
}

func (j *Journal) initDB() {
	if j.path == "" {
		return
	}
	var err error
	j.db, err = sql.Open("sqlite", "file:"+j.path+"?_busy_timeout=10000&_fk=1")
	if err != nil {
		j.initErr = err
		logger.L.Warn("sqlite open failed; using in-memory journal", "error", err)
		return
	}
	if _, err = j.db.Exec(`CREATE TABLE IF NOT EXISTS events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT,
        direction TEXT,
        kind TEXT,
        message_id TEXT,
        prefix TEXT,
        payload TEXT,
        created_at DATETIME
    );`); err != nil {
		j.initErr = err
		logger.L.Warn("sqlite table creation failed; using in-memory journal", "error", err)
		return
	}
	logger.L.Info("sqlite journal initialized", "path", j.path)
}

func (j *Journal) usingDB() bool {
	j.dbOnce.Do(j.initDB)
	return j.initErr == nil && j.db != nil
}

// Record stores r, stamping CreatedAt when it is zero. It keeps an in-memory
// copy regardless of the database outcome.
func (j *Journal) Record(r Record) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	if j.usingDB() {
		_, err := j.db.Exec(`INSERT INTO events (session_id, direction, kind, message_id, prefix, payload, created_at) VALUES (?,?,?,?,?,?,?);`,
			r.SessionID, string(r.Direction), r.Kind, r.MessageID, r.Prefix, r.Payload, r.CreatedAt)
		if err != nil {
			logger.L.Error("failed to store event in sqlite; falling back to memory", "error", err)
		}
	}

	j.mu.Lock()
	j.nextID++
	r.ID = j.nextID
	j.records = append(j.records, r)
	j.mu.Unlock()
}

// List returns the records of a session in the order they were written. An
// empty sessionID lists every session.
func (j *Journal) List(sessionID string) []Record {
	var out []Record
	if j.usingDB() {
		rows, err := j.db.Query(`SELECT id, session_id, direction, kind, message_id, prefix, payload, created_at FROM events WHERE ? = '' OR session_id = ? ORDER BY id ASC;`, sessionID, sessionID)
		if err == nil {
			defer rows.Close()
			for rows.Next() {
				var r Record
				var dir string
				if err := rows.Scan(&r.ID, &r.SessionID, &dir, &r.Kind, &r.MessageID, &r.Prefix, &r.Payload, &r.CreatedAt); err == nil {
					r.Direction = Direction(dir)
					out = append(out, r)
				}
			}
			return out
		}
		logger.L.Warn("sqlite query failed; listing in-memory journal", "error", err)
	}

	j.mu.Lock()
	for _, r := range j.records {
		if sessionID == "" || r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	j.mu.Unlock()
	return out
}

// Close releases the database handle, if one was opened.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}
