// Package journal records metadata of every message crossing a link into
// sqlite so a session can be inspected after the fact. Payloads are never
// stored.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/ZentaChain/aalink/pkg/messenger"
)

const (
	defaultRetention = 7 * 24 * time.Hour
	bufferSize       = 1024
)

var ErrClosed = errors.New("journal closed")

// Entry is one journaled message
type Entry struct {
	ID          int64
	SessionID   string
	Direction   string
	Channel     string
	MessageID   uint16
	Encryption  string
	MessageType string
	Size        int
	Timestamp   int64 // unix nanoseconds
}

// Stats summarizes journal contents
type Stats struct {
	Entries  int64 `json:"entries"`
	Sessions int64 `json:"sessions"`
	Dropped  int64 `json:"dropped"`
}

// Journal is a sqlite-backed message log.
// Appends are buffered and written by a single goroutine.
type Journal struct {
	db        *sql.DB
	log       zerolog.Logger
	retention time.Duration

	entries chan Entry
	stop    chan struct{}
	wg      sync.WaitGroup
	queued  atomic.Int64
	written atomic.Int64

	mu      sync.Mutex
	closed  bool
	dropped int64
}

// Open opens or creates the journal at path.
// A zero retention keeps entries for a week.
func Open(path string, retention time.Duration, logger zerolog.Logger) (*Journal, error) {
	if retention == 0 {
		retention = defaultRetention
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	j := &Journal{
		db:        db,
		log:       logger.With().Str("component", "journal").Logger(),
		retention: retention,
		entries:   make(chan Entry, bufferSize),
		stop:      make(chan struct{}),
	}

	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	j.wg.Add(2)
	go j.writeLoop()
	go j.cleanupLoop()

	return j, nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		direction TEXT NOT NULL,
		channel TEXT NOT NULL,
		message_id INTEGER NOT NULL,
		encryption TEXT NOT NULL,
		message_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_session ON entries(session_id);
	CREATE INDEX IF NOT EXISTS idx_channel ON entries(channel);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON entries(timestamp);
	`

	if _, err := j.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// NewSessionID returns a fresh id to tag a session's entries with
func NewSessionID() string {
	return uuid.NewString()
}

// Tap returns a messenger tap that journals under sessionID.
// When the write buffer is full the entry is dropped and counted.
func (j *Journal) Tap(sessionID string) messenger.Tap {
	return func(dir messenger.Direction, msg *messenger.Message) {
		payload := msg.Payload()
		entry := Entry{
			SessionID:   sessionID,
			Direction:   dir.String(),
			Channel:     msg.ChannelID().String(),
			Encryption:  msg.EncryptionType().String(),
			MessageType: msg.Type().String(),
			Size:        len(payload),
			Timestamp:   time.Now().UnixNano(),
		}
		if len(payload) >= messenger.MessageIDSize {
			entry.MessageID = uint16(messenger.ParseMessageID(payload))
		}

		j.append(entry)
	}
}

func (j *Journal) append(entry Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}
	select {
	case j.entries <- entry:
		j.queued.Add(1)
	default:
		j.dropped++
	}
}

func (j *Journal) writeLoop() {
	defer j.wg.Done()
	for entry := range j.entries {
		if err := j.insert(entry); err != nil {
			j.log.Warn().Err(err).Str("session", entry.SessionID).Msg("failed to journal message")
		}
		j.written.Add(1)
	}
}

func (j *Journal) insert(e Entry) error {
	query := `
		INSERT INTO entries (session_id, direction, channel, message_id, encryption, message_type, size, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.Exec(query, e.SessionID, e.Direction, e.Channel, e.MessageID, e.Encryption, e.MessageType, e.Size, e.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// Recent returns up to limit newest entries, newest first.
// An empty channel matches every channel.
func (j *Journal) Recent(channel string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, session_id, direction, channel, message_id, encryption, message_type, size, timestamp
		FROM entries
		WHERE (? = '' OR channel = ?)
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := j.db.Query(query, channel, channel, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Direction, &e.Channel, &e.MessageID, &e.Encryption, &e.MessageType, &e.Size, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats reports entry and session counts
func (j *Journal) Stats() (Stats, error) {
	var s Stats
	err := j.db.QueryRow(`SELECT COUNT(*), COUNT(DISTINCT session_id) FROM entries`).Scan(&s.Entries, &s.Sessions)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get journal stats: %w", err)
	}

	j.mu.Lock()
	s.Dropped = j.dropped
	j.mu.Unlock()
	return s, nil
}

// Prune deletes entries older than the retention window
func (j *Journal) Prune() (int64, error) {
	cutoff := time.Now().Add(-j.retention).UnixNano()
	result, err := j.db.Exec(`DELETE FROM entries WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune entries: %w", err)
	}
	return result.RowsAffected()
}

func (j *Journal) cleanupLoop() {
	defer j.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := j.Prune()
			if err != nil {
				j.log.Warn().Err(err).Msg("journal prune failed")
				continue
			}
			if n > 0 {
				j.log.Info().Int64("deleted", n).Msg("pruned journal entries")
			}
		case <-j.stop:
			return
		}
	}
}

// Flush blocks until every entry appended so far is written
func (j *Journal) Flush() {
	target := j.queued.Load()
	for j.written.Load() < target {
		select {
		case <-j.stop:
			return
		case <-time.After(time.Millisecond):
		}
	}
}

// Close drains buffered entries and closes the database
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return ErrClosed
	}
	j.closed = true
	close(j.entries)
	close(j.stop)
	j.mu.Unlock()

	j.wg.Wait()
	return j.db.Close()
}
