// Package transcript archives finished support conversations in sqlite.
package transcript

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"SupportChat/internal/chatbot"
	"SupportChat/internal/session"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/lo"
)

// ErrNotFound is returned by Load for unknown transcript ids
var ErrNotFound = errors.New("transcript not found")

// Transcript is an archived conversation
type Transcript struct {
	Session    session.Session
	ArchivedAt time.Time
	Messages   []session.Message
}

// Summary is one row of the transcript listing
type Summary struct {
	ID           string
	UserID       string
	StartedAt    time.Time
	ArchivedAt   time.Time
	MessageCount int
}

// Store persists transcripts
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (and migrates) the sqlite database at path
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("transcript store: empty path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	createSessionsTable := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		started_at DATETIME,
		archived_at DATETIME
	);`

	createMessagesTable := `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp DATETIME,
		confidence REAL,
		used_llm INTEGER,
		FOREIGN KEY(session_id) REFERENCES sessions(id)
	);`

	if _, err := s.db.Exec(createSessionsTable); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	if _, err := s.db.Exec(createMessagesTable); err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save archives the session and its messages. Saving the same session
// again replaces the earlier copy.
func (s *Store) Save(ctx context.Context, sess session.Session, messages []session.Message) error {
	if sess.ID == "" {
		return errors.New("transcript store: session id is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO sessions (id, user_id, started_at, archived_at) VALUES (?, ?, ?, ?)",
		sess.ID, sess.UserID, sess.StartedAt, s.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sess.ID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	for i, msg := range messages {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, seq, role, content, timestamp, confidence, used_llm)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, i, string(msg.Role), msg.Content, msg.Timestamp, nullFloat(msg.Confidence), nullBool(msg.UsedLLM),
		)
		if err != nil {
			return fmt.Errorf("failed to save message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load returns one archived transcript
func (s *Store) Load(ctx context.Context, id string) (Transcript, error) {
	var t Transcript
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, started_at, archived_at FROM sessions WHERE id = ?", id).
		Scan(&t.Session.ID, &t.Session.UserID, &t.Session.StartedAt, &t.ArchivedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Transcript{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Transcript{}, fmt.Errorf("failed to load session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content, timestamp, confidence, used_llm FROM messages WHERE session_id = ? ORDER BY seq",
		id,
	)
	if err != nil {
		return Transcript{}, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			msg        session.Message
			role       string
			confidence sql.NullFloat64
			usedLLM    sql.NullBool
		)
		if err := rows.Scan(&role, &msg.Content, &msg.Timestamp, &confidence, &usedLLM); err != nil {
			return Transcript{}, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = session.Role(role)
		if confidence.Valid {
			msg.Confidence = lo.ToPtr(confidence.Float64)
		}
		if usedLLM.Valid {
			msg.UsedLLM = lo.ToPtr(usedLLM.Bool)
		}
		t.Messages = append(t.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return Transcript{}, fmt.Errorf("failed to read messages: %w", err)
	}
	return t, nil
}

// List returns the most recently archived transcripts first
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.user_id, s.started_at, s.archived_at, COUNT(m.id)
		FROM sessions s
		LEFT JOIN messages m ON m.session_id = s.id
		GROUP BY s.id
		ORDER BY s.archived_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.UserID, &sum.StartedAt, &sum.ArchivedAt, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

// Archiver stores a conversation before a front end discards it
type Archiver interface {
	Save(ctx context.Context, sess session.Session, messages []session.Message) error
}

// ArchiveSnapshot saves the active session in snap. A nil archiver or an
// inactive session is a no-op.
func ArchiveSnapshot(ctx context.Context, a Archiver, snap chatbot.Snapshot) error {
	if a == nil || !snap.Session.Active {
		return nil
	}
	return a.Save(ctx, snap.Session, snap.Messages)
}
