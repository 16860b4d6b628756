package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/dirscrape"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ dirscrape.SessionService = (*SessionService)(nil)

// SessionService implements dirscrape.SessionService using SQLite.
type SessionService struct {
	db *DB
}

// NewSessionService creates a new SessionService.
func NewSessionService(db *DB) *SessionService {
	return &SessionService{db: db}
}

// CreateSession persists a session and its records in one transaction.
// A zero CreatedAt is set to the current time; a CreatedAt supplied by
// the caller is preserved.
func (s *SessionService) CreateSession(ctx context.Context, session *dirscrape.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	session.ID = uuid.New().String()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	session.Total = len(session.Records)

	schemaJSON, err := json.Marshal(session.Schema)
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, url, schema, total, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, session.ID, session.URL, string(schemaJSON), session.Total,
		session.CreatedAt.Format(time.RFC3339)); err != nil {
		return err
	}

	for i, rec := range session.Records {
		fields, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO records (id, session_id, position, fields, content_hash)
			VALUES (?, ?, ?, ?, ?)
		`, uuid.New().String(), session.ID, i, string(fields), rec.Hash()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindSessionByID retrieves a session with its records.
func (s *SessionService) FindSessionByID(ctx context.Context, id string) (*dirscrape.Session, error) {
	var session dirscrape.Session
	var schemaJSON, createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, url, schema, total, created_at
		FROM sessions
		WHERE id = ?
	`, id).Scan(&session.ID, &session.URL, &schemaJSON, &session.Total, &createdAt)

	if err == sql.ErrNoRows {
		return nil, dirscrape.Errorf(dirscrape.ENOTFOUND, "session not found")
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(schemaJSON), &session.Schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	session.CreatedAt, err = parseRFC3339(createdAt, "created_at")
	if err != nil {
		return nil, err
	}

	records, err := s.findSessionRecords(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Records = records

	return &session, nil
}

// FindSessions retrieves session summaries matching the filter, newest
// first. Records are not loaded.
func (s *SessionService) FindSessions(ctx context.Context, filter dirscrape.SessionFilter) ([]*dirscrape.Session, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, url, schema, total, created_at FROM sessions WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}

	query.WriteString(" ORDER BY created_at DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*dirscrape.Session
	for rows.Next() {
		var session dirscrape.Session
		var schemaJSON, createdAt string

		if err := rows.Scan(&session.ID, &session.URL, &schemaJSON, &session.Total, &createdAt); err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(schemaJSON), &session.Schema); err != nil {
			return nil, fmt.Errorf("failed to parse schema: %w", err)
		}
		session.CreatedAt, err = parseRFC3339(createdAt, "created_at")
		if err != nil {
			return nil, err
		}

		sessions = append(sessions, &session)
	}

	return sessions, rows.Err()
}

// DeleteSession permanently removes a session. Its records cascade.
func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return dirscrape.Errorf(dirscrape.ENOTFOUND, "session not found")
	}

	return nil
}

// findSessionRecords loads a session's records in insertion order.
func (s *SessionService) findSessionRecords(ctx context.Context, sessionID string) ([]*dirscrape.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fields
		FROM records
		WHERE session_id = ?
		ORDER BY position ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*dirscrape.Record
	for rows.Next() {
		var fields string
		if err := rows.Scan(&fields); err != nil {
			return nil, err
		}
		rec := &dirscrape.Record{}
		if err := json.Unmarshal([]byte(fields), rec); err != nil {
			return nil, fmt.Errorf("failed to parse record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
