package dirscrape

import (
	"context"
	"time"
)

// Session represents one completed scraping run.
type Session struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Schema    Schema    `json:"schema"`
	Records   []*Record `json:"records"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate returns an error if the session contains invalid fields.
func (s *Session) Validate() error {
	if s.URL == "" {
		return Errorf(EINVALID, "session URL required")
	}
	if err := s.Schema.Validate(); err != nil {
		return err
	}
	return nil
}

// SessionService represents a service for managing stored sessions.
type SessionService interface {
	// CreateSession persists a new session with its records.
	CreateSession(ctx context.Context, session *Session) error

	// FindSessionByID retrieves a session with its records.
	// Returns ENOTFOUND if session does not exist.
	FindSessionByID(ctx context.Context, id string) (*Session, error)

	// FindSessions retrieves session summaries matching the filter,
	// newest first. Records are not loaded.
	FindSessions(ctx context.Context, filter SessionFilter) ([]*Session, error)

	// DeleteSession permanently removes a session and its records.
	// Returns ENOTFOUND if session does not exist.
	DeleteSession(ctx context.Context, id string) error
}

// SessionFilter represents a filter for FindSessions.
type SessionFilter struct {
	ID  *string `json:"id"`
	URL *string `json:"url"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// SessionWriter exports a session to an external destination.
type SessionWriter interface {
	WriteSession(ctx context.Context, session *Session) error
}
