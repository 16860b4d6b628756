package mock

import (
	"context"

	"github.com/fwojciec/dirscrape"
)

var _ dirscrape.SessionService = (*SessionService)(nil)

// SessionService is a mock implementation of dirscrape.SessionService.
type SessionService struct {
	CreateSessionFn   func(ctx context.Context, session *dirscrape.Session) error
	FindSessionByIDFn func(ctx context.Context, id string) (*dirscrape.Session, error)
	FindSessionsFn    func(ctx context.Context, filter dirscrape.SessionFilter) ([]*dirscrape.Session, error)
	DeleteSessionFn   func(ctx context.Context, id string) error
}

func (s *SessionService) CreateSession(ctx context.Context, session *dirscrape.Session) error {
	return s.CreateSessionFn(ctx, session)
}

func (s *SessionService) FindSessionByID(ctx context.Context, id string) (*dirscrape.Session, error) {
	return s.FindSessionByIDFn(ctx, id)
}

func (s *SessionService) FindSessions(ctx context.Context, filter dirscrape.SessionFilter) ([]*dirscrape.Session, error) {
	return s.FindSessionsFn(ctx, filter)
}

func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	return s.DeleteSessionFn(ctx, id)
}
