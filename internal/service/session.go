package service

import (
	"context"
	"fmt"

	"github.com/raceline/karting-api/internal/domain"
	"github.com/raceline/karting-api/internal/repository"
)

var ErrDuplicateSessionID = repository.ErrDuplicateSessionID

type SessionRepository interface {
	Create(ctx context.Context, session domain.RaceSession) (domain.RaceSession, error)
	FindBySessionID(ctx context.Context, sessionID string) (domain.RaceSession, error)
	FindAll(ctx context.Context) ([]domain.RaceSession, error)
	MarkProcessed(ctx context.Context, sessionID string) error
}

// SessionService is the boundary the external timing ingester writes
// through. Sessions are append-only once stored.
type SessionService struct {
	repo SessionRepository
}

func NewSessionService(repo SessionRepository) *SessionService {
	return &SessionService{
		repo: repo,
	}
}

func (s *SessionService) Ingest(ctx context.Context, session domain.RaceSession) (domain.RaceSession, error) {
	if session.SessionType == "" {
		session.SessionType = domain.SessionTypeOther
	}

	created, err := s.repo.Create(ctx, session)
	if err != nil {
		return domain.RaceSession{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *SessionService) GetSession(ctx context.Context, sessionID string) (domain.RaceSession, error) {
	session, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return domain.RaceSession{}, fmt.Errorf("s.repo.FindBySessionID -> %w", err)
	}

	return session, nil
}

func (s *SessionService) ListSessions(ctx context.Context) ([]domain.RaceSession, error) {
	sessions, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return sessions, nil
}

func (s *SessionService) MarkProcessed(ctx context.Context, sessionID string) error {
	if err := s.repo.MarkProcessed(ctx, sessionID); err != nil {
		return fmt.Errorf("s.repo.MarkProcessed -> %w", err)
	}

	return nil
}
