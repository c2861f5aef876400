package repository

import (
	"context"
	"fmt"

	"github.com/raceline/karting-api/internal/domain"
	"github.com/raceline/karting-api/internal/repository/dao"
)

var (
	ErrSessionNotFound    = dao.ErrSessionNotFound
	ErrDuplicateSessionID = dao.ErrDuplicateSessionID
)

type SessionDAO interface {
	Insert(ctx context.Context, session dao.RaceSession) (dao.RaceSession, error)
	FindBySessionID(ctx context.Context, sessionID string) (dao.RaceSession, error)
	FindAll(ctx context.Context) ([]dao.RaceSession, error)
	MarkProcessed(ctx context.Context, sessionID string) error
	FindResultsByDriverName(ctx context.Context, driverName string) ([]dao.DriverSessionRow, error)
	HasDriverInSession(ctx context.Context, sessionID, driverName string) (bool, error)
}

type SessionRepository struct {
	dao SessionDAO
}

func NewSessionRepository(dao SessionDAO) *SessionRepository {
	return &SessionRepository{
		dao: dao,
	}
}

func (r *SessionRepository) Create(ctx context.Context, session domain.RaceSession) (domain.RaceSession, error) {
	created, err := r.dao.Insert(ctx, r.domainToDAO(session))
	if err != nil {
		return domain.RaceSession{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *SessionRepository) FindBySessionID(ctx context.Context, sessionID string) (domain.RaceSession, error) {
	found, err := r.dao.FindBySessionID(ctx, sessionID)
	if err != nil {
		return domain.RaceSession{}, fmt.Errorf("r.dao.FindBySessionID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *SessionRepository) FindAll(ctx context.Context) ([]domain.RaceSession, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	sessions := make([]domain.RaceSession, 0, len(found))
	for _, s := range found {
		sessions = append(sessions, r.daoToDomain(s))
	}

	return sessions, nil
}

func (r *SessionRepository) MarkProcessed(ctx context.Context, sessionID string) error {
	if err := r.dao.MarkProcessed(ctx, sessionID); err != nil {
		return fmt.Errorf("r.dao.MarkProcessed -> %w", err)
	}

	return nil
}

func (r *SessionRepository) FindResultsByDriverName(ctx context.Context, driverName string) ([]domain.DriverSessionResult, error) {
	rows, err := r.dao.FindResultsByDriverName(ctx, driverName)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindResultsByDriverName -> %w", err)
	}

	results := make([]domain.DriverSessionResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, domain.DriverSessionResult{
			SessionID:     row.SessionID,
			SessionName:   row.SessionName,
			SessionDate:   row.SessionDate,
			SessionType:   row.SessionType,
			DriverName:    row.DriverName,
			KartNumber:    row.KartNumber,
			FinalPosition: row.FinalPosition,
			BestTimeMS:    row.BestTimeMS,
			TotalLaps:     row.TotalLaps,
		})
	}

	return results, nil
}

func (r *SessionRepository) HasDriverInSession(ctx context.Context, sessionID, driverName string) (bool, error) {
	ok, err := r.dao.HasDriverInSession(ctx, sessionID, driverName)
	if err != nil {
		return false, fmt.Errorf("r.dao.HasDriverInSession -> %w", err)
	}

	return ok, nil
}

func (r *SessionRepository) domainToDAO(s domain.RaceSession) dao.RaceSession {
	session := dao.RaceSession{
		SessionID:   s.SessionID,
		SessionName: s.SessionName,
		SessionDate: s.SessionDate,
		SessionType: s.SessionType,
		Processed:   s.Processed,
	}

	for _, result := range s.Results {
		daoResult := dao.DriverResult{
			DriverName:    result.DriverName,
			KartNumber:    result.KartNumber,
			FinalPosition: result.FinalPosition,
			BestTimeMS:    result.BestTimeMS,
			LastTimeMS:    result.LastTimeMS,
			TotalLaps:     result.TotalLaps,
		}
		for _, lap := range result.Laps {
			daoResult.Laps = append(daoResult.Laps, dao.Lap{
				LapNumber: lap.LapNumber,
				TimeMS:    lap.TimeMS,
				Position:  lap.Position,
			})
		}
		session.Results = append(session.Results, daoResult)
	}

	return session
}

func (r *SessionRepository) daoToDomain(s dao.RaceSession) domain.RaceSession {
	session := domain.RaceSession{
		ID:          s.ID,
		SessionID:   s.SessionID,
		SessionName: s.SessionName,
		SessionDate: s.SessionDate,
		SessionType: s.SessionType,
		Processed:   s.Processed,
		CreatedAt:   s.CreatedAt,
	}

	for _, result := range s.Results {
		domainResult := domain.DriverResult{
			DriverName:    result.DriverName,
			KartNumber:    result.KartNumber,
			FinalPosition: result.FinalPosition,
			BestTimeMS:    result.BestTimeMS,
			LastTimeMS:    result.LastTimeMS,
			TotalLaps:     result.TotalLaps,
		}
		for _, lap := range result.Laps {
			domainResult.Laps = append(domainResult.Laps, domain.Lap{
				LapNumber: lap.LapNumber,
				TimeMS:    lap.TimeMS,
				Position:  lap.Position,
			})
		}
		session.Results = append(session.Results, domainResult)
	}

	return session
}
