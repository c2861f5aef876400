package repository

import (
	"context"
	"fmt"

	"github.com/raceline/karting-api/internal/domain"
	"github.com/raceline/karting-api/internal/repository/dao"
)

var ErrStatisticsNotFound = dao.ErrStatisticsNotFound

type StatisticsDAO interface {
	FindByUserID(ctx context.Context, userID uint) (dao.UserStatistics, []dao.StatisticsRecentSession, error)
	Replace(ctx context.Context, stats dao.UserStatistics, recent []dao.StatisticsRecentSession) error
	MarkStale(ctx context.Context, userID uint) error
}

type StatisticsRepository struct {
	dao StatisticsDAO
}

func NewStatisticsRepository(dao StatisticsDAO) *StatisticsRepository {
	return &StatisticsRepository{
		dao: dao,
	}
}

func (r *StatisticsRepository) FindByUserID(ctx context.Context, userID uint) (domain.UserStatistics, error) {
	stats, recent, err := r.dao.FindByUserID(ctx, userID)
	if err != nil {
		return domain.UserStatistics{}, fmt.Errorf("r.dao.FindByUserID -> %w", err)
	}

	return r.daoToDomain(stats, recent), nil
}

func (r *StatisticsRepository) Replace(ctx context.Context, stats domain.UserStatistics) error {
	daoStats := dao.UserStatistics{
		UserID:         stats.UserID,
		TotalRaces:     stats.TotalRaces,
		BestTimeMS:     stats.BestTimeMS,
		AverageTimeMS:  stats.AverageTimeMS,
		PodiumFinishes: stats.PodiumFinishes,
		FirstRaceAt:    stats.FirstRaceAt,
		LastRaceAt:     stats.LastRaceAt,
		State:          stats.State,
		ComputedAt:     stats.ComputedAt,
	}

	recent := make([]dao.StatisticsRecentSession, 0, len(stats.RecentSessions))
	for _, s := range stats.RecentSessions {
		recent = append(recent, dao.StatisticsRecentSession{
			UserID:        stats.UserID,
			SessionID:     s.SessionID,
			SessionName:   s.SessionName,
			SessionDate:   s.SessionDate,
			SessionType:   s.SessionType,
			FinalPosition: s.FinalPosition,
			BestTimeMS:    s.BestTimeMS,
		})
	}

	if err := r.dao.Replace(ctx, daoStats, recent); err != nil {
		return fmt.Errorf("r.dao.Replace -> %w", err)
	}

	return nil
}

func (r *StatisticsRepository) MarkStale(ctx context.Context, userID uint) error {
	if err := r.dao.MarkStale(ctx, userID); err != nil {
		return fmt.Errorf("r.dao.MarkStale -> %w", err)
	}

	return nil
}

func (r *StatisticsRepository) daoToDomain(stats dao.UserStatistics, recent []dao.StatisticsRecentSession) domain.UserStatistics {
	result := domain.UserStatistics{
		UserID:         stats.UserID,
		TotalRaces:     stats.TotalRaces,
		BestTimeMS:     stats.BestTimeMS,
		AverageTimeMS:  stats.AverageTimeMS,
		PodiumFinishes: stats.PodiumFinishes,
		FirstRaceAt:    stats.FirstRaceAt,
		LastRaceAt:     stats.LastRaceAt,
		State:          stats.State,
		ComputedAt:     stats.ComputedAt,
		RecentSessions: make([]domain.RecentSession, 0, len(recent)),
	}

	for _, s := range recent {
		result.RecentSessions = append(result.RecentSessions, domain.RecentSession{
			SessionID:     s.SessionID,
			SessionName:   s.SessionName,
			SessionDate:   s.SessionDate,
			SessionType:   s.SessionType,
			FinalPosition: s.FinalPosition,
			BestTimeMS:    s.BestTimeMS,
		})
	}

	return result
}
