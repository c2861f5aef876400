package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/raceline/karting-api/internal/domain"
	"github.com/raceline/karting-api/internal/repository"
)

type StatisticsUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

type StatisticsSessionRepository interface {
	FindResultsByDriverName(ctx context.Context, driverName string) ([]domain.DriverSessionResult, error)
}

type StatisticsRepository interface {
	FindByUserID(ctx context.Context, userID uint) (domain.UserStatistics, error)
	Replace(ctx context.Context, stats domain.UserStatistics) error
	MarkStale(ctx context.Context, userID uint) error
}

// StatisticsService maintains the per-account materialized racing
// statistics. The stored row is only a cache: Recompute rebuilds it from
// scratch off the session store and the account's current link, so the
// result is identical no matter how often it runs.
type StatisticsService struct {
	userRepo    StatisticsUserRepository
	sessionRepo StatisticsSessionRepository
	statsRepo   StatisticsRepository
}

func NewStatisticsService(userRepo StatisticsUserRepository, sessionRepo StatisticsSessionRepository, statsRepo StatisticsRepository) *StatisticsService {
	return &StatisticsService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		statsRepo:   statsRepo,
	}
}

// Recompute rescans every session result matching the account's linked
// driver name and stores the folded statistics. An unlinked account, or
// a linked one with no sessions, gets all-zero statistics rather than
// an error.
func (s *StatisticsService) Recompute(ctx context.Context, userID uint) (domain.UserStatistics, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return domain.UserStatistics{}, fmt.Errorf("s.userRepo.FindByID -> %w", err)
	}

	stats := domain.UserStatistics{
		UserID:         userID,
		State:          domain.StatisticsStateReady,
		RecentSessions: []domain.RecentSession{},
		ComputedAt:     time.Now().UTC(),
	}

	if user.IsLinked() {
		results, err := s.sessionRepo.FindResultsByDriverName(ctx, user.KartingLink.DriverName)
		if err != nil {
			return domain.UserStatistics{}, fmt.Errorf("s.sessionRepo.FindResultsByDriverName -> %w", err)
		}

		foldResults(&stats, results)
	}

	if err = s.statsRepo.Replace(ctx, stats); err != nil {
		return domain.UserStatistics{}, fmt.Errorf("s.statsRepo.Replace -> %w", err)
	}

	return stats, nil
}

// GetStatistics serves the stored view, recomputing first whenever the
// row is missing or not in the "ready" state. Stale data is never
// silently returned.
func (s *StatisticsService) GetStatistics(ctx context.Context, userID uint) (domain.UserStatistics, error) {
	stats, err := s.statsRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrStatisticsNotFound) {
			return s.Recompute(ctx, userID)
		}

		return domain.UserStatistics{}, fmt.Errorf("s.statsRepo.FindByUserID -> %w", err)
	}

	if stats.State != domain.StatisticsStateReady {
		return s.Recompute(ctx, userID)
	}

	return stats, nil
}

// MarkStale flags an account's statistics for recomputation, e.g. after
// its link changed. Patching on a rename is deliberately unsupported:
// historical sessions keep their free-text names, so only a full rescan
// is correct.
func (s *StatisticsService) MarkStale(ctx context.Context, userID uint) error {
	if err := s.statsRepo.MarkStale(ctx, userID); err != nil {
		return fmt.Errorf("s.statsRepo.MarkStale -> %w", err)
	}

	return nil
}

// foldResults accumulates session results (ordered by date ascending)
// into stats. Non-positive best times are timing-system sentinels and
// are excluded from best/average; such races still count toward the
// race total.
func foldResults(stats *domain.UserStatistics, results []domain.DriverSessionResult) {
	var sumBest, validCount int

	for _, result := range results {
		stats.TotalRaces++

		if result.FinalPosition >= 1 && result.FinalPosition <= 3 {
			stats.PodiumFinishes++
		}

		if result.BestTimeMS > 0 {
			sumBest += result.BestTimeMS
			validCount++
			if stats.BestTimeMS == 0 || result.BestTimeMS < stats.BestTimeMS {
				stats.BestTimeMS = result.BestTimeMS
			}
		}

		date := result.SessionDate
		if stats.FirstRaceAt == nil || date.Before(*stats.FirstRaceAt) {
			first := date
			stats.FirstRaceAt = &first
		}
		if stats.LastRaceAt == nil || date.After(*stats.LastRaceAt) {
			last := date
			stats.LastRaceAt = &last
		}
	}

	if validCount > 0 {
		stats.AverageTimeMS = int(math.Round(float64(sumBest) / float64(validCount)))
	}

	// Rolling window for display: newest first.
	start := len(results) - domain.RecentSessionLimit
	if start < 0 {
		start = 0
	}
	for i := len(results) - 1; i >= start; i-- {
		result := results[i]
		stats.RecentSessions = append(stats.RecentSessions, domain.RecentSession{
			SessionID:     result.SessionID,
			SessionName:   result.SessionName,
			SessionDate:   result.SessionDate,
			SessionType:   result.SessionType,
			FinalPosition: result.FinalPosition,
			BestTimeMS:    result.BestTimeMS,
		})
	}
}
