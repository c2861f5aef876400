package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raceline/karting-api/internal/domain"
	"github.com/raceline/karting-api/internal/repository"
)

type fakeUserRepo struct {
	users map[uint]domain.User
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uint) (domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}

	return user, nil
}

type fakeSessionRepo struct {
	results map[string][]domain.DriverSessionResult
	calls   int
}

func (f *fakeSessionRepo) FindResultsByDriverName(_ context.Context, driverName string) ([]domain.DriverSessionResult, error) {
	f.calls++

	return f.results[driverName], nil
}

type fakeStatsRepo struct {
	stored map[uint]domain.UserStatistics
}

func (f *fakeStatsRepo) FindByUserID(_ context.Context, userID uint) (domain.UserStatistics, error) {
	stats, ok := f.stored[userID]
	if !ok {
		return domain.UserStatistics{}, repository.ErrStatisticsNotFound
	}

	return stats, nil
}

func (f *fakeStatsRepo) Replace(_ context.Context, stats domain.UserStatistics) error {
	f.stored[stats.UserID] = stats

	return nil
}

func (f *fakeStatsRepo) MarkStale(_ context.Context, userID uint) error {
	stats := f.stored[userID]
	stats.UserID = userID
	stats.State = domain.StatisticsStateStale
	f.stored[userID] = stats

	return nil
}

func linkedUser(id uint, driverName string) domain.User {
	return domain.User{
		ID: id,
		KartingLink: domain.KartingLink{
			DriverName: driverName,
			Status:     domain.LinkStatusLinked,
		},
	}
}

func newStatisticsFixture(users map[uint]domain.User, results map[string][]domain.DriverSessionResult) (*StatisticsService, *fakeSessionRepo, *fakeStatsRepo) {
	sessions := &fakeSessionRepo{results: results}
	stats := &fakeStatsRepo{stored: map[uint]domain.UserStatistics{}}

	return NewStatisticsService(&fakeUserRepo{users: users}, sessions, stats), sessions, stats
}

func TestStatisticsService_Recompute(t *testing.T) {
	base := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	results := map[string][]domain.DriverSessionResult{
		"Diego R": {
			{SessionID: "S-100", SessionDate: base, FinalPosition: 2, BestTimeMS: 41000},
			{SessionID: "S-101", SessionDate: base.Add(24 * time.Hour), FinalPosition: 5, BestTimeMS: 42500},
			{SessionID: "S-102", SessionDate: base.Add(48 * time.Hour), FinalPosition: 3, BestTimeMS: 43000},
		},
	}
	svc, _, _ := newStatisticsFixture(map[uint]domain.User{1: linkedUser(1, "Diego R")}, results)

	stats, err := svc.Recompute(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalRaces)
	assert.Equal(t, 2, stats.PodiumFinishes)
	assert.Equal(t, 41000, stats.BestTimeMS)
	assert.Equal(t, 42167, stats.AverageTimeMS)
	assert.Equal(t, domain.StatisticsStateReady, stats.State)
	require.NotNil(t, stats.FirstRaceAt)
	assert.Equal(t, base, *stats.FirstRaceAt)
	require.NotNil(t, stats.LastRaceAt)
	assert.Equal(t, base.Add(48*time.Hour), *stats.LastRaceAt)

	// Recent sessions come back newest first.
	require.Len(t, stats.RecentSessions, 3)
	assert.Equal(t, "S-102", stats.RecentSessions[0].SessionID)
	assert.Equal(t, "S-100", stats.RecentSessions[2].SessionID)
}

func TestStatisticsService_Recompute_Idempotent(t *testing.T) {
	base := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	results := map[string][]domain.DriverSessionResult{
		"Diego R": {
			{SessionID: "S-100", SessionDate: base, FinalPosition: 1, BestTimeMS: 40000},
		},
	}
	svc, _, _ := newStatisticsFixture(map[uint]domain.User{1: linkedUser(1, "Diego R")}, results)

	first, err := svc.Recompute(context.Background(), 1)
	require.NoError(t, err)
	second, err := svc.Recompute(context.Background(), 1)
	require.NoError(t, err)

	first.ComputedAt = second.ComputedAt
	assert.Equal(t, first, second)
}

func TestStatisticsService_Recompute_ExcludesInvalidTimes(t *testing.T) {
	base := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	results := map[string][]domain.DriverSessionResult{
		"Diego R": {
			{SessionID: "S-100", SessionDate: base, FinalPosition: 2, BestTimeMS: 41000},
			// Timing-system sentinel for a session with no completed lap.
			{SessionID: "S-101", SessionDate: base.Add(time.Hour), FinalPosition: 8, BestTimeMS: 0},
			{SessionID: "S-102", SessionDate: base.Add(2 * time.Hour), FinalPosition: 9, BestTimeMS: -1},
		},
	}
	svc, _, _ := newStatisticsFixture(map[uint]domain.User{1: linkedUser(1, "Diego R")}, results)

	stats, err := svc.Recompute(context.Background(), 1)
	require.NoError(t, err)

	// All three races count, but only the valid time feeds best/average.
	assert.Equal(t, 3, stats.TotalRaces)
	assert.Equal(t, 41000, stats.BestTimeMS)
	assert.Equal(t, 41000, stats.AverageTimeMS)
}

func TestStatisticsService_Recompute_UnlinkedGetsZeroes(t *testing.T) {
	svc, sessions, _ := newStatisticsFixture(map[uint]domain.User{1: {ID: 1}}, nil)

	stats, err := svc.Recompute(context.Background(), 1)
	require.NoError(t, err)

	assert.Zero(t, stats.TotalRaces)
	assert.Zero(t, stats.BestTimeMS)
	assert.Empty(t, stats.RecentSessions)
	assert.Equal(t, domain.StatisticsStateReady, stats.State)
	assert.Zero(t, sessions.calls)
}

func TestStatisticsService_Recompute_RecentWindowBounded(t *testing.T) {
	base := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	var results []domain.DriverSessionResult
	for i := 0; i < domain.RecentSessionLimit+5; i++ {
		results = append(results, domain.DriverSessionResult{
			SessionID:   "S-" + string(rune('A'+i)),
			SessionDate: base.Add(time.Duration(i) * time.Hour),
		})
	}
	svc, _, _ := newStatisticsFixture(
		map[uint]domain.User{1: linkedUser(1, "Diego R")},
		map[string][]domain.DriverSessionResult{"Diego R": results},
	)

	stats, err := svc.Recompute(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, stats.RecentSessions, domain.RecentSessionLimit)
	assert.Equal(t, results[len(results)-1].SessionID, stats.RecentSessions[0].SessionID)
}

func TestStatisticsService_GetStatistics_RecomputesWhenMissingOrStale(t *testing.T) {
	base := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	results := map[string][]domain.DriverSessionResult{
		"Diego R": {
			{SessionID: "S-100", SessionDate: base, FinalPosition: 1, BestTimeMS: 40000},
		},
	}
	svc, sessions, statsRepo := newStatisticsFixture(map[uint]domain.User{1: linkedUser(1, "Diego R")}, results)
	ctx := context.Background()

	// No stored row yet: the read computes one.
	stats, err := svc.GetStatistics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalRaces)
	assert.Equal(t, 1, sessions.calls)

	// A ready row is served as is.
	_, err = svc.GetStatistics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sessions.calls)

	// A stale row forces a recompute before serving.
	require.NoError(t, svc.MarkStale(ctx, 1))
	stats, err = svc.GetStatistics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatisticsStateReady, stats.State)
	assert.Equal(t, 2, sessions.calls)
	assert.Equal(t, domain.StatisticsStateReady, statsRepo.stored[1].State)
}
