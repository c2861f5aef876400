package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raceline/karting-api/internal/domain"
	"github.com/raceline/karting-api/internal/repository"
)

type fakeLinkageRepo struct {
	created []domain.LinkageRequest
}

func (f *fakeLinkageRepo) Create(_ context.Context, req domain.LinkageRequest) (domain.LinkageRequest, error) {
	req.ID = uint(len(f.created) + 1)
	req.Status = domain.LinkageStatusPending
	f.created = append(f.created, req)

	return req, nil
}

func (f *fakeLinkageRepo) FindByID(_ context.Context, _ uint) (domain.LinkageRequest, error) {
	return domain.LinkageRequest{}, repository.ErrRequestNotFound
}

func (f *fakeLinkageRepo) FindByUserID(_ context.Context, _ uint) ([]domain.LinkageRequest, error) {
	return nil, nil
}

func (f *fakeLinkageRepo) FindPending(_ context.Context) ([]domain.LinkageRequest, error) {
	return nil, nil
}

func (f *fakeLinkageRepo) Cancel(_ context.Context, _, _ uint) (domain.LinkageRequest, error) {
	return domain.LinkageRequest{}, repository.ErrRequestNotFound
}

func (f *fakeLinkageRepo) Approve(_ context.Context, _, _ uint) (domain.LinkageRequest, error) {
	return domain.LinkageRequest{}, repository.ErrRequestNotFound
}

func (f *fakeLinkageRepo) Reject(_ context.Context, _, _ uint, _ string) (domain.LinkageRequest, error) {
	return domain.LinkageRequest{}, repository.ErrRequestNotFound
}

type fakeLinkageSessionRepo struct {
	sessions map[string][]string // sessionID -> driver names
}

func (f *fakeLinkageSessionRepo) FindBySessionID(_ context.Context, sessionID string) (domain.RaceSession, error) {
	if _, ok := f.sessions[sessionID]; !ok {
		return domain.RaceSession{}, repository.ErrSessionNotFound
	}

	return domain.RaceSession{SessionID: sessionID}, nil
}

func (f *fakeLinkageSessionRepo) HasDriverInSession(_ context.Context, sessionID, driverName string) (bool, error) {
	for _, name := range f.sessions[sessionID] {
		if name == driverName {
			return true, nil
		}
	}

	return false, nil
}

func newLinkageFixture(sessions map[string][]string) (*LinkageService, *fakeLinkageRepo) {
	repo := &fakeLinkageRepo{}
	stats, _, _ := newStatisticsFixture(map[uint]domain.User{}, nil)
	svc := NewLinkageService(repo, &fakeLinkageSessionRepo{sessions: sessions}, stats)

	return svc, repo
}

func TestLinkageService_Submit(t *testing.T) {
	svc, repo := newLinkageFixture(map[string][]string{"S-100": {"Diego R"}})

	created, err := svc.Submit(context.Background(), domain.LinkageRequest{
		WebUserID:          1,
		SearchedName:       "Diego",
		SelectedDriverName: "  Diego R  ",
		SelectedSessionID:  "S-100",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.LinkageStatusPending, created.Status)
	assert.Equal(t, "Diego R", created.SelectedDriverName)
	assert.Len(t, repo.created, 1)
}

func TestLinkageService_Submit_EmptyName(t *testing.T) {
	svc, _ := newLinkageFixture(map[string][]string{"S-100": {"Diego R"}})

	_, err := svc.Submit(context.Background(), domain.LinkageRequest{
		WebUserID:          1,
		SelectedDriverName: "   ",
		SelectedSessionID:  "S-100",
	})
	assert.ErrorIs(t, err, ErrEmptyDriverName)
}

func TestLinkageService_Submit_UnknownProofSession(t *testing.T) {
	svc, _ := newLinkageFixture(map[string][]string{"S-100": {"Diego R"}})

	_, err := svc.Submit(context.Background(), domain.LinkageRequest{
		WebUserID:          1,
		SelectedDriverName: "Diego R",
		SelectedSessionID:  "S-999",
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLinkageService_Submit_NameNotInProofSession(t *testing.T) {
	svc, _ := newLinkageFixture(map[string][]string{"S-100": {"Marta V"}})

	_, err := svc.Submit(context.Background(), domain.LinkageRequest{
		WebUserID:          1,
		SelectedDriverName: "Diego R",
		SelectedSessionID:  "S-100",
	})
	assert.ErrorIs(t, err, ErrProofSessionMismatch)
}

func TestLinkageService_Reject_RequiresReason(t *testing.T) {
	svc, _ := newLinkageFixture(nil)

	_, err := svc.Reject(context.Background(), 1, 2, "  ")
	assert.ErrorIs(t, err, ErrEmptyRejectReason)
}
