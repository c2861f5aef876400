package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/raceline/karting-api/internal/domain"
	"github.com/raceline/karting-api/internal/repository"
)

var (
	ErrRequestNotFound         = repository.ErrRequestNotFound
	ErrRequestNotPending       = repository.ErrRequestNotPending
	ErrDuplicatePendingRequest = repository.ErrDuplicatePendingRequest
	ErrConflictingLink         = repository.ErrConflictingLink
	ErrSessionNotFound         = repository.ErrSessionNotFound
	ErrEmptyRejectReason       = errors.New("reject reason is required")
	ErrProofSessionMismatch    = errors.New("selected driver name does not appear in the selected session")
)

type LinkageRepository interface {
	Create(ctx context.Context, req domain.LinkageRequest) (domain.LinkageRequest, error)
	FindByID(ctx context.Context, id uint) (domain.LinkageRequest, error)
	FindByUserID(ctx context.Context, userID uint) ([]domain.LinkageRequest, error)
	FindPending(ctx context.Context) ([]domain.LinkageRequest, error)
	Cancel(ctx context.Context, id, userID uint) (domain.LinkageRequest, error)
	Approve(ctx context.Context, id, adminID uint) (domain.LinkageRequest, error)
	Reject(ctx context.Context, id, adminID uint, reason string) (domain.LinkageRequest, error)
}

type LinkageSessionRepository interface {
	FindBySessionID(ctx context.Context, sessionID string) (domain.RaceSession, error)
	HasDriverInSession(ctx context.Context, sessionID, driverName string) (bool, error)
}

// LinkageService runs the moderated workflow that turns a user's claim
// on a driver name into an authoritative karting link. Approval is the
// only write path to a link; everything else is bookkeeping around it.
type LinkageService struct {
	repo        LinkageRepository
	sessionRepo LinkageSessionRepository
	stats       *StatisticsService
}

func NewLinkageService(repo LinkageRepository, sessionRepo LinkageSessionRepository, stats *StatisticsService) *LinkageService {
	return &LinkageService{
		repo:        repo,
		sessionRepo: sessionRepo,
		stats:       stats,
	}
}

// Submit files a link claim, pointing at a session as proof. The claim
// fails if the user already has one pending, if the proof session does
// not exist, or if the claimed name never raced in it.
func (s *LinkageService) Submit(ctx context.Context, req domain.LinkageRequest) (domain.LinkageRequest, error) {
	req.SelectedDriverName = strings.TrimSpace(req.SelectedDriverName)
	if req.SelectedDriverName == "" {
		return domain.LinkageRequest{}, ErrEmptyDriverName
	}

	if _, err := s.sessionRepo.FindBySessionID(ctx, req.SelectedSessionID); err != nil {
		return domain.LinkageRequest{}, fmt.Errorf("s.sessionRepo.FindBySessionID -> %w", err)
	}

	appears, err := s.sessionRepo.HasDriverInSession(ctx, req.SelectedSessionID, req.SelectedDriverName)
	if err != nil {
		return domain.LinkageRequest{}, fmt.Errorf("s.sessionRepo.HasDriverInSession -> %w", err)
	}
	if !appears {
		return domain.LinkageRequest{}, ErrProofSessionMismatch
	}

	created, err := s.repo.Create(ctx, req)
	if err != nil {
		return domain.LinkageRequest{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *LinkageService) Cancel(ctx context.Context, id, userID uint) (domain.LinkageRequest, error) {
	cancelled, err := s.repo.Cancel(ctx, id, userID)
	if err != nil {
		return domain.LinkageRequest{}, fmt.Errorf("s.repo.Cancel -> %w", err)
	}

	return cancelled, nil
}

func (s *LinkageService) ListForUser(ctx context.Context, userID uint) ([]domain.LinkageRequest, error) {
	reqs, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByUserID -> %w", err)
	}

	return reqs, nil
}

func (s *LinkageService) ListPending(ctx context.Context) ([]domain.LinkageRequest, error) {
	reqs, err := s.repo.FindPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindPending -> %w", err)
	}

	return reqs, nil
}

// Approve confirms the link. The storage layer atomically re-checks the
// request is pending and that no other account holds the name; on
// success the account's statistics are recomputed before returning, so
// the next statistics read reflects the new link. If the recompute
// fails the stored row stays flagged stale and the next read retries it.
func (s *LinkageService) Approve(ctx context.Context, id, adminID uint) (domain.LinkageRequest, error) {
	approved, err := s.repo.Approve(ctx, id, adminID)
	if err != nil {
		return domain.LinkageRequest{}, fmt.Errorf("s.repo.Approve -> %w", err)
	}

	if _, err = s.stats.Recompute(ctx, approved.WebUserID); err != nil {
		zap.L().Warn("statistics recompute after approval failed, left stale",
			zap.Uint("user_id", approved.WebUserID),
			zap.Error(err))
	}

	return approved, nil
}

// Reject closes the request without touching the account. A reason is
// mandatory so the user learns why their claim was declined.
func (s *LinkageService) Reject(ctx context.Context, id, adminID uint, reason string) (domain.LinkageRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return domain.LinkageRequest{}, ErrEmptyRejectReason
	}

	rejected, err := s.repo.Reject(ctx, id, adminID, reason)
	if err != nil {
		return domain.LinkageRequest{}, fmt.Errorf("s.repo.Reject -> %w", err)
	}

	return rejected, nil
}
