package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/raceline/karting-api/internal/domain"
	"github.com/raceline/karting-api/internal/repository"
)

var (
	ErrSquadronNotFound         = repository.ErrSquadronNotFound
	ErrSquadronNameExists       = repository.ErrSquadronNameExists
	ErrSquadronInactive         = repository.ErrSquadronInactive
	ErrSquadronFull             = repository.ErrSquadronFull
	ErrAlreadyInSquadron        = repository.ErrAlreadyInSquadron
	ErrNotMember                = repository.ErrNotMember
	ErrNotCaptain               = repository.ErrNotCaptain
	ErrCaptainMustTransferFirst = repository.ErrCaptainMustTransferFirst
	ErrInviteNotFound           = repository.ErrInviteNotFound
	ErrInviteNotPending         = repository.ErrInviteNotPending
	ErrDuplicateInvite          = repository.ErrDuplicateInvite
	ErrAccountNotLinked         = errors.New("account has no confirmed karting link")
	ErrInvalidPointsChange      = errors.New("points change must be a non-zero integer")
	ErrInvalidChangeType        = errors.New("unknown points change type")
)

type SquadronRepository interface {
	Create(ctx context.Context, name string, captainID uint) (domain.Squadron, error)
	FindByID(ctx context.Context, id uint) (domain.Squadron, error)
	FindByMemberID(ctx context.Context, userID uint) (domain.Squadron, error)
	AddMember(ctx context.Context, squadronID, userID uint) error
	RemoveMember(ctx context.Context, squadronID, userID, removedBy uint) error
	TransferCaptaincy(ctx context.Context, squadronID, captainID, newCaptainID uint) error
	CreateInvite(ctx context.Context, squadronID, inviterID, inviteeID uint) (domain.SquadronInvite, error)
	FindInvitesForUser(ctx context.Context, userID uint) ([]domain.SquadronInvite, error)
	AcceptInvite(ctx context.Context, inviteID, userID uint) (domain.SquadronInvite, error)
	DeclineInvite(ctx context.Context, inviteID, userID uint) (domain.SquadronInvite, error)
	AppendPoints(ctx context.Context, entry domain.SquadronPointsEntry) (domain.SquadronPointsEntry, error)
	SumPoints(ctx context.Context, squadronID uint) (int, error)
	FindPointsHistory(ctx context.Context, squadronID uint) ([]domain.SquadronPointsEntry, error)
	FindRankings(ctx context.Context) ([]domain.SquadronRanking, error)
}

type SquadronUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

var validChangeTypes = map[string]bool{
	domain.ChangeTypeRaceEvent:        true,
	domain.ChangeTypeManualAdjustment: true,
	domain.ChangeTypePenalty:          true,
	domain.ChangeTypeBonus:            true,
	domain.ChangeTypeRevert:           true,
}

// SquadronService guards team composition (capacity, single membership,
// captaincy) and owns the points ledger. A squadron's total is always
// the sum over its ledger entries; the stored column is display cache.
type SquadronService struct {
	repo     SquadronRepository
	userRepo SquadronUserRepository
}

func NewSquadronService(repo SquadronRepository, userRepo SquadronUserRepository) *SquadronService {
	return &SquadronService{
		repo:     repo,
		userRepo: userRepo,
	}
}

// requireLinked gates roster changes: squadrons are teams of linked
// accounts, so an account without a confirmed karting link cannot found
// or join one.
func (s *SquadronService) requireLinked(ctx context.Context, userID uint) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("s.userRepo.FindByID -> %w", err)
	}
	if !user.IsLinked() {
		return ErrAccountNotLinked
	}

	return nil
}

func (s *SquadronService) Create(ctx context.Context, name string, captainID uint) (domain.Squadron, error) {
	if err := s.requireLinked(ctx, captainID); err != nil {
		return domain.Squadron{}, err
	}

	squadron, err := s.repo.Create(ctx, name, captainID)
	if err != nil {
		return domain.Squadron{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return squadron, nil
}

func (s *SquadronService) Get(ctx context.Context, id uint) (domain.Squadron, error) {
	squadron, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Squadron{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return squadron, nil
}

func (s *SquadronService) GetForUser(ctx context.Context, userID uint) (domain.Squadron, error) {
	squadron, err := s.repo.FindByMemberID(ctx, userID)
	if err != nil {
		return domain.Squadron{}, fmt.Errorf("s.repo.FindByMemberID -> %w", err)
	}

	return squadron, nil
}

func (s *SquadronService) Join(ctx context.Context, squadronID, userID uint) error {
	if err := s.requireLinked(ctx, userID); err != nil {
		return err
	}

	if err := s.repo.AddMember(ctx, squadronID, userID); err != nil {
		return fmt.Errorf("s.repo.AddMember -> %w", err)
	}

	return nil
}

// Leave removes the caller from their squadron. A captain with other
// members must transfer captaincy first; the last member leaving
// deactivates the squadron instead of deleting it.
func (s *SquadronService) Leave(ctx context.Context, squadronID, userID uint) error {
	if err := s.repo.RemoveMember(ctx, squadronID, userID, userID); err != nil {
		return fmt.Errorf("s.repo.RemoveMember -> %w", err)
	}

	return nil
}

func (s *SquadronService) RemoveMember(ctx context.Context, squadronID, captainID, targetID uint) error {
	if err := s.repo.RemoveMember(ctx, squadronID, targetID, captainID); err != nil {
		return fmt.Errorf("s.repo.RemoveMember -> %w", err)
	}

	return nil
}

func (s *SquadronService) TransferCaptaincy(ctx context.Context, squadronID, captainID, newCaptainID uint) error {
	if err := s.repo.TransferCaptaincy(ctx, squadronID, captainID, newCaptainID); err != nil {
		return fmt.Errorf("s.repo.TransferCaptaincy -> %w", err)
	}

	return nil
}

func (s *SquadronService) Invite(ctx context.Context, squadronID, inviterID, inviteeID uint) (domain.SquadronInvite, error) {
	if err := s.requireLinked(ctx, inviteeID); err != nil {
		return domain.SquadronInvite{}, err
	}

	invite, err := s.repo.CreateInvite(ctx, squadronID, inviterID, inviteeID)
	if err != nil {
		return domain.SquadronInvite{}, fmt.Errorf("s.repo.CreateInvite -> %w", err)
	}

	return invite, nil
}

func (s *SquadronService) ListInvites(ctx context.Context, userID uint) ([]domain.SquadronInvite, error) {
	invites, err := s.repo.FindInvitesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindInvitesForUser -> %w", err)
	}

	return invites, nil
}

func (s *SquadronService) AcceptInvite(ctx context.Context, inviteID, userID uint) (domain.SquadronInvite, error) {
	invite, err := s.repo.AcceptInvite(ctx, inviteID, userID)
	if err != nil {
		return domain.SquadronInvite{}, fmt.Errorf("s.repo.AcceptInvite -> %w", err)
	}

	return invite, nil
}

func (s *SquadronService) DeclineInvite(ctx context.Context, inviteID, userID uint) (domain.SquadronInvite, error) {
	invite, err := s.repo.DeclineInvite(ctx, inviteID, userID)
	if err != nil {
		return domain.SquadronInvite{}, fmt.Errorf("s.repo.DeclineInvite -> %w", err)
	}

	return invite, nil
}

// ApplyDelta records one point change in the squadron's ledger and
// returns the new total. Corrections are posted as further entries
// (change type "revert"), never by editing history.
func (s *SquadronService) ApplyDelta(ctx context.Context, actorID uint, entry domain.SquadronPointsEntry) (domain.SquadronPointsEntry, error) {
	if entry.PointsChange == 0 {
		return domain.SquadronPointsEntry{}, ErrInvalidPointsChange
	}
	if !validChangeTypes[entry.ChangeType] {
		return domain.SquadronPointsEntry{}, ErrInvalidChangeType
	}

	entry.ModifiedBy = actorID
	created, err := s.repo.AppendPoints(ctx, entry)
	if err != nil {
		return domain.SquadronPointsEntry{}, fmt.Errorf("s.repo.AppendPoints -> %w", err)
	}

	return created, nil
}

// CurrentTotal sums the ledger; it never trusts the cached column.
func (s *SquadronService) CurrentTotal(ctx context.Context, squadronID uint) (int, error) {
	total, err := s.repo.SumPoints(ctx, squadronID)
	if err != nil {
		return 0, fmt.Errorf("s.repo.SumPoints -> %w", err)
	}

	return total, nil
}

func (s *SquadronService) PointsHistory(ctx context.Context, squadronID uint) ([]domain.SquadronPointsEntry, error) {
	entries, err := s.repo.FindPointsHistory(ctx, squadronID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindPointsHistory -> %w", err)
	}

	return entries, nil
}

func (s *SquadronService) Rankings(ctx context.Context) ([]domain.SquadronRanking, error) {
	rankings, err := s.repo.FindRankings(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindRankings -> %w", err)
	}

	return rankings, nil
}
