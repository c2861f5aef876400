package repository

import (
	"context"
	"fmt"

	"github.com/raceline/karting-api/internal/domain"
	"github.com/raceline/karting-api/internal/repository/dao"
)

var (
	ErrSquadronNotFound         = dao.ErrSquadronNotFound
	ErrSquadronNameExists       = dao.ErrSquadronNameExists
	ErrSquadronInactive         = dao.ErrSquadronInactive
	ErrSquadronFull             = dao.ErrSquadronFull
	ErrAlreadyInSquadron        = dao.ErrAlreadyInSquadron
	ErrNotMember                = dao.ErrNotMember
	ErrNotCaptain               = dao.ErrNotCaptain
	ErrCaptainMustTransferFirst = dao.ErrCaptainMustTransferFirst
	ErrInviteNotFound           = dao.ErrInviteNotFound
	ErrInviteNotPending         = dao.ErrInviteNotPending
	ErrDuplicateInvite          = dao.ErrDuplicateInvite
)

type SquadronDAO interface {
	Insert(ctx context.Context, squadron dao.Squadron, captainID uint) (dao.Squadron, error)
	FindByID(ctx context.Context, id uint) (dao.Squadron, error)
	FindMembers(ctx context.Context, squadronID uint) ([]dao.MemberRow, error)
	FindByMemberID(ctx context.Context, userID uint) (dao.Squadron, error)
	AddMember(ctx context.Context, squadronID, userID uint) error
	RemoveMember(ctx context.Context, squadronID, userID, removedBy uint) error
	TransferCaptaincy(ctx context.Context, squadronID, captainID, newCaptainID uint) error
	InsertInvite(ctx context.Context, invite dao.SquadronInvite) (dao.SquadronInvite, error)
	FindInvitesForUser(ctx context.Context, userID uint) ([]dao.SquadronInvite, error)
	AcceptInvite(ctx context.Context, inviteID, userID uint) (dao.SquadronInvite, error)
	DeclineInvite(ctx context.Context, inviteID, userID uint) (dao.SquadronInvite, error)
	AppendPoints(ctx context.Context, entry dao.SquadronPointsHistory) (dao.SquadronPointsHistory, error)
	SumPoints(ctx context.Context, squadronID uint) (int, error)
	FindPointsHistory(ctx context.Context, squadronID uint) ([]dao.SquadronPointsHistory, error)
	FindRankings(ctx context.Context) ([]dao.RankingRow, error)
}

type SquadronRepository struct {
	dao SquadronDAO
}

func NewSquadronRepository(dao SquadronDAO) *SquadronRepository {
	return &SquadronRepository{
		dao: dao,
	}
}

func (r *SquadronRepository) Create(ctx context.Context, name string, captainID uint) (domain.Squadron, error) {
	created, err := r.dao.Insert(ctx, dao.Squadron{Name: name}, captainID)
	if err != nil {
		return domain.Squadron{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.FindByID(ctx, created.ID)
}

func (r *SquadronRepository) FindByID(ctx context.Context, id uint) (domain.Squadron, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Squadron{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	members, err := r.dao.FindMembers(ctx, id)
	if err != nil {
		return domain.Squadron{}, fmt.Errorf("r.dao.FindMembers -> %w", err)
	}

	return r.daoToDomain(found, members), nil
}

func (r *SquadronRepository) FindByMemberID(ctx context.Context, userID uint) (domain.Squadron, error) {
	found, err := r.dao.FindByMemberID(ctx, userID)
	if err != nil {
		return domain.Squadron{}, fmt.Errorf("r.dao.FindByMemberID -> %w", err)
	}

	return r.FindByID(ctx, found.ID)
}

func (r *SquadronRepository) AddMember(ctx context.Context, squadronID, userID uint) error {
	if err := r.dao.AddMember(ctx, squadronID, userID); err != nil {
		return fmt.Errorf("r.dao.AddMember -> %w", err)
	}

	return nil
}

func (r *SquadronRepository) RemoveMember(ctx context.Context, squadronID, userID, removedBy uint) error {
	if err := r.dao.RemoveMember(ctx, squadronID, userID, removedBy); err != nil {
		return fmt.Errorf("r.dao.RemoveMember -> %w", err)
	}

	return nil
}

func (r *SquadronRepository) TransferCaptaincy(ctx context.Context, squadronID, captainID, newCaptainID uint) error {
	if err := r.dao.TransferCaptaincy(ctx, squadronID, captainID, newCaptainID); err != nil {
		return fmt.Errorf("r.dao.TransferCaptaincy -> %w", err)
	}

	return nil
}

func (r *SquadronRepository) CreateInvite(ctx context.Context, squadronID, inviterID, inviteeID uint) (domain.SquadronInvite, error) {
	created, err := r.dao.InsertInvite(ctx, dao.SquadronInvite{
		SquadronID: squadronID,
		InviterID:  inviterID,
		InviteeID:  inviteeID,
	})
	if err != nil {
		return domain.SquadronInvite{}, fmt.Errorf("r.dao.InsertInvite -> %w", err)
	}

	return r.inviteDAOToDomain(created), nil
}

func (r *SquadronRepository) FindInvitesForUser(ctx context.Context, userID uint) ([]domain.SquadronInvite, error) {
	found, err := r.dao.FindInvitesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindInvitesForUser -> %w", err)
	}

	invites := make([]domain.SquadronInvite, 0, len(found))
	for _, invite := range found {
		invites = append(invites, r.inviteDAOToDomain(invite))
	}

	return invites, nil
}

func (r *SquadronRepository) AcceptInvite(ctx context.Context, inviteID, userID uint) (domain.SquadronInvite, error) {
	accepted, err := r.dao.AcceptInvite(ctx, inviteID, userID)
	if err != nil {
		return domain.SquadronInvite{}, fmt.Errorf("r.dao.AcceptInvite -> %w", err)
	}

	return r.inviteDAOToDomain(accepted), nil
}

func (r *SquadronRepository) DeclineInvite(ctx context.Context, inviteID, userID uint) (domain.SquadronInvite, error) {
	declined, err := r.dao.DeclineInvite(ctx, inviteID, userID)
	if err != nil {
		return domain.SquadronInvite{}, fmt.Errorf("r.dao.DeclineInvite -> %w", err)
	}

	return r.inviteDAOToDomain(declined), nil
}

func (r *SquadronRepository) AppendPoints(ctx context.Context, entry domain.SquadronPointsEntry) (domain.SquadronPointsEntry, error) {
	daoEntry := dao.SquadronPointsHistory{
		SquadronID:   entry.SquadronID,
		PointsChange: entry.PointsChange,
		ChangeType:   entry.ChangeType,
		Reason:       entry.Reason,
		ModifiedBy:   entry.ModifiedBy,
	}
	if entry.RaceEventID != "" {
		eventID := entry.RaceEventID
		daoEntry.RaceEventID = &eventID
	}

	created, err := r.dao.AppendPoints(ctx, daoEntry)
	if err != nil {
		return domain.SquadronPointsEntry{}, fmt.Errorf("r.dao.AppendPoints -> %w", err)
	}

	return r.entryDAOToDomain(created), nil
}

func (r *SquadronRepository) SumPoints(ctx context.Context, squadronID uint) (int, error) {
	total, err := r.dao.SumPoints(ctx, squadronID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.SumPoints -> %w", err)
	}

	return total, nil
}

func (r *SquadronRepository) FindPointsHistory(ctx context.Context, squadronID uint) ([]domain.SquadronPointsEntry, error) {
	found, err := r.dao.FindPointsHistory(ctx, squadronID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindPointsHistory -> %w", err)
	}

	entries := make([]domain.SquadronPointsEntry, 0, len(found))
	for _, entry := range found {
		entries = append(entries, r.entryDAOToDomain(entry))
	}

	return entries, nil
}

func (r *SquadronRepository) FindRankings(ctx context.Context) ([]domain.SquadronRanking, error) {
	rows, err := r.dao.FindRankings(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindRankings -> %w", err)
	}

	rankings := make([]domain.SquadronRanking, 0, len(rows))
	for i, row := range rows {
		rankings = append(rankings, domain.SquadronRanking{
			Rank:              i + 1,
			SquadronID:        row.SquadronID,
			Name:              row.Name,
			TotalPoints:       row.TotalPoints,
			FairRacingAverage: row.FairRacingAverage,
		})
	}

	return rankings, nil
}

func (r *SquadronRepository) daoToDomain(s dao.Squadron, members []dao.MemberRow) domain.Squadron {
	squadron := domain.Squadron{
		ID:                s.ID,
		Name:              s.Name,
		CaptainID:         s.CaptainID,
		IsActive:          s.IsActive,
		FairRacingAverage: s.FairRacingAverage,
		TotalPoints:       s.TotalPoints,
		CreatedAt:         s.CreatedAt,
		Members:           make([]domain.SquadronMember, 0, len(members)),
	}

	for _, m := range members {
		squadron.Members = append(squadron.Members, domain.SquadronMember{
			UserID:   m.UserID,
			Name:     m.Name,
			JoinedAt: m.JoinedAt,
		})
	}

	return squadron
}

func (r *SquadronRepository) entryDAOToDomain(entry dao.SquadronPointsHistory) domain.SquadronPointsEntry {
	result := domain.SquadronPointsEntry{
		ID:            entry.ID,
		SquadronID:    entry.SquadronID,
		PointsChange:  entry.PointsChange,
		PreviousTotal: entry.PreviousTotal,
		NewTotal:      entry.NewTotal,
		ChangeType:    entry.ChangeType,
		Reason:        entry.Reason,
		ModifiedBy:    entry.ModifiedBy,
		CreatedAt:     entry.CreatedAt,
	}
	if entry.RaceEventID != nil {
		result.RaceEventID = *entry.RaceEventID
	}

	return result
}

func (r *SquadronRepository) inviteDAOToDomain(invite dao.SquadronInvite) domain.SquadronInvite {
	return domain.SquadronInvite{
		ID:         invite.ID,
		SquadronID: invite.SquadronID,
		InviterID:  invite.InviterID,
		InviteeID:  invite.InviteeID,
		Status:     invite.Status,
		CreatedAt:  invite.CreatedAt,
	}
}
