package repository

import (
	"context"
	"fmt"

	"github.com/raceline/karting-api/internal/domain"
	"github.com/raceline/karting-api/internal/repository/dao"
)

var (
	ErrRequestNotFound         = dao.ErrRequestNotFound
	ErrRequestNotPending       = dao.ErrRequestNotPending
	ErrDuplicatePendingRequest = dao.ErrDuplicatePendingRequest
	ErrConflictingLink         = dao.ErrConflictingLink
)

type LinkageDAO interface {
	Insert(ctx context.Context, req dao.LinkageRequest) (dao.LinkageRequest, error)
	FindByID(ctx context.Context, id uint) (dao.LinkageRequest, error)
	FindByUserID(ctx context.Context, userID uint) ([]dao.LinkageRequest, error)
	FindPending(ctx context.Context) ([]dao.LinkageRequest, error)
	Cancel(ctx context.Context, id, userID uint) (dao.LinkageRequest, error)
	Approve(ctx context.Context, id, adminID uint) (dao.LinkageRequest, error)
	Reject(ctx context.Context, id, adminID uint, reason string) (dao.LinkageRequest, error)
}

type LinkageRepository struct {
	dao LinkageDAO
}

func NewLinkageRepository(dao LinkageDAO) *LinkageRepository {
	return &LinkageRepository{
		dao: dao,
	}
}

func (r *LinkageRepository) Create(ctx context.Context, req domain.LinkageRequest) (domain.LinkageRequest, error) {
	created, err := r.dao.Insert(ctx, dao.LinkageRequest{
		WebUserID:          req.WebUserID,
		SearchedName:       req.SearchedName,
		SelectedDriverName: req.SelectedDriverName,
		SelectedSessionID:  req.SelectedSessionID,
	})
	if err != nil {
		return domain.LinkageRequest{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *LinkageRepository) FindByID(ctx context.Context, id uint) (domain.LinkageRequest, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.LinkageRequest{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *LinkageRepository) FindByUserID(ctx context.Context, userID uint) ([]domain.LinkageRequest, error) {
	found, err := r.dao.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByUserID -> %w", err)
	}

	reqs := make([]domain.LinkageRequest, 0, len(found))
	for _, req := range found {
		reqs = append(reqs, r.daoToDomain(req))
	}

	return reqs, nil
}

func (r *LinkageRepository) FindPending(ctx context.Context) ([]domain.LinkageRequest, error) {
	found, err := r.dao.FindPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindPending -> %w", err)
	}

	reqs := make([]domain.LinkageRequest, 0, len(found))
	for _, req := range found {
		reqs = append(reqs, r.daoToDomain(req))
	}

	return reqs, nil
}

func (r *LinkageRepository) Cancel(ctx context.Context, id, userID uint) (domain.LinkageRequest, error) {
	cancelled, err := r.dao.Cancel(ctx, id, userID)
	if err != nil {
		return domain.LinkageRequest{}, fmt.Errorf("r.dao.Cancel -> %w", err)
	}

	return r.daoToDomain(cancelled), nil
}

func (r *LinkageRepository) Approve(ctx context.Context, id, adminID uint) (domain.LinkageRequest, error) {
	approved, err := r.dao.Approve(ctx, id, adminID)
	if err != nil {
		return domain.LinkageRequest{}, fmt.Errorf("r.dao.Approve -> %w", err)
	}

	return r.daoToDomain(approved), nil
}

func (r *LinkageRepository) Reject(ctx context.Context, id, adminID uint, reason string) (domain.LinkageRequest, error) {
	rejected, err := r.dao.Reject(ctx, id, adminID, reason)
	if err != nil {
		return domain.LinkageRequest{}, fmt.Errorf("r.dao.Reject -> %w", err)
	}

	return r.daoToDomain(rejected), nil
}

func (r *LinkageRepository) daoToDomain(req dao.LinkageRequest) domain.LinkageRequest {
	return domain.LinkageRequest{
		ID:                 req.ID,
		WebUserID:          req.WebUserID,
		SearchedName:       req.SearchedName,
		SelectedDriverName: req.SelectedDriverName,
		SelectedSessionID:  req.SelectedSessionID,
		Status:             req.Status,
		RejectReason:       req.RejectReason,
		ReviewedBy:         req.ReviewedBy,
		ReviewedAt:         req.ReviewedAt,
		CreatedAt:          req.CreatedAt,
	}
}
