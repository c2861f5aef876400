package repository

import (
	"context"
	"fmt"

	"github.com/raceline/karting-api/internal/domain"
	"github.com/raceline/karting-api/internal/repository/dao"
)

var (
	ErrUserEmailExists = dao.ErrUserEmailExists
	ErrUserNotFound    = dao.ErrUserNotFound
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	FindByID(ctx context.Context, id uint) (dao.User, error)
	FindByEmail(ctx context.Context, email string) (dao.User, error)
	FindLinkedByDriverName(ctx context.Context, driverName string) ([]dao.User, error)
	FindAllLinked(ctx context.Context) ([]dao.User, error)
	UpdateFairRacingScore(ctx context.Context, id uint, score int) error
}

type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	created, err := r.dao.Insert(ctx, dao.User{
		Email:    user.Email,
		Password: user.Password,
		Name:     user.Name,
		Role:     user.Role,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindLinkedByDriverName(ctx context.Context, driverName string) ([]domain.User, error) {
	found, err := r.dao.FindLinkedByDriverName(ctx, driverName)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindLinkedByDriverName -> %w", err)
	}

	users := make([]domain.User, 0, len(found))
	for _, u := range found {
		users = append(users, r.daoToDomain(u))
	}

	return users, nil
}

func (r *UserRepository) FindAllLinked(ctx context.Context) ([]domain.User, error) {
	found, err := r.dao.FindAllLinked(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAllLinked -> %w", err)
	}

	users := make([]domain.User, 0, len(found))
	for _, u := range found {
		users = append(users, r.daoToDomain(u))
	}

	return users, nil
}

func (r *UserRepository) UpdateFairRacingScore(ctx context.Context, id uint, score int) error {
	if err := r.dao.UpdateFairRacingScore(ctx, id, score); err != nil {
		return fmt.Errorf("r.dao.UpdateFairRacingScore -> %w", err)
	}

	return nil
}

func (r *UserRepository) daoToDomain(u dao.User) domain.User {
	link := domain.KartingLink{
		Status:   u.LinkStatus,
		LinkedAt: u.LinkedAt,
	}
	if u.DriverName != nil {
		link.DriverName = *u.DriverName
	}
	if u.PreviousDriverName != nil {
		link.PreviousDriverName = *u.PreviousDriverName
	}

	return domain.User{
		ID:              u.ID,
		Email:           u.Email,
		Password:        u.Password,
		Name:            u.Name,
		Role:            u.Role,
		FairRacingScore: u.FairRacingScore,
		KartingLink:     link,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}
