package service

import (
	"context"
	"fmt"

	"github.com/raceline/karting-api/internal/domain"
	"github.com/raceline/karting-api/internal/repository"
)

var ErrUserNotFound = repository.ErrUserNotFound

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	UpdateFairRacingScore(ctx context.Context, id uint, score int) error
}

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

// SetFairRacingScore records the behavioral rating maintained by the
// venue's marshals. The score feeds squadron fair-racing averages the
// next time membership changes.
func (s *UserService) SetFairRacingScore(ctx context.Context, id uint, score int) error {
	if err := s.repo.UpdateFairRacingScore(ctx, id, score); err != nil {
		return fmt.Errorf("s.repo.UpdateFairRacingScore -> %w", err)
	}

	return nil
}
