package service

import (
	"context"
	"errors"

	"github.com/dkovac/parcelo/internal/domain"
	"github.com/dkovac/parcelo/internal/repository"
	"github.com/google/uuid"
)

var ErrForbidden = errors.New("insufficient permissions")

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ListAll is restricted to admins.
func (s *UserService) ListAll(ctx context.Context, requesterID uuid.UUID) ([]domain.User, error) {
	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if requester == nil || !requester.IsAdmin() {
		return nil, ErrForbidden
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}
