package service

import (
	"context"
	"errors"
	"strings"

	"showcase/internal/models"
	"showcase/internal/repository"
	"showcase/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// CollaboratorsFromCommaSeparatedValues resolves a comma-separated list of
// usernames. Every name must belong to an existing user.
func (s *UserService) CollaboratorsFromCommaSeparatedValues(ctx context.Context, csv string) ([]models.User, error) {
	names := splitCommaSeparated(csv)
	if len(names) == 0 {
		return nil, nil
	}

	users, err := s.users.GetByUsernames(ctx, names)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]models.User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}

	ordered := make([]models.User, 0, len(names))
	var unknown []string
	for _, name := range names {
		u, ok := byName[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		ordered = append(ordered, u)
	}
	if len(unknown) > 0 {
		return nil, models.NewValidationError("Unknown collaborators: " + strings.Join(unknown, ", "))
	}
	return ordered, nil
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Normalize()
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewValidationError("Username or email is already taken")
		}
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

// Login checks the credentials. Unknown users and wrong passwords produce
// the same error.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, models.NewInternalError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}
