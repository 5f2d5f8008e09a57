package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/clubroom/apiserver/internal/apperr"
	"github.com/clubroom/apiserver/internal/store"
	"github.com/clubroom/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.User, int, error)
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// NewUser is an account created without credentials.
type NewUser struct {
	Email       string
	Name        string
	Description *string
}

// Signup is a self-registered account.
type Signup struct {
	Email       string
	Name        string
	Password    string
	Description *string
}

// UserUpdate changes a user's profile. Password is the current password
// and must match before anything is written.
type UserUpdate struct {
	Name        *string
	Description *string
	Password    string
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo     UserRepository
	hashCost int
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo, hashCost: bcrypt.DefaultCost}
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	users, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound("User not found")
		}
		return types.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

// Create stores an account without a password hash.
func (s *UserService) Create(ctx context.Context, in NewUser) (types.User, error) {
	return s.create(ctx, types.User{
		Email:       in.Email,
		Name:        in.Name,
		Description: in.Description,
	})
}

// Signup stores an account with a bcrypt hash of its password.
func (s *UserService) Signup(ctx context.Context, in Signup) (types.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.create(ctx, types.User{
		Email:        in.Email,
		Name:         in.Name,
		Description:  in.Description,
		PasswordHash: string(hashed),
	})
}

func (s *UserService) create(ctx context.Context, user types.User) (types.User, error) {
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, apperr.Conflict("Email is already being used", err)
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// Authenticate returns the user owning email when password matches.
// An unknown email and a wrong password fail with different kinds.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound("User not found")
		}
		return types.User{}, fmt.Errorf("get user by email: %w", err)
	}
	if !checkPassword(user.PasswordHash, password) {
		return types.User{}, apperr.InvalidCredentials("Incorrect email or password")
	}
	return user, nil
}

// Update applies a partial profile update on behalf of actorID.
func (s *UserService) Update(ctx context.Context, actorID, userID int, in UserUpdate) (types.User, error) {
	if actorID != userID {
		return types.User{}, apperr.Forbidden("Only same user can make this request")
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, err
	}
	if !checkPassword(user.PasswordHash, in.Password) {
		return types.User{}, apperr.Unauthenticated("Incorrect password")
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Description != nil {
		user.Description = in.Description
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound("User not found")
		}
		return types.User{}, fmt.Errorf("update user %d: %w", userID, err)
	}
	return updated, nil
}

// checkPassword never matches an account created without credentials.
func checkPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
