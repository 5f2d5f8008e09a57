package services

import (
	"context"
	"fmt"

	"github.com/clubroom/apiserver/internal/apperr"
	"github.com/clubroom/apiserver/types"
)

// MembershipRepository defines persistence operations for club relations.
type MembershipRepository interface {
	Roles(ctx context.Context, clubID, userID int) (types.RoleSet, error)
	AddMember(ctx context.Context, clubID, userID int) (bool, error)
	RemoveMember(ctx context.Context, clubID, userID int) error
	AddAdmin(ctx context.Context, clubID, userID int) (bool, error)
	RemoveAdmin(ctx context.Context, clubID, userID int) error
	ListMembers(ctx context.Context, clubID int) ([]types.ClubMember, error)
	ListAdmins(ctx context.Context, clubID int) ([]types.ClubMember, error)
}

// AccessService resolves and checks a user's roles within a club.
type AccessService struct {
	repo MembershipRepository
}

func NewAccessService(repo MembershipRepository) *AccessService {
	return &AccessService{repo: repo}
}

// Roles returns every tier userID holds in clubID. The set is empty when
// the club does not exist.
func (s *AccessService) Roles(ctx context.Context, clubID, userID int) (types.RoleSet, error) {
	roles, err := s.repo.Roles(ctx, clubID, userID)
	if err != nil {
		return 0, fmt.Errorf("resolve roles for user %d in club %d: %w", userID, clubID, err)
	}
	return roles, nil
}

// Authorize admits userID when it holds any role in required and returns
// the roles held. A missing club is indistinguishable from a missing role.
func (s *AccessService) Authorize(ctx context.Context, required types.RoleSet, clubID, userID int) (types.RoleSet, error) {
	held, err := s.Roles(ctx, clubID, userID)
	if err != nil {
		return 0, err
	}
	if !held.Intersects(required) {
		return held, apperr.Forbidden(fmt.Sprintf("Club %s role required", required))
	}
	return held, nil
}
