package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clubroom/apiserver/internal/apperr"
	"github.com/clubroom/apiserver/internal/mq"
	"github.com/clubroom/apiserver/internal/store"
	"github.com/clubroom/apiserver/types"
	"go.uber.org/zap"
)

// ClubRepository defines persistence operations for clubs.
type ClubRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.Club, int, error)
	Get(ctx context.Context, id int) (types.Club, error)
	CreateWithOwner(ctx context.Context, club types.Club) (types.Club, error)
	Update(ctx context.Context, club types.Club) (types.Club, error)
	Delete(ctx context.Context, id int) error
	SetLogo(ctx context.Context, id int, key, contentType *string) error
}

type NewClub struct {
	Name        string
	Description string
}

// ClubUpdate is a partial club update. A non-nil OwnerID transfers
// ownership.
type ClubUpdate struct {
	Name        *string
	Description *string
	OwnerID     *int
}

// ClubService encapsulates club and membership use-cases.
type ClubService struct {
	clubs   ClubRepository
	members MembershipRepository
	notifier
}

func NewClubService(clubs ClubRepository, members MembershipRepository, publisher ActivityPublisher, logger *zap.Logger) *ClubService {
	return &ClubService{
		clubs:    clubs,
		members:  members,
		notifier: newNotifier(publisher, logger),
	}
}

func (s *ClubService) List(ctx context.Context, offset, limit int) ([]types.Club, int, error) {
	clubs, total, err := s.clubs.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list clubs: %w", err)
	}
	return clubs, total, nil
}

func (s *ClubService) Get(ctx context.Context, id int) (types.Club, error) {
	club, err := s.clubs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Club{}, apperr.NotFound("Club not found")
		}
		return types.Club{}, fmt.Errorf("get club %d: %w", id, err)
	}
	return club, nil
}

// Create stores a club owned by ownerID, who also becomes its first
// member and admin.
func (s *ClubService) Create(ctx context.Context, ownerID int, in NewClub) (types.Club, error) {
	club, err := s.clubs.CreateWithOwner(ctx, types.Club{
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     ownerID,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidReference) {
			return types.Club{}, apperr.Conflict("Invalid owner ID", err)
		}
		return types.Club{}, fmt.Errorf("create club: %w", err)
	}

	s.notify(ctx, mq.Activity{
		Kind:       mq.ActivityClubCreated,
		ClubID:     club.ID,
		ActorID:    ownerID,
		SubjectID:  club.ID,
		OccurredAt: club.CreatedAt,
	})
	return club, nil
}

func (s *ClubService) Update(ctx context.Context, id int, in ClubUpdate) (types.Club, error) {
	club, err := s.Get(ctx, id)
	if err != nil {
		return types.Club{}, err
	}
	if in.Name != nil {
		club.Name = *in.Name
	}
	if in.Description != nil {
		club.Description = *in.Description
	}
	if in.OwnerID != nil {
		club.OwnerID = *in.OwnerID
	}

	updated, err := s.clubs.Update(ctx, club)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidReference):
			return types.Club{}, apperr.Conflict("Invalid owner ID", err)
		case errors.Is(err, store.ErrNotFound):
			return types.Club{}, apperr.NotFound("Club not found")
		}
		return types.Club{}, fmt.Errorf("update club %d: %w", id, err)
	}
	return updated, nil
}

// Delete removes the club and returns it as it was before deletion.
func (s *ClubService) Delete(ctx context.Context, id int) (types.Club, error) {
	club, err := s.Get(ctx, id)
	if err != nil {
		return types.Club{}, err
	}
	if err := s.clubs.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Club{}, apperr.NotFound("Club not found")
		}
		return types.Club{}, fmt.Errorf("delete club %d: %w", id, err)
	}
	return club, nil
}

func (s *ClubService) Members(ctx context.Context, clubID int) ([]types.ClubMember, error) {
	members, err := s.members.ListMembers(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("list members of club %d: %w", clubID, err)
	}
	return members, nil
}

func (s *ClubService) Admins(ctx context.Context, clubID int) ([]types.ClubMember, error) {
	admins, err := s.members.ListAdmins(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("list admins of club %d: %w", clubID, err)
	}
	return admins, nil
}

// AddMember makes userID a member of the club. Adding an existing member
// is a no-op.
func (s *ClubService) AddMember(ctx context.Context, actorID, clubID, userID int) (types.Club, error) {
	added, err := s.members.AddMember(ctx, clubID, userID)
	if err != nil {
		return types.Club{}, membershipError(err, clubID, userID)
	}
	if added {
		s.notify(ctx, mq.Activity{
			Kind:       mq.ActivityMemberAdded,
			ClubID:     clubID,
			ActorID:    actorID,
			SubjectID:  userID,
			OccurredAt: time.Now().UTC(),
		})
	}
	return s.Get(ctx, clubID)
}

// RemoveMember drops userID from the club along with any admin grant.
func (s *ClubService) RemoveMember(ctx context.Context, clubID, userID int) error {
	club, err := s.Get(ctx, clubID)
	if err != nil {
		return err
	}
	if club.OwnerID == userID {
		return apperr.Conflict("Club owner cannot be removed, transfer ownership first", nil)
	}
	if err := s.members.RemoveMember(ctx, clubID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Member not found")
		}
		return fmt.Errorf("remove member %d from club %d: %w", userID, clubID, err)
	}
	return nil
}

// AddAdmin grants the admin role to userID, adding them as a member first
// when needed.
func (s *ClubService) AddAdmin(ctx context.Context, actorID, clubID, userID int) (types.Club, error) {
	added, err := s.members.AddAdmin(ctx, clubID, userID)
	if err != nil {
		return types.Club{}, membershipError(err, clubID, userID)
	}
	if added {
		s.notify(ctx, mq.Activity{
			Kind:       mq.ActivityAdminAdded,
			ClubID:     clubID,
			ActorID:    actorID,
			SubjectID:  userID,
			OccurredAt: time.Now().UTC(),
		})
	}
	return s.Get(ctx, clubID)
}

func (s *ClubService) RemoveAdmin(ctx context.Context, clubID, userID int) error {
	club, err := s.Get(ctx, clubID)
	if err != nil {
		return err
	}
	if club.OwnerID == userID {
		return apperr.Conflict("Club owner cannot be removed from admins, transfer ownership first", nil)
	}
	if err := s.members.RemoveAdmin(ctx, clubID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Admin not found")
		}
		return fmt.Errorf("remove admin %d from club %d: %w", userID, clubID, err)
	}
	return nil
}

// membershipError maps a failed membership insert.
func membershipError(err error, clubID, userID int) error {
	if errors.Is(err, store.ErrInvalidReference) {
		return missingReference(err)
	}
	return fmt.Errorf("add user %d to club %d: %w", userID, clubID, err)
}

// missingReference names the row a foreign key violation points at.
func missingReference(err error) error {
	if strings.HasSuffix(store.ConstraintName(err), "_club_id_fkey") {
		return apperr.NotFound("Club not found")
	}
	return apperr.NotFound("User not found")
}
