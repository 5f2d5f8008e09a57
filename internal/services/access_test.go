package services

import (
	"context"
	"testing"

	"github.com/clubroom/apiserver/internal/apperr"
	"github.com/clubroom/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeAllowsAnyHeldTier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signup(t, "owner@example.com", "Owner")
	admin := f.signup(t, "admin@example.com", "Admin")
	member := f.signup(t, "member@example.com", "Member")
	outsider := f.signup(t, "outsider@example.com", "Outsider")
	club := f.club(t, owner)

	_, err := f.clubs.AddMember(ctx, owner.ID, club.ID, member.ID)
	require.NoError(t, err)
	_, err = f.clubs.AddAdmin(ctx, owner.ID, club.ID, admin.ID)
	require.NoError(t, err)

	cases := []struct {
		name     string
		user     types.User
		required types.RoleSet
		allowed  bool
	}{
		{"member reads", member, types.AnyMember, true},
		{"member cannot manage", member, types.AdminOrOwner, false},
		{"admin manages", admin, types.AdminOrOwner, true},
		{"admin is not owner", admin, types.OwnerOnly, false},
		{"owner manages", owner, types.AdminOrOwner, true},
		{"owner owns", owner, types.OwnerOnly, true},
		{"outsider reads nothing", outsider, types.AnyMember, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.access.Authorize(ctx, tc.required, club.ID, tc.user.ID)
			if tc.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperr.Is(err, apperr.KindForbidden))
		})
	}
}

func TestAuthorizeUnknownClubDenies(t *testing.T) {
	f := newFixture(t)
	user := f.signup(t, "a@example.com", "A")

	held, err := f.access.Authorize(context.Background(), types.AnyMember, 999, user.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.True(t, held.Empty())
}

func TestRolesAreIndependentTiers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signup(t, "owner@example.com", "Owner")
	club := f.club(t, owner)

	roles, err := f.access.Roles(ctx, club.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewRoleSet(types.RoleMember, types.RoleAdmin, types.RoleOwner), roles)
}
