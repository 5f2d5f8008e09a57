package store

import (
	"context"
	"time"

	"github.com/clubroom/apiserver/types"
	"github.com/jmoiron/sqlx"
)

// MembershipRepository handles club member and admin relations.
type MembershipRepository struct {
	db *sqlx.DB
}

func NewMembershipRepository(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Roles returns the tiers userID holds in clubID. Each tier is tested on its
// own so that holding one never depends on holding another. A missing club
// yields an empty set.
func (r *MembershipRepository) Roles(ctx context.Context, clubID, userID int) (types.RoleSet, error) {
	const query = `
		SELECT
			EXISTS (SELECT 1 FROM clubs WHERE id = $1 AND owner_id = $2) AS is_owner,
			EXISTS (SELECT 1 FROM club_admins WHERE club_id = $1 AND user_id = $2) AS is_admin,
			EXISTS (SELECT 1 FROM club_members WHERE club_id = $1 AND user_id = $2) AS is_member`
	var row struct {
		IsOwner  bool `db:"is_owner"`
		IsAdmin  bool `db:"is_admin"`
		IsMember bool `db:"is_member"`
	}
	if err := r.db.GetContext(ctx, &row, query, clubID, userID); err != nil {
		return 0, err
	}

	var roles types.RoleSet
	if row.IsMember {
		roles = roles.With(types.RoleMember)
	}
	if row.IsAdmin {
		roles = roles.With(types.RoleAdmin)
	}
	if row.IsOwner {
		roles = roles.With(types.RoleOwner)
	}
	return roles, nil
}

// AddMember links userID to clubID. It reports false when the user was
// already a member.
func (r *MembershipRepository) AddMember(ctx context.Context, clubID, userID int) (bool, error) {
	const query = `
		INSERT INTO club_members (club_id, user_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (club_id, user_id) DO NOTHING`
	result, err := r.db.ExecContext(ctx, query, clubID, userID, time.Now())
	if err != nil {
		return false, classify(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RemoveMember unlinks userID from clubID and revokes any admin grant in
// the same transaction.
func (r *MembershipRepository) RemoveMember(ctx context.Context, clubID, userID int) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM club_admins WHERE club_id = $1 AND user_id = $2`, clubID, userID); err != nil {
			return classify(err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM club_members WHERE club_id = $1 AND user_id = $2`, clubID, userID)
		if err != nil {
			return classify(err)
		}
		return expectAffected(result)
	})
}

// AddAdmin grants admin to userID, adding them as a member first if needed.
// It reports false when the user was already an admin.
func (r *MembershipRepository) AddAdmin(ctx context.Context, clubID, userID int) (bool, error) {
	var added bool
	now := time.Now()
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const member = `
			INSERT INTO club_members (club_id, user_id, joined_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (club_id, user_id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, member, clubID, userID, now); err != nil {
			return classify(err)
		}
		const admin = `
			INSERT INTO club_admins (club_id, user_id, granted_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (club_id, user_id) DO NOTHING`
		result, err := tx.ExecContext(ctx, admin, clubID, userID, now)
		if err != nil {
			return classify(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		added = affected > 0
		return nil
	})
	return added, err
}

func (r *MembershipRepository) RemoveAdmin(ctx context.Context, clubID, userID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM club_admins WHERE club_id = $1 AND user_id = $2`, clubID, userID)
	if err != nil {
		return classify(err)
	}
	return expectAffected(result)
}

func (r *MembershipRepository) ListMembers(ctx context.Context, clubID int) ([]types.ClubMember, error) {
	const query = `
		SELECT m.user_id, u.name, u.email,
		       (a.user_id IS NOT NULL) AS is_admin,
		       (c.owner_id = m.user_id) AS is_owner,
		       m.joined_at
		FROM club_members m
		JOIN users u ON u.id = m.user_id
		JOIN clubs c ON c.id = m.club_id
		LEFT JOIN club_admins a ON a.club_id = m.club_id AND a.user_id = m.user_id
		WHERE m.club_id = $1
		ORDER BY m.joined_at, m.user_id`
	members := []types.ClubMember{}
	if err := r.db.SelectContext(ctx, &members, query, clubID); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *MembershipRepository) ListAdmins(ctx context.Context, clubID int) ([]types.ClubMember, error) {
	const query = `
		SELECT a.user_id, u.name, u.email,
		       TRUE AS is_admin,
		       (c.owner_id = a.user_id) AS is_owner,
		       COALESCE(m.joined_at, a.granted_at) AS joined_at
		FROM club_admins a
		JOIN users u ON u.id = a.user_id
		JOIN clubs c ON c.id = a.club_id
		LEFT JOIN club_members m ON m.club_id = a.club_id AND m.user_id = a.user_id
		WHERE a.club_id = $1
		ORDER BY a.granted_at, a.user_id`
	admins := []types.ClubMember{}
	if err := r.db.SelectContext(ctx, &admins, query, clubID); err != nil {
		return nil, err
	}
	return admins, nil
}
