package store

import (
	"context"
	"time"

	"github.com/clubroom/apiserver/types"
	"github.com/jmoiron/sqlx"
)

// ClubRepository handles persistence for clubs.
type ClubRepository struct {
	db *sqlx.DB
}

func NewClubRepository(db *sqlx.DB) *ClubRepository {
	return &ClubRepository{db: db}
}

const clubSelect = `
	SELECT c.id, c.name, c.description, c.owner_id, u.name AS owner_name,
	       (SELECT COUNT(1) FROM club_members m WHERE m.club_id = c.id) AS member_count,
	       (SELECT COUNT(1) FROM posts p WHERE p.club_id = c.id) AS post_count,
	       c.logo_key, c.logo_content_type, c.created_at, c.updated_at
	FROM clubs c
	JOIN users u ON u.id = c.owner_id`

func (r *ClubRepository) List(ctx context.Context, offset, limit int) ([]types.Club, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM clubs`); err != nil {
		return nil, 0, err
	}

	clubs := make([]types.Club, 0, limit)
	const query = clubSelect + `
		ORDER BY c.id
		OFFSET $1 LIMIT $2`
	if err := r.db.SelectContext(ctx, &clubs, query, offset, limit); err != nil {
		return nil, 0, err
	}
	return clubs, total, nil
}

func (r *ClubRepository) Get(ctx context.Context, id int) (types.Club, error) {
	const query = clubSelect + ` WHERE c.id = $1`
	var club types.Club
	if err := r.db.GetContext(ctx, &club, query, id); err != nil {
		return types.Club{}, classify(err)
	}
	return club, nil
}

// CreateWithOwner inserts the club and links its owner as member and admin
// in a single transaction.
func (r *ClubRepository) CreateWithOwner(ctx context.Context, club types.Club) (types.Club, error) {
	now := time.Now()
	club.CreatedAt = now
	club.UpdatedAt = now

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insertClub = `
			INSERT INTO clubs (name, description, owner_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`
		if err := tx.QueryRowxContext(
			ctx,
			insertClub,
			club.Name,
			club.Description,
			club.OwnerID,
			club.CreatedAt,
			club.UpdatedAt,
		).Scan(&club.ID); err != nil {
			return classify(err)
		}
		return linkOwner(ctx, tx, club.ID, club.OwnerID, now)
	})
	if err != nil {
		return types.Club{}, err
	}
	return r.Get(ctx, club.ID)
}

// Update writes name, description and owner. A new owner is linked as
// member and admin in the same transaction.
func (r *ClubRepository) Update(ctx context.Context, club types.Club) (types.Club, error) {
	now := time.Now()

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `
			UPDATE clubs
			SET name = $1,
				description = $2,
				owner_id = $3,
				updated_at = $4
			WHERE id = $5`
		result, err := tx.ExecContext(ctx, query, club.Name, club.Description, club.OwnerID, now, club.ID)
		if err != nil {
			return classify(err)
		}
		if err := expectAffected(result); err != nil {
			return err
		}
		return linkOwner(ctx, tx, club.ID, club.OwnerID, now)
	})
	if err != nil {
		return types.Club{}, err
	}
	return r.Get(ctx, club.ID)
}

func (r *ClubRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clubs WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	return expectAffected(result)
}

// SetLogo records the logo object key; nil values clear it.
func (r *ClubRepository) SetLogo(ctx context.Context, id int, key, contentType *string) error {
	const query = `
		UPDATE clubs
		SET logo_key = $1,
			logo_content_type = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, key, contentType, time.Now(), id)
	if err != nil {
		return classify(err)
	}
	return expectAffected(result)
}

func linkOwner(ctx context.Context, tx *sqlx.Tx, clubID, ownerID int, at time.Time) error {
	const member = `
		INSERT INTO club_members (club_id, user_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (club_id, user_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, member, clubID, ownerID, at); err != nil {
		return classify(err)
	}
	const admin = `
		INSERT INTO club_admins (club_id, user_id, granted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (club_id, user_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, admin, clubID, ownerID, at); err != nil {
		return classify(err)
	}
	return nil
}
