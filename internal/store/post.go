package store

import (
	"context"
	"time"

	"github.com/clubroom/apiserver/types"
	"github.com/jmoiron/sqlx"
)

// PostRepository handles persistence for club posts.
type PostRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

const postSelect = `
	SELECT p.id, p.title, p.content, p.author_id, p.club_id,
	       u.name AS author_name, c.name AS club_name,
	       p.created_at, p.last_updated
	FROM posts p
	JOIN users u ON u.id = p.author_id
	JOIN clubs c ON c.id = p.club_id`

func (r *PostRepository) ListByClub(ctx context.Context, clubID int) ([]types.Post, error) {
	const query = postSelect + `
		WHERE p.club_id = $1
		ORDER BY p.created_at DESC, p.id DESC`
	posts := []types.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, clubID); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepository) Get(ctx context.Context, clubID, id int) (types.Post, error) {
	const query = postSelect + ` WHERE p.id = $1 AND p.club_id = $2`
	var post types.Post
	if err := r.db.GetContext(ctx, &post, query, id, clubID); err != nil {
		return types.Post{}, classify(err)
	}
	return post, nil
}

func (r *PostRepository) Create(ctx context.Context, post types.Post) (types.Post, error) {
	now := time.Now()
	post.CreatedAt = now
	post.LastUpdated = now

	const query = `
		INSERT INTO posts (title, content, author_id, club_id, created_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		post.Title,
		post.Content,
		post.AuthorID,
		post.ClubID,
		post.CreatedAt,
		post.LastUpdated,
	).Scan(&post.ID); err != nil {
		return types.Post{}, classify(err)
	}
	return r.Get(ctx, post.ClubID, post.ID)
}

func (r *PostRepository) Update(ctx context.Context, post types.Post) (types.Post, error) {
	const query = `
		UPDATE posts
		SET title = $1,
			content = $2,
			last_updated = $3
		WHERE id = $4 AND club_id = $5`
	result, err := r.db.ExecContext(ctx, query, post.Title, post.Content, time.Now(), post.ID, post.ClubID)
	if err != nil {
		return types.Post{}, classify(err)
	}
	if err := expectAffected(result); err != nil {
		return types.Post{}, err
	}
	return r.Get(ctx, post.ClubID, post.ID)
}

func (r *PostRepository) Delete(ctx context.Context, clubID, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND club_id = $2`, id, clubID)
	if err != nil {
		return classify(err)
	}
	return expectAffected(result)
}
