package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/clubroom/apiserver/internal/apperr"
	"github.com/clubroom/apiserver/internal/mq"
	"github.com/clubroom/apiserver/internal/store"
	"github.com/clubroom/apiserver/types"
	"go.uber.org/zap"
)

// PostRepository defines persistence operations for club posts.
type PostRepository interface {
	ListByClub(ctx context.Context, clubID int) ([]types.Post, error)
	Get(ctx context.Context, clubID, id int) (types.Post, error)
	Create(ctx context.Context, post types.Post) (types.Post, error)
	Update(ctx context.Context, post types.Post) (types.Post, error)
	Delete(ctx context.Context, clubID, id int) error
}

type NewPost struct {
	Title   string
	Content string
}

type PostUpdate struct {
	Title   *string
	Content *string
}

// PostService encapsulates post use-cases. Club membership is checked by
// the caller; PostService enforces the per-post authorship rules.
type PostService struct {
	posts  PostRepository
	access *AccessService
	notifier
}

func NewPostService(posts PostRepository, access *AccessService, publisher ActivityPublisher, logger *zap.Logger) *PostService {
	return &PostService{
		posts:    posts,
		access:   access,
		notifier: newNotifier(publisher, logger),
	}
}

func (s *PostService) List(ctx context.Context, clubID int) ([]types.Post, error) {
	posts, err := s.posts.ListByClub(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("list posts of club %d: %w", clubID, err)
	}
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, clubID, id int) (types.Post, error) {
	post, err := s.posts.Get(ctx, clubID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Post{}, apperr.NotFound("Post not found")
		}
		return types.Post{}, fmt.Errorf("get post %d: %w", id, err)
	}
	return post, nil
}

func (s *PostService) Create(ctx context.Context, authorID, clubID int, in NewPost) (types.Post, error) {
	post, err := s.posts.Create(ctx, types.Post{
		Title:    in.Title,
		Content:  in.Content,
		AuthorID: authorID,
		ClubID:   clubID,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidReference) {
			return types.Post{}, missingReference(err)
		}
		return types.Post{}, fmt.Errorf("create post: %w", err)
	}

	s.notify(ctx, mq.Activity{
		Kind:       mq.ActivityPostPublished,
		ClubID:     clubID,
		ActorID:    authorID,
		SubjectID:  post.ID,
		OccurredAt: post.CreatedAt,
	})
	return post, nil
}

// Update edits a post. Only its author may do so.
func (s *PostService) Update(ctx context.Context, actorID, clubID, id int, in PostUpdate) (types.Post, error) {
	post, err := s.Get(ctx, clubID, id)
	if err != nil {
		return types.Post{}, err
	}
	if post.AuthorID != actorID {
		return types.Post{}, apperr.Forbidden("Only author can make this request")
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}

	updated, err := s.posts.Update(ctx, post)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Post{}, apperr.NotFound("Post not found")
		}
		return types.Post{}, fmt.Errorf("update post %d: %w", id, err)
	}
	return updated, nil
}

// Delete removes a post on behalf of its author or a club admin or owner.
func (s *PostService) Delete(ctx context.Context, actorID, clubID, id int) error {
	post, err := s.Get(ctx, clubID, id)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID {
		roles, err := s.access.Roles(ctx, clubID, actorID)
		if err != nil {
			return err
		}
		if !roles.Intersects(types.AdminOrOwner) {
			return apperr.Forbidden("Only author, admin or owner can delete this post")
		}
	}

	if err := s.posts.Delete(ctx, clubID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Post not found")
		}
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	return nil
}
