package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/clubroom/apiserver/internal/apperr"
	"github.com/clubroom/apiserver/internal/storage"
	"github.com/clubroom/apiserver/internal/store"
	"github.com/clubroom/apiserver/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxLogoBytes is the largest accepted logo upload.
const MaxLogoBytes = 2 << 20

var logoContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// ObjectStore is the subset of object storage used for logos.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Logo is an open club logo. Callers must close Body.
type Logo struct {
	Body        io.ReadCloser
	ContentType string
}

// LogoService stores club logos in object storage and records their keys
// on the club row.
type LogoService struct {
	clubs   ClubRepository
	objects ObjectStore
	logger  *zap.Logger
}

func NewLogoService(clubs ClubRepository, objects ObjectStore, logger *zap.Logger) *LogoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogoService{clubs: clubs, objects: objects, logger: logger}
}

// Upload replaces the logo of clubID with data. The previous object, if
// any, is deleted once the new key is recorded.
func (s *LogoService) Upload(ctx context.Context, clubID int, data []byte) (types.Club, error) {
	if len(data) == 0 {
		return types.Club{}, apperr.InvalidInput("Invalid logo", apperr.Issue{Field: "logo", Message: "Logo is required"})
	}
	if len(data) > MaxLogoBytes {
		return types.Club{}, apperr.InvalidInput("Invalid logo", apperr.Issue{Field: "logo", Message: "Max logo size is 2MB"})
	}
	contentType := http.DetectContentType(data)
	if !logoContentTypes[contentType] {
		return types.Club{}, apperr.InvalidInput("Invalid logo", apperr.Issue{Field: "logo", Message: "Logo must be a PNG, JPEG, GIF or WebP image"})
	}

	club, err := s.club(ctx, clubID)
	if err != nil {
		return types.Club{}, err
	}

	key := fmt.Sprintf("clubs/%d/logo-%s", clubID, uuid.NewString())
	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.Club{}, fmt.Errorf("upload logo of club %d: %w", clubID, err)
	}
	if err := s.clubs.SetLogo(ctx, clubID, &key, &contentType); err != nil {
		s.discard(ctx, key)
		return types.Club{}, fmt.Errorf("record logo of club %d: %w", clubID, err)
	}
	if club.HasLogo() {
		s.discard(ctx, *club.LogoKey)
	}

	return s.club(ctx, clubID)
}

// Open returns the logo of clubID.
func (s *LogoService) Open(ctx context.Context, clubID int) (Logo, error) {
	club, err := s.club(ctx, clubID)
	if err != nil {
		return Logo{}, err
	}
	if !club.HasLogo() {
		return Logo{}, apperr.NotFound("Club has no logo")
	}

	body, err := s.objects.Get(ctx, *club.LogoKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return Logo{}, apperr.NotFound("Club has no logo")
		}
		return Logo{}, fmt.Errorf("open logo of club %d: %w", clubID, err)
	}

	contentType := "application/octet-stream"
	if club.LogoContentType != nil {
		contentType = *club.LogoContentType
	}
	return Logo{Body: body, ContentType: contentType}, nil
}

// Remove clears the logo of clubID and deletes its object.
func (s *LogoService) Remove(ctx context.Context, clubID int) error {
	club, err := s.club(ctx, clubID)
	if err != nil {
		return err
	}
	if !club.HasLogo() {
		return apperr.NotFound("Club has no logo")
	}
	if err := s.clubs.SetLogo(ctx, clubID, nil, nil); err != nil {
		return fmt.Errorf("clear logo of club %d: %w", clubID, err)
	}
	s.discard(ctx, *club.LogoKey)
	return nil
}

// Purge deletes the logo object of a club that no longer exists.
func (s *LogoService) Purge(ctx context.Context, club types.Club) {
	if club.HasLogo() {
		s.discard(ctx, *club.LogoKey)
	}
}

func (s *LogoService) club(ctx context.Context, clubID int) (types.Club, error) {
	club, err := s.clubs.Get(ctx, clubID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Club{}, apperr.NotFound("Club not found")
		}
		return types.Club{}, fmt.Errorf("get club %d: %w", clubID, err)
	}
	return club, nil
}

// discard deletes an object that is no longer referenced. Failures leave an
// orphan behind and are only logged.
func (s *LogoService) discard(ctx context.Context, key string) {
	if err := s.objects.Delete(context.WithoutCancel(ctx), key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Warn("failed to delete logo object", zap.String("key", key), zap.Error(err))
	}
}
